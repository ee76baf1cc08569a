package main

import (
	"bufio"
	"bytes"
	"io/fs"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// schemaFilename is the name ddb looks for when no --schema pattern is
// given. Prefixed variants such as billing_models_dynamodb.yaml match too.
const schemaFilename = "models_dynamodb.yaml"

func isSchemaFile(name string) bool {
	return name == schemaFilename || strings.HasSuffix(name, "_"+schemaFilename)
}

// DiscoverSchemas finds every schema file below root and returns their
// absolute paths, sorted. Inside a git work tree it asks git, which honours
// .gitignore; otherwise it walks the directory tree.
func DiscoverSchemas(root string) ([]string, error) {
	files, err := discoverWithGitLsFiles(root)
	if err != nil || len(files) == 0 {
		files, err = discoverWithWalk(root)
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// discoverWithGitLsFiles lists tracked and untracked, non-ignored files.
func discoverWithGitLsFiles(root string) ([]string, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, err
	}

	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var files []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !isSchemaFile(filepath.Base(line)) {
			continue
		}
		files = append(files, absolute(filepath.Join(root, line)))
	}
	return files, scanner.Err()
}

// skipDirs are never searched by the walk.
var skipDirs = map[string]bool{
	".git":         true,
	".ddb":         true,
	"node_modules": true,
	"vendor":       true,
	"testdata":     true,
}

func discoverWithWalk(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if isSchemaFile(d.Name()) {
			files = append(files, absolute(path))
		}
		return nil
	})
	return files, err
}

func absolute(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
