package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"github.com/acksell/ddbmodel/dynamodb/ddbiface"
	"github.com/acksell/ddbmodel/dynamodb/ddbstore"
	"github.com/acksell/ddbmodel/dynamodb/models"
	"github.com/acksell/ddbmodel/dynamodb/schema"
)

// localRegion is used with --endpoint when no region is configured;
// DynamoDB Local accepts any region.
const localRegion = "us-east-1"

// commonFlags are shared by every command that works with models.
type commonFlags struct {
	schema   string
	model    string
	endpoint string
	region   string
	profile  string
	dataDir  string
	prefix   string
	local    bool
	memory   bool
	unique   bool
	verbose  bool
	payPer   bool
	wait     time.Duration
}

func bindCommonFlags(fs *flag.FlagSet, cfg Config) *commonFlags {
	f := &commonFlags{}
	fs.StringVar(&f.schema, "schema", cfg.Schema, "glob pattern for model schema files (default: discover "+schemaFilename+")")
	fs.StringVar(&f.model, "model", "", "comma-separated models to act on (default: all)")
	fs.StringVar(&f.endpoint, "endpoint", cfg.Endpoint, "DynamoDB endpoint URL, e.g. http://localhost:8000")
	fs.StringVar(&f.region, "region", cfg.Region, "AWS region")
	fs.StringVar(&f.profile, "profile", cfg.Profile, "AWS shared config profile")
	fs.StringVar(&f.dataDir, "data-dir", cfg.DataDir, "catalog directory for --local")
	fs.StringVar(&f.prefix, "prefix", cfg.TablePrefix, "prefix for every table name")
	fs.BoolVar(&f.local, "local", false, "use the local BadgerDB control plane in --data-dir")
	fs.BoolVar(&f.memory, "memory", false, "use an in-memory control plane (discarded on exit)")
	fs.BoolVar(&f.unique, "unique", false, "append a random suffix to every table name")
	fs.BoolVar(&f.verbose, "verbose", false, "log debug output, including the store's")
	fs.BoolVar(&f.payPer, "pay-per-request", false, "provision tables in on-demand mode")
	fs.DurationVar(&f.wait, "wait", 0, "wait up to this long for tables to become ACTIVE (or deleted)")
	return f
}

func (f *commonFlags) logger(stderr io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

func (f *commonFlags) tableOptions() []models.TableOption {
	var opts []models.TableOption
	if f.payPer {
		opts = append(opts, models.WithPayPerRequest())
	}
	if f.wait > 0 {
		opts = append(opts, models.WithWait(f.wait))
	}
	return opts
}

// endpointLabel describes the control plane for humans.
func (f *commonFlags) endpointLabel() string {
	switch {
	case f.memory:
		return "in-memory"
	case f.local:
		return "local: " + f.dataDir
	case f.endpoint != "":
		return f.endpoint
	case f.region != "":
		return "aws: " + f.region
	}
	return "aws"
}

// awsConfig loads the shared AWS configuration. With an endpoint set, static
// credentials are used so DynamoDB Local works without an AWS account.
func (f *commonFlags) awsConfig(ctx context.Context) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if f.profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(f.profile))
	}
	region := f.region
	if f.endpoint != "" {
		if region == "" {
			region = localRegion
		}
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", "")))
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

// controlPlane opens the store or client the flags select. The returned
// function releases it.
func (f *commonFlags) controlPlane(ctx context.Context, logger *slog.Logger) (ddbiface.ControlPlane, func() error, error) {
	if f.memory || f.local {
		opts := ddbstore.StoreOptions{InMemory: f.memory}
		if f.local {
			opts.Path = f.dataDir
		}
		if f.verbose {
			opts.Logger = logger
		}
		store, err := ddbstore.New(opts)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}

	cfg, err := f.awsConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if f.endpoint != "" {
			o.BaseEndpoint = aws.String(f.endpoint)
		}
	})
	return client, func() error { return nil }, nil
}

// loadSchema reads the --schema files, or every discovered schema file below
// the working directory.
func (f *commonFlags) loadSchema() (schema.File, error) {
	if f.schema != "" {
		return schema.LoadGlob(f.schema)
	}
	wd, err := os.Getwd()
	if err != nil {
		return schema.File{}, err
	}
	paths, err := DiscoverSchemas(wd)
	if err != nil {
		return schema.File{}, fmt.Errorf("discover schemas: %w", err)
	}
	if len(paths) == 0 {
		return schema.File{}, fmt.Errorf("no %s found below %s; pass --schema", schemaFilename, wd)
	}
	return schema.LoadFiles(paths...)
}

// registry loads the schema into a registry bound to client.
func (f *commonFlags) registry(client ddbiface.ControlPlane, logger *slog.Logger) (*models.Registry, error) {
	file, err := f.loadSchema()
	if err != nil {
		return nil, err
	}

	prefix := f.prefix
	suffix := ""
	if f.unique {
		suffix = "-" + uuid.NewString()[:8]
		logger.Info("using unique table suffix", "suffix", suffix)
	}

	reg := models.NewRegistry(client,
		models.WithLogger(logger),
		models.WithTableName(func(name string) string { return prefix + name + suffix }),
	)
	if err := reg.Load(file); err != nil {
		return nil, err
	}
	return reg, nil
}

// selected returns the models named by --model, or all of them.
func (f *commonFlags) selected(reg *models.Registry) ([]*models.Model, error) {
	if f.model == "" {
		return reg.Models(), nil
	}
	var out []*models.Model
	for _, name := range strings.Split(f.model, ",") {
		name = strings.TrimSpace(name)
		m, ok := reg.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown model %q", name)
		}
		out = append(out, m)
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// workingDir returns the directory config lookup starts from.
func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return filepath.Clean(wd)
}
