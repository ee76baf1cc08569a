// ddb provisions DynamoDB tables from declarative model schema files.
//
// # Installation
//
//	go install github.com/acksell/ddbmodel/dynamodb/cmd/ddb@latest
//
// # Commands
//
//	ddb plan      Print the CreateTable request each model compiles to
//	ddb create    Create the tables of models that do not exist yet
//	ddb describe  Print the normalized description of each model's table
//	ddb update    Add missing global indexes and apply capacity changes
//	ddb delete    Delete the tables of the selected models
//	ddb whoami    Print the AWS caller identity
//	ddb ui        Start the local model API
//
// # Quick Start
//
// Declare models in a models_dynamodb.yaml file:
//
//	models:
//	  - name: player
//	    hashKey: name
//	    rangeKey: age
//	    schema:
//	      name: string
//	      age: number
//
// Check the request, then create the table:
//
//	ddb plan
//	ddb create --wait 2m
//
// Try it without AWS:
//
//	ddb create --local
//	ddb ui --memory
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(1)
	}
}

// run executes one command and reports failures on stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return errors.New("missing command")
	}

	cfg, err := LoadConfig(workingDir())
	if err != nil {
		fmt.Fprintf(stderr, "ddb: %v\n", err)
		return err
	}
	e := env{cfg: cfg, stdout: stdout, stderr: stderr}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "plan":
		err = e.runPlan(ctx, rest)
	case "create":
		err = e.runCreate(ctx, rest)
	case "describe":
		err = e.runDescribe(ctx, rest)
	case "update":
		err = e.runUpdate(ctx, rest)
	case "delete":
		err = e.runDelete(ctx, rest)
	case "whoami":
		err = e.runWhoami(ctx, rest)
	case "ui", "serve":
		err = e.runUI(ctx, rest)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	case "version", "-v", "--version":
		fmt.Fprintf(stdout, "ddb version %s\n", version)
		return nil
	default:
		fmt.Fprintf(stderr, "ddb: unknown command %q\n\n", cmd)
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(stderr, "ddb %s: %v\n", cmd, err)
	}
	return err
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `ddb - DynamoDB table provisioning from model schemas

Usage:
  ddb <command> [flags]

Commands:
  plan      Print the CreateTable request each model compiles to
  create    Create the tables of models that do not exist yet
  describe  Print the normalized description of each model's table
  update    Add missing global indexes and apply capacity changes
  delete    Delete the tables of the selected models
  whoami    Print the AWS caller identity
  ui        Start the local model API

Examples:
  # Preview the requests for one model:
  ddb plan --model player

  # Create tables on AWS and wait until they are ACTIVE:
  ddb create --profile dev --wait 2m

  # Create tables in DynamoDB Local:
  ddb create --endpoint http://localhost:8000

  # Serve the model API against an in-memory control plane:
  ddb ui --memory

Configuration (optional):
  Create ddb.yaml for defaults:

    schema: ./models/*.yaml   # model schema files
    region: eu-west-1         # AWS region
    tablePrefix: dev-         # prefix for every table name
    dataDir: ./.ddb           # catalog directory for --local
    port: 3070                # ui server port

Run 'ddb <command> --help' for more information on a command.`)
}
