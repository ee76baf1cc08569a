package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/acksell/ddbmodel/dynamodb/ddbui"
	"github.com/acksell/ddbmodel/dynamodb/models"
	"github.com/acksell/ddbmodel/dynamodb/table"
)

// env carries what every command needs besides its own flags.
type env struct {
	cfg    Config
	stdout io.Writer
	stderr io.Writer
}

type modelResult struct {
	Model   string             `json:"model"`
	Request any                `json:"request,omitempty"`
	Table   *table.Description `json:"table,omitempty"`
	Error   string             `json:"error,omitempty"`
}

func (e env) flagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "ddb %s - %s\n\nUsage:\n  ddb %s [flags]\n\nFlags:\n", name, usage, name)
		fs.PrintDefaults()
	}
	return fs
}

// runPlan prints the CreateTable request of every selected model without
// contacting DynamoDB.
func (e env) runPlan(ctx context.Context, args []string) error {
	fs := e.flagSet("plan", "Print the CreateTable request each model compiles to")
	f := bindCommonFlags(fs, e.cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg, err := f.registry(nil, f.logger(e.stderr))
	if err != nil {
		return err
	}
	selected, err := f.selected(reg)
	if err != nil {
		return err
	}

	out := make([]modelResult, 0, len(selected))
	for _, m := range selected {
		in, err := m.CreateTableInput(f.tableOptions()...)
		if err != nil {
			return err
		}
		out = append(out, modelResult{Model: m.Name(), Request: in})
	}
	return writeJSON(e.stdout, out)
}

// tableCommand runs op for every selected model against the configured
// control plane and prints the resulting descriptions.
func (e env) tableCommand(ctx context.Context, name, usage string, args []string,
	op func(context.Context, *models.Model, []models.TableOption) (*table.Description, error),
) error {
	fs := e.flagSet(name, usage)
	f := bindCommonFlags(fs, e.cfg)
	var all bool
	if name == "delete" {
		fs.BoolVar(&all, "all", false, "delete the tables of all models when --model is not set")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if name == "delete" && f.model == "" && !all {
		return errors.New("refusing to delete every table without --all; pass --model or --all")
	}

	logger := f.logger(e.stderr)
	client, closeFn, err := f.controlPlane(ctx, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	reg, err := f.registry(client, logger)
	if err != nil {
		return err
	}
	selected, err := f.selected(reg)
	if err != nil {
		return err
	}

	var failed error
	out := make([]modelResult, 0, len(selected))
	for _, m := range selected {
		res := modelResult{Model: m.Name()}
		desc, err := op(ctx, m, f.tableOptions())
		if err != nil {
			res.Error = err.Error()
			failed = errors.Join(failed, err)
		}
		res.Table = desc
		out = append(out, res)
	}
	if err := writeJSON(e.stdout, out); err != nil {
		return err
	}
	return failed
}

func (e env) runCreate(ctx context.Context, args []string) error {
	return e.tableCommand(ctx, "create", "Create the tables of models that do not exist yet", args,
		func(ctx context.Context, m *models.Model, opts []models.TableOption) (*table.Description, error) {
			desc, err := m.CreateTable(ctx, opts...)
			if models.IsTableExists(err) {
				desc, err = m.DescribeTable(ctx)
			}
			if err != nil {
				return nil, err
			}
			return &desc, nil
		})
}

func (e env) runDescribe(ctx context.Context, args []string) error {
	return e.tableCommand(ctx, "describe", "Print the normalized description of each model's table", args,
		func(ctx context.Context, m *models.Model, _ []models.TableOption) (*table.Description, error) {
			desc, err := m.DescribeTable(ctx)
			if err != nil {
				return nil, err
			}
			return &desc, nil
		})
}

func (e env) runUpdate(ctx context.Context, args []string) error {
	return e.tableCommand(ctx, "update", "Add missing global indexes and apply capacity changes", args,
		func(ctx context.Context, m *models.Model, opts []models.TableOption) (*table.Description, error) {
			desc, err := m.UpdateTable(ctx, opts...)
			if err != nil {
				return nil, err
			}
			return &desc, nil
		})
}

func (e env) runDelete(ctx context.Context, args []string) error {
	return e.tableCommand(ctx, "delete", "Delete the tables of the selected models", args,
		func(ctx context.Context, m *models.Model, opts []models.TableOption) (*table.Description, error) {
			return nil, m.DeleteTable(ctx, opts...)
		})
}

// runWhoami prints the AWS identity the other commands would act as.
func (e env) runWhoami(ctx context.Context, args []string) error {
	fs := e.flagSet("whoami", "Print the AWS caller identity")
	f := bindCommonFlags(fs, e.cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := f.awsConfig(ctx)
	if err != nil {
		return err
	}
	out, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("get caller identity: %w", err)
	}
	return writeJSON(e.stdout, map[string]string{
		"account": aws.ToString(out.Account),
		"arn":     aws.ToString(out.Arn),
		"userId":  aws.ToString(out.UserId),
		"region":  cfg.Region,
	})
}

// runUI serves the model API until interrupted.
func (e env) runUI(ctx context.Context, args []string) error {
	fs := e.flagSet("ui", "Start the local model API")
	f := bindCommonFlags(fs, e.cfg)
	port := fs.Int("port", e.cfg.Port, "HTTP port to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := f.logger(e.stderr)
	client, closeFn, err := f.controlPlane(ctx, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	reg, err := f.registry(client, logger)
	if err != nil {
		return err
	}

	server := ddbui.NewServer(ddbui.ServerConfig{
		Port:     *port,
		Endpoint: f.endpointLabel(),
	}, reg)
	return server.Run()
}
