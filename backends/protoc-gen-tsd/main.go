// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors

// protoc-gen-tsd is a protoc plugin emitting TypeScript declarations for the
// google-protobuf and grpc (or @grpc/grpc-js) JavaScript runtimes.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/arobotd/grpc-tools-node-protoc-ts/backends/common/request"
	"github.com/arobotd/grpc-tools-node-protoc-ts/backends/common/respond"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/generate"
)

// version is overridden at link time.
var version = "devel"

// noUsageError suppresses usage printing when it occurs (cobra can't skip
// usage for only some errors).
type noUsageError struct{ error }

func (e noUsageError) Unwrap() error {
	return e.error
}

// streams are the process's standard streams, swapped out in tests.
type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newRootCommand(fs afero.Fs, std streams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   respond.ProgramName,
		Short: "Generate TypeScript declarations from a protoc code generator request",
		Long: `Generate TypeScript declarations (*_pb.d.ts and *_grpc_pb.d.ts) from a
protoc code generator request read on stdin.  Normally run by protoc:

  protoc --plugin=protoc-gen-tsd --tsd_out=mode=grpc-js:out foo.proto

Options come from the plugin parameter, or from PROTOC_GEN_TSD_* environment
variables.  PROTOC_GEN_TSD_VERBOSE sets the log verbosity on stderr.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			log, err := newLogger(std.errOut)
			if err != nil {
				return noUsageError{err}
			}
			ctx := logr.NewContext(c.Context(), log)
			if err := generate.Run(ctx, std.in, std.out); err != nil {
				return noUsageError{err}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(std.in)
	cmd.SetOut(std.out)
	cmd.SetErr(std.errOut)

	cmd.AddCommand(newVersionCommand(), newInspectCommand(fs, std))
	return cmd
}

func newLogger(out io.Writer) (logr.Logger, error) {
	verbosity, err := request.Verbosity()
	if err != nil {
		return logr.Discard(), err
	}
	return respond.NewLogger(out, verbosity), nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the plugin version",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, _ []string) {
			fmt.Fprintf(c.OutOrStdout(), "%s %s\n", respond.ProgramName, version)
		},
	}
}

// inspected is the formatted form of one requested file.
type inspected struct {
	File string `json:"file"`
	generate.Models
}

func newInspectCommand(fs afero.Fs, std streams) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [request-file]",
		Short: "Print the declaration models for a saved code generator request as YAML",
		Long: `Print the declaration models for a code generator request as YAML, without
rendering them.  The request is read from the given file, or from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			log, err := newLogger(std.errOut)
			if err != nil {
				return noUsageError{err}
			}
			ctx := logr.NewContext(c.Context(), log)

			in := std.in
			if len(args) == 1 {
				file, err := fs.Open(args[0])
				if err != nil {
					return fmt.Errorf("unable to open request: %w", err)
				}
				defer file.Close()
				in = file
			}

			loader, err := request.NewLoader(in)
			if err != nil {
				return noUsageError{err}
			}
			opts, err := loader.Options()
			if err != nil {
				return noUsageError{err}
			}
			gen, err := generate.New(ctx, loader.Files(), generate.OptionsFrom(opts))
			if err != nil {
				return noUsageError{err}
			}

			var out []inspected
			for _, file := range loader.FilesToGenerate() {
				models, err := gen.Models(file)
				if err != nil {
					return noUsageError{fmt.Errorf("file %q: %w", file.Path, err)}
				}
				out = append(out, inspected{File: file.Path, Models: models})
			}

			asYAML, err := yaml.Marshal(out)
			if err != nil {
				return fmt.Errorf("unable to convert models to YAML: %w", err)
			}
			_, err = c.OutOrStdout().Write(asYAML)
			return err
		},
	}
}

// runCommand executes cmd and returns the exit status.  Usage and
// diagnostics only ever go to errOut: out carries the response.
func runCommand(cmd *cobra.Command, std streams) int {
	if err := cmd.Execute(); err != nil {
		if _, noUsage := err.(noUsageError); !noUsage {
			// print the usage unless we suppressed it
			cmd.SetOut(std.errOut)
			if err := cmd.Usage(); err != nil {
				panic(err)
			}
		}
		respond.Diagnose(std.errOut, err)
		return 1
	}
	return 0
}

func main() {
	std := streams{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	os.Exit(runCommand(newRootCommand(afero.NewOsFs(), std), std))
}
