// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors
package request

import (
	"fmt"
	"io"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"

	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/naming"
)

// EnvPrefix prefixes every environment variable the plugin reads.
const EnvPrefix = "PROTOC_GEN_TSD"

const (
	modeGRPCNode = "grpc-node"
	modeGRPCJS   = "grpc-js"
)

// rawOptions are the options as written, before validation.  Environment
// variables provide the defaults, the plugin parameter overrides them.
type rawOptions struct {
	Mode        string `envconfig:"MODE" default:"grpc-node"`
	ImportStyle string `envconfig:"IMPORT_STYLE" default:"root"`
	Reserved    string `envconfig:"RESERVED" default:"prefix"`
	Comments    bool   `envconfig:"COMMENTS"`
	Parallel    bool   `envconfig:"PARALLEL"`
}

// Options are the validated plugin options.
type Options struct {
	// GRPCJS targets @grpc/grpc-js instead of grpc.
	GRPCJS      bool
	ImportStyle naming.ImportStyle
	Reserved    naming.ReservedPolicy
	Comments    bool
	Parallel    bool
}

// ParseOptions parses a plugin parameter of the form `key=value,flag,...`
// (e.g. the `mode=grpc-js,comments` in `--tsd_out=mode=grpc-js,comments:out`).
// Keys may use dashes or underscores.
func ParseOptions(param string) (Options, error) {
	var raw rawOptions
	if err := envconfig.Process(EnvPrefix, &raw); err != nil {
		return Options{}, fmt.Errorf("unable to read options from the environment: %w", err)
	}

	var grpcJS bool
	flags := pflag.NewFlagSet("parameter", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	flags.StringVar(&raw.Mode, "mode", raw.Mode, "gRPC runtime for service declarations (grpc-node or grpc-js)")
	flags.BoolVar(&grpcJS, "grpc-js", false, "shorthand for mode=grpc-js")
	flags.StringVar(&raw.ImportStyle, "import-style", raw.ImportStyle, "how imports between generated files are spelled (root or relative)")
	flags.StringVar(&raw.Reserved, "reserved", raw.Reserved, "how reserved words are spelled as object keys (prefix or suffix)")
	flags.BoolVar(&raw.Comments, "comments", raw.Comments, "copy schema comments into the declarations")
	flags.BoolVar(&raw.Parallel, "parallel", raw.Parallel, "format files concurrently")

	if err := flags.Parse(splitParameter(param)); err != nil {
		return Options{}, err
	}
	if grpcJS {
		raw.Mode = modeGRPCJS
	}

	return raw.validate()
}

// splitParameter turns `a=b,c` into `--a=b --c`.
func splitParameter(param string) []string {
	var args []string
	for _, part := range strings.Split(param, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		args = append(args, "--"+strings.TrimLeft(part, "-"))
	}
	return args
}

func (r rawOptions) validate() (Options, error) {
	opts := Options{
		Comments: r.Comments,
		Parallel: r.Parallel,
	}
	switch r.Mode {
	case modeGRPCNode, "grpc", "":
	case modeGRPCJS:
		opts.GRPCJS = true
	default:
		return Options{}, fmt.Errorf("unknown mode %q (expected %s or %s)", r.Mode, modeGRPCNode, modeGRPCJS)
	}

	style, err := naming.ParseImportStyle(r.ImportStyle)
	if err != nil {
		return Options{}, err
	}
	opts.ImportStyle = style

	policy, err := naming.ParseReservedPolicy(r.Reserved)
	if err != nil {
		return Options{}, err
	}
	opts.Reserved = policy
	return opts, nil
}

type logOptions struct {
	Verbose int `envconfig:"VERBOSE"`
}

// Verbosity is the log verbosity set in PROTOC_GEN_TSD_VERBOSE.  It's read
// before the request, so it can't come from the plugin parameter.
func Verbosity() (int, error) {
	var opts logOptions
	if err := envconfig.Process(EnvPrefix, &opts); err != nil {
		return 0, fmt.Errorf("unable to read %s_VERBOSE: %w", EnvPrefix, err)
	}
	return opts.Verbose, nil
}
