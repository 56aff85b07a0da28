// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors

// Package generate drives a whole plugin run: decode the request, build the
// symbol table, format and render every requested file, and assemble the
// response.  Any error fails the whole run, and nothing is written.
package generate

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/arobotd/grpc-tools-node-protoc-ts/backends/common/request"
	"github.com/arobotd/grpc-tools-node-protoc-ts/backends/common/respond"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/exportmap"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/format"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/model"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/naming"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/render"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/schema"
)

// State is a step of a run.
type State int

const (
	Idle State = iota
	ParsingRequest
	BuildingSymbolTable
	FormattingMessages
	RenderingMessages
	FormattingServices
	RenderingServices
	AssemblingResponse
	Done
	Failed
)

var stateNames = [...]string{
	Idle:                "Idle",
	ParsingRequest:      "ParsingRequest",
	BuildingSymbolTable: "BuildingSymbolTable",
	FormattingMessages:  "FormattingMessages",
	RenderingMessages:   "RenderingMessages",
	FormattingServices:  "FormattingServices",
	RenderingServices:   "RenderingServices",
	AssemblingResponse:  "AssemblingResponse",
	Done:                "Done",
	Failed:              "Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Options configure a run.
type Options struct {
	Format      format.Options
	ImportStyle naming.ImportStyle
	// Parallel formats and renders files concurrently.  Output order is
	// unaffected.
	Parallel bool
}

// OptionsFrom converts parsed plugin options.
func OptionsFrom(opts request.Options) Options {
	return Options{
		Format: format.Options{
			GRPCJS:   opts.GRPCJS,
			Reserved: opts.Reserved,
			Comments: opts.Comments,
		},
		ImportStyle: opts.ImportStyle,
		Parallel:    opts.Parallel,
	}
}

// Generator holds the state of a single run.  The symbol table is built once
// in New and only read afterwards.
type Generator struct {
	table *exportmap.Table
	opts  Options
	log   logr.Logger
	state State
}

// New builds the symbol table over every file in the request.
func New(ctx context.Context, files []*schema.File, opts Options) (*Generator, error) {
	g := &Generator{
		opts: opts,
		log:  logr.FromContextOrDiscard(ctx),
	}
	g.enter(BuildingSymbolTable)
	table, err := exportmap.Build(files, exportmap.WithImportStyle(opts.ImportStyle))
	if err != nil {
		g.enter(Failed)
		return nil, fmt.Errorf("unable to build symbol table: %w", err)
	}
	g.table = table
	g.log.V(1).Info("built symbol table", "files", len(files), "symbols", table.Len())
	return g, nil
}

// State is the last step the generator entered.
func (g *Generator) State() State {
	return g.state
}

func (g *Generator) enter(state State) {
	g.state = state
	g.log.V(1).Info("entering state", "state", state)
}

// Models are the declaration models of a single schema file.
type Models struct {
	Messages *model.MessageFile `json:"messages"`
	Services *model.ServiceFile `json:"services,omitempty"`
}

// Models formats file without rendering it.
func (g *Generator) Models(file *schema.File) (Models, error) {
	messages, err := format.Messages(file, g.table, g.opts.Format)
	if err != nil {
		return Models{}, err
	}
	services, err := format.Services(file, g.table, g.opts.Format)
	if err != nil {
		return Models{}, err
	}
	res := Models{Messages: messages}
	switch services.Kind() {
	case format.ServicesPresent:
		res.Services = services.Model()
	case format.ServicesAbsent:
	}
	return res, nil
}

// Generate produces the response for the given files, in order.
func (g *Generator) Generate(ctx context.Context, files []*schema.File) (*pluginpb.CodeGeneratorResponse, error) {
	results := make([][]*pluginpb.CodeGeneratorResponse_File, len(files))

	if g.opts.Parallel {
		grp, grpCtx := errgroup.WithContext(ctx)
		for i, file := range files {
			i, file := i, file
			grp.Go(func() error {
				// another file already failed
				if err := grpCtx.Err(); err != nil {
					return err
				}
				out, err := g.generateFile(file, g.log.WithValues("file", file.Path))
				results[i] = out
				return err
			})
		}
		if err := grp.Wait(); err != nil {
			g.enter(Failed)
			return nil, err
		}
	} else {
		for i, file := range files {
			log := g.log.WithValues("file", file.Path)
			out, err := g.generateFile(file, log)
			if err != nil {
				g.enter(Failed)
				return nil, err
			}
			results[i] = out
		}
	}

	g.enter(AssemblingResponse)
	var generated []*pluginpb.CodeGeneratorResponse_File
	for _, out := range results {
		generated = append(generated, out...)
	}
	resp := respond.Response(generated...)
	g.enter(Done)
	return resp, nil
}

// generateFile runs the per-file steps.  It only touches the read-only
// table, so several may run at once.
func (g *Generator) generateFile(file *schema.File, log logr.Logger) ([]*pluginpb.CodeGeneratorResponse_File, error) {
	step := func(state State) {
		log.V(1).Info("entering state", "state", state)
	}

	step(FormattingMessages)
	messages, err := format.Messages(file, g.table, g.opts.Format)
	if err != nil {
		return nil, fmt.Errorf("file %q: %w", file.Path, err)
	}
	step(RenderingMessages)
	msgOut, err := render.Messages(messages)
	if err != nil {
		return nil, err
	}
	out := []*pluginpb.CodeGeneratorResponse_File{respond.File(naming.MessageFile(file.Path), msgOut)}

	step(FormattingServices)
	services, err := format.Services(file, g.table, g.opts.Format)
	if err != nil {
		return nil, fmt.Errorf("file %q: %w", file.Path, err)
	}
	switch services.Kind() {
	case format.ServicesAbsent:
		log.V(1).Info("no services, skipping service declarations")
	case format.ServicesPresent:
		step(RenderingServices)
		svcOut, err := render.Services(services.Model())
		if err != nil {
			return nil, err
		}
		out = append(out, respond.File(naming.ServiceFile(file.Path), svcOut))
	}
	return out, nil
}

// Run is a whole plugin invocation: it reads a request from in and, if every
// step succeeds, writes the response to out.  On error nothing is written.
func Run(ctx context.Context, in io.Reader, out io.Writer) error {
	log := logr.FromContextOrDiscard(ctx)
	enter := func(state State) {
		log.V(1).Info("entering state", "state", state)
	}

	enter(Idle)
	enter(ParsingRequest)
	loader, err := request.NewLoader(in)
	if err != nil {
		enter(Failed)
		return err
	}
	pluginOpts, err := loader.Options()
	if err != nil {
		enter(Failed)
		return err
	}

	gen, err := New(ctx, loader.Files(), OptionsFrom(pluginOpts))
	if err != nil {
		return err
	}
	resp, err := gen.Generate(ctx, loader.FilesToGenerate())
	if err != nil {
		return err
	}
	return respond.Write(out, resp)
}
