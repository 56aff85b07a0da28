// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors
package format

import (
	"fmt"
	"strings"

	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/exportmap"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/model"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/naming"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/schema"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/typemap"
)

const (
	grpcAlias    = "grpc"
	grpcModule   = "grpc"
	grpcJSModule = "@grpc/grpc-js"
)

// ResultKind distinguishes the two variants of a ServiceResult.
type ResultKind int

const (
	// ServicesAbsent means the file declares no services, so no service
	// declaration file is generated for it.
	ServicesAbsent ResultKind = iota
	// ServicesPresent carries a service declaration model.
	ServicesPresent
)

func (k ResultKind) String() string {
	switch k {
	case ServicesAbsent:
		return "absent"
	case ServicesPresent:
		return "present"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// ServiceResult is the outcome of formatting a file's services: either a
// model (Present) or nothing to generate (Absent).  Switch on Kind.
type ServiceResult struct {
	kind  ResultKind
	model *model.ServiceFile
}

// Present wraps a service declaration model.
func Present(m *model.ServiceFile) ServiceResult {
	return ServiceResult{kind: ServicesPresent, model: m}
}

// Absent is the result for a file without services.
func Absent() ServiceResult {
	return ServiceResult{kind: ServicesAbsent}
}

func (r ServiceResult) Kind() ResultKind {
	return r.kind
}

// Model returns the model of a Present result, and nil otherwise.
func (r ServiceResult) Model() *model.ServiceFile {
	return r.model
}

// Services formats the service declarations of file.
func Services(file *schema.File, table *exportmap.Table, opts Options) (ServiceResult, error) {
	if len(file.Services) == 0 {
		return Absent(), nil
	}

	var reserved []string
	for _, svc := range file.Services {
		reserved = append(reserved, serviceNames(svc.Name)...)
	}
	imports := typemap.NewImports(false, append(reserved, grpcAlias)...)
	out := &model.ServiceFile{
		ProtoFile:  file.Path,
		Package:    file.Package,
		GRPCModule: grpcModule,
		GRPCJS:     opts.GRPCJS,
	}
	if opts.GRPCJS {
		out.GRPCModule = grpcJSModule
	}
	imports.Fixed(grpcAlias, out.GRPCModule)

	mapper := typemap.Mapper{Table: table, From: file.Path}
	for _, svc := range file.Services {
		formatted := model.Service{
			Name:     svc.Name,
			FullName: strings.TrimPrefix(svc.FullName, "."),
			Comment:  commentLines(opts.Comments, svc.Comments),
		}
		for _, method := range svc.Methods {
			m, err := formatMethod(formatted.FullName, method, mapper, imports, opts)
			if err != nil {
				return ServiceResult{}, fmt.Errorf("service %s, method %s: %w", svc.Name, method.Name, err)
			}
			formatted.Methods = append(formatted.Methods, m)
		}
		out.Services = append(out.Services, formatted)
	}
	out.Imports = imports.List()
	return Present(out), nil
}

// serviceNames are the names declared for each service.
func serviceNames(svc string) []string {
	return []string{
		"I" + svc + "Service",
		svc + "Service",
		"I" + svc + "Server",
		"I" + svc + "Client",
		svc + "Client",
	}
}

func formatMethod(service string, method *schema.Method, mapper typemap.Mapper, imports *typemap.Imports, opts Options) (model.Method, error) {
	req, err := mapper.MapReference(method.InputType, imports)
	if err != nil {
		return model.Method{}, fmt.Errorf("request type: %w", err)
	}
	res, err := mapper.MapReference(method.OutputType, imports)
	if err != nil {
		return model.Method{}, fmt.Errorf("response type: %w", err)
	}

	shape := model.ShapeOf(method.ClientStreaming, method.ServerStreaming)
	out := model.Method{
		Name:           method.Name,
		FieldName:      naming.LowerFirst(method.Name),
		Path:           "/" + service + "/" + method.Name,
		Shape:          shape,
		RequestStream:  method.ClientStreaming,
		ResponseStream: method.ServerStreaming,
		RequestType:    req,
		ResponseType:   res,
		Comment:        commentLines(opts.Comments, method.Comments),
	}

	switch shape {
	case model.Unary:
		out.Handler = fmt.Sprintf("grpc.handleUnaryCall<%s, %s>", req, res)
		out.Call = "grpc.ClientUnaryCall"
	case model.ClientStreaming:
		out.Handler = fmt.Sprintf("grpc.handleClientStreamingCall<%s, %s>", req, res)
		out.Call = fmt.Sprintf("grpc.ClientWritableStream<%s>", req)
	case model.ServerStreaming:
		out.Handler = fmt.Sprintf("grpc.handleServerStreamingCall<%s, %s>", req, res)
		out.Call = fmt.Sprintf("grpc.ClientReadableStream<%s>", res)
	case model.Bidi:
		out.Handler = fmt.Sprintf("grpc.handleBidiStreamingCall<%s, %s>", req, res)
		out.Call = fmt.Sprintf("grpc.ClientDuplexStream<%s, %s>", req, res)
	}
	return out, nil
}
