// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors

// Package model contains the render-ready view of a schema file.  Formatting
// fills these in; templates only read them.
//
// Everything here is plain data, so models can be dumped (see the inspect
// subcommand) and compared in tests.
package model

// Import is a single `import * as Namespace from "Path";` line.
type Import struct {
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
}

// Type is the TypeScript spelling of a field type.
type Type struct {
	// TS is the type used by getters and setters.
	TS string `json:"ts"`
	// Object is the type used in AsObject.
	Object string `json:"object"`
	// Elem is the element type of a repeated field (as passed to addX).
	Elem string `json:"elem,omitempty"`
}

// Field is a message field.
type Field struct {
	Name   string `json:"name"`
	Number int32  `json:"number"`
	// AccessorName is the part after get/set/has/clear ("FooBarList").
	AccessorName string `json:"accessorName"`
	// ObjectName is the AsObject key ("fooBarList").
	ObjectName string `json:"objectName"`

	Repeated bool `json:"repeated,omitempty"`
	Map      bool `json:"map,omitempty"`
	Bytes    bool `json:"bytes,omitempty"`
	Message  bool `json:"message,omitempty"`
	// HasPresence fields get hasX and clearX accessors.
	HasPresence bool `json:"hasPresence,omitempty"`
	// Optional fields get a `?` in AsObject.
	Optional bool `json:"optional,omitempty"`

	Type    Type     `json:"type"`
	Comment []string `json:"comment,omitempty"`
}

// Message is a message declaration, with its nested declarations.
type Message struct {
	Name string `json:"name"`
	// DeclName is the scoped name ("Outer.Inner").
	DeclName string `json:"declName"`

	Fields     []Field     `json:"fields,omitempty"`
	Messages   []Message   `json:"messages,omitempty"`
	Enums      []Enum      `json:"enums,omitempty"`
	Extensions []Extension `json:"extensions,omitempty"`
	Comment    []string    `json:"comment,omitempty"`
}

type Enum struct {
	Name     string      `json:"name"`
	DeclName string      `json:"declName"`
	Values   []EnumValue `json:"values"`
	Comment  []string    `json:"comment,omitempty"`
}

type EnumValue struct {
	Name    string   `json:"name"`
	Number  int32    `json:"number"`
	Comment []string `json:"comment,omitempty"`
}

// Extension is an extension field declared in a file or message scope.
type Extension struct {
	// Name is the camel-cased exported constant name.
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Comment []string `json:"comment,omitempty"`
}

// MessageFile is the model of a `_pb.d.ts` file.
type MessageFile struct {
	ProtoFile  string      `json:"protoFile"`
	Package    string      `json:"package,omitempty"`
	Imports    []Import    `json:"imports"`
	Messages   []Message   `json:"messages,omitempty"`
	Enums      []Enum      `json:"enums,omitempty"`
	Extensions []Extension `json:"extensions,omitempty"`
}

// Shape is the streaming shape of a method.
type Shape string

const (
	Unary           Shape = "unary"
	ClientStreaming Shape = "client_streaming"
	ServerStreaming Shape = "server_streaming"
	Bidi            Shape = "bidi"
)

// ShapeOf classifies a method by the streaming flags of its request and response.
func ShapeOf(requestStream, responseStream bool) Shape {
	switch {
	case requestStream && responseStream:
		return Bidi
	case requestStream:
		return ClientStreaming
	case responseStream:
		return ServerStreaming
	default:
		return Unary
	}
}

// Method is an RPC.
type Method struct {
	Name string `json:"name"`
	// FieldName is the lower-camel name used for server handlers and client calls.
	FieldName string `json:"fieldName"`
	// Path is the wire path ("/pkg.Svc/Method").
	Path           string `json:"path"`
	Shape          Shape  `json:"shape"`
	RequestStream  bool   `json:"requestStream"`
	ResponseStream bool   `json:"responseStream"`
	// RequestType and ResponseType are references usable from the service file.
	RequestType  string `json:"requestType"`
	ResponseType string `json:"responseType"`
	// Handler is the server-side handler type.
	Handler string `json:"handler"`
	// Call is the client-side call type.
	Call    string   `json:"call"`
	Comment []string `json:"comment,omitempty"`
}

type Service struct {
	Name string `json:"name"`
	// FullName is the qualified name without a leading dot ("pkg.Svc").
	FullName string   `json:"fullName"`
	Methods  []Method `json:"methods,omitempty"`
	Comment  []string `json:"comment,omitempty"`
}

// ServiceFile is the model of a `_grpc_pb.d.ts` file.
type ServiceFile struct {
	ProtoFile string `json:"protoFile"`
	Package   string `json:"package,omitempty"`
	// GRPCModule is the runtime module imported as `grpc`.
	GRPCModule string    `json:"grpcModule"`
	GRPCJS     bool      `json:"grpcJS,omitempty"`
	Imports    []Import  `json:"imports"`
	Services   []Service `json:"services"`
}
