// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors
package request

import (
	"errors"
	"fmt"
	"io"

	"github.com/golang/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/schema"
)

// MalformedRequestError is returned when the input isn't a usable code
// generator request.
type MalformedRequestError struct {
	Reason string
	Err    error
}

func (e *MalformedRequestError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *MalformedRequestError) Unwrap() error {
	return e.Err
}

func (e *MalformedRequestError) Kind() string {
	return "malformed request"
}

// Loader loads a code generator request from a reader (generally stdin,
// written by protoc).
type Loader struct {
	raw *pluginpb.CodeGeneratorRequest

	// files holds every schema file in the request, in request order
	files []*schema.File
	// byPath maps schema file paths to the corresponding file
	byPath map[string]*schema.File
	// toGenerate holds the files to generate output for, in request order
	toGenerate []*schema.File
}

// NewLoader reads and decodes the whole request.
func NewLoader(src io.Reader) (*Loader, error) {
	contents, err := io.ReadAll(src)
	if err != nil {
		return nil, &MalformedRequestError{Reason: "unable to read code generator request", Err: err}
	}
	if len(contents) == 0 {
		return nil, &MalformedRequestError{Reason: "empty code generator request"}
	}
	var req pluginpb.CodeGeneratorRequest
	if err := proto.Unmarshal(contents, &req); err != nil {
		return nil, &MalformedRequestError{Reason: "unable to decode code generator request", Err: err}
	}
	return FromRequest(&req)
}

// FromRequest converts an already-decoded request.
func FromRequest(req *pluginpb.CodeGeneratorRequest) (*Loader, error) {
	l := &Loader{
		raw:    req,
		byPath: make(map[string]*schema.File, len(req.GetProtoFile())),
	}
	for _, fd := range req.GetProtoFile() {
		file, err := schema.FromDescriptor(fd)
		if err != nil {
			return nil, &MalformedRequestError{Reason: "invalid file descriptor", Err: err}
		}
		if _, exists := l.byPath[file.Path]; exists {
			return nil, &MalformedRequestError{Reason: fmt.Sprintf("file %q appears more than once", file.Path)}
		}
		l.byPath[file.Path] = file
		l.files = append(l.files, file)
	}

	for _, path := range req.GetFileToGenerate() {
		file, err := l.Load(path)
		if err != nil {
			return nil, &MalformedRequestError{Reason: "unknown file to generate", Err: err}
		}
		l.toGenerate = append(l.toGenerate, file)
	}
	return l, nil
}

var errUnknownFile = errors.New("file not in request")

// Load returns the schema file with the given path.
func (l *Loader) Load(path string) (*schema.File, error) {
	if file, exists := l.byPath[path]; exists {
		return file, nil
	}
	return nil, fmt.Errorf("%q: %w", path, errUnknownFile)
}

// Files returns every schema file in the request.
func (l *Loader) Files() []*schema.File {
	return l.files
}

// FilesToGenerate returns the files to generate output for, in the order
// protoc asked for them.
func (l *Loader) FilesToGenerate() []*schema.File {
	return l.toGenerate
}

// Parameter is the raw plugin parameter string.
func (l *Loader) Parameter() string {
	return l.raw.GetParameter()
}

// Options parses the plugin parameter.
func (l *Loader) Options() (Options, error) {
	opts, err := ParseOptions(l.Parameter())
	if err != nil {
		return Options{}, &MalformedRequestError{Reason: "invalid plugin parameter", Err: err}
	}
	return opts, nil
}
