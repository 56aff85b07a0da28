// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors

// Package render turns declaration models into TypeScript declaration text.
// It only formats: every name in the model is used as-is.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/model"
)

const (
	messageTemplate = "msg_tsd"
	serviceTemplate = "svc_tsd"
)

//go:embed templates/*.tmpl
var tmplFS embed.FS

var tmpl = newTemplates()

func newTemplates() *template.Template {
	t := template.New("tsd").Option("missingkey=error")
	t.Funcs(template.FuncMap{
		"include": func(name string, data interface{}) (string, error) {
			var buf strings.Builder
			if err := t.ExecuteTemplate(&buf, name, data); err != nil {
				return "", err
			}
			return buf.String(), nil
		},
		"indent":          indent,
		"dict":            dict,
		"accessors":       accessors,
		"clientOverloads": clientOverloads,
	})
	return template.Must(t.ParseFS(tmplFS, "templates/*.tmpl"))
}

// RenderError is returned when a model can't be rendered.
type RenderError struct {
	Template string
	File     string
	Err      error
}

func (e *RenderError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("template %s: %v", e.Template, e.Err)
	}
	return fmt.Sprintf("template %s for %q: %v", e.Template, e.File, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func (e *RenderError) Kind() string {
	return "render error"
}

// Messages renders a `_pb.d.ts` file.
func Messages(m *model.MessageFile) ([]byte, error) {
	if m == nil || m.ProtoFile == "" {
		return nil, &RenderError{Template: messageTemplate, Err: errors.New("model has no schema file")}
	}
	return execute(messageTemplate, m.ProtoFile, m)
}

// Services renders a `_grpc_pb.d.ts` file.
func Services(m *model.ServiceFile) ([]byte, error) {
	if m == nil || m.ProtoFile == "" {
		return nil, &RenderError{Template: serviceTemplate, Err: errors.New("model has no schema file")}
	}
	if len(m.Services) == 0 {
		return nil, &RenderError{Template: serviceTemplate, File: m.ProtoFile, Err: errors.New("model has no services")}
	}
	if m.GRPCModule == "" {
		return nil, &RenderError{Template: serviceTemplate, File: m.ProtoFile, Err: errors.New("model has no grpc module")}
	}
	return execute(serviceTemplate, m.ProtoFile, m)
}

func execute(name, file string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, &RenderError{Template: name, File: file, Err: err}
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// indent prefixes every non-empty line of s with n spaces.
func indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}

func dict(pairs ...interface{}) (map[string]interface{}, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict needs an even number of arguments")
	}
	res := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, isString := pairs[i].(string)
		if !isString {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		res[key] = pairs[i+1]
	}
	return res, nil
}

// accessors lists the jspb class members generated for a field of owner.
func accessors(owner string, field model.Field) []string {
	name := field.AccessorName
	typ := field.Type.TS
	var out []string

	switch {
	case field.Map:
		out = append(out,
			fmt.Sprintf("get%s(): %s;", name, typ),
			fmt.Sprintf("clear%s(): void;", name),
		)
	case field.Repeated:
		single := strings.TrimSuffix(name, "List")
		out = append(out,
			fmt.Sprintf("clear%s(): void;", name),
			fmt.Sprintf("get%s(): %s;", name, typ),
		)
		if field.Bytes {
			out = append(out,
				fmt.Sprintf("get%s_asU8(): Array<Uint8Array>;", name),
				fmt.Sprintf("get%s_asB64(): Array<string>;", name),
			)
		}
		out = append(out, fmt.Sprintf("set%s(value: %s): %s;", name, typ, owner))
		if field.Message {
			out = append(out, fmt.Sprintf("add%s(value?: %s, index?: number): %s;", single, field.Type.Elem, field.Type.Elem))
		} else {
			out = append(out, fmt.Sprintf("add%s(value: %s, index?: number): %s;", single, field.Type.Elem, field.Type.Elem))
		}
	default:
		if field.HasPresence {
			out = append(out,
				fmt.Sprintf("has%s(): boolean;", name),
				fmt.Sprintf("clear%s(): void;", name),
			)
		}
		switch {
		case field.Message:
			out = append(out,
				fmt.Sprintf("get%s(): %s | undefined;", name, typ),
				fmt.Sprintf("set%s(value?: %s): %s;", name, typ, owner),
			)
		case field.Bytes:
			out = append(out,
				fmt.Sprintf("get%s(): %s;", name, typ),
				fmt.Sprintf("get%s_asU8(): Uint8Array;", name),
				fmt.Sprintf("get%s_asB64(): string;", name),
				fmt.Sprintf("set%s(value: %s): %s;", name, typ, owner),
			)
		default:
			out = append(out,
				fmt.Sprintf("get%s(): %s;", name, typ),
				fmt.Sprintf("set%s(value: %s): %s;", name, typ, owner),
			)
		}
	}
	return out
}

// clientOverloads lists the client call signatures of a method.
func clientOverloads(m model.Method) []string {
	var (
		name     = m.FieldName
		callback = fmt.Sprintf("callback: (error: grpc.ServiceError | null, response: %s) => void", m.ResponseType)
		request  = "request: " + m.RequestType
		options  = "options: Partial<grpc.CallOptions>"
		metadata = "metadata: grpc.Metadata"
		sigs     [][]string
	)

	switch m.Shape {
	case model.Unary:
		sigs = [][]string{
			{request, callback},
			{request, metadata, callback},
			{request, metadata, options, callback},
		}
	case model.ServerStreaming:
		sigs = [][]string{
			{request, "options?: Partial<grpc.CallOptions>"},
			{request, "metadata?: grpc.Metadata", "options?: Partial<grpc.CallOptions>"},
		}
	case model.ClientStreaming:
		sigs = [][]string{
			{callback},
			{metadata, callback},
			{options, callback},
			{metadata, options, callback},
		}
	case model.Bidi:
		sigs = [][]string{
			{},
			{options},
			{metadata, "options?: Partial<grpc.CallOptions>"},
		}
	}

	out := make([]string, 0, len(sigs))
	for _, params := range sigs {
		out = append(out, fmt.Sprintf("%s(%s): %s;", name, strings.Join(params, ", "), m.Call))
	}
	return out
}
