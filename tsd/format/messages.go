// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors

// Package format turns a single schema file into the declaration models that
// the renderer consumes.  All names in the resulting models are final: the
// renderer performs no resolution.
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
	jspbAlias  = "jspb"
	jspbModule = "google-protobuf"
)

// Options are the formatting knobs shared by both formatters.
type Options struct {
	// GRPCJS targets @grpc/grpc-js instead of the legacy grpc module.
	GRPCJS bool
	// Reserved decides how reserved words are spelled as AsObject keys.
	Reserved naming.ReservedPolicy
	// Comments copies leading schema comments into the declarations.
	Comments bool
}

type messageFormatter struct {
	file    *schema.File
	mapper  typemap.Mapper
	imports *typemap.Imports
	opts    Options
}

// Messages formats the message, enum and extension declarations of file.
func Messages(file *schema.File, table *exportmap.Table, opts Options) (*model.MessageFile, error) {
	f := &messageFormatter{
		file:    file,
		mapper:  typemap.Mapper{Table: table, From: file.Path},
		imports: typemap.NewImports(true, topLevelNames(file)...),
		opts:    opts,
	}
	f.imports.Fixed(jspbAlias, jspbModule)

	out := &model.MessageFile{
		ProtoFile: file.Path,
		Package:   file.Package,
	}
	for _, msg := range file.Messages {
		formatted, err := f.message("", msg)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", msg.Name, err)
		}
		out.Messages = append(out.Messages, formatted)
	}
	for _, enum := range file.Enums {
		out.Enums = append(out.Enums, f.enum("", enum))
	}
	exts, err := f.extensions(file.Extensions)
	if err != nil {
		return nil, err
	}
	out.Extensions = exts
	out.Imports = f.imports.List()
	return out, nil
}

// topLevelNames are the names a message file declares at the top level,
// which import aliases must not shadow.
func topLevelNames(file *schema.File) []string {
	names := []string{jspbAlias}
	for _, msg := range file.Messages {
		names = append(names, msg.Name)
	}
	for _, enum := range file.Enums {
		names = append(names, enum.Name, enum.Name+"Map")
	}
	for _, ext := range file.Extensions {
		names = append(names, naming.CamelCase(ext.Name))
	}
	return names
}

func (f *messageFormatter) message(scope string, msg *schema.Message) (model.Message, error) {
	declName := naming.Scope(scope, msg.Name)
	out := model.Message{
		Name:     msg.Name,
		DeclName: declName,
		Comment:  f.comment(msg.Comments),
	}

	for _, field := range msg.Fields {
		formatted, err := f.field(field)
		if err != nil {
			return model.Message{}, err
		}
		out.Fields = append(out.Fields, formatted)
	}
	for _, nested := range msg.Messages {
		formatted, err := f.message(declName, nested)
		if err != nil {
			return model.Message{}, fmt.Errorf("nested message %s: %w", nested.Name, err)
		}
		out.Messages = append(out.Messages, formatted)
	}
	for _, enum := range msg.Enums {
		out.Enums = append(out.Enums, f.enum(declName, enum))
	}
	exts, err := f.extensions(msg.Extensions)
	if err != nil {
		return model.Message{}, err
	}
	out.Extensions = exts
	return out, nil
}

func (f *messageFormatter) field(field *schema.Field) (model.Field, error) {
	typ, err := f.mapper.MapField(field, f.imports)
	if err != nil {
		return model.Field{}, err
	}

	isMap := field.Kind == schema.KindMap
	isList := field.Repeated() && !isMap
	camel := naming.CamelCase(field.Name)
	suffix := ""
	switch {
	case isMap:
		suffix = "Map"
	case isList:
		suffix = "List"
	}

	return model.Field{
		Name:         field.Name,
		Number:       field.Number,
		AccessorName: naming.UpperFirst(camel) + suffix,
		ObjectName:   f.opts.Reserved.Escape(camel + suffix),
		Repeated:     isList,
		Map:          isMap,
		Bytes:        field.Kind == schema.KindBytes,
		Message:      field.Kind == schema.KindMessage || field.Kind == schema.KindGroup,
		HasPresence:  f.hasPresence(field),
		Optional:     field.Cardinality != schema.Required,
		Type:         typ,
		Comment:      f.comment(field.Comments),
	}, nil
}

// hasPresence reports whether the jspb runtime tracks whether the field is
// set, and thus generates hasX/clearX.
func (f *messageFormatter) hasPresence(field *schema.Field) bool {
	if field.Repeated() {
		return false
	}
	switch {
	case field.Kind == schema.KindMessage || field.Kind == schema.KindGroup:
		return true
	case field.Oneof != nil, field.Proto3Optional:
		return true
	default:
		return !f.file.Proto3()
	}
}

func (f *messageFormatter) enum(scope string, enum *schema.Enum) model.Enum {
	out := model.Enum{
		Name:     enum.Name,
		DeclName: naming.Scope(scope, enum.Name),
		Comment:  f.comment(enum.Comments),
	}
	for _, val := range enum.Values {
		out.Values = append(out.Values, model.EnumValue{
			Name:    val.Name,
			Number:  val.Number,
			Comment: f.comment(val.Comments),
		})
	}
	return out
}

func (f *messageFormatter) extensions(exts []*schema.Field) ([]model.Extension, error) {
	var out []model.Extension
	for _, ext := range exts {
		typ, err := f.mapper.MapField(ext, f.imports)
		if err != nil {
			return nil, fmt.Errorf("extension %s: %w", ext.Name, err)
		}
		out = append(out, model.Extension{
			Name:    naming.CamelCase(ext.Name),
			Type:    typ.TS,
			Comment: f.comment(ext.Comments),
		})
	}
	return out, nil
}

func (f *messageFormatter) comment(text string) []string {
	return commentLines(f.opts.Comments, text)
}

func commentLines(enabled bool, text string) []string {
	if !enabled || text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimPrefix(strings.TrimRight(line, " \t"), " ")
		// a stray terminator would close the doc comment early
		lines[i] = strings.ReplaceAll(line, "*/", "*\\/")
	}
	return lines
}
