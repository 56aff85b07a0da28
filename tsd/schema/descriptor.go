// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors
package schema

import (
	"errors"
	"fmt"

	pdesc "google.golang.org/protobuf/types/descriptorpb"
)

var kindsByType = map[pdesc.FieldDescriptorProto_Type]FieldKind{
	pdesc.FieldDescriptorProto_TYPE_DOUBLE:   KindDouble,
	pdesc.FieldDescriptorProto_TYPE_FLOAT:    KindFloat,
	pdesc.FieldDescriptorProto_TYPE_INT64:    KindInt64,
	pdesc.FieldDescriptorProto_TYPE_UINT64:   KindUint64,
	pdesc.FieldDescriptorProto_TYPE_INT32:    KindInt32,
	pdesc.FieldDescriptorProto_TYPE_FIXED64:  KindFixed64,
	pdesc.FieldDescriptorProto_TYPE_FIXED32:  KindFixed32,
	pdesc.FieldDescriptorProto_TYPE_BOOL:     KindBool,
	pdesc.FieldDescriptorProto_TYPE_STRING:   KindString,
	pdesc.FieldDescriptorProto_TYPE_GROUP:    KindGroup,
	pdesc.FieldDescriptorProto_TYPE_MESSAGE:  KindMessage,
	pdesc.FieldDescriptorProto_TYPE_BYTES:    KindBytes,
	pdesc.FieldDescriptorProto_TYPE_UINT32:   KindUint32,
	pdesc.FieldDescriptorProto_TYPE_ENUM:     KindEnum,
	pdesc.FieldDescriptorProto_TYPE_SFIXED32: KindSfixed32,
	pdesc.FieldDescriptorProto_TYPE_SFIXED64: KindSfixed64,
	pdesc.FieldDescriptorProto_TYPE_SINT32:   KindSint32,
	pdesc.FieldDescriptorProto_TYPE_SINT64:   KindSint64,
}

// FromDescriptor converts a file descriptor into a File.  Map entry messages
// are folded into their map fields and don't show up as nested messages.
//
// Unknown field types are kept as KindInvalid; deciding whether that's fatal
// is up to whoever maps the field.
func FromDescriptor(fd *pdesc.FileDescriptorProto) (*File, error) {
	if fd.GetName() == "" {
		return nil, errors.New("file descriptor has no name")
	}
	syntax := fd.GetSyntax()
	if syntax == "" {
		syntax = "proto2"
	}
	c := &converter{
		comments: indexComments(fd.GetSourceCodeInfo()),
	}
	file := &File{
		Path:         fd.GetName(),
		Package:      fd.GetPackage(),
		Syntax:       syntax,
		Dependencies: append([]string(nil), fd.GetDependency()...),
	}

	scope := ""
	if pkg := fd.GetPackage(); pkg != "" {
		scope = "." + pkg
	}

	root := trackSrc(fd)
	for i, msg := range fd.GetMessageType() {
		m, err := c.message(scope, msg, root.field("message_type").item(i))
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", fd.GetName(), err)
		}
		file.Messages = append(file.Messages, m)
	}
	for i, enum := range fd.GetEnumType() {
		file.Enums = append(file.Enums, c.enum(scope, enum, root.field("enum_type").item(i)))
	}
	for i, svc := range fd.GetService() {
		file.Services = append(file.Services, c.service(scope, svc, root.field("service").item(i)))
	}
	for i, ext := range fd.GetExtension() {
		f, err := c.field(ext, nil, nil, root.field("extension").item(i))
		if err != nil {
			return nil, fmt.Errorf("file %q: extension %q: %w", fd.GetName(), ext.GetName(), err)
		}
		file.Extensions = append(file.Extensions, f)
	}
	return file, nil
}

type converter struct {
	comments commentIndex
}

func (c *converter) message(scope string, msg *pdesc.DescriptorProto, src *tracker) (*Message, error) {
	fullName := scope + "." + msg.GetName()
	res := &Message{
		Name:     msg.GetName(),
		FullName: fullName,
		Comments: c.comments.at(src),
	}

	// map entries are synthesized nested messages; find them first so that
	// the fields referencing them can become maps
	entries := make(map[string]*pdesc.DescriptorProto)
	for _, nested := range msg.GetNestedType() {
		if nested.GetOptions().GetMapEntry() {
			entries[fullName+"."+nested.GetName()] = nested
		}
	}

	for _, decl := range msg.GetOneofDecl() {
		res.Oneofs = append(res.Oneofs, &Oneof{Name: decl.GetName()})
	}

	for i, rawField := range msg.GetField() {
		field, err := c.field(rawField, res.Oneofs, entries, src.field("field").item(i))
		if err != nil {
			return nil, fmt.Errorf("message %s: field %q: %w", fullName, rawField.GetName(), err)
		}
		if field.Proto3Optional && field.Oneof != nil {
			field.Oneof.Synthetic = true
		}
		res.Fields = append(res.Fields, field)
	}

	for i, nested := range msg.GetNestedType() {
		if nested.GetOptions().GetMapEntry() {
			continue
		}
		sub, err := c.message(fullName, nested, src.field("nested_type").item(i))
		if err != nil {
			return nil, err
		}
		res.Messages = append(res.Messages, sub)
	}
	for i, enum := range msg.GetEnumType() {
		res.Enums = append(res.Enums, c.enum(fullName, enum, src.field("enum_type").item(i)))
	}
	for i, ext := range msg.GetExtension() {
		field, err := c.field(ext, nil, nil, src.field("extension").item(i))
		if err != nil {
			return nil, fmt.Errorf("message %s: extension %q: %w", fullName, ext.GetName(), err)
		}
		res.Extensions = append(res.Extensions, field)
	}
	return res, nil
}

func (c *converter) field(raw *pdesc.FieldDescriptorProto, oneofs []*Oneof, entries map[string]*pdesc.DescriptorProto, src *tracker) (*Field, error) {
	res := &Field{
		Name:           raw.GetName(),
		Number:         raw.GetNumber(),
		TypeName:       raw.GetTypeName(),
		Proto3Optional: raw.GetProto3Optional(),
		Extendee:       raw.GetExtendee(),
		Comments:       c.comments.at(src),
	}

	switch raw.GetLabel() {
	case pdesc.FieldDescriptorProto_LABEL_REQUIRED:
		res.Cardinality = Required
	case pdesc.FieldDescriptorProto_LABEL_REPEATED:
		res.Cardinality = Repeated
	default:
		res.Cardinality = Optional
	}

	if raw.Type != nil {
		// anything not in the table stays KindInvalid
		res.Kind = kindsByType[raw.GetType()]
	}

	switch raw.GetOptions().GetJstype() {
	case pdesc.FieldOptions_JS_STRING:
		res.JSType = JSString
	case pdesc.FieldOptions_JS_NUMBER:
		res.JSType = JSNumber
	}

	if raw.OneofIndex != nil {
		idx := int(raw.GetOneofIndex())
		if idx < 0 || idx >= len(oneofs) {
			return nil, fmt.Errorf("oneof index %d out of range (%d oneofs declared)", idx, len(oneofs))
		}
		res.Oneof = oneofs[idx]
	}

	if res.Kind == KindMessage && res.Cardinality == Repeated {
		if entry, isMap := entries[res.TypeName]; isMap {
			mapEntry, err := c.mapEntry(entry)
			if err != nil {
				return nil, err
			}
			res.Kind = KindMap
			res.Map = mapEntry
		}
	}
	return res, nil
}

func (c *converter) mapEntry(entry *pdesc.DescriptorProto) (*MapEntry, error) {
	res := &MapEntry{}
	for _, raw := range entry.GetField() {
		field, err := c.field(raw, nil, nil, nil)
		if err != nil {
			return nil, err
		}
		switch raw.GetNumber() {
		case 1:
			res.Key = field
		case 2:
			res.Value = field
		}
	}
	if res.Key == nil || res.Value == nil {
		return nil, fmt.Errorf("map entry %q is missing its key or value", entry.GetName())
	}
	return res, nil
}

func (c *converter) enum(scope string, enum *pdesc.EnumDescriptorProto, src *tracker) *Enum {
	res := &Enum{
		Name:     enum.GetName(),
		FullName: scope + "." + enum.GetName(),
		Comments: c.comments.at(src),
	}
	for i, val := range enum.GetValue() {
		res.Values = append(res.Values, EnumValue{
			Name:     val.GetName(),
			Number:   val.GetNumber(),
			Comments: c.comments.at(src.field("value").item(i)),
		})
	}
	return res
}

func (c *converter) service(scope string, svc *pdesc.ServiceDescriptorProto, src *tracker) *Service {
	res := &Service{
		Name:     svc.GetName(),
		FullName: scope + "." + svc.GetName(),
		Comments: c.comments.at(src),
	}
	for i, method := range svc.GetMethod() {
		res.Methods = append(res.Methods, &Method{
			Name:            method.GetName(),
			InputType:       method.GetInputType(),
			OutputType:      method.GetOutputType(),
			ClientStreaming: method.GetClientStreaming(),
			ServerStreaming: method.GetServerStreaming(),
			Comments:        c.comments.at(src.field("method").item(i)),
		})
	}
	return res
}
