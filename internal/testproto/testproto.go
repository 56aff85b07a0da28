// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors

// Package testproto builds descriptors and plugin requests for tests without
// needing protoc around.
package testproto

import (
	"google.golang.org/protobuf/proto"
	pdesc "google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"
)

// File starts a proto3 file descriptor.
func File(name, pkg string, deps ...string) *pdesc.FileDescriptorProto {
	fd := &pdesc.FileDescriptorProto{
		Name:       proto.String(name),
		Syntax:     proto.String("proto3"),
		Dependency: deps,
	}
	if pkg != "" {
		fd.Package = proto.String(pkg)
	}
	return fd
}

// Message builds a message descriptor.
func Message(name string, fields ...*pdesc.FieldDescriptorProto) *pdesc.DescriptorProto {
	return &pdesc.DescriptorProto{
		Name:  proto.String(name),
		Field: fields,
	}
}

// Scalar builds a singular scalar field.
func Scalar(name string, num int32, typ pdesc.FieldDescriptorProto_Type) *pdesc.FieldDescriptorProto {
	return &pdesc.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Type:   typ.Enum(),
		Label:  pdesc.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
	}
}

// Ref builds a singular message field referencing typeName (fully qualified).
func Ref(name string, num int32, typeName string) *pdesc.FieldDescriptorProto {
	f := Scalar(name, num, pdesc.FieldDescriptorProto_TYPE_MESSAGE)
	f.TypeName = proto.String(typeName)
	return f
}

// EnumRef builds a singular enum field referencing typeName (fully qualified).
func EnumRef(name string, num int32, typeName string) *pdesc.FieldDescriptorProto {
	f := Scalar(name, num, pdesc.FieldDescriptorProto_TYPE_ENUM)
	f.TypeName = proto.String(typeName)
	return f
}

// Repeated marks a field as repeated.
func Repeated(f *pdesc.FieldDescriptorProto) *pdesc.FieldDescriptorProto {
	f.Label = pdesc.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

// Required marks a field as required (proto2).
func Required(f *pdesc.FieldDescriptorProto) *pdesc.FieldDescriptorProto {
	f.Label = pdesc.FieldDescriptorProto_LABEL_REQUIRED.Enum()
	return f
}

// InOneof places a field into the oneof with the given index.
func InOneof(f *pdesc.FieldDescriptorProto, idx int32) *pdesc.FieldDescriptorProto {
	f.OneofIndex = proto.Int32(idx)
	return f
}

// Map adds a map field named name to msg, along with its synthesized entry
// type.  msgFullName is the fully qualified name of msg.
func Map(msg *pdesc.DescriptorProto, msgFullName, name string, num int32, key, value *pdesc.FieldDescriptorProto) {
	entryName := mapEntryName(name)
	key.Name, key.Number = proto.String("key"), proto.Int32(1)
	value.Name, value.Number = proto.String("value"), proto.Int32(2)
	msg.NestedType = append(msg.NestedType, &pdesc.DescriptorProto{
		Name:    proto.String(entryName),
		Field:   []*pdesc.FieldDescriptorProto{key, value},
		Options: &pdesc.MessageOptions{MapEntry: proto.Bool(true)},
	})
	msg.Field = append(msg.Field, Repeated(Ref(name, num, msgFullName+"."+entryName)))
}

func mapEntryName(field string) string {
	out := make([]byte, 0, len(field)+5)
	upper := true
	for i := 0; i < len(field); i++ {
		ch := field[i]
		if ch == '_' {
			upper = true
			continue
		}
		if upper && ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		upper = false
		out = append(out, ch)
	}
	return string(out) + "Entry"
}

// Enum builds an enum descriptor from alternating name/number pairs.
func Enum(name string, values ...interface{}) *pdesc.EnumDescriptorProto {
	res := &pdesc.EnumDescriptorProto{Name: proto.String(name)}
	for i := 0; i+1 < len(values); i += 2 {
		res.Value = append(res.Value, &pdesc.EnumValueDescriptorProto{
			Name:   proto.String(values[i].(string)),
			Number: proto.Int32(int32(values[i+1].(int))),
		})
	}
	return res
}

// Service builds a service descriptor.
func Service(name string, methods ...*pdesc.MethodDescriptorProto) *pdesc.ServiceDescriptorProto {
	return &pdesc.ServiceDescriptorProto{
		Name:   proto.String(name),
		Method: methods,
	}
}

// Method builds a method descriptor.
func Method(name, in, out string, clientStreaming, serverStreaming bool) *pdesc.MethodDescriptorProto {
	return &pdesc.MethodDescriptorProto{
		Name:            proto.String(name),
		InputType:       proto.String(in),
		OutputType:      proto.String(out),
		ClientStreaming: proto.Bool(clientStreaming),
		ServerStreaming: proto.Bool(serverStreaming),
	}
}

// Request builds a code generator request.
func Request(parameter string, generate []string, files ...*pdesc.FileDescriptorProto) *pluginpb.CodeGeneratorRequest {
	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: generate,
		ProtoFile:      files,
	}
	if parameter != "" {
		req.Parameter = proto.String(parameter)
	}
	return req
}

// Marshal encodes a message, panicking on failure.
func Marshal(msg proto.Message) []byte {
	out, err := proto.Marshal(msg)
	if err != nil {
		panic(err)
	}
	return out
}
