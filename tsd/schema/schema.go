// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors

// Package schema holds the language-independent view of the schema files in a
// code generation request.  Everything here is built once per request and
// treated as read-only afterwards.
package schema

import (
	"fmt"
)

// FieldKind is the declared kind of a field.
type FieldKind int

const (
	KindInvalid FieldKind = iota
	KindDouble
	KindFloat
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindSint32
	KindSint64
	KindFixed32
	KindFixed64
	KindSfixed32
	KindSfixed64
	KindBool
	KindString
	KindBytes
	KindEnum
	KindMessage
	// KindGroup is a proto2 group; it's declared like a nested message and
	// referenced like one.
	KindGroup
	KindMap
)

var kindNames = map[FieldKind]string{
	KindInvalid:  "invalid",
	KindDouble:   "double",
	KindFloat:    "float",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindUint32:   "uint32",
	KindUint64:   "uint64",
	KindSint32:   "sint32",
	KindSint64:   "sint64",
	KindFixed32:  "fixed32",
	KindFixed64:  "fixed64",
	KindSfixed32: "sfixed32",
	KindSfixed64: "sfixed64",
	KindBool:     "bool",
	KindString:   "string",
	KindBytes:    "bytes",
	KindEnum:     "enum",
	KindMessage:  "message",
	KindGroup:    "group",
	KindMap:      "map",
}

func (k FieldKind) String() string {
	if name, known := kindNames[k]; known {
		return name
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// IsReference returns true for kinds that name another declaration.
func (k FieldKind) IsReference() bool {
	return k == KindEnum || k == KindMessage || k == KindGroup
}

// Cardinality is the label of a field.
type Cardinality int

const (
	Optional Cardinality = iota
	Required
	Repeated
)

func (c Cardinality) String() string {
	switch c {
	case Optional:
		return "optional"
	case Required:
		return "required"
	case Repeated:
		return "repeated"
	default:
		return fmt.Sprintf("Cardinality(%d)", int(c))
	}
}

// JSType mirrors the jstype field option, which only affects 64-bit integers.
type JSType int

const (
	JSNormal JSType = iota
	JSString
	JSNumber
)

// File is a single schema file.  Its identity is its path.
type File struct {
	Path    string
	Package string
	// Syntax is "proto2" or "proto3" ("proto2" when the descriptor leaves it unset).
	Syntax       string
	Dependencies []string

	Messages   []*Message
	Enums      []*Enum
	Services   []*Service
	Extensions []*Field
}

// Proto3 reports whether the file uses proto3 semantics.
func (f *File) Proto3() bool {
	return f.Syntax == "proto3"
}

// Message is a message type, possibly nested in another message.
type Message struct {
	Name string
	// FullName is the fully qualified name in the form descriptors use for
	// references (".pkg.Outer.Inner").
	FullName string

	Fields     []*Field
	Messages   []*Message
	Enums      []*Enum
	Oneofs     []*Oneof
	Extensions []*Field

	Comments string
}

// Oneof is a group of fields of which at most one is set.
type Oneof struct {
	Name string
	// Synthetic oneofs wrap a single proto3 `optional` field.
	Synthetic bool
}

// MapEntry describes the key and value of a map field.  Key is always
// a scalar kind; Value may be anything but another map.
type MapEntry struct {
	Key   *Field
	Value *Field
}

// Field is a single field of a message (or an extension).
type Field struct {
	Name   string
	Number int32

	Kind        FieldKind
	Cardinality Cardinality
	// TypeName is the fully qualified referenced name for enum, message and
	// group fields.
	TypeName string
	// Map is set iff Kind is KindMap.
	Map *MapEntry
	// Oneof is the group this field belongs to, if any.
	Oneof *Oneof

	Proto3Optional bool
	JSType         JSType

	// Extendee is the fully qualified extended message for extensions.
	Extendee string

	Comments string
}

// Repeated is true for both repeated fields and maps.
func (f *Field) Repeated() bool {
	return f.Cardinality == Repeated
}

// InRealOneof is true for members of a user-declared oneof (as opposed to
// the synthetic oneof of a proto3 optional field).
func (f *Field) InRealOneof() bool {
	return f.Oneof != nil && !f.Oneof.Synthetic
}

// Enum is an enum type.  Values keep declaration order, aliases included.
type Enum struct {
	Name     string
	FullName string
	Values   []EnumValue
	Comments string
}

type EnumValue struct {
	Name     string
	Number   int32
	Comments string
}

// Service is an RPC service.
type Service struct {
	Name     string
	FullName string
	Methods  []*Method
	Comments string
}

// Method is a single RPC.  InputType and OutputType are fully qualified.
type Method struct {
	Name            string
	InputType       string
	OutputType      string
	ClientStreaming bool
	ServerStreaming bool
	Comments        string
}
