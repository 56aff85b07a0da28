// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors

// Package typemap maps schema field types onto TypeScript types for the jspb
// runtime.
package typemap

import (
	"fmt"

	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/exportmap"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/model"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/schema"
)

const (
	tsNumber  = "number"
	tsString  = "string"
	tsBoolean = "boolean"
	tsBytes   = "Uint8Array | string"
)

var scalars = map[schema.FieldKind]string{
	schema.KindDouble:   tsNumber,
	schema.KindFloat:    tsNumber,
	schema.KindInt32:    tsNumber,
	schema.KindInt64:    tsNumber,
	schema.KindUint32:   tsNumber,
	schema.KindUint64:   tsNumber,
	schema.KindSint32:   tsNumber,
	schema.KindSint64:   tsNumber,
	schema.KindFixed32:  tsNumber,
	schema.KindFixed64:  tsNumber,
	schema.KindSfixed32: tsNumber,
	schema.KindSfixed64: tsNumber,
	schema.KindBool:     tsBoolean,
	schema.KindString:   tsString,
	schema.KindBytes:    tsBytes,
}

func is64Bit(kind schema.FieldKind) bool {
	switch kind {
	case schema.KindInt64, schema.KindUint64, schema.KindSint64, schema.KindFixed64, schema.KindSfixed64:
		return true
	default:
		return false
	}
}

func legalMapKey(kind schema.FieldKind) bool {
	switch kind {
	case schema.KindInt32, schema.KindInt64, schema.KindUint32, schema.KindUint64,
		schema.KindSint32, schema.KindSint64, schema.KindFixed32, schema.KindFixed64,
		schema.KindSfixed32, schema.KindSfixed64, schema.KindBool, schema.KindString:
		return true
	default:
		return false
	}
}

// UnsupportedFieldKindError is returned for a field whose kind has no
// TypeScript mapping.
type UnsupportedFieldKindError struct {
	Field     string
	FieldKind schema.FieldKind
	Reason    string
}

func (e *UnsupportedFieldKindError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("field %q: %s (%s)", e.Field, e.Reason, e.FieldKind)
	}
	return fmt.Sprintf("field %q has unsupported kind %s", e.Field, e.FieldKind)
}

func (e *UnsupportedFieldKindError) Kind() string {
	return "unsupported field kind"
}

// Referencer spells a resolved symbol in the file being generated.
// *Imports is the usual implementation.
type Referencer interface {
	Reference(res exportmap.Resolution) string
}

// Mapper maps fields of a single schema file.
type Mapper struct {
	Table *exportmap.Table
	// From is the path of the schema file being generated.
	From string
}

// MapField maps a field (or extension) to its getter/setter and AsObject types.
func (m Mapper) MapField(field *schema.Field, refs Referencer) (model.Type, error) {
	if field.Kind == schema.KindMap {
		return m.mapMap(field, refs)
	}

	elem, obj, err := m.mapSingle(field, field.Name, refs)
	if err != nil {
		return model.Type{}, err
	}
	if !field.Repeated() {
		return model.Type{TS: elem, Object: obj}, nil
	}
	return model.Type{
		TS:     "Array<" + elem + ">",
		Object: "Array<" + obj + ">",
		Elem:   elem,
	}, nil
}

func (m Mapper) mapMap(field *schema.Field, refs Referencer) (model.Type, error) {
	if field.Map == nil || field.Map.Key == nil || field.Map.Value == nil {
		return model.Type{}, &UnsupportedFieldKindError{Field: field.Name, FieldKind: field.Kind, Reason: "map without key and value types"}
	}
	key, value := field.Map.Key, field.Map.Value
	if !legalMapKey(key.Kind) {
		return model.Type{}, &UnsupportedFieldKindError{Field: field.Name, FieldKind: key.Kind, Reason: "illegal map key kind"}
	}
	if value.Kind == schema.KindMap {
		return model.Type{}, &UnsupportedFieldKindError{Field: field.Name, FieldKind: value.Kind, Reason: "map values may not be maps"}
	}

	keyTS, _, err := m.mapSingle(key, field.Name, refs)
	if err != nil {
		return model.Type{}, err
	}
	valueTS, valueObj, err := m.mapSingle(value, field.Name, refs)
	if err != nil {
		return model.Type{}, err
	}
	return model.Type{
		TS:     fmt.Sprintf("jspb.Map<%s, %s>", keyTS, valueTS),
		Object: fmt.Sprintf("Array<[%s, %s]>", keyTS, valueObj),
	}, nil
}

// mapSingle maps the element type of a field, ignoring cardinality.
func (m Mapper) mapSingle(field *schema.Field, owner string, refs Referencer) (string, string, error) {
	if ts, isScalar := scalars[field.Kind]; isScalar {
		if is64Bit(field.Kind) && field.JSType == schema.JSString {
			ts = tsString
		}
		return ts, ts, nil
	}

	if !field.Kind.IsReference() {
		return "", "", &UnsupportedFieldKindError{Field: owner, FieldKind: field.Kind}
	}

	res, err := m.Table.Resolve(field.TypeName, m.From)
	if err != nil {
		return "", "", fmt.Errorf("field %q: %w", owner, err)
	}
	if field.Kind == schema.KindEnum {
		if res.Kind != exportmap.KindEnum {
			return "", "", &UnsupportedFieldKindError{Field: owner, FieldKind: field.Kind, Reason: fmt.Sprintf("%s is not an enum", field.TypeName)}
		}
		enumMap := refs.Reference(res) + "Map"
		ts := enumMap + "[keyof " + enumMap + "]"
		return ts, ts, nil
	}
	if res.Kind != exportmap.KindMessage {
		return "", "", &UnsupportedFieldKindError{Field: owner, FieldKind: field.Kind, Reason: fmt.Sprintf("%s is not a message", field.TypeName)}
	}
	ref := refs.Reference(res)
	return ref, ref + ".AsObject", nil
}

// MapReference spells a message named by qualifiedName, as used for method
// request and response types.
func (m Mapper) MapReference(qualifiedName string, refs Referencer) (string, error) {
	res, err := m.Table.Resolve(qualifiedName, m.From)
	if err != nil {
		return "", err
	}
	if res.Kind != exportmap.KindMessage {
		return "", &UnsupportedFieldKindError{Field: qualifiedName, FieldKind: schema.KindEnum, Reason: "only messages can be used as rpc request or response types"}
	}
	return refs.Reference(res), nil
}
