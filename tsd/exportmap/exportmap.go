// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors

// Package exportmap holds the whole-request symbol table: every message and
// enum declared anywhere in the request, keyed by fully qualified name.
//
// A Table is built once and never modified afterwards, so it may be shared
// between goroutines formatting different files.
package exportmap

import (
	"fmt"

	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/naming"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/schema"
)

// Kind is the kind of declaration a symbol refers to.
type Kind int

const (
	KindMessage Kind = iota
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Symbol is a single exported declaration.
type Symbol struct {
	// QualifiedName is the fully qualified schema name (".pkg.Outer.Inner").
	QualifiedName string
	// File is the path of the declaring schema file.
	File string
	// Name is the declaration name in the generated file ("Outer.Inner").
	Name string
	Kind Kind
}

// Resolution is a Symbol as seen from a particular schema file.
type Resolution struct {
	Symbol
	// Local is true when the symbol is declared in the file it was resolved from.
	Local bool
	// ImportPath is the module path of the symbol's message declarations
	// relative to the resolving file.
	ImportPath string
	// Namespace is the preferred import alias for ImportPath.
	Namespace string
}

// UnresolvedReferenceError is returned when a name has no entry in the table.
type UnresolvedReferenceError struct {
	Name string
	From string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("type %q referenced from %q is not declared in any file of the request", e.Name, e.From)
}

func (e *UnresolvedReferenceError) Kind() string {
	return "unresolved reference"
}

// DuplicateSymbolError is returned when two declarations share a qualified name.
type DuplicateSymbolError struct {
	Name          string
	First, Second string
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("type %q is declared in both %q and %q", e.Name, e.First, e.Second)
}

func (e *DuplicateSymbolError) Kind() string {
	return "malformed request"
}

// Table is the immutable symbol table.
type Table struct {
	symbols     map[string]Symbol
	importStyle naming.ImportStyle
}

// Option configures a Table.
type Option func(*Table)

// WithImportStyle sets how import paths are computed on resolution.
func WithImportStyle(style naming.ImportStyle) Option {
	return func(t *Table) {
		t.importStyle = style
	}
}

// Build indexes every message and enum declared in files.
func Build(files []*schema.File, opts ...Option) (*Table, error) {
	t := &Table{
		symbols: make(map[string]Symbol),
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, file := range files {
		for _, msg := range file.Messages {
			if err := t.addMessage(file.Path, "", msg); err != nil {
				return nil, err
			}
		}
		for _, enum := range file.Enums {
			if err := t.add(file.Path, "", enum.FullName, enum.Name, KindEnum); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func (t *Table) addMessage(file, scope string, msg *schema.Message) error {
	if err := t.add(file, scope, msg.FullName, msg.Name, KindMessage); err != nil {
		return err
	}
	declName := naming.Scope(scope, msg.Name)
	for _, nested := range msg.Messages {
		if err := t.addMessage(file, declName, nested); err != nil {
			return err
		}
	}
	for _, enum := range msg.Enums {
		if err := t.add(file, declName, enum.FullName, enum.Name, KindEnum); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) add(file, scope, qualifiedName, name string, kind Kind) error {
	if existing, exists := t.symbols[qualifiedName]; exists {
		return &DuplicateSymbolError{Name: qualifiedName, First: existing.File, Second: file}
	}
	t.symbols[qualifiedName] = Symbol{
		QualifiedName: qualifiedName,
		File:          file,
		Name:          naming.Scope(scope, name),
		Kind:          kind,
	}
	return nil
}

// Lookup returns the symbol for a fully qualified name.
func (t *Table) Lookup(qualifiedName string) (Symbol, bool) {
	sym, ok := t.symbols[qualifiedName]
	return sym, ok
}

// Len is the number of symbols in the table.
func (t *Table) Len() int {
	return len(t.symbols)
}

// Resolve looks up qualifiedName as referenced from the schema file fromFile.
func (t *Table) Resolve(qualifiedName, fromFile string) (Resolution, error) {
	sym, ok := t.symbols[qualifiedName]
	if !ok {
		return Resolution{}, &UnresolvedReferenceError{Name: qualifiedName, From: fromFile}
	}
	return Resolution{
		Symbol:     sym,
		Local:      sym.File == fromFile,
		ImportPath: naming.ImportPath(fromFile, sym.File, t.importStyle),
		Namespace:  naming.Namespace(sym.File),
	}, nil
}
