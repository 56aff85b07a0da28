// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors
package naming

import (
	"fmt"
)

// ReservedPolicy decides how a field name that collides with a reserved word
// is spelled as an AsObject key.
type ReservedPolicy int

const (
	// ReservedPrefix prefixes "pb_", matching what the jspb runtime's
	// toObject produces.
	ReservedPrefix ReservedPolicy = iota
	// ReservedSuffix appends "_".
	ReservedSuffix
)

func (p ReservedPolicy) String() string {
	switch p {
	case ReservedPrefix:
		return "prefix"
	case ReservedSuffix:
		return "suffix"
	default:
		return fmt.Sprintf("ReservedPolicy(%d)", int(p))
	}
}

// ParseReservedPolicy parses the option value for a ReservedPolicy.
func ParseReservedPolicy(val string) (ReservedPolicy, error) {
	switch val {
	case "", "prefix":
		return ReservedPrefix, nil
	case "suffix":
		return ReservedSuffix, nil
	default:
		return 0, fmt.Errorf("unknown reserved word policy %q (expected prefix or suffix)", val)
	}
}

// Escape applies the policy to name if it's reserved.
func (p ReservedPolicy) Escape(name string) string {
	if !IsReserved(name) {
		return name
	}
	if p == ReservedSuffix {
		return name + "_"
	}
	return "pb_" + name
}

var reservedWords = map[string]struct{}{}

func init() {
	for _, word := range []string{
		"abstract", "boolean", "break", "byte", "case", "catch", "char", "class",
		"const", "continue", "debugger", "default", "delete", "do", "double",
		"else", "enum", "export", "extends", "false", "final", "finally", "float",
		"for", "function", "goto", "if", "implements", "import", "in",
		"instanceof", "int", "interface", "long", "native", "new", "null",
		"package", "private", "protected", "public", "return", "short", "static",
		"super", "switch", "synchronized", "this", "throw", "throws", "transient",
		"try", "typeof", "var", "void", "volatile", "while", "with",
	} {
		reservedWords[word] = struct{}{}
	}
}

// IsReserved reports whether name is a JavaScript reserved word.
func IsReserved(name string) bool {
	_, reserved := reservedWords[name]
	return reserved
}
