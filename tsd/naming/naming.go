// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors

// Package naming derives every name that ends up in generated declarations:
// output paths, import paths and aliases, scoped declaration names and jspb
// accessor names.
package naming

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

const (
	protoExt = ".proto"

	// MessageSuffix is appended to the schema file stem for message declarations.
	MessageSuffix = "_pb"
	// ServiceSuffix is appended to the schema file stem for service declarations.
	ServiceSuffix = "_grpc_pb"
	// DeclarationExt is the extension of every generated file.
	DeclarationExt = ".d.ts"

	wellKnownPrefix = "google/protobuf/"
	wellKnownModule = "google-protobuf/"
)

func stem(protoPath string) string {
	return strings.TrimSuffix(protoPath, protoExt)
}

// MessageModule is the module path (sans extension) of the message
// declarations for the given schema file, e.g. "foo/bar_pb".
func MessageModule(protoPath string) string {
	return stem(protoPath) + MessageSuffix
}

// MessageFile is the generated message declaration path, e.g. "foo/bar_pb.d.ts".
func MessageFile(protoPath string) string {
	return MessageModule(protoPath) + DeclarationExt
}

// ServiceFile is the generated service declaration path, e.g. "foo/bar_grpc_pb.d.ts".
func ServiceFile(protoPath string) string {
	return stem(protoPath) + ServiceSuffix + DeclarationExt
}

// IsWellKnown reports whether the schema file ships with the protobuf runtime.
func IsWellKnown(protoPath string) bool {
	return strings.HasPrefix(protoPath, wellKnownPrefix)
}

var namespaceReplacer = strings.NewReplacer("/", "_", ".", "_", "-", "_")

// Namespace is the preferred import alias for the message declarations of
// the given schema file, e.g. "foo_bar_pb".
func Namespace(protoPath string) string {
	return namespaceReplacer.Replace(stem(protoPath)) + MessageSuffix
}

// Scope names a declaration nested in parent.  All nested declaration names
// are built here.
func Scope(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

// ImportStyle selects how import paths between generated files are built.
type ImportStyle int

const (
	// ImportFromRoot climbs to the output root, then descends into the
	// target ("../../a/b_pb").
	ImportFromRoot ImportStyle = iota
	// ImportRelative uses the shortest relative path ("../a/b_pb").
	ImportRelative
)

func (s ImportStyle) String() string {
	switch s {
	case ImportFromRoot:
		return "root"
	case ImportRelative:
		return "relative"
	default:
		return fmt.Sprintf("ImportStyle(%d)", int(s))
	}
}

// ParseImportStyle parses the option value for an ImportStyle.
func ParseImportStyle(val string) (ImportStyle, error) {
	switch val {
	case "", "root":
		return ImportFromRoot, nil
	case "relative":
		return ImportRelative, nil
	default:
		return 0, fmt.Errorf("unknown import style %q (expected root or relative)", val)
	}
}

// ImportPath is the module path that a declaration file generated for
// fromProto uses to import the message declarations of toProto.
func ImportPath(fromProto, toProto string, style ImportStyle) string {
	if IsWellKnown(toProto) {
		return wellKnownModule + MessageModule(toProto)
	}
	target := MessageModule(toProto)
	fromDir := path.Dir(fromProto)

	if style == ImportRelative {
		return relativeTo(fromDir, target)
	}

	if fromDir == "." {
		return "./" + target
	}
	depth := strings.Count(fromDir, "/") + 1
	return strings.Repeat("../", depth) + target
}

func relativeTo(fromDir, target string) string {
	var fromParts []string
	if fromDir != "." {
		fromParts = strings.Split(fromDir, "/")
	}
	targetParts := strings.Split(target, "/")

	common := 0
	for common < len(fromParts) && common < len(targetParts)-1 && fromParts[common] == targetParts[common] {
		common++
	}
	up := len(fromParts) - common
	rest := strings.Join(targetParts[common:], "/")
	if up == 0 {
		return "./" + rest
	}
	return strings.Repeat("../", up) + rest
}

var snakeSegment = regexp.MustCompile(`_\w`)

// CamelCase converts a schema field name the way the jspb generator does
// ("foo_bar" -> "fooBar").
func CamelCase(name string) string {
	return snakeSegment.ReplaceAllStringFunc(name, func(match string) string {
		return strings.ToUpper(match[1:])
	})
}

// UpperFirst uppercases the first byte of s.
func UpperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// LowerFirst lowercases the first byte of s.
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
