// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors
package typemap

import (
	"fmt"

	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/exportmap"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/model"
)

// Imports collects the imports of a single generated file.  Each module is
// imported at most once, in the order it was first referenced, under an
// alias that doesn't collide with any other alias or with a reserved name.
//
// Imports is not safe for concurrent use; each generated file gets its own.
type Imports struct {
	// local controls whether symbols declared in the file being generated
	// are referenced by bare name (message files) or imported like any
	// other module (service files).
	local bool

	byPath map[string]string
	used   map[string]struct{}
	order  []model.Import
}

// NewImports returns an empty collector.  Reserved names are never chosen
// as aliases.
func NewImports(local bool, reserved ...string) *Imports {
	imps := &Imports{
		local:  local,
		byPath: make(map[string]string),
		used:   make(map[string]struct{}, len(reserved)),
	}
	for _, name := range reserved {
		imps.used[name] = struct{}{}
	}
	return imps
}

// Fixed adds an import with a known alias, like the jspb or grpc runtime.
func (i *Imports) Fixed(alias, path string) {
	if _, exists := i.byPath[path]; exists {
		return
	}
	i.used[alias] = struct{}{}
	i.byPath[path] = alias
	i.order = append(i.order, model.Import{Namespace: alias, Path: path})
}

// Reference returns the spelling of res in the file being generated,
// recording an import if needed.
func (i *Imports) Reference(res exportmap.Resolution) string {
	if res.Local && i.local {
		return res.Name
	}
	if existing, exists := i.byPath[res.ImportPath]; exists {
		return existing + "." + res.Name
	}

	alias := res.Namespace
	if _, taken := i.used[alias]; taken {
		// last ditch, start appending numbers
		for n := 1; ; n++ {
			candidate := fmt.Sprintf("%s_%d", res.Namespace, n)
			if _, taken := i.used[candidate]; !taken {
				alias = candidate
				break
			}
		}
	}
	i.used[alias] = struct{}{}
	i.byPath[res.ImportPath] = alias
	i.order = append(i.order, model.Import{Namespace: alias, Path: res.ImportPath})
	return alias + "." + res.Name
}

// List returns the imports in first-referenced order.
func (i *Imports) List() []model.Import {
	out := make([]model.Import, len(i.order))
	copy(out, i.order)
	return out
}
