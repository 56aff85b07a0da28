// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors
package schema

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

const noLoc = -1

// tracker follows a path through a descriptor message so that we can find
// the matching SourceCodeInfo location (and thus the comments) for any
// element we convert.
type tracker struct {
	parent  *tracker
	current protoreflect.MessageDescriptor
	loc     int32
	rep     bool
}

func trackSrc(msg protoreflect.ProtoMessage) *tracker {
	return &tracker{
		current: msg.ProtoReflect().Descriptor(),
		loc:     noLoc, // sentinel, avoid us
	}
}

func (m *tracker) field(field protoreflect.Name) *tracker {
	if m == nil {
		return nil
	}
	if m.rep || m.current == nil {
		panic("tried to specify field path element on repeated or non-message field")
	}
	fieldDesc := m.current.Fields().ByName(field)
	if fieldDesc == nil {
		panic(fmt.Sprintf("unknown descriptor field %q", field))
	}
	return &tracker{
		loc:     int32(fieldDesc.Number()),
		rep:     fieldDesc.Cardinality() == protoreflect.Repeated,
		current: fieldDesc.Message(),
		parent:  m,
	}
}

func (m *tracker) item(ind int) *tracker {
	if m == nil {
		return nil
	}
	if !m.rep {
		panic("tried to specify item path element on non-repeated field")
	}
	return &tracker{
		loc:     int32(ind),
		current: m.current,
		parent:  m,
	}
}

// path returns the SourceCodeInfo path of the tracked element.
func (m *tracker) path() []int32 {
	var rev []int32
	for current := m; current != nil; current = current.parent {
		if current.loc == noLoc {
			continue
		}
		rev = append(rev, current.loc)
	}
	res := make([]int32, len(rev))
	for i, loc := range rev {
		res[len(rev)-1-i] = loc
	}
	return res
}

// commentIndex maps SourceCodeInfo paths to leading comments.
type commentIndex map[string]string

func pathKey(path []int32) string {
	return fmt.Sprint(path)
}

func indexComments(info *descriptorpb.SourceCodeInfo) commentIndex {
	idx := make(commentIndex)
	for _, loc := range info.GetLocation() {
		text := strings.TrimSpace(loc.GetLeadingComments())
		if text == "" {
			continue
		}
		idx[pathKey(loc.GetPath())] = text
	}
	return idx
}

func (c commentIndex) at(t *tracker) string {
	if t == nil {
		return ""
	}
	return c[pathKey(t.path())]
}
