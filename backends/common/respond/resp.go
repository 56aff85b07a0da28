// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors
package respond

import (
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/pluginpb"
)

// SupportedFeatures is advertised to protoc in every response.
var SupportedFeatures = uint64(pluginpb.CodeGeneratorResponse_FEATURE_PROTO3_OPTIONAL)

// File builds a single generated file.
func File(path string, contents []byte) *pluginpb.CodeGeneratorResponse_File {
	return &pluginpb.CodeGeneratorResponse_File{
		Name:    proto.String(path),
		Content: proto.String(string(contents)),
	}
}

// Response wraps generated files into a response.
func Response(files ...*pluginpb.CodeGeneratorResponse_File) *pluginpb.CodeGeneratorResponse {
	return &pluginpb.CodeGeneratorResponse{
		SupportedFeatures: proto.Uint64(SupportedFeatures),
		File:              files,
	}
}

// Write encodes resp in one piece to out (generally stdout, read by protoc).
func Write(out io.Writer, resp *pluginpb.CodeGeneratorResponse) error {
	raw, err := proto.Marshal(resp)
	if err != nil {
		return fmt.Errorf("unable to encode code generator response: %w", err)
	}
	if _, err := out.Write(raw); err != nil {
		return fmt.Errorf("unable to write code generator response: %w", err)
	}
	return nil
}

// Read decodes a response, the inverse of Write.
func Read(from []byte) (*pluginpb.CodeGeneratorResponse, error) {
	var resp pluginpb.CodeGeneratorResponse
	if err := proto.Unmarshal(from, &resp); err != nil {
		return nil, fmt.Errorf("unable to decode code generator response: %w", err)
	}
	return &resp, nil
}
