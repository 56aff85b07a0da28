// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors
package generate_test

import (
	"bytes"
	"context"
	"errors"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	pdesc "google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"

	"github.com/arobotd/grpc-tools-node-protoc-ts/backends/common/request"
	"github.com/arobotd/grpc-tools-node-protoc-ts/backends/common/respond"
	"github.com/arobotd/grpc-tools-node-protoc-ts/internal/testproto"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/exportmap"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/generate"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/schema"
)

const (
	typeString = pdesc.FieldDescriptorProto_TYPE_STRING
	typeInt32  = pdesc.FieldDescriptorProto_TYPE_INT32
)

func commonFile() *pdesc.FileDescriptorProto {
	fd := testproto.File("common/types.proto", "common")
	fd.MessageType = append(fd.MessageType, testproto.Message("Id", testproto.Scalar("value", 1, typeString)))
	fd.EnumType = append(fd.EnumType, testproto.Enum("Letter", "A", 0, "B", 1, "ALIAS", 1))
	return fd
}

func apiFile() *pdesc.FileDescriptorProto {
	fd := testproto.File("api/users.proto", "api", "common/types.proto")
	fd.MessageType = append(fd.MessageType,
		testproto.Message("GetRequest", testproto.Ref("id", 1, ".common.Id")),
		testproto.Message("User",
			testproto.Ref("id", 1, ".common.Id"),
			testproto.Ref("manager", 2, ".common.Id"),
			testproto.Scalar("name", 3, typeString),
			testproto.Scalar("age", 4, typeInt32),
		),
	)
	fd.Service = append(fd.Service, testproto.Service("Users",
		testproto.Method("Get", ".api.GetRequest", ".api.User", false, false),
		testproto.Method("Watch", ".api.GetRequest", ".api.User", false, true),
	))
	return fd
}

func run(req *pluginpb.CodeGeneratorRequest) (*pluginpb.CodeGeneratorResponse, []byte, error) {
	var out bytes.Buffer
	err := generate.Run(context.Background(), bytes.NewReader(testproto.Marshal(req)), &out)
	if err != nil {
		return nil, out.Bytes(), err
	}
	resp, readErr := respond.Read(out.Bytes())
	ExpectWithOffset(1, readErr).NotTo(HaveOccurred())
	return resp, out.Bytes(), nil
}

func fileNames(resp *pluginpb.CodeGeneratorResponse) []string {
	var names []string
	for _, file := range resp.GetFile() {
		names = append(names, file.GetName())
	}
	return names
}

func fileContents(resp *pluginpb.CodeGeneratorResponse, name string) string {
	for _, file := range resp.GetFile() {
		if file.GetName() == name {
			return file.GetContent()
		}
	}
	Fail("no generated file named " + name)
	return ""
}

var _ = Describe("Running the plugin", func() {
	It("should generate message declarations for every file and service declarations only where needed", func() {
		resp, _, err := run(testproto.Request("", []string{"common/types.proto", "api/users.proto"}, commonFile(), apiFile()))
		Expect(err).NotTo(HaveOccurred())
		Expect(fileNames(resp)).To(Equal([]string{
			"common/types_pb.d.ts",
			"api/users_pb.d.ts",
			"api/users_grpc_pb.d.ts",
		}))
		Expect(resp.GetSupportedFeatures()).To(Equal(respond.SupportedFeatures))
		Expect(resp.Error).To(BeNil())
	})

	It("should only generate the requested files, in the requested order", func() {
		resp, _, err := run(testproto.Request("", []string{"api/users.proto"}, commonFile(), apiFile()))
		Expect(err).NotTo(HaveOccurred())
		Expect(fileNames(resp)).To(Equal([]string{"api/users_pb.d.ts", "api/users_grpc_pb.d.ts"}))
	})

	It("should import each referenced file once", func() {
		resp, _, err := run(testproto.Request("", []string{"api/users.proto"}, commonFile(), apiFile()))
		Expect(err).NotTo(HaveOccurred())
		messages := fileContents(resp, "api/users_pb.d.ts")
		Expect(messages).To(ContainSubstring(`import * as common_types_pb from "../common/types_pb";`))
		Expect(bytes.Count([]byte(messages), []byte("import * as common_types_pb"))).To(Equal(1))
		Expect(messages).To(ContainSubstring("getManager(): common_types_pb.Id | undefined;"))
		Expect(messages).To(ContainSubstring("    age?: number,"))
	})

	It("should give unary and server-streaming methods different signatures", func() {
		resp, _, err := run(testproto.Request("", []string{"api/users.proto"}, commonFile(), apiFile()))
		Expect(err).NotTo(HaveOccurred())
		services := fileContents(resp, "api/users_grpc_pb.d.ts")
		Expect(services).To(ContainSubstring("get: grpc.handleUnaryCall<api_users_pb.GetRequest, api_users_pb.User>;"))
		Expect(services).To(ContainSubstring("watch: grpc.handleServerStreamingCall<api_users_pb.GetRequest, api_users_pb.User>;"))
		Expect(services).To(ContainSubstring("): grpc.ClientReadableStream<api_users_pb.User>;"))
		Expect(services).To(ContainSubstring(`import * as api_users_pb from "../api/users_pb";`))
	})

	It("should render enum aliases as distinct members", func() {
		resp, _, err := run(testproto.Request("", []string{"common/types.proto"}, commonFile()))
		Expect(err).NotTo(HaveOccurred())
		Expect(fileContents(resp, "common/types_pb.d.ts")).To(ContainSubstring("export interface LetterMap {\n  A: 0;\n  B: 1;\n  ALIAS: 1;\n}"))
	})

	It("should produce byte-identical output for identical input", func() {
		req := testproto.Request("comments", []string{"common/types.proto", "api/users.proto"}, commonFile(), apiFile())
		_, first, err := run(req)
		Expect(err).NotTo(HaveOccurred())
		_, second, err := run(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	It("should produce the same response in parallel mode", func() {
		files := []string{"common/types.proto", "api/users.proto"}
		_, sequential, err := run(testproto.Request("", files, commonFile(), apiFile()))
		Expect(err).NotTo(HaveOccurred())
		_, parallel, err := run(testproto.Request("parallel", files, commonFile(), apiFile()))
		Expect(err).NotTo(HaveOccurred())
		Expect(parallel).To(Equal(sequential))
	})

	It("should honour plugin options", func() {
		resp, _, err := run(testproto.Request("mode=grpc-js,import_style=relative", []string{"api/users.proto"}, commonFile(), apiFile()))
		Expect(err).NotTo(HaveOccurred())
		Expect(fileContents(resp, "api/users_grpc_pb.d.ts")).To(ContainSubstring(`import * as grpc from "@grpc/grpc-js";`))
		Expect(fileContents(resp, "api/users_grpc_pb.d.ts")).To(ContainSubstring(`import * as api_users_pb from "./users_pb";`))
		Expect(fileContents(resp, "api/users_pb.d.ts")).To(ContainSubstring(`from "../common/types_pb";`))
	})

	Context("when something goes wrong", func() {
		It("should write nothing for an undecodable request", func() {
			var out bytes.Buffer
			err := generate.Run(context.Background(), bytes.NewReader([]byte{0xff, 0xff, 0xff}), &out)
			var malformed *request.MalformedRequestError
			Expect(errors.As(err, &malformed)).To(BeTrue())
			Expect(out.Len()).To(BeZero())
		})

		It("should write nothing when a reference can't be resolved", func() {
			broken := testproto.File("broken.proto", "broken")
			broken.MessageType = append(broken.MessageType, testproto.Message("Broken", testproto.Ref("ghost", 1, ".nowhere.Ghost")))

			_, written, err := run(testproto.Request("", []string{"common/types.proto", "broken.proto"}, commonFile(), broken))
			var unresolved *exportmap.UnresolvedReferenceError
			Expect(errors.As(err, &unresolved)).To(BeTrue())
			Expect(respond.ErrorKind(err)).To(Equal("unresolved reference"))
			Expect(written).To(BeEmpty())
		})

		It("should fail in parallel mode too", func() {
			broken := testproto.File("broken.proto", "broken")
			broken.MessageType = append(broken.MessageType, testproto.Message("Broken", testproto.Ref("ghost", 1, ".nowhere.Ghost")))

			_, written, err := run(testproto.Request("parallel", []string{"common/types.proto", "broken.proto"}, commonFile(), broken))
			Expect(err).To(HaveOccurred())
			Expect(written).To(BeEmpty())
		})

		It("should reject unknown options", func() {
			_, written, err := run(testproto.Request("bogus=1", []string{"common/types.proto"}, commonFile()))
			Expect(respond.ErrorKind(err)).To(Equal("malformed request"))
			Expect(written).To(BeEmpty())
		})

		It("should reject files to generate that aren't in the request", func() {
			_, _, err := run(testproto.Request("", []string{"missing.proto"}, commonFile()))
			Expect(respond.ErrorKind(err)).To(Equal("malformed request"))
		})
	})
})

var _ = Describe("A generator", func() {
	var files []*schema.File

	BeforeEach(func() {
		files = nil
		for _, fd := range []*pdesc.FileDescriptorProto{commonFile(), apiFile()} {
			file, err := schema.FromDescriptor(fd)
			Expect(err).NotTo(HaveOccurred())
			files = append(files, file)
		}
	})

	It("should end in Done after a successful run and log its steps", func() {
		var logs bytes.Buffer
		ctx := logr.NewContext(context.Background(), respond.NewLogger(&logs, 1))

		gen, err := generate.New(ctx, files, generate.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(gen.State()).To(Equal(generate.BuildingSymbolTable))

		_, err = gen.Generate(ctx, files)
		Expect(err).NotTo(HaveOccurred())
		Expect(gen.State()).To(Equal(generate.Done))
		Expect(logs.String()).To(ContainSubstring("entering state"))
		Expect(logs.String()).To(ContainSubstring("RenderingServices"))
	})

	It("should end in Failed after a failed run", func() {
		broken := &schema.File{
			Path:     "broken.proto",
			Messages: []*schema.Message{{Name: "B", FullName: ".B", Fields: []*schema.Field{{Name: "x", Kind: schema.KindInvalid}}}},
		}
		gen, err := generate.New(context.Background(), append(files, broken), generate.Options{})
		Expect(err).NotTo(HaveOccurred())

		_, err = gen.Generate(context.Background(), []*schema.File{broken})
		Expect(err).To(HaveOccurred())
		Expect(respond.ErrorKind(err)).To(Equal("unsupported field kind"))
		Expect(gen.State()).To(Equal(generate.Failed))
	})

	It("should fail to build a table with duplicate declarations", func() {
		dup := &schema.File{Path: "dup.proto", Messages: []*schema.Message{{Name: "Id", FullName: ".common.Id"}}}
		_, err := generate.New(context.Background(), append(files, dup), generate.Options{})
		Expect(err).To(HaveOccurred())
		var dupErr *exportmap.DuplicateSymbolError
		Expect(errors.As(err, &dupErr)).To(BeTrue())
	})

	It("should expose the models it renders", func() {
		gen, err := generate.New(context.Background(), files, generate.Options{})
		Expect(err).NotTo(HaveOccurred())

		models, err := gen.Models(files[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(models.Services).To(BeNil())
		Expect(models.Messages.Enums).To(HaveLen(1))

		models, err = gen.Models(files[1])
		Expect(err).NotTo(HaveOccurred())
		Expect(models.Services.Services).To(HaveLen(1))
		Expect(models.Messages.Messages[1].Fields).To(HaveLen(4))
	})

	It("should name its states", func() {
		Expect(generate.AssemblingResponse.String()).To(Equal("AssemblingResponse"))
		Expect(generate.State(42).String()).To(Equal("State(42)"))
	})
})
