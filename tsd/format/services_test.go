// SPDX-License-Identifier: Apache-2.0
// Copyright 2021 The Kubernetes Authors
package format_test

import (
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	pdesc "google.golang.org/protobuf/types/descriptorpb"

	"github.com/arobotd/grpc-tools-node-protoc-ts/internal/testproto"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/exportmap"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/format"
	"github.com/arobotd/grpc-tools-node-protoc-ts/tsd/model"
)

func watchService() *pdesc.FileDescriptorProto {
	fd := testproto.File("watch/watch.proto", "watch")
	fd.MessageType = append(fd.MessageType, testproto.Message("Req"), testproto.Message("Res"))
	fd.Service = append(fd.Service, testproto.Service("Watcher",
		testproto.Method("Get", ".watch.Req", ".watch.Res", false, false),
		testproto.Method("Watch", ".watch.Req", ".watch.Res", false, true),
		testproto.Method("Upload", ".watch.Req", ".watch.Res", true, false),
		testproto.Method("Chat", ".watch.Req", ".watch.Res", true, true),
	))
	return fd
}

var _ = Describe("Formatting services", func() {
	It("should report files without services as absent", func() {
		fd := testproto.File("plain.proto", "plain")
		fd.MessageType = append(fd.MessageType, testproto.Message("Plain"))
		files, table := load(fd)

		res, err := format.Services(files[0], table, format.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Kind()).To(Equal(format.ServicesAbsent))
		Expect(res.Model()).To(BeNil())
	})

	It("should give each streaming shape a distinct signature", func() {
		files, table := load(watchService())

		res, err := format.Services(files[0], table, format.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Kind()).To(Equal(format.ServicesPresent))

		svcFile := res.Model()
		Expect(svcFile.GRPCModule).To(Equal("grpc"))
		Expect(svcFile.Imports).To(Equal([]model.Import{
			{Namespace: "grpc", Path: "grpc"},
			{Namespace: "watch_watch_pb", Path: "../watch/watch_pb"},
		}))
		Expect(svcFile.Services).To(HaveLen(1))

		svc := svcFile.Services[0]
		Expect(svc.FullName).To(Equal("watch.Watcher"))
		Expect(svc.Methods).To(HaveLen(4))

		get, watch, upload, chat := svc.Methods[0], svc.Methods[1], svc.Methods[2], svc.Methods[3]
		Expect(get.Shape).To(Equal(model.Unary))
		Expect(get.FieldName).To(Equal("get"))
		Expect(get.Path).To(Equal("/watch.Watcher/Get"))
		Expect(get.RequestType).To(Equal("watch_watch_pb.Req"))
		Expect(get.Handler).To(Equal("grpc.handleUnaryCall<watch_watch_pb.Req, watch_watch_pb.Res>"))
		Expect(get.Call).To(Equal("grpc.ClientUnaryCall"))

		Expect(watch.Shape).To(Equal(model.ServerStreaming))
		Expect(watch.ResponseStream).To(BeTrue())
		Expect(watch.Handler).To(Equal("grpc.handleServerStreamingCall<watch_watch_pb.Req, watch_watch_pb.Res>"))
		Expect(watch.Call).To(Equal("grpc.ClientReadableStream<watch_watch_pb.Res>"))
		Expect(watch.Call).NotTo(Equal(get.Call))

		Expect(upload.Shape).To(Equal(model.ClientStreaming))
		Expect(upload.Call).To(Equal("grpc.ClientWritableStream<watch_watch_pb.Req>"))

		Expect(chat.Shape).To(Equal(model.Bidi))
		Expect(chat.Handler).To(Equal("grpc.handleBidiStreamingCall<watch_watch_pb.Req, watch_watch_pb.Res>"))
		Expect(chat.Call).To(Equal("grpc.ClientDuplexStream<watch_watch_pb.Req, watch_watch_pb.Res>"))
	})

	It("should target grpc-js when asked to", func() {
		files, table := load(watchService())

		res, err := format.Services(files[0], table, format.Options{GRPCJS: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Model().GRPCJS).To(BeTrue())
		Expect(res.Model().GRPCModule).To(Equal("@grpc/grpc-js"))
		Expect(res.Model().Imports[0]).To(Equal(model.Import{Namespace: "grpc", Path: "@grpc/grpc-js"}))
	})

	It("should import request and response files once each", func() {
		types := testproto.File("types.proto", "types")
		types.MessageType = append(types.MessageType, testproto.Message("Req"), testproto.Message("Res"))
		api := testproto.File("api.proto", "api", "types.proto")
		api.MessageType = append(api.MessageType, testproto.Message("Local"))
		api.Service = append(api.Service, testproto.Service("Api",
			testproto.Method("One", ".types.Req", ".types.Res", false, false),
			testproto.Method("Two", ".types.Req", ".api.Local", false, false),
		))
		files, table := load(types, api)

		res, err := format.Services(files[1], table, format.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Model().Imports).To(Equal([]model.Import{
			{Namespace: "grpc", Path: "grpc"},
			{Namespace: "types_pb", Path: "./types_pb"},
			{Namespace: "api_pb", Path: "./api_pb"},
		}))
		Expect(res.Model().Services[0].Methods[1].ResponseType).To(Equal("api_pb.Local"))
	})

	It("should fail when a method references an undeclared type", func() {
		fd := testproto.File("bad.proto", "bad")
		fd.Service = append(fd.Service, testproto.Service("Bad",
			testproto.Method("Nope", ".bad.Missing", ".bad.Missing", false, false),
		))
		files, table := load(fd)

		_, err := format.Services(files[0], table, format.Options{})
		var unresolved *exportmap.UnresolvedReferenceError
		Expect(errors.As(err, &unresolved)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("Nope"))
	})
})
