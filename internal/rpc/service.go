// Package rpc exposes a game session over gRPC. Messages are
// google.protobuf.Struct documents carrying the JSON form of commands,
// results and snapshots, so the service needs no generated code.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "village.v1.VillageService"

	ApplyMethod    = "/" + ServiceName + "/Apply"
	SnapshotMethod = "/" + ServiceName + "/Snapshot"
)

// VillageServer is the server API for the village service
type VillageServer interface {
	// Apply runs one command and returns its result
	Apply(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Snapshot returns the current village projection
	Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterVillageServer registers srv on s
func RegisterVillageServer(s grpc.ServiceRegistrar, srv VillageServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func applyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VillageServer).Apply(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ApplyMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VillageServer).Apply(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func snapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VillageServer).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SnapshotMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VillageServer).Snapshot(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc describes the village service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VillageServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Apply", Handler: applyHandler},
		{MethodName: "Snapshot", Handler: snapshotHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "village/v1/village.proto",
}
