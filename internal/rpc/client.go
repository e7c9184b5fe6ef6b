package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/napolitain/village-sim/internal/converter"
	"github.com/napolitain/village-sim/internal/game"
	"github.com/napolitain/village-sim/internal/village"
)

// Client calls the village service over a connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Apply sends one command. Rejections come back as gRPC status errors.
func (c *Client) Apply(ctx context.Context, cmd game.Command, opts ...grpc.CallOption) (game.Result, error) {
	in, err := converter.CommandToStruct(cmd)
	if err != nil {
		return game.Result{}, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ApplyMethod, in, out, opts...); err != nil {
		return game.Result{}, err
	}
	return converter.StructToResult(out)
}

// Snapshot fetches the current village projection
func (c *Client) Snapshot(ctx context.Context, opts ...grpc.CallOption) (village.Snapshot, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SnapshotMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return village.Snapshot{}, err
	}
	return converter.StructToSnapshot(out)
}
