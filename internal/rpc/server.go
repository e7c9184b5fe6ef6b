package rpc

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/napolitain/village-sim/internal/converter"
	"github.com/napolitain/village-sim/internal/game"
	"github.com/napolitain/village-sim/internal/models"
	"github.com/napolitain/village-sim/internal/prayer"
)

// Server implements VillageServer on top of a game session
type Server struct {
	session *game.Session
	logger  zerolog.Logger
}

// NewServer creates a server for session
func NewServer(session *game.Session, logger zerolog.Logger) *Server {
	return &Server{
		session: session,
		logger:  logger.With().Str("component", "rpc").Logger(),
	}
}

// Apply implements the Apply RPC
func (s *Server) Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cmd, err := converter.StructToCommand(req)
	if err != nil {
		return nil, toStatus(err)
	}

	res, err := s.session.Apply(cmd)
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := converter.ResultToStruct(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

// Snapshot implements the Snapshot RPC
func (s *Server) Snapshot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	out, err := converter.SnapshotToStruct(s.session.Snapshot())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode snapshot: %v", err)
	}
	return out, nil
}

var statusCodes = []struct {
	err  error
	code codes.Code
}{
	{game.ErrInvalidCommand, codes.InvalidArgument},
	{game.ErrUnknownOp, codes.InvalidArgument},
	{models.ErrUnknownBuildingType, codes.InvalidArgument},
	{models.ErrOutOfBounds, codes.InvalidArgument},
	{models.ErrInvalidLevel, codes.InvalidArgument},
	{models.ErrUnknownBuilding, codes.NotFound},
	{models.ErrUnknownEvent, codes.NotFound},
	{prayer.ErrUnknownPrayer, codes.NotFound},
	{models.ErrCellOccupied, codes.AlreadyExists},
	{models.ErrEventAlreadyActive, codes.AlreadyExists},
	{prayer.ErrAlreadyCompleted, codes.AlreadyExists},
	{models.ErrInsufficientResources, codes.FailedPrecondition},
	{models.ErrRequirementNotMet, codes.FailedPrecondition},
	{models.ErrMaxLevelReached, codes.FailedPrecondition},
	{models.ErrWorkerLimit, codes.FailedPrecondition},
	{models.ErrWorkerFloor, codes.FailedPrecondition},
	{models.ErrNoAvailableWorkers, codes.FailedPrecondition},
}

// toStatus maps engine errors to gRPC status codes
func toStatus(err error) error {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return status.Error(sc.code, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// RateLimit rejects calls beyond the limiter's rate with ResourceExhausted
func RateLimit(limiter *rate.Limiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !limiter.Allow() {
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded for %s", info.FullMethod)
		}
		return handler(ctx, req)
	}
}

// Logging logs every call with its duration and status code
func Logging(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		began := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug().
			Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("took", time.Since(began)).
			Msg("RPC")
		return resp, err
	}
}

// NewGRPCServer builds a grpc.Server with the village service registered
// behind the logging and rate limiting interceptors
func NewGRPCServer(session *game.Session, limiter *rate.Limiter, logger zerolog.Logger) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(Logging(logger), RateLimit(limiter)))
	RegisterVillageServer(s, NewServer(session, logger))
	return s
}
