package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/synqlikk/internal/common"
	"github.com/dmitrijs2005/synqlikk/internal/models"
	pb "github.com/dmitrijs2005/synqlikk/internal/proto"
	"github.com/dmitrijs2005/synqlikk/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func authResponse(p *services.TokenPair) *pb.AuthResponse {
	return &pb.AuthResponse{UserID: p.UserID, AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

func (s *GRPCServer) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.AuthResponse, error) {
	pair, err := s.users.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	s.logger.Info(ctx, "Registered", "username", req.Username, "user_id", pair.UserID)
	return authResponse(pair), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.AuthResponse, error) {
	pair, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	return authResponse(pair), nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *pb.RefreshTokenRequest) (*pb.AuthResponse, error) {
	if req.RefreshToken == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token is required")
	}
	pair, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	return authResponse(pair), nil
}

func (s *GRPCServer) Sync(ctx context.Context, req *pb.SyncRequest) (*pb.SyncResponse, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	result, err := s.sync.Sync(ctx, userID, services.SyncInput{
		Changes: req.ChangeSet(),
		Since:   req.LastSyncTime,
	})
	if err != nil {
		return nil, s.mapError(ctx, err)
	}

	resp := &pb.SyncResponse{
		Conflicts:  result.Conflicts,
		ServerTime: result.ServerTime,
	}
	if resp.Conflicts == nil {
		resp.Conflicts = []*models.Record{}
	}
	resp.SetChanges(result.Changes)
	return resp, nil
}

// mapError converts service errors to gRPC statuses. Unknown errors are
// logged and hidden behind codes.Internal.
func (s *GRPCServer) mapError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": "))
	case errors.Is(err, common.ErrCheckpointExpired):
		return status.Error(codes.FailedPrecondition, common.ErrCheckpointExpired.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "user already exists")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	s.logger.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}
