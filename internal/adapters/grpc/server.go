package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nodrystarts/site-backend/internal/application"
	"github.com/nodrystarts/site-backend/internal/domain"
)

const (
	serviceName        = "nodrystarts.site.v1.TokenInspector"
	inspectTokenMethod = "/" + serviceName + "/InspectToken"
)

// TokenInspectorService lets support tooling look up a download link without redeeming it.
type TokenInspectorService interface {
	InspectToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type TokenInspectorServer struct {
	service *application.Service
}

func NewTokenInspectorServer(service *application.Service) *TokenInspectorServer {
	return &TokenInspectorServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc TokenInspectorService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*TokenInspectorService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "InspectToken",
				Handler:    inspectTokenHandler(svc),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "nodrystarts/site/v1/token_inspector.proto",
	}, svc)
}

func (s *TokenInspectorServer) InspectToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	secret := req.GetFields()["secret"].GetStringValue()
	if secret == "" {
		return nil, status.Error(codes.InvalidArgument, "missing secret")
	}

	st, err := s.service.InspectDownloadToken(ctx, secret)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, status.Error(codes.NotFound, "unknown download token")
	case errors.Is(err, domain.ErrInvalidInput):
		return nil, status.Error(codes.InvalidArgument, err.Error())
	case err != nil:
		return nil, status.Error(codes.Internal, "inspect token failed")
	}

	resp, err := structpb.NewStruct(map[string]any{
		"token_id":       st.ID.String(),
		"email":          st.Email,
		"category":       st.Category,
		"state":          string(st.State),
		"download_count": st.UsageCount,
		"max_downloads":  st.UsageLimit,
		"remaining_uses": st.RemainingUses,
		"expires_at":     st.ExpiresAt.UTC().Format(time.RFC3339),
		"created_at":     st.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func inspectTokenHandler(svc TokenInspectorService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.InspectToken(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: inspectTokenMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return svc.InspectToken(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}

// LoggingInterceptor logs every unary call with its status code.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", "grpc", "layer", "adapter")
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		fields := []any{
			"operation", "grpc_request",
			"method", info.FullMethod,
			"code", code.String(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil && code != codes.NotFound && code != codes.InvalidArgument {
			logger.ErrorContext(ctx, "grpc request failed", append(fields, "outcome", "failure", "error", err.Error())...)
			return resp, err
		}
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		logger.InfoContext(ctx, "grpc request completed", append(fields, "outcome", outcome)...)
		return resp, err
	}
}
