package grpc_test

import (
	"context"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	grpcadapter "github.com/nodrystarts/site-backend/internal/adapters/grpc"
	"github.com/nodrystarts/site-backend/internal/application"
	"github.com/nodrystarts/site-backend/internal/application/apptest"
	"github.com/nodrystarts/site-backend/internal/domain"
)

func dial(t *testing.T, f *apptest.Fixture) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(grpcadapter.LoggingInterceptor(nil)))
	grpcadapter.Register(srv, grpcadapter.NewTokenInspectorServer(f.Service))
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func issue(t *testing.T, f *apptest.Fixture) string {
	t.Helper()
	f.Secrets.Queue("inspect-me-secret")
	_, err := f.Service.RequestInvestorDownload(context.Background(), application.InvestorDownloadRequest{
		Email:     "backer@example.com",
		Name:      "Jane Backer",
		IPAddress: "203.0.113.9",
		BaseURL:   "https://nodrystarts.test",
	})
	require.NoError(t, err)
	return "inspect-me-secret"
}

func TestInspectTokenReportsStateWithoutRedeeming(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	f.SeedDocument(domain.CategoryInvestor, "deck.pdf", []byte("pdf"), 0)
	secret := issue(t, f)
	artifact, err := f.Service.RedeemDownloadToken(context.Background(), secret)
	require.NoError(t, err)
	_ = artifact.Body.Close()

	conn := dial(t, f)
	req, err := structpb.NewStruct(map[string]any{"secret": secret})
	require.NoError(t, err)
	resp := &structpb.Struct{}
	require.NoError(t, conn.Invoke(context.Background(), "/nodrystarts.site.v1.TokenInspector/InspectToken", req, resp))

	fields := resp.AsMap()
	assert.Equal(t, "active", fields["state"])
	assert.EqualValues(t, 1, fields["download_count"])
	assert.EqualValues(t, 2, fields["remaining_uses"])
	assert.True(t, strings.HasPrefix(fields["expires_at"].(string), "2025-03-03T12:00:00"))
	assert.Equal(t, 1, f.Tokens.All()[0].UsageCount)
}

func TestInspectTokenErrors(t *testing.T) {
	t.Parallel()

	f := apptest.New()
	conn := dial(t, f)

	cases := []struct {
		name   string
		fields map[string]any
		code   codes.Code
	}{
		{"missing secret", map[string]any{}, codes.InvalidArgument},
		{"unknown secret", map[string]any{"secret": "never-issued"}, codes.NotFound},
	}
	for _, tc := range cases {
		req, err := structpb.NewStruct(tc.fields)
		require.NoError(t, err)
		err = conn.Invoke(context.Background(), "/nodrystarts.site.v1.TokenInspector/InspectToken", req, &structpb.Struct{})
		assert.Equal(t, tc.code, status.Code(err), tc.name)
	}
}

func TestHealthService(t *testing.T) {
	t.Parallel()

	conn := dial(t, apptest.New())
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
