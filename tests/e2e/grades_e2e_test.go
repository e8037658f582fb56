//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/godilite/gradebot/internal/app"
	"github.com/godilite/gradebot/internal/chart"
	"github.com/godilite/gradebot/internal/extractor"
	grpchandlers "github.com/godilite/gradebot/internal/grpc"
	"github.com/godilite/gradebot/internal/httpapi"
	"github.com/godilite/gradebot/internal/service"
	"github.com/godilite/gradebot/pkg/cache"
	grpcserver "github.com/godilite/gradebot/pkg/grpc/server"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const reportFixture = "../../internal/extractor/testdata/report.html"

// setupGradeService runs the whole pipeline: extract the report, persist it
// to SQLite, load it back and build the query service on top of it.
func setupGradeService(t *testing.T) *service.GradeService {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	data, report, err := extractor.New(extractor.DefaultProfile(), logger).ExtractFile(ctx, reportFixture)
	require.NoError(t, err)
	require.Equal(t, 2, report.Professors)

	dbPath := filepath.Join(t.TempDir(), "grades.db")
	require.NoError(t, app.SaveDataset(ctx, dbPath, "sqlite3", data, logger))

	loaded, err := app.LoadDataset(ctx, dbPath, "sqlite3", logger)
	require.NoError(t, err)

	c := cache.NewMemory(time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	return service.NewGradeService(loaded, chart.NewRenderer(), c, service.Options{}, logger)
}

func startGRPC(t *testing.T, grades *service.GradeService) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv, err := grpcserver.New(
		grpcserver.WithListener(lis),
		grpcserver.WithLogger(zap.NewNop()),
		grpcserver.WithLogging(true),
	)
	require.NoError(t, err)
	srv.RegisterServiceWithHealth(grpchandlers.ServiceName, func(s *grpc.Server) {
		grpchandlers.RegisterGradeQueryServer(s, grpchandlers.NewGRPCHandlers(grades, zap.NewNop()))
	})
	srv.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGradeQuery_GRPC_E2E(t *testing.T) {
	conn := startGRPC(t, setupGradeService(t))
	client := grpchandlers.NewClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	health, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: grpchandlers.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.Status)

	t.Run("course lookup", func(t *testing.T) {
		out, err := client.Lookup(ctx, "Waxman, J 211")
		require.NoError(t, err)

		m := out.AsMap()
		assert.Equal(t, "course", m["kind"])
		assert.Equal(t, "waxman, j", m["professor_key"])
		assert.Equal(t, "Data Structures", m["course_name"])
		assert.Equal(t, 3.5, m["avg_gpa"])
	})

	t.Run("listing", func(t *testing.T) {
		out, err := client.Lookup(ctx, "smith, j")
		require.NoError(t, err)
		assert.Equal(t, "listing", out.AsMap()["kind"])
		assert.Contains(t, out.AsMap()["text"], "CSCI 32: Intro to Computer Science")
	})

	t.Run("chart is rendered and cached", func(t *testing.T) {
		first, err := client.RenderChart(ctx, "waxman, j 211")
		require.NoError(t, err)
		assert.Equal(t, []byte("\x89PNG"), first[:4])

		second, err := client.RenderChart(ctx, "WAXMAN, J 211")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := client.Lookup(ctx, "nobody")
		assert.Equal(t, codes.NotFound, status.Code(err))

		_, err = client.Lookup(ctx, "waxman, j 999")
		assert.Equal(t, codes.NotFound, status.Code(err))
		assert.Equal(t, "Course 999 not found for Waxman, J.", status.Convert(err).Message())

		_, err = client.RenderChart(ctx, "smith, j")
		assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	})
}

func TestGradeQuery_HTTP_E2E(t *testing.T) {
	srv := httptest.NewServer(httpapi.NewRouter(setupGradeService(t), zap.NewNop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/grades?q=waxman,+j+211")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "course", body["kind"])

	chartResp, err := http.Get(srv.URL + "/api/v1/grades/chart?q=waxman,+j+211")
	require.NoError(t, err)
	defer chartResp.Body.Close()
	assert.Equal(t, http.StatusOK, chartResp.StatusCode)
	assert.Equal(t, "image/png", chartResp.Header.Get("Content-Type"))

	missing, err := http.Get(srv.URL + "/api/v1/grades?q=nobody")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
