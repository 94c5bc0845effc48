package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/goalodds/internal/metrics"
	"github.com/yourusername/goalodds/internal/models"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func newTestServer(cfg Config) *Server {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "goalodds"
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg.Logger = log
	return NewServer(cfg)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(Config{Version: "1.2.3", Commit: "abc1234"})

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "goalodds", resp.Service)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "abc1234", resp.Commit)
}

func TestLiveEndpoint(t *testing.T) {
	s := newTestServer(Config{})

	rec := httptest.NewRecorder()
	s.handleLive(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestReadyBeforeSetReady(t *testing.T) {
	s := newTestServer(Config{})

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "not_ready", resp.Checks["service"])
}

func TestReadyDatabaseFailure(t *testing.T) {
	s := newTestServer(Config{DB: stubPinger{err: errors.New("connection refused")}})
	s.SetReady(true)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Checks["service"])
	assert.Contains(t, resp.Checks["database"], "connection refused")
}

func TestReadyWithoutActiveModel(t *testing.T) {
	s := newTestServer(Config{
		DB: stubPinger{},
		Model: ModelCheckFunc(func(ctx context.Context) error {
			return models.ErrNoActiveModel
		}),
	})
	s.SetReady(true)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.Contains(t, resp.Checks["model"], models.ErrNoActiveModel.Error())
}

func TestReadyAllChecksPass(t *testing.T) {
	s := newTestServer(Config{
		DB:    stubPinger{},
		Model: ModelCheckFunc(func(ctx context.Context) error { return nil }),
	})
	s.SetReady(true)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["service"])
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.Equal(t, "ok", resp.Checks["model"])
}

func TestMetricsEndpointMounted(t *testing.T) {
	s := newTestServer(Config{Metrics: metrics.Handler()})

	srv := httptest.NewServer(s.routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "goalodds_prediction_errors_total")
}

func TestServerDefaults(t *testing.T) {
	t.Setenv("HEALTH_PORT", "")

	s := NewServer(Config{ServiceName: "goalodds"})
	assert.Equal(t, "8080", s.port)
	assert.Equal(t, "/metrics", s.metricsPath)
}
