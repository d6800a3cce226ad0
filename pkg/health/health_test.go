package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probeBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func probe(t *testing.T, handler http.HandlerFunc) (int, probeBody) {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body probeBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

type flakyPinger struct {
	err atomic.Pointer[error]
}

func (p *flakyPinger) Ping(context.Context) error {
	if e := p.err.Load(); e != nil {
		return *e
	}
	return nil
}

func (p *flakyPinger) fail(err error) { p.err.Store(&err) }

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(1_000_000))

	code, body := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Checks)
}

func TestLiveEndpoint_FailureThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("leak", time.Second, GoroutineCountCheck(0))
	ctx := context.Background()

	h.liveness[0].run(ctx)
	h.liveness[0].run(ctx)
	code, _ := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code, "two failures stay below the default threshold")

	h.liveness[0].run(ctx)
	code, body := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Contains(t, body.Checks["leak"], "exceeds threshold 0")
}

func TestReadyEndpoint(t *testing.T) {
	db := &flakyPinger{}
	h := New()
	h.AddReadinessCheck("postgres", time.Second, PingCheck(db), WithThresholds(1, 2))

	code, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "service is not ready", body.Checks["_readiness"])
	assert.False(t, h.IsReady())

	h.SetReady(true)
	code, _ = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, h.IsReady())

	ctx := context.Background()
	db.fail(errors.New("connection refused"))
	h.readiness[0].run(ctx)
	code, body = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "ping: connection refused", body.Checks["postgres"])
	assert.False(t, h.IsReady())

	db.err.Store(nil)
	h.readiness[0].run(ctx)
	assert.False(t, h.IsReady(), "one success is below the success threshold")
	h.readiness[0].run(ctx)
	assert.True(t, h.IsReady())
}

func TestStartStop(t *testing.T) {
	var calls atomic.Int32
	h := New()
	h.AddReadinessCheck("counter", time.Second, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
	time.Sleep(30 * time.Millisecond)
	after := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
}

func TestCheckTimeout(t *testing.T) {
	h := New()
	h.AddReadinessCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithThresholds(1, 1))
	h.SetReady(true)

	h.readiness[0].run(context.Background())
	_, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, context.DeadlineExceeded.Error(), body.Checks["slow"])
}
