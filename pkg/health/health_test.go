package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, endpoint http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	endpoint(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestService_ReadyGate(t *testing.T) {
	s := New()

	rec := probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.SetReady(true)
	rec = probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.SetReady(false)
	rec = probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestService_LivenessDefaultsHealthy(t *testing.T) {
	s := New()
	s.AddLivenessCheck("noop", time.Second, func(context.Context) error { return nil })

	rec := probe(t, s.LiveEndpoint)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"noop":"ok"}}`, rec.Body.String())
}

func TestService_FailureThreshold(t *testing.T) {
	var fail atomic.Bool
	s := New()
	s.AddReadinessCheck("flaky", time.Second, func(context.Context) error {
		if fail.Load() {
			return errors.New("backend down")
		}
		return nil
	})
	s.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx, 10*time.Millisecond)
	defer s.Stop()

	require.Eventually(t, func() bool {
		return probe(t, s.ReadyEndpoint).Code == http.StatusOK
	}, time.Second, 5*time.Millisecond)

	fail.Store(true)

	// One failure is below the threshold; the probe must keep passing
	// briefly, then turn unhealthy after consecutive failures.
	require.Eventually(t, func() bool {
		return probe(t, s.ReadyEndpoint).Code == http.StatusServiceUnavailable
	}, time.Second, 5*time.Millisecond)

	fail.Store(false)
	require.Eventually(t, func() bool {
		return probe(t, s.ReadyEndpoint).Code == http.StatusOK
	}, time.Second, 5*time.Millisecond)
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
