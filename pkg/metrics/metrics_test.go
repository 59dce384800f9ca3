package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lborres/bantay/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Logins(t *testing.T) {
	r := New()

	r.ObserveLogin(core.ResolutionCreated, nil)
	r.ObserveLogin(core.ResolutionMatched, nil)
	r.ObserveLogin(core.ResolutionMatched, nil)
	r.ObserveLogin(0, core.ErrCodeRequired)
	r.ObserveLogin(0, &core.ProviderError{Op: "exchange", Rejected: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.logins.WithLabelValues("created", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.logins.WithLabelValues("matched", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.logins.WithLabelValues("none", "invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.logins.WithLabelValues("none", "provider")))
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: "ok"},
		{err: core.ErrInvalidRefreshToken, want: "unauthorized"},
		{err: core.ErrRefreshTokenRequired, want: "invalid"},
		{err: core.ErrSecretTooShort, want: "configuration"},
		{err: core.StorageFailure("commit", errors.New("boom")), want: "storage"},
		{err: errors.New("other"), want: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, outcome(tt.err))
		})
	}
}

func TestRecorder_RefreshLogoutPurge(t *testing.T) {
	r := New()

	r.ObserveRefresh(nil)
	r.ObserveRefresh(core.ErrInvalidRefreshToken)
	r.ObserveLogout(core.BestEffort{})
	r.ObserveLogout(core.BestEffort{Err: core.StorageFailure("revoke", errors.New("down"))})
	r.ObservePurged(3)
	r.ObservePurged(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.refresh.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.refresh.WithLabelValues("unauthorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.logouts.WithLabelValues("storage")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.purged))
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.ObserveRefresh(nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `bantay_refreshes_total{outcome="ok"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
