package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposed(t *testing.T) {
	m := New()

	m.RecordCommand("add", "ok")
	m.RecordCommand("add", "ok")
	m.RecordCommand("list", "error")
	m.ObserveRequest("search", 120*time.Millisecond, nil)
	m.ObserveRequest("thing", time.Second, errors.New("boom"))
	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `bgman_commands_total{command="add",status="ok"} 2`)
	assert.Contains(t, body, `bgman_commands_total{command="list",status="error"} 1`)
	assert.Contains(t, body, `bgman_catalog_errors_total{op="thing"} 1`)
	assert.Contains(t, body, `bgman_active_sessions 1`)
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordCommand("add", "ok")
	m.ObserveRequest("search", time.Millisecond, nil)
	m.SessionStarted()
	m.SessionEnded()
}
