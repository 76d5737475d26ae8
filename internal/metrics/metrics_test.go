package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.CommandHandled("play", "ok")
	m.CommandHandled("play", "ok")
	m.CommandHandled("play", "no_match")
	m.PlaybackStarted("g1", "/a.opus")
	m.PlaybackStopped("g1")
	m.Reindexed(3, nil)
	m.Reindexed(0, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("play", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("play", "no_match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.playbacks.WithLabelValues("g1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stops))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reindexes.WithLabelValues("error")))
	// Неудачное перестроение не меняет размер каталога
	assert.Equal(t, 3.0, testutil.ToFloat64(m.catalogTracks))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CommandHandled("ping", "ok")
		m.PlaybackStarted("g", "p")
		m.PlaybackStopped("g")
		m.Reindexed(1, nil)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.CommandHandled("ping", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/_metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `kura_commands_total{command="ping",outcome="ok"} 1`)
}
