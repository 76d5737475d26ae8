// Package metrics содержит счетчики Prometheus для бота
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = logging.Logger("metrics")

// Metrics набор метрик бота со своим реестром
type Metrics struct {
	registry *prometheus.Registry

	commands      *prometheus.CounterVec
	playbacks     *prometheus.CounterVec
	stops         prometheus.Counter
	reindexes     *prometheus.CounterVec
	catalogTracks prometheus.Gauge
}

// New создает метрики и регистрирует их в отдельном реестре
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "kura_commands_total", Help: "Handled chat commands"},
			[]string{"command", "outcome"},
		),
		playbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "kura_playback_started_total", Help: "Tracks started"},
			[]string{"group"},
		),
		stops: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "kura_playback_stopped_total", Help: "Tracks stopped before a new start, stop or leave"},
		),
		reindexes: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "kura_reindex_total", Help: "Catalog rebuilds"},
			[]string{"outcome"},
		),
		catalogTracks: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "kura_catalog_tracks", Help: "Tracks in the published catalog"},
		),
	}
	m.registry.MustRegister(m.commands, m.playbacks, m.stops, m.reindexes, m.catalogTracks)
	return m
}

// CommandHandled учитывает обработанную команду.
// outcome: "ok" или метка класса ошибки
func (m *Metrics) CommandHandled(command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

// PlaybackStarted реализует playback.Observer
func (m *Metrics) PlaybackStarted(group, _ string) {
	if m == nil {
		return
	}
	m.playbacks.WithLabelValues(group).Inc()
}

// PlaybackStopped реализует playback.Observer
func (m *Metrics) PlaybackStopped(string) {
	if m == nil {
		return
	}
	m.stops.Inc()
}

// Reindexed учитывает результат перестроения каталога
func (m *Metrics) Reindexed(tracks int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.reindexes.WithLabelValues("error").Inc()
		return
	}
	m.reindexes.WithLabelValues("ok").Inc()
	m.catalogTracks.Set(float64(tracks))
}

// Handler возвращает HTTP-обработчик для выдачи метрик
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve отдает метрики по адресу addr до отмены контекста
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/_metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infow("метрики доступны", "addr", addr, "path", "/_metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
