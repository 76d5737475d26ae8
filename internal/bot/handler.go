package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/hazadus/kura-voice/internal/metrics"
	"github.com/hazadus/kura-voice/internal/playback"
	"github.com/hazadus/kura-voice/internal/track"
)

var log = logging.Logger("bot")

// Значения по умолчанию
const (
	DefaultPrefix     = "!"
	DefaultReplyLimit = 1900
)

// ErrorMarker предшествует тексту ошибки в ответе
const ErrorMarker = "❌ "

type commandFunc func(ctx context.Context, msg Message, args string) error

// Option настраивает Handler
type Option func(*Handler)

// WithPrefix задает префикс команд
func WithPrefix(prefix string) Option {
	return func(h *Handler) {
		h.prefix = prefix
	}
}

// WithReplyLimit задает максимальную длину одного ответа
func WithReplyLimit(limit int) Option {
	return func(h *Handler) {
		h.limit = limit
	}
}

// WithMetrics подключает счетчики команд
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithRand задает источник случайности для выбора трека
func WithRand(rng *rand.Rand) Option {
	return func(h *Handler) {
		h.rng = rng
	}
}

// Handler выполняет команды чата
type Handler struct {
	prefix      string
	limit       int
	catalog     *track.Manager
	coordinator *playback.Coordinator
	replier     Replier
	metrics     *metrics.Metrics

	rngMu sync.Mutex
	rng   *rand.Rand

	commands map[string]commandFunc
}

// NewHandler создает обработчик команд
func NewHandler(catalog *track.Manager, coordinator *playback.Coordinator, replier Replier, opts ...Option) *Handler {
	h := &Handler{
		prefix:      DefaultPrefix,
		limit:       DefaultReplyLimit,
		catalog:     catalog,
		coordinator: coordinator,
		replier:     replier,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.commands = map[string]commandFunc{
		"join":    h.join,
		"leave":   h.leave,
		"play":    h.play,
		"random":  h.random,
		"skip":    h.skip,
		"loop":    h.loop,
		"list":    h.list,
		"reindex": h.reindex,
		"stop":    h.stop,
		"ping":    h.ping,
		"help":    h.help,
	}
	return h
}

// Handle разбирает и выполняет команду из сообщения.
// Сообщения ботов и неизвестные команды игнорируются.
// Любая ошибка команды отправляется одним ответом с пометкой ErrorMarker.
func (h *Handler) Handle(ctx context.Context, msg Message) {
	if msg.FromBot {
		return
	}
	name, args, ok := Parse(h.prefix, msg.Content)
	if !ok {
		return
	}
	cmd, ok := h.commands[name]
	if !ok {
		return
	}

	err := cmd(ctx, msg, args)
	h.metrics.CommandHandled(name, outcome(err))
	if err == nil {
		return
	}

	log.Errorw("ошибка выполнения команды", "command", name, "group", msg.Group, "error", err)
	if replyErr := h.send(ctx, msg.Channel, ErrorMarker+err.Error()); replyErr != nil {
		log.Warnw("не удалось отправить сообщение об ошибке", "channel", msg.Channel, "error", replyErr)
	}
}

func (h *Handler) join(ctx context.Context, msg Message, _ string) error {
	group, err := requireGroup(msg)
	if err != nil {
		return err
	}
	if msg.VoiceChannel == "" {
		return &playback.PreconditionError{Reason: "Join a voice channel first."}
	}
	if err := h.coordinator.Join(ctx, group, msg.VoiceChannel); err != nil {
		return err
	}
	return h.send(ctx, msg.Channel, "✅ Joined.")
}

func (h *Handler) leave(ctx context.Context, msg Message, _ string) error {
	group, err := requireGroup(msg)
	if err != nil {
		return err
	}
	if err := h.coordinator.Teardown(ctx, group); err != nil {
		return err
	}
	return h.send(ctx, msg.Channel, "👋 Left.")
}

func (h *Handler) stop(ctx context.Context, msg Message, _ string) error {
	group, err := requireGroup(msg)
	if err != nil {
		return err
	}
	if err := h.coordinator.Stop(ctx, group); err != nil {
		return err
	}
	return h.send(ctx, msg.Channel, "⏹️ Stopped.")
}

func (h *Handler) loop(ctx context.Context, msg Message, _ string) error {
	group, err := requireGroup(msg)
	if err != nil {
		return err
	}
	enabled, err := h.coordinator.ToggleLoop(ctx, group)
	if err != nil {
		return err
	}
	if enabled {
		return h.send(ctx, msg.Channel, "🔁 Loop: ON")
	}
	return h.send(ctx, msg.Channel, "Loop: OFF")
}

func (h *Handler) play(ctx context.Context, msg Message, query string) error {
	if query == "" {
		return h.random(ctx, msg, "")
	}
	group, err := h.requireSession(msg)
	if err != nil {
		return err
	}

	tracks, err := h.catalog.Resolve(ctx, query)
	if err != nil {
		return err
	}
	selected := h.pick(tracks)
	if _, err := h.coordinator.BeginPlayback(ctx, group, selected.Path); err != nil {
		return err
	}
	return h.send(ctx, msg.Channel, fmt.Sprintf("▶️ Playing `%s`", selected.Path))
}

func (h *Handler) random(ctx context.Context, msg Message, _ string) error {
	return h.playAny(ctx, msg, "🎲 Random: `%s`")
}

// skip выбирает трек из всего каталога, как и random
func (h *Handler) skip(ctx context.Context, msg Message, _ string) error {
	return h.playAny(ctx, msg, "⏭️ Skipped to `%s`")
}

func (h *Handler) playAny(ctx context.Context, msg Message, format string) error {
	group, err := h.requireSession(msg)
	if err != nil {
		return err
	}

	snap, err := h.catalog.Snapshot(ctx)
	if err != nil {
		return err
	}
	if snap.Len() == 0 {
		return h.send(ctx, msg.Channel, fmt.Sprintf("No cached .%s files found in `%s`", h.catalog.Ext(), snap.Root()))
	}

	selected := h.pick(snap.Tracks())
	if _, err := h.coordinator.BeginPlayback(ctx, group, selected.Path); err != nil {
		return err
	}
	return h.send(ctx, msg.Channel, fmt.Sprintf(format, selected.Path))
}

func (h *Handler) list(ctx context.Context, msg Message, query string) error {
	snap, err := h.catalog.Snapshot(ctx)
	if err != nil {
		return err
	}

	tracks, err := track.Resolve(snap, query)
	var noMatch *track.NoMatchError
	switch {
	case errors.As(err, &noMatch):
	case err != nil:
		return err
	}
	if len(tracks) == 0 {
		return h.send(ctx, msg.Channel, fmt.Sprintf("No matches in `%s`", snap.Root()))
	}

	for _, chunk := range SplitLines(track.Stems(tracks), h.limit) {
		if err := h.send(ctx, msg.Channel, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) reindex(ctx context.Context, msg Message, _ string) error {
	snap, err := h.catalog.Reindex(ctx)
	if err != nil {
		h.metrics.Reindexed(0, err)
		return err
	}
	return h.send(ctx, msg.Channel, fmt.Sprintf("✅ Re-indexed `%s` (%d tracks)", snap.Root(), snap.Len()))
}

func (h *Handler) ping(ctx context.Context, msg Message, _ string) error {
	return h.send(ctx, msg.Channel, "pong")
}

func (h *Handler) help(ctx context.Context, msg Message, _ string) error {
	p := h.prefix
	return h.send(ctx, msg.Channel, fmt.Sprintf(
		"Commands: %[1]sjoin, %[1]sleave, %[1]splay [prefix], %[1]srandom, %[1]sskip, %[1]sloop, %[1]sstop, %[1]slist [prefix], %[1]sreindex, %[1]sping, %[1]shelp",
		p,
	))
}

// requireSession проверяет, что у группы автора есть голосовая сессия
func (h *Handler) requireSession(msg Message) (string, error) {
	group, err := requireGroup(msg)
	if err != nil {
		return "", err
	}
	err = h.coordinator.CheckSession(group)
	var pre *playback.PreconditionError
	if errors.As(err, &pre) {
		return "", &playback.PreconditionError{Reason: fmt.Sprintf("Not in a voice channel. Use %sjoin first.", h.prefix)}
	}
	if err != nil {
		return "", err
	}
	return group, nil
}

func (h *Handler) pick(tracks []track.Track) track.Track {
	if h.rng == nil {
		return track.Pick(tracks, nil)
	}
	h.rngMu.Lock()
	defer h.rngMu.Unlock()
	return track.Pick(tracks, h.rng)
}

func (h *Handler) send(ctx context.Context, channel, content string) error {
	if content == "" {
		return nil
	}
	if err := h.replier.Reply(ctx, channel, content); err != nil {
		return fmt.Errorf("ошибка отправки ответа: %w", err)
	}
	return nil
}

func requireGroup(msg Message) (string, error) {
	if msg.Group == "" {
		return "", &playback.PreconditionError{Reason: "This command only works in a guild."}
	}
	return msg.Group, nil
}

// outcome возвращает метку результата команды для метрик
func outcome(err error) string {
	var (
		pre      *playback.PreconditionError
		cfg      *playback.ConfigurationError
		ext      *playback.ExternalOperationError
		indexErr *track.IndexError
		noMatch  *track.NoMatchError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &pre):
		return "precondition"
	case errors.As(err, &cfg):
		return "configuration"
	case errors.As(err, &ext):
		return "external"
	case errors.As(err, &indexErr):
		return "index"
	case errors.As(err, &noMatch):
		return "no_match"
	default:
		return "other"
	}
}
