package playback

import (
	"context"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("playback")

// DefaultGain уровень громкости, выставляемый каждому новому треку
const DefaultGain = 1.0

// Observer получает уведомления о событиях воспроизведения
type Observer interface {
	PlaybackStarted(group, path string)
	PlaybackStopped(group string)
}

// Option настраивает Coordinator
type Option func(*Coordinator)

// WithGain задает громкость для новых треков
func WithGain(level float64) Option {
	return func(c *Coordinator) {
		c.gain = level
	}
}

// WithObserver подключает наблюдателя за событиями
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		c.observer = o
	}
}

// Coordinator упорядочивает старт, остановку и повтор треков по группам.
// Команды одной группы выполняются строго по очереди, команды разных
// групп друг друга не ждут.
type Coordinator struct {
	voice    Voice
	registry *Registry
	gain     float64
	observer Observer
}

// NewCoordinator создает координатор поверх голосового менеджера.
// voice может быть nil: тогда команды, требующие сессии, вернут ConfigurationError.
func NewCoordinator(voice Voice, opts ...Option) *Coordinator {
	c := &Coordinator{
		voice:    voice,
		registry: NewRegistry(),
		gain:     DefaultGain,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State возвращает состояние группы
func (c *Coordinator) State(group string) GroupState {
	return c.registry.Get(group)
}

// HasSession сообщает, есть ли у группы голосовое подключение
func (c *Coordinator) HasSession(group string) bool {
	if c.voice == nil {
		return false
	}
	_, ok := c.voice.Session(group)
	return ok
}

// CheckSession возвращает ConfigurationError без голосового менеджера
// и PreconditionError, если у группы нет сессии
func (c *Coordinator) CheckSession(group string) error {
	if c.voice == nil {
		return errNoVoice
	}
	if _, ok := c.voice.Session(group); !ok {
		return errNoSession
	}
	return nil
}

// Join подключает группу к голосовому каналу
func (c *Coordinator) Join(ctx context.Context, group, channel string) error {
	if c.voice == nil {
		return errNoVoice
	}
	if _, err := c.voice.Join(ctx, group, channel); err != nil {
		return external("join", group, err)
	}
	log.Infow("подключение к голосовому каналу", "group", group, "channel", channel)
	return nil
}

// BeginPlayback останавливает текущий трек группы и запускает path.
// Вся последовательность выполняется в эксклюзивной секции группы, поэтому
// у группы никогда не остается больше одного играющего трека.
// Новый трек публикуется сразу после запуска, до применения громкости и
// повтора: при их ошибке трек остается управляемым через Stop.
func (c *Coordinator) BeginPlayback(ctx context.Context, group, path string) (Handle, error) {
	if c.voice == nil {
		return nil, errNoVoice
	}
	session, ok := c.voice.Session(group)
	if !ok {
		return nil, errNoSession
	}

	st := c.registry.state(group)
	if err := st.lock(ctx); err != nil {
		return nil, err
	}
	defer st.unlock()

	c.stopHandle(ctx, group, c.registry.takeCurrent(st))

	if err := session.ClearQueue(ctx); err != nil {
		return nil, external("clear-queue", group, err)
	}

	h, err := session.Play(ctx, path)
	if err != nil {
		return nil, external("play", group, err)
	}
	c.registry.setCurrent(st, h)

	if err := h.SetGain(ctx, c.gain); err != nil {
		return h, external("set-gain", group, err)
	}
	if err := applyLoop(ctx, h, c.registry.loopEnabled(st)); err != nil {
		return h, external("loop", group, err)
	}

	log.Infow("трек запущен", "group", group, "path", path)
	if c.observer != nil {
		c.observer.PlaybackStarted(group, path)
	}
	return h, nil
}

// ToggleLoop переключает флаг повтора группы и применяет его к текущему треку.
// Флаг остается переключенным, даже если применить его к треку не удалось.
func (c *Coordinator) ToggleLoop(ctx context.Context, group string) (bool, error) {
	st := c.registry.state(group)
	if err := st.lock(ctx); err != nil {
		return false, err
	}
	defer st.unlock()

	enabled, current := c.registry.flipLoop(st)
	if current == nil {
		return enabled, nil
	}
	if err := applyLoop(ctx, current, enabled); err != nil {
		return enabled, external("loop", group, err)
	}
	return enabled, nil
}

// Stop останавливает текущий трек и очищает очередь сессии.
// Флаг повтора не сбрасывается.
func (c *Coordinator) Stop(ctx context.Context, group string) error {
	if c.voice == nil {
		return errNoVoice
	}
	session, ok := c.voice.Session(group)
	if !ok {
		return errNoSession
	}

	st := c.registry.state(group)
	if err := st.lock(ctx); err != nil {
		return err
	}
	defer st.unlock()

	c.stopHandle(ctx, group, c.registry.takeCurrent(st))

	if err := session.ClearQueue(ctx); err != nil {
		return external("clear-queue", group, err)
	}
	return nil
}

// Teardown отключает группу от голосового канала.
// Текущий трек забывается, флаг повтора группы сохраняется до следующего подключения.
func (c *Coordinator) Teardown(ctx context.Context, group string) error {
	if c.voice == nil {
		return errNoVoice
	}
	if _, ok := c.voice.Session(group); !ok {
		return errNoSession
	}

	st := c.registry.state(group)
	if err := st.lock(ctx); err != nil {
		return err
	}
	defer st.unlock()

	c.stopHandle(ctx, group, c.registry.takeCurrent(st))

	if err := c.voice.Leave(ctx, group); err != nil {
		return external("leave", group, err)
	}
	log.Infow("отключение от голосового канала", "group", group)
	return nil
}

// stopHandle останавливает трек, игнорируя ошибку уже завершенного трека
func (c *Coordinator) stopHandle(ctx context.Context, group string, h Handle) {
	if h == nil {
		return
	}
	if err := h.Stop(ctx); err != nil {
		log.Debugw("остановка трека", "group", group, "error", err)
	}
	if c.observer != nil {
		c.observer.PlaybackStopped(group)
	}
}

func applyLoop(ctx context.Context, h Handle, enabled bool) error {
	if enabled {
		return h.EnableLoop(ctx)
	}
	return h.DisableLoop(ctx)
}
