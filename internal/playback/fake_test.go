package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// callLog общий журнал вызовов внешних операций
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

type fakeHandle struct {
	id      int
	log     *callLog
	session *fakeSession

	stopped atomic.Bool
	looping atomic.Bool
	gain    atomic.Value

	stopErr, gainErr, loopErr error
}

func (h *fakeHandle) SetGain(_ context.Context, level float64) error {
	h.log.add("gain#%d(%v)", h.id, level)
	if h.gainErr != nil {
		return h.gainErr
	}
	h.gain.Store(level)
	return nil
}

func (h *fakeHandle) EnableLoop(context.Context) error {
	h.log.add("loop-on#%d", h.id)
	if h.loopErr != nil {
		return h.loopErr
	}
	h.looping.Store(true)
	return nil
}

func (h *fakeHandle) DisableLoop(context.Context) error {
	h.log.add("loop-off#%d", h.id)
	if h.loopErr != nil {
		return h.loopErr
	}
	h.looping.Store(false)
	return nil
}

func (h *fakeHandle) Stop(context.Context) error {
	h.log.add("stop#%d", h.id)
	if h.stopped.CompareAndSwap(false, true) {
		h.session.active.Add(-1)
	}
	return h.stopErr
}

type fakeSession struct {
	group string
	log   *callLog

	mu      sync.Mutex
	nextID  int
	handles []*fakeHandle

	// active число запущенных и не остановленных треков
	active atomic.Int32
	// inPlay число одновременно выполняющихся вызовов Play
	inPlay    atomic.Int32
	maxInPlay atomic.Int32

	playErr  error
	clearErr error
	// block, если задан, задерживает Play до закрытия канала
	block chan struct{}
	// configure вызывается для каждого нового трека
	configure func(*fakeHandle)
}

func (s *fakeSession) Play(ctx context.Context, path string) (Handle, error) {
	n := s.inPlay.Add(1)
	defer s.inPlay.Add(-1)
	for {
		m := s.maxInPlay.Load()
		if n <= m || s.maxInPlay.CompareAndSwap(m, n) {
			break
		}
	}

	s.log.add("play(%s)", path)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.playErr != nil {
		return nil, s.playErr
	}

	s.mu.Lock()
	s.nextID++
	h := &fakeHandle{id: s.nextID, log: s.log, session: s}
	s.handles = append(s.handles, h)
	s.mu.Unlock()

	if s.configure != nil {
		s.configure(h)
	}
	s.active.Add(1)
	return h, nil
}

func (s *fakeSession) ClearQueue(context.Context) error {
	s.log.add("clear")
	return s.clearErr
}

func (s *fakeSession) lastHandle() *fakeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.handles) == 0 {
		return nil
	}
	return s.handles[len(s.handles)-1]
}

type fakeVoice struct {
	log *callLog

	mu       sync.Mutex
	sessions map[string]*fakeSession

	joinErr, leaveErr error
}

func newFakeVoice() *fakeVoice {
	return &fakeVoice{
		log:      &callLog{},
		sessions: make(map[string]*fakeSession),
	}
}

func (v *fakeVoice) Join(_ context.Context, group, channel string) (Session, error) {
	v.log.add("join(%s,%s)", group, channel)
	if v.joinErr != nil {
		return nil, v.joinErr
	}
	return v.add(group), nil
}

func (v *fakeVoice) Leave(_ context.Context, group string) error {
	v.log.add("leave(%s)", group)
	if v.leaveErr != nil {
		return v.leaveErr
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.sessions, group)
	return nil
}

func (v *fakeVoice) Session(group string) (Session, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.sessions[group]
	if !ok {
		return nil, false
	}
	return s, true
}

// add регистрирует сессию группы без записи в журнал
func (v *fakeVoice) add(group string) *fakeSession {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.sessions[group]
	if !ok {
		s = &fakeSession{group: group, log: v.log}
		v.sessions[group] = s
	}
	return s
}

var errBoom = errors.New("boom")

type recordingObserver struct {
	mu      sync.Mutex
	started []string
	stopped int
}

func (o *recordingObserver) PlaybackStarted(group, path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, group+":"+path)
}

func (o *recordingObserver) PlaybackStopped(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped++
}
