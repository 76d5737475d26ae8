package bot

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hazadus/kura-voice/internal/playback"
)

type sentReply struct {
	channel string
	content string
}

type recordingReplier struct {
	mu      sync.Mutex
	replies []sentReply
	err     error
}

func (r *recordingReplier) Reply(_ context.Context, channel, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.replies = append(r.replies, sentReply{channel: channel, content: content})
	return nil
}

func (r *recordingReplier) contents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.replies))
	for _, rep := range r.replies {
		out = append(out, rep.content)
	}
	return out
}

func (r *recordingReplier) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.replies) == 0 {
		return ""
	}
	return r.replies[len(r.replies)-1].content
}

type stubHandle struct {
	mu      sync.Mutex
	stopped bool
	looping bool
}

func (h *stubHandle) SetGain(context.Context, float64) error { return nil }

func (h *stubHandle) EnableLoop(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.looping = true
	return nil
}

func (h *stubHandle) DisableLoop(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.looping = false
	return nil
}

func (h *stubHandle) Stop(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	return nil
}

type stubSession struct {
	mu      sync.Mutex
	played  []string
	playErr error
}

func (s *stubSession) Play(_ context.Context, path string) (playback.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playErr != nil {
		return nil, s.playErr
	}
	s.played = append(s.played, path)
	return &stubHandle{}, nil
}

func (s *stubSession) ClearQueue(context.Context) error { return nil }

func (s *stubSession) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.played...)
}

type stubVoice struct {
	mu       sync.Mutex
	sessions map[string]*stubSession
	channels map[string]string
}

func newStubVoice() *stubVoice {
	return &stubVoice{
		sessions: make(map[string]*stubSession),
		channels: make(map[string]string),
	}
}

func (v *stubVoice) Join(_ context.Context, group, channel string) (playback.Session, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.sessions[group]
	if !ok {
		s = &stubSession{}
		v.sessions[group] = s
	}
	v.channels[group] = channel
	return s, nil
}

func (v *stubVoice) Leave(_ context.Context, group string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.sessions, group)
	delete(v.channels, group)
	return nil
}

func (v *stubVoice) Session(group string) (playback.Session, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.sessions[group]
	if !ok {
		return nil, false
	}
	return s, true
}

func (v *stubVoice) session(group string) *stubSession {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sessions[group]
}

// writeFiles создает пустые файлы с относительными путями внутри root
func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}
}
