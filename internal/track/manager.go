package track

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("track")

// Manager управляет опубликованным снимком индекса.
// Читатели получают снимок без блокировок, перестроение сериализуется
// собственным мьютексом и публикуется одной атомарной заменой указателя.
type Manager struct {
	root string
	ext  string

	current atomic.Pointer[Snapshot]
	mu      sync.Mutex // сериализует перестроения

	onPublish func(*Snapshot)
}

// NewManager создает новый экземпляр Manager без опубликованного снимка
func NewManager(root, ext string) *Manager {
	return &Manager{
		root: root,
		ext:  strings.TrimPrefix(ext, "."),
	}
}

// OnPublish регистрирует функцию, вызываемую после каждой успешной публикации
func (m *Manager) OnPublish(fn func(*Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onPublish = fn
}

// Root возвращает каталог кэша
func (m *Manager) Root() string {
	return m.root
}

// Ext возвращает расширение индексируемых файлов без точки
func (m *Manager) Ext() string {
	return m.ext
}

// Current возвращает опубликованный снимок или nil, если индекс еще не построен
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

// Reindex строит новый снимок и публикует его. При ошибке остается
// опубликованным предыдущий снимок.
func (m *Manager) Reindex(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rebuildLocked(ctx)
}

// Snapshot возвращает опубликованный снимок. Если индекс еще ни разу не был
// построен (например, индексация при запуске завершилась ошибкой), строит его.
func (m *Manager) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := m.current.Load(); snap != nil {
		return snap, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if snap := m.current.Load(); snap != nil {
		return snap, nil
	}
	return m.rebuildLocked(ctx)
}

// Resolve ищет треки по запросу в текущем снимке
func (m *Manager) Resolve(ctx context.Context, query string) ([]Track, error) {
	snap, err := m.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Resolve(snap, query)
}

func (m *Manager) rebuildLocked(ctx context.Context) (*Snapshot, error) {
	snap, err := Build(ctx, m.root, m.ext)
	if err != nil {
		return nil, err
	}
	m.current.Store(snap)
	log.Infow("индекс опубликован", "root", m.root, "tracks", snap.Len())

	if m.onPublish != nil {
		m.onPublish(snap)
	}
	return snap, nil
}
