package playback

import (
	"context"
	"sync"
)

// groupState состояние воспроизведения одной группы.
// Поля loopEnabled и current читаются и пишутся только под Registry.mu.
// sem задает эксклюзивную секцию группы: вся последовательность
// остановки, запуска и публикации нового трека выполняется под ней.
type groupState struct {
	sem chan struct{}

	loopEnabled bool
	current     Handle
}

func (s *groupState) lock(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *groupState) unlock() {
	<-s.sem
}

// GroupState снимок состояния группы для отображения
type GroupState struct {
	LoopEnabled bool
	Playing     bool
}

// Registry хранит состояния групп под одним мьютексом.
// Мьютекс удерживается только на время чтения или записи карты и полей,
// внешние вызовы под ним не выполняются.
type Registry struct {
	mu     sync.Mutex
	groups map[string]*groupState
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{
		groups: make(map[string]*groupState),
	}
}

// state возвращает состояние группы, создавая его при первом обращении
func (r *Registry) state(group string) *groupState {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.groups[group]
	if !ok {
		st = &groupState{sem: make(chan struct{}, 1)}
		r.groups[group] = st
	}
	return st
}

// Get возвращает состояние группы, не создавая запись
func (r *Registry) Get(group string) GroupState {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.groups[group]
	if !ok {
		return GroupState{}
	}
	return GroupState{
		LoopEnabled: st.loopEnabled,
		Playing:     st.current != nil,
	}
}

// Len возвращает количество известных групп
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups)
}

func (r *Registry) takeCurrent(st *groupState) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := st.current
	st.current = nil
	return h
}

func (r *Registry) setCurrent(st *groupState, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st.current = h
}

func (r *Registry) loopEnabled(st *groupState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return st.loopEnabled
}

// flipLoop переключает флаг повтора и возвращает новое значение и текущий трек
func (r *Registry) flipLoop(st *groupState) (bool, Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st.loopEnabled = !st.loopEnabled
	return st.loopEnabled, st.current
}
