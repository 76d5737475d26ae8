package track

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher перестраивает индекс при изменениях в каталоге кэша.
// Серия событий схлопывается в одно перестроение по истечении debounce.
type Watcher struct {
	manager  *Manager
	debounce time.Duration
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher создает наблюдатель за каталогом кэша менеджера
func NewWatcher(manager *Manager, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("ошибка создания fsnotify watcher: %w", err)
	}
	return &Watcher{
		manager:  manager,
		debounce: debounce,
		watcher:  w,
		done:     make(chan struct{}),
	}, nil
}

// Run наблюдает за каталогом до отмены контекста
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.done)
	defer w.watcher.Close()

	if err := w.addTree(); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("ошибка наблюдения за каталогом", "root", w.manager.Root(), "error", err)

		case <-timer.C:
			// Новые подкаталоги (и появившийся корень) подписываются до перестроения,
			// чтобы не пропустить файлы, созданные сразу после него
			if err := w.addTree(); err != nil {
				log.Warnw("не удалось обновить список наблюдаемых каталогов", "error", err)
			}
			if _, err := w.manager.Reindex(ctx); err != nil {
				log.Errorw("автоматическая переиндексация не удалась", "error", err)
			}
		}
	}
}

// Done закрывается после завершения Run
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
		return false
	}
	// Пока корня нет, наблюдается ближайший существующий предок:
	// соседние каталоги к кэшу не относятся
	if !onRootPath(filepath.Clean(w.manager.Root()), filepath.Clean(event.Name)) {
		return false
	}
	// Создание или удаление каталога меняет состав треков
	if filepath.Ext(event.Name) == "" {
		return true
	}
	return hasExtension(event.Name, w.manager.ext)
}

// addTree добавляет в наблюдение корень и все его подкаталоги
func (w *Watcher) addTree() error {
	root := w.manager.Root()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		ancestor := existingAncestor(root)
		log.Warnw("каталог кэша не существует, наблюдаем за родителем", "root", root, "watch", ancestor)
		if err := w.watcher.Add(ancestor); err != nil {
			return fmt.Errorf("ошибка добавления каталога в наблюдение: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("ошибка добавления каталога в наблюдение: %w", err)
	}
	return nil
}

// existingAncestor возвращает ближайший существующий каталог над path
func existingAncestor(path string) string {
	dir := filepath.Dir(filepath.Clean(path))
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

// onRootPath сообщает, лежит ли name внутри root или на пути к нему
func onRootPath(root, name string) bool {
	sep := string(filepath.Separator)
	return name == root ||
		strings.HasPrefix(name, root+sep) ||
		strings.HasPrefix(root, strings.TrimSuffix(name, sep)+sep)
}
