package track

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Build обходит каталог root и собирает снимок из файлов с расширением ext.
// Отсутствующий каталог дает пустой снимок. Любая другая ошибка обхода
// прерывает индексацию целиком.
func Build(ctx context.Context, root, ext string) (*Snapshot, error) {
	ext = strings.TrimPrefix(ext, ".")

	info, err := os.Lstat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSnapshot(root, nil), nil
	}
	if err != nil {
		return nil, &IndexError{Root: root, Err: err}
	}

	// Сам корень может быть ссылкой на каталог, ссылки внутри дерева не раскрываются
	walkRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &IndexError{Root: root, Err: err}
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		walkRoot, err = filepath.EvalSymlinks(walkRoot)
		if errors.Is(err, fs.ErrNotExist) {
			return NewSnapshot(root, nil), nil
		}
		if err != nil {
			return nil, &IndexError{Root: root, Err: err}
		}
	}

	var tracks []Track
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		// WalkDir не переходит по символическим ссылкам, а Type() у ссылки не regular
		if !d.Type().IsRegular() {
			return nil
		}
		if !hasExtension(path, ext) {
			return nil
		}

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		tracks = append(tracks, NewTrack(stem, path))
		return nil
	})
	if err != nil {
		return nil, &IndexError{Root: root, Err: err}
	}

	return &Snapshot{root: root, tracks: tracks}, nil
}

func hasExtension(path, ext string) bool {
	got := strings.TrimPrefix(filepath.Ext(path), ".")
	return got != "" && strings.EqualFold(got, ext)
}
