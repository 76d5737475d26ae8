// Package bot разбирает текстовые команды чата и выполняет их
// через каталог треков и координатор воспроизведения.
package bot

import (
	"context"
	"strings"
)

// Message входящее сообщение чата
type Message struct {
	// Group идентификатор сервера, пустой для личных сообщений
	Group string
	// Channel текстовый канал, в который отправляются ответы
	Channel string
	// VoiceChannel голосовой канал автора, пустой если автор не подключен
	VoiceChannel string
	Content      string
	FromBot      bool
}

// Replier отправляет ответ в текстовый канал
type Replier interface {
	Reply(ctx context.Context, channel, content string) error
}

// ReplierFunc адаптер функции к Replier
type ReplierFunc func(ctx context.Context, channel, content string) error

// Reply вызывает f
func (f ReplierFunc) Reply(ctx context.Context, channel, content string) error {
	return f(ctx, channel, content)
}

// Parse выделяет имя команды и аргумент из текста сообщения.
// Первое слово после префикса является именем команды, остальные слова,
// разделенные одним пробелом, образуют аргумент.
func Parse(prefix, content string) (name, args string, ok bool) {
	fields := strings.Fields(content)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], prefix) {
		return "", "", false
	}
	name = strings.TrimPrefix(fields[0], prefix)
	if name == "" {
		return "", "", false
	}
	return name, strings.Join(fields[1:], " "), true
}
