// Package playback координирует воспроизведение треков в группах:
// хранит для каждой группы флаг повтора и текущий трек и упорядочивает
// команды старта, остановки и повтора относительно внешней голосовой сессии.
package playback

import "context"

// Handle управляет одним запущенным (или уже остановленным) треком
type Handle interface {
	SetGain(ctx context.Context, level float64) error
	EnableLoop(ctx context.Context) error
	DisableLoop(ctx context.Context) error
	// Stop останавливает трек. Повторная остановка не является ошибкой.
	Stop(ctx context.Context) error
}

// Session голосовое подключение одной группы
type Session interface {
	Play(ctx context.Context, path string) (Handle, error)
	// ClearQueue сбрасывает все, что ожидает воспроизведения в сессии
	ClearQueue(ctx context.Context) error
}

// Voice менеджер голосовых подключений
type Voice interface {
	Join(ctx context.Context, group, channel string) (Session, error)
	Leave(ctx context.Context, group string) error
	Session(group string) (Session, bool)
}
