package playback

import "fmt"

// PreconditionError команда не может быть выполнена в текущем контексте
// (нет группы, пользователь не в голосовом канале, нет активной сессии)
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// ConfigurationError голосовой менеджер недоступен
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

// ExternalOperationError ошибка, полученная от голосовой сессии или трека
type ExternalOperationError struct {
	Op    string
	Group string
	Err   error
}

func (e *ExternalOperationError) Error() string {
	return fmt.Sprintf("voice %s failed: %v", e.Op, e.Err)
}

func (e *ExternalOperationError) Unwrap() error {
	return e.Err
}

func external(op, group string, err error) error {
	return &ExternalOperationError{Op: op, Group: group, Err: err}
}

var (
	errNoVoice   = &ConfigurationError{Reason: "Voice manager not initialized"}
	errNoSession = &PreconditionError{Reason: "Not in a voice channel."}
)
