package track

import "fmt"

// IndexError ошибка ввода-вывода при обходе каталога кэша
type IndexError struct {
	Root string
	Err  error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("failed to index `%s`: %v", e.Root, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

// NoMatchError запрос не совпал ни с одним треком
type NoMatchError struct {
	Query string
	Root  string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("No cached match in `%s` for '%s'.", e.Root, e.Query)
}
