package bot

import (
	"strings"

	"github.com/hazadus/kura-voice/internal/utils"
)

// SplitLines упаковывает строки в сообщения длиной не более max байт,
// сохраняя порядок. Строки внутри сообщения разделяются переводом строки.
// Строка длиннее max обрезается, чтобы не превысить лимит.
func SplitLines(lines []string, max int) []string {
	var (
		messages []string
		buf      strings.Builder
		pending  bool
	)
	for _, line := range lines {
		if len(line) > max {
			line = utils.TruncateString(line, max)
		}
		if pending && buf.Len()+1+len(line) > max {
			messages = append(messages, buf.String())
			buf.Reset()
			pending = false
		}
		if pending {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
		pending = true
	}
	if pending {
		messages = append(messages, buf.String())
	}
	return messages
}
