package imports

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Limits задает ограничения на импортируемый файл.
type Limits struct {
	Accept  []string // допустимые расширения вместе с точкой
	MaxSize uint64   // байты; 0 - без ограничения
}

// DefaultLimits - 10 MiB, .csv и .xlsx.
var DefaultLimits = Limits{
	MaxSize: 10 * humanize.MiByte,
	Accept:  []string{".csv", ".xlsx"},
}

// ValidateFile проверяет размер и расширение файла до разбора.
func ValidateFile(name string, size int64, limits Limits) error {
	if limits.MaxSize > 0 && size > 0 && uint64(size) > limits.MaxSize {
		return fmt.Errorf("file %q is too big (%s). Maximum size is %s",
			name, humanize.IBytes(uint64(size)), humanize.IBytes(limits.MaxSize))
	}

	if len(limits.Accept) == 0 {
		return nil
	}
	lower := strings.ToLower(name)
	for _, ext := range limits.Accept {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return nil
		}
	}

	formats := make([]string, len(limits.Accept))
	for i, ext := range limits.Accept {
		formats[i] = strings.TrimPrefix(ext, ".")
	}
	return fmt.Errorf("%w: file %q, accepted formats: %s",
		ErrUnsupportedFormat, name, strings.Join(formats, ", "))
}
