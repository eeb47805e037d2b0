package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// ResolveInput decides whether an Index input names an existing file or is
// literal inline text, and returns the document text with its source and
// title. Files are read as UTF-8 text; unreadable files wrap ErrIngest and
// non-UTF-8 content wraps ErrDecode. Anything that does not stat as a regular
// file is passed through as inline text.
func ResolveInput(input string) (text, source, title string, err error) {
	info, statErr := os.Stat(input)
	if statErr != nil || info.IsDir() {
		return input, SourceInline, TitleInline, nil
	}

	data, readErr := os.ReadFile(input)
	if readErr != nil {
		return "", "", "", fmt.Errorf("%w: %s: %v", ErrIngest, input, readErr)
	}
	if !utf8.Valid(data) {
		return "", "", "", fmt.Errorf("%w: %s", ErrDecode, input)
	}

	return string(data), input, filepath.Base(input), nil
}
