package intake

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var separatorReplacer = strings.NewReplacer("_", " ", "-", " ", ".", " ")

// DisplayTitle derives a human-readable title from a file path: the base
// name without extension, separators turned into spaces, title-cased.
func DisplayTitle(path string) string {
	base := strings.TrimSpace(filepath.Base(path))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "Untitled Document"
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Join(strings.Fields(separatorReplacer.Replace(base)), " ")
	if cleaned == "" {
		return "Untitled Document"
	}
	return cases.Title(language.Und).String(cleaned)
}
