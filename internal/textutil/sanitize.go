package textutil

import "strings"

// fallbackFileStem is used when a name sanitizes to nothing.
const fallbackFileStem = "podcast"

var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizeFileName makes query text usable as a file name. Path separators
// and wildcard characters become dashes, other reserved characters are
// dropped, and whitespace runs collapse to a single space. Leading dots and
// dashes are trimmed so the result is never hidden or relative.
func SanitizeFileName(name string) string {
	cleaned := CollapseWhitespace(fileNameReplacer.Replace(name))
	cleaned = strings.TrimLeft(cleaned, ". -")
	if cleaned == "" {
		return fallbackFileStem
	}
	return cleaned
}

// AudioFileName returns the file name for a podcast about querytext.
func AudioFileName(querytext, extension string) string {
	extension = strings.TrimPrefix(strings.TrimSpace(extension), ".")
	if extension == "" {
		extension = "mp3"
	}
	return SanitizeFileName(querytext) + "." + extension
}
