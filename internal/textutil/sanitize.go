package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
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
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. Trailing dots are dropped and the result is
// trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	out := strings.TrimSpace(fileNameReplacer.Replace(name))
	return strings.TrimRight(out, ". ")
}

// CollapseSpace trims the value and reduces inner whitespace runs to a single space.
func CollapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// HasStrayWhitespace reports leading, trailing, or doubled whitespace.
func HasStrayWhitespace(value string) bool {
	return value != "" && CollapseSpace(value) != value
}
