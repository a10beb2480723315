package validation

import (
	"context"
	"fmt"
	"strings"

	"centrifuge/internal/release"
)

// ForbiddenSubstring returns the first configured substring found in comment,
// compared case-insensitively.
func ForbiddenSubstring(comment string, substrings []string) (string, bool) {
	lower := strings.ToLower(comment)
	for _, s := range substrings {
		if s != "" && strings.Contains(lower, strings.ToLower(s)) {
			return s, true
		}
	}
	return "", false
}

func commentRule(substrings []string) Rule {
	return newCheck(CodeCommentSubstring, func(_ context.Context, rel *release.Release, _ Oracle) (string, bool) {
		for _, track := range rel.Readable() {
			if s, found := ForbiddenSubstring(track.Comment, substrings); found {
				return fmt.Sprintf("Comment in %s contains %q", track.Path, s), true
			}
		}
		return "", false
	})
}
