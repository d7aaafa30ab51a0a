package chapters

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Ref is a chapter link found in a table of contents, before its page is
// fetched. Order is the position in the TOC; Number is -1 when the link
// carries no chapter number.
type Ref struct {
	Order  int
	Number int
	Title  string
	URL    string
}

func (r Ref) Label() string {
	if r.Number < 0 {
		return fmt.Sprintf("#%d", r.Order+1)
	}
	return fmt.Sprintf("%d", r.Number)
}

var reUnderscore = regexp.MustCompile(`_+`)

// Sanitize turns a title into a file-name friendly token, keeping case.
func Sanitize(s string) string {
	repl := []string{
		"•", "_",
		"-", "_",
		"—", "_",
		"–", "_",
		"/", "_",
		"\\", "_",
		".", "_",
		" ", "_",
		":", "",
		"(", "",
		")", "",
	}
	for i := 0; i < len(repl); i += 2 {
		s = strings.ReplaceAll(s, repl[i], repl[i+1])
	}

	clean := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			clean = append(clean, r)
		}
	}

	s = reUnderscore.ReplaceAllString(string(clean), "_")

	return strings.Trim(s, "_")
}
