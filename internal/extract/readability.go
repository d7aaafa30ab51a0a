package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability"
)

// Readability extracts the main article of the page, for chapters whose
// content container moved or disappeared.
func (p *Page) Readability() (content string, title string, err error) {
	pageURL, err := url.Parse(p.URL)
	if err != nil {
		return "", "", p.fail("", err)
	}

	article, err := readability.FromReader(bytes.NewReader(p.Raw), pageURL)
	if err != nil {
		return "", "", p.fail("", fmt.Errorf("readability extraction failed: %w", err))
	}

	if strings.TrimSpace(article.Content) == "" {
		return "", "", p.fail("", fmt.Errorf("readability extracted no content"))
	}

	return article.Content, CleanText(article.Title), nil
}
