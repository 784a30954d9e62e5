package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document parses markup into a goquery document.
func Document(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// Text returns the whitespace-collapsed text of the first element matching
// selector under s. A missing element yields "".
func Text(s *goquery.Selection, selector string) string {
	return Clean(s.Find(selector).First().Text())
}

// Texts returns the cleaned text of every element matching selector.
func Texts(s *goquery.Selection, selector string) []string {
	var out []string
	s.Find(selector).Each(func(_ int, el *goquery.Selection) {
		out = append(out, Clean(el.Text()))
	})
	return out
}

// Attr returns an attribute of the first element matching selector.
func Attr(s *goquery.Selection, selector, name string) string {
	v, _ := s.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

var numberPattern = regexp.MustCompile(`-?\d+`)

// Number returns the first integer in the text of the first element matching
// selector, and whether one was found.
func Number(s *goquery.Selection, selector string) (int, bool) {
	return ParseNumber(Text(s, selector))
}

// ParseNumber returns the first integer embedded in text.
func ParseNumber(text string) (int, bool) {
	m := numberPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Clean collapses runs of whitespace and trims.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
