package textutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// blockSelector lists elements whose boundaries separate words.
const blockSelector = "p, div, li, ul, ol, h1, h2, h3, h4, h5, h6, blockquote, figure, figcaption, section, article, aside, header, footer, tr, td, th, pre"

var strictPolicy = bluemonday.StrictPolicy()

// PlainText converts an HTML article body into a single line of readable text.
// Markup is removed, entities are decoded, block boundaries become spaces,
// runs of whitespace collapse to one space, and the result is NFC-normalized.
func PlainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	marked := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find("script, style, noscript, iframe").Remove()
		doc.Find("br, hr").ReplaceWithHtml(" ")
		doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
			s.BeforeHtml(" ")
			s.AppendHtml(" ")
		})
		if body, err := doc.Find("body").Html(); err == nil {
			marked = body
		}
	}

	stripped := strictPolicy.Sanitize(marked)

	text := stripped
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(stripped)); err == nil {
		text = doc.Text()
	}
	return norm.NFC.String(CollapseWhitespace(text))
}

// CollapseWhitespace trims s and replaces each whitespace run with one space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
