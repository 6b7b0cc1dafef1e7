package scrape

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
)

// summaryMaxRunes caps the stored class summary.
const summaryMaxRunes = 600

var lastUpdateRe = regexp.MustCompile(`(?i)last (?:updated|modified|update)[^\n.]*`)

// Meta holds auxiliary metadata extracted from a class page.
type Meta struct {
	LastUpdateNote string
	Maturity       string
	Summary        string
}

// MetaExtractor derives page metadata (maturity, last-update note, markdown
// summary) from the full hydrated HTML.
type MetaExtractor struct {
	conv *converter.Converter
}

// NewMetaExtractor creates a MetaExtractor with a markdown converter.
func NewMetaExtractor() *MetaExtractor {
	return &MetaExtractor{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Extract derives metadata from a class page. It never fails: on parse or
// conversion errors the affected fields degrade to plain text or empty.
func (m *MetaExtractor) Extract(pageHTML, sourceURL string) Meta {
	text := PageText(pageHTML)
	return Meta{
		LastUpdateNote: LastUpdateNote(text),
		Maturity:       ClassifyMaturity(text),
		Summary:        m.summarize(pageHTML, sourceURL, text),
	}
}

// summarize converts the page body to markdown and truncates it. Falls back
// to truncated plain text when conversion fails or comes back empty.
func (m *MetaExtractor) summarize(pageHTML, sourceURL, fallback string) string {
	md, err := m.conv.ConvertString(pageHTML, converter.WithDomain(sourceURL))
	if err != nil || strings.TrimSpace(md) == "" {
		return truncateRunes(fallback, summaryMaxRunes)
	}
	return truncateRunes(strings.TrimSpace(md), summaryMaxRunes)
}

// PageText returns the page's body text with whitespace collapsed.
func PageText(pageHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return ""
	}
	body := doc.Find("body")
	if body.Length() == 0 {
		return strings.TrimSpace(spaceRun.ReplaceAllString(doc.Text(), " "))
	}
	return strings.TrimSpace(spaceRun.ReplaceAllString(body.Text(), " "))
}

// LastUpdateNote returns the page's "last updated ..." line, if any.
func LastUpdateNote(pageText string) string {
	return strings.TrimSpace(lastUpdateRe.FindString(pageText))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
