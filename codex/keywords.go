package codex

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// KeywordPair is one glossary entry parsed from the overview page.
type KeywordPair struct {
	Keyword    string
	Definition string
}

// ExtractKeywords parses the overview page's definitional table into
// keyword/definition pairs. It looks for the table whose header row carries
// both a keyword-like and a definition-like column; the first body cell is
// the keyword and the remaining cells join into the definition. Rows missing
// either field are dropped. No matching table yields an empty list, not an
// error.
func ExtractKeywords(pageHTML string) ([]KeywordPair, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse overview html: %w", err)
	}

	var pairs []KeywordPair
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		header := strings.ToLower(collapseSpace(table.Find("thead tr").First().Text()))
		if header == "" {
			// Some renderers emit the header as the first body row.
			header = strings.ToLower(collapseSpace(table.Find("tr").First().Text()))
		}
		if !isKeywordHeader(header) {
			return true
		}
		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			if pair, ok := keywordRow(tr.Find("td")); ok {
				pairs = append(pairs, pair)
			}
		})
		return false
	})

	if pairs != nil {
		return pairs, nil
	}

	// Div-table fallback, same framework shape as the skill tables.
	doc.Find(`[role="rowgroup"]`).EachWithBreak(func(_ int, rg *goquery.Selection) bool {
		header := strings.ToLower(collapseSpace(rg.Text()))
		if !isKeywordHeader(header) {
			return true
		}
		rg.Parent().NextAll().First().Children().Each(func(_ int, row *goquery.Selection) {
			if pair, ok := keywordRow(row.ChildrenFiltered("div")); ok {
				pairs = append(pairs, pair)
			}
		})
		return false
	})
	return pairs, nil
}

func isKeywordHeader(header string) bool {
	keywordish := strings.Contains(header, "keyword") || strings.Contains(header, "term")
	definitionish := strings.Contains(header, "definition") ||
		strings.Contains(header, "description") || strings.Contains(header, "meaning")
	return keywordish && definitionish
}

func keywordRow(cells *goquery.Selection) (KeywordPair, bool) {
	if cells.Length() < 2 {
		return KeywordPair{}, false
	}
	kw := collapseSpace(cells.First().Text())
	var rest []string
	cells.Slice(1, cells.Length()).Each(func(_ int, c *goquery.Selection) {
		if t := collapseSpace(c.Text()); t != "" {
			rest = append(rest, t)
		}
	})
	def := strings.Join(rest, " | ")
	if kw == "" || def == "" {
		return KeywordPair{}, false
	}
	return KeywordPair{Keyword: kw, Definition: def}, true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
