// Package scrape locates and parses the skill table in a class page's
// hydrated DOM, plus the auxiliary page metadata (maturity, last-update note,
// summary).
//
// The source site renders the skill table through a client-side framework as
// nested divs tagged with ARIA table roles; older or simpler pages use a
// semantic <table>. Both shapes are modeled as independent probe-then-extract
// strategies tried in order, each producing the same raw cell grid, so a
// third shape can be added without touching the existing two.
package scrape

import (
	stdhtml "html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Row is one normalized skill record extracted from a table row.
// Nil numeric fields mean the cell was empty or unparseable.
type Row struct {
	SkillPoints    *float64
	Discipline     string
	Ability        string
	DescriptionRaw string
	Range          *float64
	ManaCost       *float64
	ManaGrowth     *float64
	DoD            *float64
}

// shape is one structural strategy for locating the skill table.
// probe returns the raw data-row cell grid, or ok=false when the shape is
// not present in the document.
type shape interface {
	name() string
	probe(doc *goquery.Document) (rows [][]string, ok bool)
}

var shapes = []shape{divTableShape{}, htmlTableShape{}}

// stripMarkup removes inline tags (links, bold, icons) from cell content.
var stripMarkup = bluemonday.StrictPolicy()

var spaceRun = regexp.MustCompile(`\s+`)

// ExtractSkills parses the hydrated page HTML and returns the normalized
// skill rows, trying the div-table shape first and the semantic-table shape
// as fallback. An empty result is not an error: the page may genuinely have
// no skill table, or the heuristics may not have matched.
func ExtractSkills(pageHTML string) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, err
	}
	for _, sh := range shapes {
		raw, ok := sh.probe(doc)
		if !ok {
			continue
		}
		var rows []Row
		for _, cells := range raw {
			if r, ok := normalizeRow(cells); ok {
				rows = append(rows, *r)
			}
		}
		if len(rows) > 0 {
			return rows, nil
		}
	}
	return nil, nil
}

// divTableShape matches the framework's ARIA div table: a header wrapper
// tagged role=rowgroup whose cell text names an ability column and a
// skill-points column, followed by a sibling container of data rows.
type divTableShape struct{}

func (divTableShape) name() string { return "div_table" }

func (divTableShape) probe(doc *goquery.Document) ([][]string, bool) {
	var out [][]string
	found := false

	doc.Find(`[role="rowgroup"]`).EachWithBreak(func(_ int, rg *goquery.Selection) bool {
		header := rg.Children()
		combined := strings.ToLower(joinCellTexts(header))
		if !isSkillHeader(combined) {
			return true
		}

		container := dataContainer(rg.Parent(), header.Length())
		if container == nil {
			return true
		}

		container.Children().Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.ChildrenFiltered("div").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, cellText(cell))
			})
			if len(cells) > 0 {
				out = append(out, cells)
			}
		})
		found = true
		return false
	})

	return out, found
}

// dataContainer finds the data-row container for a header wrapper: the
// parent's next sibling div with more than two children, falling back to the
// first sibling div with more children than the header row has cells.
func dataContainer(parent *goquery.Selection, headerCells int) *goquery.Selection {
	var fallback *goquery.Selection
	var result *goquery.Selection

	parent.NextAll().EachWithBreak(func(_ int, sib *goquery.Selection) bool {
		if goquery.NodeName(sib) != "div" {
			return true
		}
		n := sib.Children().Length()
		if n > 2 {
			result = sib
			return false
		}
		if fallback == nil && n > headerCells {
			fallback = sib
		}
		return true
	})

	if result != nil {
		return result
	}
	return fallback
}

// htmlTableShape matches a semantic <table> whose <thead> names the same
// ability and skill-points columns.
type htmlTableShape struct{}

func (htmlTableShape) name() string { return "html_table" }

func (htmlTableShape) probe(doc *goquery.Document) ([][]string, bool) {
	var out [][]string
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		combined := strings.ToLower(joinCellTexts(table.Find("thead tr th")))
		if !isSkillHeader(combined) {
			return true
		}
		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("td").Each(func(_ int, td *goquery.Selection) {
				cells = append(cells, cellText(td))
			})
			if len(cells) > 0 {
				out = append(out, cells)
			}
		})
		found = true
		return false
	})

	return out, found
}

// isSkillHeader reports whether combined lower-cased header text names both
// an ability-like column and a skill-points-like column.
func isSkillHeader(t string) bool {
	ability := strings.Contains(t, "ability") ||
		strings.Contains(t, "skill name") ||
		hasStandaloneSkill(t)
	points := strings.Contains(t, "skill points") || strings.Contains(t, "points")
	return ability && points
}

// hasStandaloneSkill reports whether t contains "skill" not immediately
// followed by "points" ("skill points" alone names the points column, not the
// ability column).
func hasStandaloneSkill(t string) bool {
	for i := 0; ; {
		j := strings.Index(t[i:], "skill")
		if j < 0 {
			return false
		}
		j += i
		rest := strings.TrimLeft(t[j+len("skill"):], " ")
		if !strings.HasPrefix(rest, "points") {
			return true
		}
		i = j + len("skill")
	}
}

func joinCellTexts(cells *goquery.Selection) string {
	var parts []string
	cells.Each(func(_ int, c *goquery.Selection) {
		parts = append(parts, cellText(c))
	})
	return strings.Join(parts, " ")
}

// cellText extracts a cell's text content with inline markup stripped and
// whitespace collapsed.
func cellText(sel *goquery.Selection) string {
	inner, err := sel.Html()
	if err != nil {
		return strings.TrimSpace(sel.Text())
	}
	clean := stdhtml.UnescapeString(stripMarkup.Sanitize(inner))
	return strings.TrimSpace(spaceRun.ReplaceAllString(clean, " "))
}
