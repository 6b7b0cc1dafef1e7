package scrape

import (
	"strconv"
	"strings"
)

// Fixed column positions in the source skill table.
const (
	colSkillPoints = 0
	colDiscipline  = 1
	colAbility     = 2
	colDescription = 3
	colRange       = 4
	colMana        = 5
	colDoD         = 6
)

// normalizeRow maps an ordered cell slice onto a Row. Rows without an
// ability name are dropped (ok=false).
func normalizeRow(cells []string) (*Row, bool) {
	get := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}

	ability := get(colAbility)
	if ability == "" {
		return nil, false
	}

	r := &Row{
		SkillPoints:    ParseNumber(get(colSkillPoints)),
		Discipline:     get(colDiscipline),
		Ability:        ability,
		DescriptionRaw: get(colDescription),
		Range:          ParseNumber(get(colRange)),
		DoD:            ParseNumber(get(colDoD)),
	}
	r.ManaCost, r.ManaGrowth = ParseManaCell(get(colMana))
	return r, true
}

// ParseNumber parses a cell as a float, stripping thousands separators.
// Empty or non-numeric input yields nil; it never fails.
func ParseNumber(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseManaCell splits the combined "cost / growth" cell. The literal
// "Passive" (any case) yields nil for both; a cell without a slash parses as
// cost only.
func ParseManaCell(s string) (cost, growth *float64) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "passive") {
		return nil, nil
	}
	left, right, found := strings.Cut(s, "/")
	cost = ParseNumber(left)
	if found {
		growth = ParseNumber(right)
	}
	return cost, growth
}
