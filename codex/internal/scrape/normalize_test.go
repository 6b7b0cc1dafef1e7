package scrape

import "testing"

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{"12,500", f(12500)},
		{"1.25", f(1.25)},
		{" 3 ", f(3)},
		{"", nil},
		{"abc", nil},
		{"1,2,3", f(123)},
	}
	for _, c := range cases {
		got := ParseNumber(c.in)
		if !eq(got, c.want) {
			t.Errorf("ParseNumber(%q) = %v, want %v", c.in, deref(got), deref(c.want))
		}
	}
}

func TestParseManaCell(t *testing.T) {
	cases := []struct {
		in           string
		cost, growth *float64
	}{
		{"1.25 / 0.75", f(1.25), f(0.75)},
		{"Passive", nil, nil},
		{"PASSIVE", nil, nil},
		{"", nil, nil},
		{"2", f(2), nil},
		{"2 /", f(2), nil},
		{"/ 3", nil, f(3)},
		{"x / y", nil, nil},
	}
	for _, c := range cases {
		cost, growth := ParseManaCell(c.in)
		if !eq(cost, c.cost) || !eq(growth, c.growth) {
			t.Errorf("ParseManaCell(%q) = %v/%v, want %v/%v",
				c.in, deref(cost), deref(growth), deref(c.cost), deref(c.growth))
		}
	}
}

func TestNormalizeRowShortCells(t *testing.T) {
	// Rows shorter than the full column set still normalize; missing trailing
	// cells read as empty.
	r, ok := normalizeRow([]string{"1", "Sword", "Slash"})
	if !ok {
		t.Fatal("row with ability should normalize")
	}
	if r.DescriptionRaw != "" || r.Range != nil || r.ManaCost != nil || r.DoD != nil {
		t.Errorf("missing cells should be zero-valued: %+v", r)
	}

	if _, ok := normalizeRow([]string{"1", "Sword"}); ok {
		t.Error("row without ability cell must be dropped")
	}
}

func f(v float64) *float64 { return &v }

func eq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
