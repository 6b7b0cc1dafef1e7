package scrape

import (
	"strings"
	"testing"
)

func TestClassifyMaturity(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"This page is in Pre-Alpha and subject to change.", MaturityPreAlpha},
		{"Skills beyond Tier 5 have not yet been revised.", MaturityRevisedTier5},
		{"Skills beyond tier 5 look great.", MaturityUnknown},
		{"Fully documented.", MaturityUnknown},
		{"", MaturityUnknown},
	}
	for _, c := range cases {
		if got := ClassifyMaturity(c.text); got != c.want {
			t.Errorf("ClassifyMaturity(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestLastUpdateNote(t *testing.T) {
	text := "Warrior combat guide. Last updated 3 months ago. Skills below."
	if got := LastUpdateNote(text); got != "Last updated 3 months ago" {
		t.Errorf("note: %q", got)
	}
	if got := LastUpdateNote("no note here"); got != "" {
		t.Errorf("want empty, got %q", got)
	}
}

func TestMetaExtract(t *testing.T) {
	const page = `<html><body>
	<h1>Warrior</h1>
	<p>Last updated yesterday</p>
	<p>This class is in Pre-Alpha.</p>
	<p>` + "Filler. " + `</p>
	</body></html>`

	m := NewMetaExtractor().Extract(page, "https://docs.example.com/gameplay/combat/warrior")
	if m.Maturity != MaturityPreAlpha {
		t.Errorf("maturity: %q", m.Maturity)
	}
	if !strings.HasPrefix(m.LastUpdateNote, "Last updated") {
		t.Errorf("note: %q", m.LastUpdateNote)
	}
	if m.Summary == "" || !strings.Contains(m.Summary, "Warrior") {
		t.Errorf("summary: %q", m.Summary)
	}
}

func TestSummaryTruncated(t *testing.T) {
	long := "<html><body><p>" + strings.Repeat("lorem ipsum ", 200) + "</p></body></html>"
	m := NewMetaExtractor().Extract(long, "https://docs.example.com/x")
	if n := len([]rune(m.Summary)); n > summaryMaxRunes {
		t.Errorf("summary not truncated: %d runes", n)
	}
}
