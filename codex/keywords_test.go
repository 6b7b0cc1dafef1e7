package codex

import (
	"reflect"
	"testing"
)

func TestExtractKeywordsTable(t *testing.T) {
	const page = `<html><body>
	<table>
	  <thead><tr><th>Keyword</th><th>Definition</th></tr></thead>
	  <tbody>
	    <tr><td>DoD</td><td>Degree of Difficulty</td></tr>
	    <tr><td>Mana</td><td>Resource</td><td>spent on abilities</td></tr>
	    <tr><td></td><td>orphan definition</td></tr>
	    <tr><td>Orphan keyword</td><td></td></tr>
	  </tbody>
	</table>
	</body></html>`

	pairs, err := ExtractKeywords(page)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := []KeywordPair{
		{Keyword: "DoD", Definition: "Degree of Difficulty"},
		{Keyword: "Mana", Definition: "Resource | spent on abilities"},
	}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("pairs = %v, want %v", pairs, want)
	}
}

func TestExtractKeywordsDivFallback(t *testing.T) {
	const page = `<html><body>
	<div>
	  <div><div role="rowgroup"><div>Keyword</div><div>Definition</div></div></div>
	  <div>
	    <div><div>DoD</div><div>Degree of Difficulty</div></div>
	    <div><div>Mana</div><div>Resource</div></div>
	    <div><div>Tier</div><div>Skill bracket</div></div>
	  </div>
	</div>
	</body></html>`

	pairs, err := ExtractKeywords(page)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(pairs) != 3 || pairs[0].Keyword != "DoD" || pairs[2].Definition != "Skill bracket" {
		t.Errorf("pairs = %v", pairs)
	}
}

func TestExtractKeywordsNoTable(t *testing.T) {
	pairs, err := ExtractKeywords(`<html><body><p>No glossary.</p></body></html>`)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("want empty, got %v", pairs)
	}
}

func TestExtractKeywordsIgnoresSkillTable(t *testing.T) {
	const page = `<html><body><table>
	<thead><tr><th>Skill Points</th><th>Ability</th></tr></thead>
	<tbody><tr><td>1</td><td>Slash</td></tr></tbody>
	</table></body></html>`

	pairs, err := ExtractKeywords(page)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("skill table matched as keywords: %v", pairs)
	}
}
