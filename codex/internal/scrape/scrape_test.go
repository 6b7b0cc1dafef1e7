package scrape

import (
	"reflect"
	"testing"
)

// divFixture and tableFixture encode the same logical 3-row skill table under
// the two structural shapes the source site has been observed to use.
const divFixture = `<html><body>
<div class="codex-table">
  <div>
    <div role="rowgroup">
      <div>Skill Points</div><div>Discipline</div><div>Ability</div>
      <div>Description</div><div>Range</div><div>Mana Cost / Growth</div><div>DoD</div>
    </div>
  </div>
  <div>
    <div>
      <div>1</div><div>Sword</div><div>Slash</div>
      <div>A basic slash.</div><div>1</div><div>1.25 / 0.75</div><div>2</div>
    </div>
    <div>
      <div>12,500</div><div>Sword</div><div><strong>Whirlwind</strong></div>
      <div>Hits all adjacent foes.</div><div></div><div>Passive</div><div>abc</div>
    </div>
    <div>
      <div>3</div><div></div><div>Rally</div>
      <div>Buffs the party.</div><div>4</div><div>2 / 1</div><div>5</div>
    </div>
  </div>
</div>
</body></html>`

const tableFixture = `<html><body>
<table>
  <thead>
    <tr><th>Skill Points</th><th>Discipline</th><th>Ability</th>
    <th>Description</th><th>Range</th><th>Mana Cost / Growth</th><th>DoD</th></tr>
  </thead>
  <tbody>
    <tr><td>1</td><td>Sword</td><td>Slash</td>
    <td>A basic slash.</td><td>1</td><td>1.25 / 0.75</td><td>2</td></tr>
    <tr><td>12,500</td><td>Sword</td><td><strong>Whirlwind</strong></td>
    <td>Hits all adjacent foes.</td><td></td><td>Passive</td><td>abc</td></tr>
    <tr><td>3</td><td></td><td>Rally</td>
    <td>Buffs the party.</td><td>4</td><td>2 / 1</td><td>5</td></tr>
  </tbody>
</table>
</body></html>`

func TestDualStructureEquivalence(t *testing.T) {
	// WHAT: The div-table and html-table fixtures encode the same table and
	// must produce identical skill arrays field for field.
	// WHY: Both shapes exist in the wild; extraction must be shape-agnostic.
	fromDiv, err := ExtractSkills(divFixture)
	if err != nil {
		t.Fatalf("div extract: %v", err)
	}
	fromTable, err := ExtractSkills(tableFixture)
	if err != nil {
		t.Fatalf("table extract: %v", err)
	}
	if len(fromDiv) != 3 {
		t.Fatalf("div rows: want 3, got %d", len(fromDiv))
	}
	if !reflect.DeepEqual(fromDiv, fromTable) {
		t.Errorf("shapes disagree:\ndiv:   %+v\ntable: %+v", fromDiv, fromTable)
	}
}

func TestExtractSkillsFieldMapping(t *testing.T) {
	rows, err := ExtractSkills(divFixture)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	slash := rows[0]
	if slash.Ability != "Slash" || slash.Discipline != "Sword" {
		t.Errorf("row 0: %+v", slash)
	}
	if slash.SkillPoints == nil || *slash.SkillPoints != 1 {
		t.Errorf("skill points: %v", slash.SkillPoints)
	}
	if slash.ManaCost == nil || *slash.ManaCost != 1.25 || slash.ManaGrowth == nil || *slash.ManaGrowth != 0.75 {
		t.Errorf("mana: %v / %v", slash.ManaCost, slash.ManaGrowth)
	}

	whirlwind := rows[1]
	if whirlwind.Ability != "Whirlwind" {
		t.Errorf("inline markup not stripped: %q", whirlwind.Ability)
	}
	if whirlwind.SkillPoints == nil || *whirlwind.SkillPoints != 12500 {
		t.Errorf("thousands separator: %v", whirlwind.SkillPoints)
	}
	if whirlwind.Range != nil {
		t.Errorf("empty range should be nil: %v", whirlwind.Range)
	}
	if whirlwind.ManaCost != nil || whirlwind.ManaGrowth != nil {
		t.Errorf("passive mana should be nil: %v / %v", whirlwind.ManaCost, whirlwind.ManaGrowth)
	}
	if whirlwind.DoD != nil {
		t.Errorf("non-numeric dod should be nil: %v", whirlwind.DoD)
	}
}

func TestExtractSkillsDropsRowsWithoutAbility(t *testing.T) {
	const fixture = `<html><body><table>
	<thead><tr><th>Skill Points</th><th>Discipline</th><th>Ability</th></tr></thead>
	<tbody>
	<tr><td>1</td><td>Sword</td><td>Slash</td></tr>
	<tr><td>2</td><td>Sword</td><td></td></tr>
	</tbody></table></body></html>`

	rows, err := ExtractSkills(fixture)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(rows) != 1 || rows[0].Ability != "Slash" {
		t.Errorf("want only Slash, got %+v", rows)
	}
}

func TestExtractSkillsNoTable(t *testing.T) {
	rows, err := ExtractSkills(`<html><body><p>No skills documented yet.</p></body></html>`)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("want zero rows, got %d", len(rows))
	}
}

func TestExtractSkillsIgnoresNonSkillTables(t *testing.T) {
	// A keyword/definition table must not be mistaken for a skill table.
	const fixture = `<html><body><table>
	<thead><tr><th>Keyword</th><th>Definition</th></tr></thead>
	<tbody><tr><td>DoD</td><td>Degree of Difficulty</td></tr></tbody>
	</table></body></html>`

	rows, err := ExtractSkills(fixture)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("keyword table matched as skills: %+v", rows)
	}
}

func TestIsSkillHeader(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"skill points discipline ability description", true},
		{"skill name skill points", true},
		{"skill skill points", true},  // standalone "skill" + points column
		{"skill points only", false},  // "skill" only as part of "skill points"
		{"keyword definition", false},
		{"ability range", false}, // no points column
	}
	for _, c := range cases {
		if got := isSkillHeader(c.text); got != c.want {
			t.Errorf("isSkillHeader(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}
