// internal/lore/match_test.go
package lore

import "testing"

func TestIsRegexKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"/dragon/", true},
		{"/dragon/i", true},
		{"/a/b/i", true},
		{"//", true},
		{"dragon", false},
		{"/path", false},
		{"", false},
		{"/", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := IsRegexKey(tt.key); got != tt.want {
				t.Errorf("IsRegexKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestMatchesAny_Literal(t *testing.T) {
	tests := []struct {
		name string
		text string
		keys []string
		want bool
	}{
		{"exact substring", "I approach the castle.", []string{"castle"}, true},
		{"case insensitive text", "THE CASTLE LOOMS", []string{"castle"}, true},
		{"case insensitive key", "the castle looms", []string{"CASTLE"}, true},
		{"no match", "a walk in the forest", []string{"castle"}, false},
		{"second key matches", "a walk in the forest", []string{"castle", "forest"}, true},
		{"no keys", "any text at all", nil, false},
		{"substring inside word", "forecastle deck", []string{"castle"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesAny(tt.text, tt.keys); got != tt.want {
				t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.text, tt.keys, got, tt.want)
			}
		})
	}
}

func TestMatchesAny_Regex(t *testing.T) {
	tests := []struct {
		name string
		text string
		keys []string
		want bool
	}{
		{"plain pattern", "a dragon sleeps", []string{"/drag[oa]n/"}, true},
		{"pattern alternation", "a dragan sleeps", []string{"/drag[oa]n/"}, true},
		{"case sensitive without flag", "a DRAGON sleeps", []string{"/dragon/"}, false},
		{"i flag", "a DRAGON sleeps", []string{"/dragon/i"}, true},
		{"m flag anchors lines", "first line\nwizard tower", []string{"/^wizard/m"}, true},
		{"no m flag", "first line\nwizard tower", []string{"/^wizard/"}, false},
		{"s flag dot matches newline", "begin\nend", []string{"/begin.end/s"}, true},
		{"no s flag", "begin\nend", []string{"/begin.end/"}, false},
		{"ignored g flag still matches", "the cat sat", []string{"/cat/g"}, true},
		{"combined flags", "BEGIN\nEND", []string{"/begin.end/is"}, true},
		{"unanchored search", "deep in the catacombs", []string{"/cat/"}, true},
		{"invalid pattern never matches", "anything [unclosed", []string{"/[unclosed/"}, false},
		{"empty pattern never matches", "anything", []string{"//"}, false},
		{"slash inside pattern", "path a/b here", []string{"/a\\/b/"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesAny(tt.text, tt.keys); got != tt.want {
				t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.text, tt.keys, got, tt.want)
			}
		})
	}
}

func TestEvaluateTrigger_NoKeys(t *testing.T) {
	e := NewEntry()
	if e.EvaluateTrigger("any text at all") {
		t.Errorf("EvaluateTrigger() = true, want false for entry without keys")
	}
}

func TestEvaluateTrigger_PrimaryOnly(t *testing.T) {
	e := NewEntry("vampire")
	if !e.EvaluateTrigger("The vampire stirs.") {
		t.Errorf("EvaluateTrigger() = false, want true for primary match")
	}
	if e.EvaluateTrigger("The werewolf stirs.") {
		t.Errorf("EvaluateTrigger() = true, want false without primary match")
	}
}

func TestEvaluateTrigger_Gates(t *testing.T) {
	tests := []struct {
		name      string
		logic     LogicGate
		primary   []string
		secondary []string
		text      string
		want      bool
	}{
		{"and_any with one secondary", LogicAndAny, []string{"vampire"}, []string{"sunlight", "garlic"}, "The vampire recoils from sunlight.", true},
		{"and_any with other secondary", LogicAndAny, []string{"vampire"}, []string{"sunlight", "garlic"}, "The vampire fears garlic.", true},
		{"and_any primary alone", LogicAndAny, []string{"vampire"}, []string{"sunlight", "garlic"}, "The vampire stalks the night.", false},
		{"and_any secondary alone", LogicAndAny, []string{"vampire"}, []string{"sunlight", "garlic"}, "Bright sunlight on the hills.", false},
		{"and_all both present", LogicAndAll, []string{"secret"}, []string{"library", "lever"}, "The secret is in the library, behind the lever.", true},
		{"and_all one missing", LogicAndAll, []string{"secret"}, []string{"library", "lever"}, "The secret is in the library.", false},
		{"not_any none present", LogicNotAny, []string{"dragon"}, []string{"friendly"}, "The dragon attacks!", true},
		{"not_any one present", LogicNotAny, []string{"dragon"}, []string{"friendly"}, "The friendly dragon waves.", false},
		{"not_all one missing", LogicNotAll, []string{"ritual"}, []string{"candle", "chalk"}, "The ritual needs a candle.", true},
		{"not_all all present", LogicNotAll, []string{"ritual"}, []string{"candle", "chalk"}, "The ritual needs a candle and chalk.", false},
		{"not_all none present", LogicNotAll, []string{"ritual"}, []string{"candle", "chalk"}, "The ritual begins.", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEntry(tt.primary...)
			e.SecondaryKeys = tt.secondary
			e.Logic = tt.logic
			if got := e.EvaluateTrigger(tt.text); got != tt.want {
				t.Errorf("EvaluateTrigger(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestEvaluateTrigger_UnknownGate(t *testing.T) {
	e := NewEntry("vampire")
	e.SecondaryKeys = []string{"sunlight"}
	e.Logic = LogicGate("xor_maybe")
	if e.EvaluateTrigger("The vampire recoils from sunlight.") {
		t.Errorf("EvaluateTrigger() = true, want false for unknown gate")
	}
}

func TestEvaluateTrigger_NoSecondaryIgnoresGate(t *testing.T) {
	// Without secondary keys the gate is never consulted, even an unknown one.
	e := NewEntry("vampire")
	e.Logic = LogicGate("xor_maybe")
	if !e.EvaluateTrigger("The vampire stirs.") {
		t.Errorf("EvaluateTrigger() = false, want true when no secondary keys")
	}
}
