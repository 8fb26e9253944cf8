package prompt

import (
	"testing"

	"github.com/pkeller/loregate/internal/lore"
)

func entryAt(pos lore.Position, content string) *lore.Entry {
	e := lore.NewEntry("trigger")
	e.Position = pos
	e.Content = content
	return e
}

func entryAtDepth(depth int, content string) *lore.Entry {
	e := entryAt(lore.PositionDepth, content)
	e.Depth = depth
	return e
}

func TestAssemble_PositionOrder(t *testing.T) {
	got := Assemble(AssembleInput{
		WorldContext: "## World\nRain city.",
		CharContext:  "## Characters\nMara.",
		Recent:       "Para one.\n\nPara two.",
		Entries: []*lore.Entry{
			entryAt(lore.PositionAfterChars, "AC"),
			entryAt(lore.PositionBeforeWorld, "BW"),
			entryAt(lore.PositionBeforeRecent, "BR"),
			entryAt(lore.PositionAfterWorld, "AW"),
		},
	})

	want := "BW\n\n" +
		"## World\nRain city.\n\n" +
		"AW\n\n" +
		"## Characters\nMara.\n\n" +
		"AC\n\n" +
		"BR\n\n" +
		"Para one.\n\nPara two."
	if got != want {
		t.Errorf("Assemble = %q, want %q", got, want)
	}
}

func TestAssemble_DepthInsertion(t *testing.T) {
	got := Assemble(AssembleInput{
		Recent: "p1\n\np2\n\np3\n\np4",
		Entries: []*lore.Entry{
			entryAtDepth(1, "D1"),
			entryAtDepth(0, "D0"),
			entryAtDepth(99, "D99"),
		},
		AuthorNote:      "NOTE",
		AuthorNoteDepth: 2,
	})

	want := "D99\n\np1\n\np2\n\nNOTE\n\np3\n\nD1\n\np4\n\nD0"
	if got != want {
		t.Errorf("Assemble = %q, want %q", got, want)
	}
}

func TestAssemble_SameDepthKeepsScanOrder(t *testing.T) {
	got := Assemble(AssembleInput{
		Recent: "p1\n\np2",
		Entries: []*lore.Entry{
			entryAtDepth(1, "first"),
			entryAtDepth(1, "second"),
		},
		AuthorNote:      "note",
		AuthorNoteDepth: 1,
	})

	want := "p1\n\nfirst\n\nsecond\n\nnote\n\np2"
	if got != want {
		t.Errorf("Assemble = %q, want %q", got, want)
	}
}

func TestAssemble_NoteClampsToFront(t *testing.T) {
	got := Assemble(AssembleInput{
		Recent:          "p1\n\np2",
		AuthorNote:      "note",
		AuthorNoteDepth: 4,
	})

	if want := "note\n\np1\n\np2"; got != want {
		t.Errorf("Assemble = %q, want %q", got, want)
	}
}

func TestAssemble_EmptyRecent(t *testing.T) {
	got := Assemble(AssembleInput{
		WorldContext:    "## World\nRain city.",
		Entries:         []*lore.Entry{entryAtDepth(2, "D")},
		AuthorNote:      "NOTE",
		AuthorNoteDepth: 4,
	})

	if want := "## World\nRain city.\n\nD\n\nNOTE"; got != want {
		t.Errorf("Assemble = %q, want %q", got, want)
	}
}

func TestAssemble_SkipsEmptySections(t *testing.T) {
	if got := Assemble(AssembleInput{Recent: "Only prose."}); got != "Only prose." {
		t.Errorf("Assemble = %q, want the prose alone", got)
	}
	if got := Assemble(AssembleInput{}); got != "" {
		t.Errorf("Assemble of nothing = %q, want empty", got)
	}

	got := Assemble(AssembleInput{
		Recent:  "p1",
		Entries: []*lore.Entry{entryAtDepth(0, "   ")},
	})
	if got != "p1" {
		t.Errorf("Assemble = %q, want blank payload dropped", got)
	}
}

func TestAssemble_NormalizesParagraphGaps(t *testing.T) {
	got := Assemble(AssembleInput{Recent: "a\n\n\n\nb\n\n"})
	if want := "a\n\nb"; got != want {
		t.Errorf("Assemble = %q, want %q", got, want)
	}
}
