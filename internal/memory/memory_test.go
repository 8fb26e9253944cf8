package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pkeller/loregate/internal/bible"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcdefg", 1},
		{"abcdefgh", 2},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%d bytes) = %d, want %d", len(tt.text), got, tt.want)
		}
	}
}

func TestNeedsSummarization_Boundary(t *testing.T) {
	m := NewManager()

	at := strings.Repeat("x", SummarizeThreshold*CharsPerToken)
	if m.NeedsSummarization(at) {
		t.Error("exactly at threshold should not need summarization")
	}
	if !m.NeedsSummarization(at + "xxxx") {
		t.Error("one token past threshold should need summarization")
	}
}

func TestContentToSummarize_BelowThreshold(t *testing.T) {
	m := NewManager()
	if text, ok := m.ContentToSummarize("short chapter"); ok || text != "" {
		t.Errorf("got (%q, %v), want none", text, ok)
	}
}

func TestContentToSummarize_RawChunk(t *testing.T) {
	m := NewManager()
	chapter := strings.Repeat("x", 13000)

	text, ok := m.ContentToSummarize(chapter)
	if !ok {
		t.Fatal("expected a chunk")
	}
	if len(text) != ChunkSize*CharsPerToken {
		t.Errorf("chunk length = %d, want %d", len(text), ChunkSize*CharsPerToken)
	}
}

func TestContentToSummarize_ParagraphBreak(t *testing.T) {
	m := NewManager()
	chapter := strings.Repeat("a", 3000) + "\n\n" + strings.Repeat("b", 11000)

	text, ok := m.ContentToSummarize(chapter)
	if !ok {
		t.Fatal("expected a chunk")
	}
	if len(text) != 3002 {
		t.Errorf("chunk length = %d, want 3002 (cut at the paragraph break)", len(text))
	}
	if !strings.HasSuffix(text, "a\n\n") {
		t.Error("chunk should end just past the paragraph break")
	}
}

func TestContentToSummarize_SentenceBreak(t *testing.T) {
	m := NewManager()
	chapter := strings.Repeat("a", 3500) + ". " + strings.Repeat("b", 10000)

	text, ok := m.ContentToSummarize(chapter)
	if !ok {
		t.Fatal("expected a chunk")
	}
	if len(text) != 3502 {
		t.Errorf("chunk length = %d, want 3502 (cut at the sentence break)", len(text))
	}
	if !strings.HasSuffix(text, "a. ") {
		t.Error("chunk should end just past the sentence break")
	}
}

func TestContentToSummarize_PeriodBeatsLaterBang(t *testing.T) {
	m := NewManager()
	// Both breaks sit past the midpoint; the period is tried first even
	// though the bang lies closer to the chunk edge.
	chapter := strings.Repeat("a", 3100) + ". " + strings.Repeat("b", 498) + "! " + strings.Repeat("c", 10000)

	text, ok := m.ContentToSummarize(chapter)
	if !ok {
		t.Fatal("expected a chunk")
	}
	if len(text) != 3102 {
		t.Errorf("chunk length = %d, want 3102", len(text))
	}
}

func TestContentToSummarize_EarlyBreakIgnored(t *testing.T) {
	m := NewManager()
	chapter := strings.Repeat("a", 1000) + ". " + strings.Repeat("b", 12000)

	text, ok := m.ContentToSummarize(chapter)
	if !ok {
		t.Fatal("expected a chunk")
	}
	if len(text) != ChunkSize*CharsPerToken {
		t.Errorf("chunk length = %d, want the full chunk (break before midpoint)", len(text))
	}
}

func TestContentToSummarize_Progression(t *testing.T) {
	m := NewManager()
	chapter := strings.Repeat("x", 12004)

	wantLens := []int{4000, 4000, 4000, 4}
	for i, wantLen := range wantLens {
		text, ok := m.ContentToSummarize(chapter)
		if !ok {
			t.Fatalf("pass %d: expected a chunk", i+1)
		}
		if len(text) != wantLen {
			t.Fatalf("pass %d: chunk length = %d, want %d", i+1, len(text), wantLen)
		}
		m.MarkSummarized(text)
	}

	if text, ok := m.ContentToSummarize(chapter); ok {
		t.Errorf("after consuming everything got %q, want none", text)
	}

	m.ResetChapter()
	if text, ok := m.ContentToSummarize(chapter); !ok || len(text) != 4000 {
		t.Errorf("after reset got %d bytes, want a fresh first chunk", len(text))
	}
}

func TestRecentContent_Short(t *testing.T) {
	m := NewManager()
	if got := m.RecentContent("short chapter"); got != "short chapter" {
		t.Errorf("RecentContent = %q, want identity", got)
	}
}

func TestRecentContent_TrimsToParagraph(t *testing.T) {
	m := NewManager()
	chapter := strings.Repeat("X", 5000) + "\n\n" + strings.Repeat("Y", 9000)

	got := m.RecentContent(chapter)
	if want := strings.Repeat("Y", 9000); got != want {
		t.Errorf("RecentContent = %d bytes, want the %d-byte paragraph after the break", len(got), len(want))
	}
}

func TestRecentContent_KeepsLateBreak(t *testing.T) {
	m := NewManager()
	chapter := strings.Repeat("X", 8000) + "\n\n" + strings.Repeat("Y", 6000)

	got := m.RecentContent(chapter)
	if len(got) != ActiveWindow*CharsPerToken {
		t.Errorf("RecentContent length = %d, want the full window", len(got))
	}
	if !strings.HasPrefix(got, "X") {
		t.Error("window should keep its head when the break sits past the first quarter")
	}
}

func TestAssembleGenerationPrompt(t *testing.T) {
	b := bible.NewBible()
	b.World.Genre = "Noir"
	b.World.Tone = "Bleak"
	b.SummaryBuffer = "Earlier, the flood came."

	mara := bible.NewCharacter("Mara")
	mara.Motivation = "Find the door"
	b.AddCharacter(mara)

	m := NewManager()
	req := m.AssembleGenerationPrompt(b, "Recent prose here.", "She opens the door.")

	if !strings.HasPrefix(req.System, "You are a creative writing assistant") {
		t.Errorf("system prompt starts %q", req.System[:40])
	}
	sections := []string{
		"## World Setting\nGenre: Noir\nTone: Bleak",
		"## Characters\n**Mara**",
		"## Story So Far (Summary)\nEarlier, the flood came.",
		"## Guidelines\n- Continue the story naturally from where it left off",
	}
	last := -1
	for _, section := range sections {
		idx := strings.Index(req.System, section)
		if idx < 0 {
			t.Fatalf("system prompt missing %q", section)
		}
		if idx < last {
			t.Fatalf("section %q out of order", section)
		}
		last = idx
	}

	want := "Recent prose here.\n\nContinue the story: She opens the door."
	if req.Prompt != want {
		t.Errorf("prompt = %q, want %q", req.Prompt, want)
	}
}

func TestAssembleGenerationPrompt_Minimal(t *testing.T) {
	m := NewManager()
	req := m.AssembleGenerationPrompt(bible.NewBible(), "", "go")

	if strings.Contains(req.System, "## Story So Far") {
		t.Error("empty summary buffer should not add a summary section")
	}
	if !strings.Contains(req.System, "No characters defined yet.") {
		t.Error("system prompt should carry the empty-characters placeholder")
	}
	if req.Prompt != "Continue the story: go" {
		t.Errorf("prompt = %q, want the bare continuation", req.Prompt)
	}
}

type fakeSummarizer struct {
	calls []string
	err   error
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("summary %d", len(f.calls)), nil
}

func TestMaybeSummarize(t *testing.T) {
	m := NewManager()
	b := bible.NewBible()
	sum := &fakeSummarizer{}
	chapter := strings.Repeat("a", 3000) + "\n\n" + strings.Repeat("b", 11000)

	did, err := m.MaybeSummarize(context.Background(), b, chapter, sum)
	if err != nil || !did {
		t.Fatalf("MaybeSummarize = (%v, %v), want (true, nil)", did, err)
	}
	if b.SummaryBuffer != "summary 1" {
		t.Errorf("buffer = %q", b.SummaryBuffer)
	}
	if len(sum.calls) != 1 || len(sum.calls[0]) != 3002 {
		t.Fatalf("summarizer saw %d calls, first %d bytes", len(sum.calls), len(sum.calls[0]))
	}

	did, err = m.MaybeSummarize(context.Background(), b, chapter, sum)
	if err != nil || !did {
		t.Fatalf("second MaybeSummarize = (%v, %v), want (true, nil)", did, err)
	}
	if b.SummaryBuffer != "summary 1\n\nsummary 2" {
		t.Errorf("buffer = %q, want both summaries separated by a blank line", b.SummaryBuffer)
	}
}

func TestMaybeSummarize_NotNeeded(t *testing.T) {
	m := NewManager()
	b := bible.NewBible()
	sum := &fakeSummarizer{}

	did, err := m.MaybeSummarize(context.Background(), b, "short chapter", sum)
	if err != nil || did {
		t.Fatalf("MaybeSummarize = (%v, %v), want (false, nil)", did, err)
	}
	if len(sum.calls) != 0 {
		t.Error("summarizer should not be called below threshold")
	}
}

func TestMaybeSummarize_Error(t *testing.T) {
	m := NewManager()
	b := bible.NewBible()
	sum := &fakeSummarizer{err: errors.New("model offline")}
	chapter := strings.Repeat("x", 13000)

	did, err := m.MaybeSummarize(context.Background(), b, chapter, sum)
	if did || err == nil {
		t.Fatalf("MaybeSummarize = (%v, %v), want an error", did, err)
	}
	if b.SummaryBuffer != "" {
		t.Error("failed summarization must not touch the buffer")
	}

	// Position must not advance either: the same chunk is retried.
	sum.err = nil
	if _, err := m.MaybeSummarize(context.Background(), b, chapter, sum); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(sum.calls) != 2 || sum.calls[0] != sum.calls[1] {
		t.Error("retry should resubmit the identical chunk")
	}
}
