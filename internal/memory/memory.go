// Package memory manages the context window for long chapters: a rolling
// summary compresses the oldest prose while the recent window rides along
// in full, sized for the ~8k-token contexts of local models.
package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkeller/loregate/internal/bible"
)

// Token budget for an ~8k context window. Counts are heuristic: roughly
// four bytes of English prose per token.
const (
	ContextLimit       = 8000 // total tokens available
	SystemReserve      = 1500 // system prompt, characters, world
	ActiveWindow       = 3000 // recent prose kept verbatim
	SummarizeThreshold = 3000 // chapter size that triggers compression
	ChunkSize          = 1000 // tokens summarized per pass
	CharsPerToken      = 4
)

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	return len(text) / CharsPerToken
}

func tokensToChars(tokens int) int {
	return tokens * CharsPerToken
}

// Summarizer produces a concise summary of a prose segment.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Manager tracks how far into the active chapter the rolling summary has
// consumed. One Manager per chapter; not safe for concurrent use.
type Manager struct {
	lastSummarizedPos int
}

func NewManager() *Manager {
	return &Manager{}
}

// NeedsSummarization reports whether the chapter has outgrown the
// threshold and the oldest prose should be compressed.
func (m *Manager) NeedsSummarization(chapter string) bool {
	return EstimateTokens(chapter) > SummarizeThreshold
}

// ContentToSummarize returns the oldest unsummarized chunk, roughly
// ChunkSize tokens, preferring to end at a paragraph break and falling
// back to a sentence break when one lands past the chunk's midpoint.
// Reports false when the chapter is below threshold or fully consumed.
func (m *Manager) ContentToSummarize(chapter string) (string, bool) {
	if !m.NeedsSummarization(chapter) {
		return "", false
	}
	if m.lastSummarizedPos >= len(chapter) {
		return "", false
	}

	end := min(m.lastSummarizedPos+tokensToChars(ChunkSize), len(chapter))
	chunk := chapter[m.lastSummarizedPos:end]

	if brk := strings.LastIndex(chunk, "\n\n"); brk > len(chunk)/2 {
		end = m.lastSummarizedPos + brk + 2
	} else {
		for _, punct := range []string{". ", "! ", "? "} {
			if brk := strings.LastIndex(chunk, punct); brk > len(chunk)/2 {
				end = m.lastSummarizedPos + brk + 2
				break
			}
		}
	}

	return chapter[m.lastSummarizedPos:end], true
}

// MarkSummarized advances the consumed position past a successfully
// summarized chunk.
func (m *Manager) MarkSummarized(text string) {
	m.lastSummarizedPos += len(text)
}

// ResetChapter rewinds tracking for a fresh chapter.
func (m *Manager) ResetChapter() {
	m.lastSummarizedPos = 0
}

// RecentContent returns the newest ActiveWindow tokens worth of prose,
// trimmed forward to the first paragraph break when one sits in the
// leading quarter of the window.
func (m *Manager) RecentContent(chapter string) string {
	maxChars := tokensToChars(ActiveWindow)
	if len(chapter) <= maxChars {
		return chapter
	}

	recent := chapter[len(chapter)-maxChars:]
	if brk := strings.Index(recent, "\n\n"); brk > 0 && brk < len(recent)/4 {
		recent = recent[brk+2:]
	}
	return recent
}

// GenerationRequest is a flattened prompt for a single-turn generation
// call: the system prompt plus the user-side prompt text.
type GenerationRequest struct {
	System string
	Prompt string
}

// AssembleGenerationPrompt builds the request for continuing the story:
// world and character context plus any rolled-up summary on the system
// side, recent prose and the user's direction on the prompt side.
func (m *Manager) AssembleGenerationPrompt(b *bible.Bible, chapter, userInput string) GenerationRequest {
	parts := []string{
		"You are a creative writing assistant helping to write a story.",
		"Continue the narrative naturally, maintaining consistency with:",
		"",
		"## World Setting",
		b.World.ContextString(),
		"",
		"## Characters",
		b.CharactersContext(),
	}
	if b.SummaryBuffer != "" {
		parts = append(parts, "", "## Story So Far (Summary)", b.SummaryBuffer)
	}
	parts = append(parts,
		"",
		"## Guidelines",
		"- Continue the story naturally from where it left off",
		"- Maintain consistent character voices and world rules",
		"- Show don't tell - use vivid descriptions and dialogue",
		"- Match the established tone and style",
	)

	prompt := "Continue the story: " + userInput
	if recent := m.RecentContent(chapter); strings.TrimSpace(recent) != "" {
		prompt = recent + "\n\n" + prompt
	}

	return GenerationRequest{
		System: strings.Join(parts, "\n"),
		Prompt: prompt,
	}
}

// MaybeSummarize compresses the oldest unsummarized chunk into the
// bible's summary buffer when the chapter has outgrown the threshold.
// Reports whether a summary was appended.
func (m *Manager) MaybeSummarize(ctx context.Context, b *bible.Bible, chapter string, s Summarizer) (bool, error) {
	text, ok := m.ContentToSummarize(chapter)
	if !ok {
		return false, nil
	}

	summary, err := s.Summarize(ctx, text)
	if err != nil {
		return false, fmt.Errorf("summarize chapter chunk: %w", err)
	}

	if b.SummaryBuffer != "" {
		b.SummaryBuffer += "\n\n" + summary
	} else {
		b.SummaryBuffer = summary
	}
	m.MarkSummarized(text)
	return true, nil
}
