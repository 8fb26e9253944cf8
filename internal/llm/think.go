// Package llm is the boundary to the text-generation model: an
// OpenAI-compatible chat client plus post-processing for the reasoning
// spans local models emit.
package llm

import (
	"regexp"
	"strings"
)

// Reasoning models wrap their chain of thought in <think> tags. The
// spans are shown dimmed during streaming and never saved to prose.
var (
	openTagRE   = regexp.MustCompile(`(?i)<think>`)
	closeTagRE  = regexp.MustCompile(`(?i)</think>`)
	thinkSpanRE = regexp.MustCompile(`(?is)<think>.*?</think>`)
)

// StripThink removes complete <think> spans from a finished response.
func StripThink(s string) string {
	return thinkSpanRE.ReplaceAllString(s, "")
}

// ThinkParser separates <think> reasoning from visible prose in a
// streamed response. Tags may arrive split across chunk boundaries, so
// the parser holds back a tag-length tail until the next chunk settles
// whether it was a partial tag.
type ThinkParser struct {
	buffer  string
	inThink bool
}

// NewThinkParser returns a parser ready for a fresh stream.
func NewThinkParser() *ThinkParser {
	return &ThinkParser{}
}

// Reset clears parser state for a new stream.
func (p *ThinkParser) Reset() {
	p.buffer = ""
	p.inThink = false
}

// Feed processes one streamed chunk and returns the text that can be
// released so far: visible prose and reasoning content, separately.
// Either may be empty while the parser waits out a possible partial tag.
func (p *ThinkParser) Feed(chunk string) (visible, thinking string) {
	p.buffer += chunk
	var vis, think strings.Builder

	for {
		if p.inThink {
			if loc := closeTagRE.FindStringIndex(p.buffer); loc != nil {
				think.WriteString(p.buffer[:loc[0]])
				p.buffer = p.buffer[loc[1]:]
				p.inThink = false
				continue
			}
			// Hold back a possible partial "</think".
			if safe := len(p.buffer) - len("</think>"); safe > 0 {
				think.WriteString(p.buffer[:safe])
				p.buffer = p.buffer[safe:]
			}
			break
		}

		if loc := openTagRE.FindStringIndex(p.buffer); loc != nil {
			vis.WriteString(p.buffer[:loc[0]])
			p.buffer = p.buffer[loc[1]:]
			p.inThink = true
			continue
		}
		// Hold back a possible partial "<think".
		if safe := len(p.buffer) - len("<think>"); safe > 0 {
			vis.WriteString(p.buffer[:safe])
			p.buffer = p.buffer[safe:]
		}
		break
	}

	return vis.String(), think.String()
}

// Flush drains whatever the parser is still holding at end of stream.
// Content inside an unclosed <think> tag counts as reasoning.
func (p *ThinkParser) Flush() (visible, thinking string) {
	remaining := p.buffer
	p.buffer = ""
	if p.inThink {
		p.inThink = false
		return "", remaining
	}
	return remaining, ""
}
