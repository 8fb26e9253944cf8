package prompt

import (
	"strings"

	"github.com/pkeller/loregate/internal/lore"
)

// AssembleInput carries the pieces of one generation context.
type AssembleInput struct {
	WorldContext string
	CharContext  string
	// Recent is the windowed recent-prose block that depth-positioned
	// payloads and the author note are spliced into.
	Recent string
	// Entries are the activated lore entries in scan order.
	Entries []*lore.Entry
	// AuthorNote is the already-rendered author note; empty disables it.
	AuthorNote string
	// AuthorNoteDepth positions the note this many paragraphs from the
	// end of Recent.
	AuthorNoteDepth int
}

// Assemble builds the final context block. Lore payloads splice in at
// their entry's position: around the world and character sections,
// before the recent prose, or at a paragraph depth from the end of it.
// Empty sections drop out; the remaining blocks join on blank lines.
func Assemble(in AssembleInput) string {
	groups := make(map[lore.Position][]*lore.Entry)
	for _, e := range in.Entries {
		groups[e.Position] = append(groups[e.Position], e)
	}

	var blocks []string
	add := func(s string) {
		if strings.TrimSpace(s) != "" {
			blocks = append(blocks, strings.TrimSpace(s))
		}
	}

	add(lore.FormatEntries(groups[lore.PositionBeforeWorld]))
	add(in.WorldContext)
	add(lore.FormatEntries(groups[lore.PositionAfterWorld]))
	add(in.CharContext)
	add(lore.FormatEntries(groups[lore.PositionAfterChars]))
	add(lore.FormatEntries(groups[lore.PositionBeforeRecent]))
	add(spliceAtDepth(in.Recent, groups[lore.PositionDepth], in.AuthorNote, in.AuthorNoteDepth))

	return strings.Join(blocks, "\n\n")
}

// spliceAtDepth inserts depth-positioned payloads and the author note
// into the recent prose, each counted in paragraphs from the end.
// Depth zero lands after the final paragraph, right before the
// generation point; depths past the start clamp to the front.
func spliceAtDepth(recent string, entries []*lore.Entry, note string, noteDepth int) string {
	var paras []string
	for _, p := range strings.Split(recent, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paras = append(paras, strings.TrimSpace(p))
		}
	}

	type insertion struct {
		depth int
		text  string
	}
	var inserts []insertion
	for _, e := range entries {
		if text := strings.TrimSpace(e.Content); text != "" {
			inserts = append(inserts, insertion{depth: e.Depth, text: text})
		}
	}
	if text := strings.TrimSpace(note); text != "" {
		inserts = append(inserts, insertion{depth: noteDepth, text: text})
	}
	if len(inserts) == 0 {
		return strings.Join(paras, "\n\n")
	}

	n := len(paras)
	byIndex := make(map[int][]string)
	for _, ins := range inserts {
		idx := n - ins.depth
		if idx < 0 {
			idx = 0
		}
		if idx > n {
			idx = n
		}
		byIndex[idx] = append(byIndex[idx], ins.text)
	}

	out := make([]string, 0, n+len(inserts))
	for i := 0; i <= n; i++ {
		out = append(out, byIndex[i]...)
		if i < n {
			out = append(out, paras[i])
		}
	}
	return strings.Join(out, "\n\n")
}
