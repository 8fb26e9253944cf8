// Package bible maintains the story bible: characters, world facts, the
// lore book, and chapter bookkeeping for one project.
//
// A bible persists as a single JSON document. Saves are atomic (temp file
// in the target directory plus rename) so an interrupted write never
// corrupts the project file.
package bible

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pkeller/loregate/internal/lore"
	"github.com/pkeller/loregate/internal/types"
)

// Defaults for a fresh world. Overridden the first time the author
// describes their setting.
const (
	DefaultGenre = "Fantasy"
	DefaultTone  = "Serious"
)

// Character is a named participant in the story.
type Character struct {
	ID          types.CharacterID `json:"id"`
	Name        string            `json:"name"`
	Archetype   string            `json:"archetype"`
	Motivation  string            `json:"motivation"`
	Description string            `json:"description"`
}

// NewCharacter creates a character with a fresh ID.
func NewCharacter(name string) *Character {
	return &Character{
		ID:   types.NewCharacterID(),
		Name: name,
	}
}

// ContextString formats the character as a prompt context block.
func (c *Character) ContextString() string {
	return fmt.Sprintf("**%s** (%s)\nMotivation: %s\nDescription: %s",
		c.Name, c.Archetype, c.Motivation, c.Description)
}

// World holds setting-level facts that apply to every scene.
type World struct {
	Genre string   `json:"genre"`
	Tone  string   `json:"tone"`
	Rules []string `json:"rules"`
}

func defaultWorld() World {
	return World{Genre: DefaultGenre, Tone: DefaultTone}
}

// ContextString formats the world as a prompt context block.
func (w *World) ContextString() string {
	rules := "None defined"
	if len(w.Rules) > 0 {
		lines := make([]string, len(w.Rules))
		for i, r := range w.Rules {
			lines[i] = "- " + r
		}
		rules = strings.Join(lines, "\n")
	}
	return fmt.Sprintf("Genre: %s\nTone: %s\nWorld Rules:\n%s", w.Genre, w.Tone, rules)
}

// Bible is the root aggregate for all story metadata.
//
// ActiveChapterID empty means no chapter is selected. AuthorNote is a
// template with {{variables}} resolved at prompt assembly time;
// AuthorNoteDepth positions it that many paragraphs from the end of the
// assembled prompt.
type Bible struct {
	Characters      []*Character               `json:"characters"`
	World           World                      `json:"world"`
	WorldInfo       *lore.Book                 `json:"world_info"`
	SummaryBuffer   string                     `json:"summary_buffer"`
	ChapterMap      map[types.ChapterID]string `json:"chapter_map"`
	ActiveChapterID types.ChapterID            `json:"active_chapter_id"`
	AuthorNote      string                     `json:"author_note"`
	AuthorNoteDepth int                        `json:"author_note_depth"`
}

// NewBible creates an empty bible with default world settings.
func NewBible() *Bible {
	return &Bible{
		World:           defaultWorld(),
		WorldInfo:       lore.NewBook(),
		ChapterMap:      make(map[types.ChapterID]string),
		AuthorNoteDepth: types.DefaultInsertDepth,
	}
}

// UnmarshalJSON decodes a bible, filling defaults for absent fields so
// files written by older versions keep loading.
func (b *Bible) UnmarshalJSON(data []byte) error {
	type plain Bible
	tmp := plain(*NewBible())
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if tmp.WorldInfo == nil {
		tmp.WorldInfo = lore.NewBook()
	}
	if tmp.ChapterMap == nil {
		tmp.ChapterMap = make(map[types.ChapterID]string)
	}
	*b = Bible(tmp)
	return nil
}

// AddCharacter appends a character to the story.
func (b *Bible) AddCharacter(c *Character) {
	b.Characters = append(b.Characters, c)
}

// CharacterByName finds a character by name, case-insensitively.
func (b *Bible) CharacterByName(name string) (*Character, bool) {
	for _, c := range b.Characters {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// CharacterByID finds a character by its unique ID.
func (b *Bible) CharacterByID(id types.CharacterID) (*Character, bool) {
	for _, c := range b.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// CharactersContext formats every character for prompt context.
func (b *Bible) CharactersContext() string {
	if len(b.Characters) == 0 {
		return "No characters defined yet."
	}
	blocks := make([]string, len(b.Characters))
	for i, c := range b.Characters {
		blocks[i] = c.ContextString()
	}
	return strings.Join(blocks, "\n\n")
}

// CreateChapter registers a new chapter, derives its filename from the
// title, and makes it the active chapter. Returns the chapter ID.
func (b *Bible) CreateChapter(title string) types.ChapterID {
	if b.ChapterMap == nil {
		b.ChapterMap = make(map[types.ChapterID]string)
	}
	id := types.NewChapterID()
	filename := fmt.Sprintf("chapter_%02d_%s.md", len(b.ChapterMap)+1, sanitizeTitle(title))
	b.ChapterMap[id] = filename
	b.ActiveChapterID = id
	return id
}

// sanitizeTitle converts a chapter title to a filesystem-safe slug.
// Letters, digits, spaces, hyphens and underscores survive; everything
// else becomes an underscore. Spaces collapse to underscores last so
// leading and trailing whitespace can be trimmed first.
func sanitizeTitle(title string) string {
	var sb strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	safe := strings.TrimSpace(sb.String())
	safe = strings.ReplaceAll(safe, " ", "_")
	return strings.ToLower(safe)
}

// ActiveChapterPath resolves the active chapter's file path under
// contentDir. Returns types.ErrNoActiveChapter when no chapter is
// selected or the chapter map has no filename for it.
func (b *Bible) ActiveChapterPath(contentDir string) (string, error) {
	if b.ActiveChapterID == "" {
		return "", types.ErrNoActiveChapter
	}
	filename, ok := b.ChapterMap[b.ActiveChapterID]
	if !ok {
		return "", types.ErrNoActiveChapter
	}
	return filepath.Join(contentDir, filename), nil
}

// AddLore adds an entry to the bible's lore book, creating the book on
// first use.
func (b *Bible) AddLore(e *lore.Entry) (types.EntryID, error) {
	if b.WorldInfo == nil {
		b.WorldInfo = lore.NewBook()
	}
	return b.WorldInfo.Add(e)
}

// Lore looks up a lore entry by ID.
func (b *Bible) Lore(id types.EntryID) (*lore.Entry, bool) {
	if b.WorldInfo == nil {
		return nil, false
	}
	return b.WorldInfo.Entry(id)
}

// DeleteLore removes a lore entry by ID, reporting whether it existed.
func (b *Bible) DeleteLore(id types.EntryID) bool {
	if b.WorldInfo == nil {
		return false
	}
	return b.WorldInfo.Delete(id)
}

// LoreGroups returns lore group names and their entry counts.
func (b *Bible) LoreGroups() map[string]int {
	if b.WorldInfo == nil {
		return map[string]int{}
	}
	return b.WorldInfo.Groups()
}

// Save atomically writes the bible to path as indented JSON.
// The temp file lives in the destination directory so the final rename
// stays on one filesystem.
func (b *Bible) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bible: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "story_bible_*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write bible: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename bible: %w", err)
	}
	return nil
}

// Load reads a bible from path. A missing file yields a fresh bible, not
// an error, so new projects need no explicit init step. Corrupt or
// invalid files fail with types.ErrInvalidBible.
func Load(path string) (*Bible, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewBible(), nil
		}
		return nil, fmt.Errorf("read bible: %w", err)
	}

	b := new(Bible)
	if err := json.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidBible, err)
	}
	if err := b.WorldInfo.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidBible, err)
	}
	return b, nil
}

// WordCount sums whitespace-delimited words across all chapter files
// under contentDir. Missing chapter files count as zero.
func (b *Bible) WordCount(contentDir string) int {
	total := 0
	for _, filename := range b.ChapterMap {
		content, err := os.ReadFile(filepath.Join(contentDir, filename))
		if err != nil {
			continue
		}
		total += len(strings.Fields(string(content)))
	}
	return total
}
