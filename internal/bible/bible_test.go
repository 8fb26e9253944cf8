package bible

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pkeller/loregate/internal/lore"
	"github.com/pkeller/loregate/internal/types"
)

func TestNewBible_Defaults(t *testing.T) {
	b := NewBible()

	if b.World.Genre != DefaultGenre {
		t.Errorf("Genre = %q, want %q", b.World.Genre, DefaultGenre)
	}
	if b.World.Tone != DefaultTone {
		t.Errorf("Tone = %q, want %q", b.World.Tone, DefaultTone)
	}
	if b.WorldInfo == nil || b.WorldInfo.ScanDepth != types.DefaultScanDepth {
		t.Errorf("WorldInfo scan depth not initialized: %+v", b.WorldInfo)
	}
	if b.AuthorNoteDepth != types.DefaultInsertDepth {
		t.Errorf("AuthorNoteDepth = %d, want %d", b.AuthorNoteDepth, types.DefaultInsertDepth)
	}
	if b.ActiveChapterID != "" {
		t.Errorf("ActiveChapterID = %q, want empty", b.ActiveChapterID)
	}
}

func TestBible_CharacterLookup(t *testing.T) {
	b := NewBible()
	kira := NewCharacter("Kira")
	kira.Archetype = "Reluctant Hero"
	b.AddCharacter(kira)
	b.AddCharacter(NewCharacter("Maro"))

	got, ok := b.CharacterByName("kIRa")
	if !ok {
		t.Fatal("CharacterByName(kIRa) not found, want case-insensitive match")
	}
	if got.ID != kira.ID {
		t.Errorf("CharacterByName returned %q, want %q", got.ID, kira.ID)
	}

	got, ok = b.CharacterByID(kira.ID)
	if !ok || got.Name != "Kira" {
		t.Errorf("CharacterByID(%q) = %v, %v", kira.ID, got, ok)
	}

	if _, ok := b.CharacterByName("Nobody"); ok {
		t.Error("CharacterByName(Nobody) found, want miss")
	}
	if _, ok := b.CharacterByID("ffffffff"); ok {
		t.Error("CharacterByID(ffffffff) found, want miss")
	}
}

func TestBible_CharactersContext(t *testing.T) {
	b := NewBible()
	if got := b.CharactersContext(); got != "No characters defined yet." {
		t.Errorf("empty CharactersContext = %q", got)
	}

	kira := NewCharacter("Kira")
	kira.Archetype = "Scout"
	kira.Motivation = "Find her brother"
	kira.Description = "Quick and quiet"
	b.AddCharacter(kira)
	b.AddCharacter(NewCharacter("Maro"))

	got := b.CharactersContext()
	want := "**Kira** (Scout)\nMotivation: Find her brother\nDescription: Quick and quiet"
	if !strings.HasPrefix(got, want) {
		t.Errorf("CharactersContext = %q, want prefix %q", got, want)
	}
	if !strings.Contains(got, "\n\n**Maro**") {
		t.Errorf("CharactersContext = %q, want blank line between characters", got)
	}
}

func TestWorld_ContextString(t *testing.T) {
	tests := []struct {
		name  string
		world World
		want  string
	}{
		{
			name:  "no rules",
			world: World{Genre: "Noir", Tone: "Bleak"},
			want:  "Genre: Noir\nTone: Bleak\nWorld Rules:\nNone defined",
		},
		{
			name:  "with rules",
			world: World{Genre: "Fantasy", Tone: "Epic", Rules: []string{"No resurrection", "Iron blocks magic"}},
			want:  "Genre: Fantasy\nTone: Epic\nWorld Rules:\n- No resurrection\n- Iron blocks magic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.world.ContextString(); got != tt.want {
				t.Errorf("ContextString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBible_CreateChapter(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"The Beginning", "chapter_01_the_beginning.md"},
		{"Fire & Ice!", "chapter_02_fire___ice_.md"},
		{"  Padded  ", "chapter_03_padded.md"},
		{"under_score-ok", "chapter_04_under_score-ok.md"},
	}

	b := NewBible()
	for _, tt := range tests {
		id := b.CreateChapter(tt.title)
		if b.ActiveChapterID != id {
			t.Errorf("CreateChapter(%q): active = %q, want %q", tt.title, b.ActiveChapterID, id)
		}
		if got := b.ChapterMap[id]; got != tt.want {
			t.Errorf("CreateChapter(%q) filename = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestBible_ActiveChapterPath(t *testing.T) {
	b := NewBible()

	if _, err := b.ActiveChapterPath("content"); !errors.Is(err, types.ErrNoActiveChapter) {
		t.Errorf("ActiveChapterPath() error = %v, want ErrNoActiveChapter", err)
	}

	b.CreateChapter("One")
	path, err := b.ActiveChapterPath("content")
	if err != nil {
		t.Fatalf("ActiveChapterPath() error = %v, want nil", err)
	}
	if want := filepath.Join("content", "chapter_01_one.md"); path != want {
		t.Errorf("ActiveChapterPath() = %q, want %q", path, want)
	}

	// Active ID pointing outside the map behaves like no selection.
	b.ActiveChapterID = "deadbeef"
	if _, err := b.ActiveChapterPath("content"); !errors.Is(err, types.ErrNoActiveChapter) {
		t.Errorf("dangling active id error = %v, want ErrNoActiveChapter", err)
	}
}

func TestBible_LorePassthroughs(t *testing.T) {
	var b Bible // zero value: lore book created lazily

	id, err := b.AddLore(lore.NewEntry("dragon"))
	if err != nil {
		t.Fatalf("AddLore() error = %v, want nil", err)
	}
	if _, ok := b.Lore(id); !ok {
		t.Fatalf("Lore(%q) not found after add", id)
	}

	e := lore.NewEntry("castle")
	e.Group = "places"
	if _, err := b.AddLore(e); err != nil {
		t.Fatalf("AddLore() error = %v, want nil", err)
	}

	groups := b.LoreGroups()
	if groups["places"] != 1 || groups[lore.UngroupedLabel] != 1 {
		t.Errorf("LoreGroups() = %v", groups)
	}

	if !b.DeleteLore(id) {
		t.Error("DeleteLore() = false, want true")
	}
	if b.DeleteLore(id) {
		t.Error("second DeleteLore() = true, want false")
	}
}

func TestBible_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "story_bible.json")

	b := NewBible()
	b.World.Genre = "Space Opera"
	b.World.Rules = []string{"FTL burns fuel"}
	b.SummaryBuffer = "Previously: the fleet scattered."
	b.AuthorNote = "Keep tension {{scene.tone}}"
	b.AuthorNoteDepth = 2
	kira := NewCharacter("Kira")
	kira.Motivation = "Survive"
	b.AddCharacter(kira)
	b.CreateChapter("First Contact")
	entry := lore.NewEntry("fleet", "armada")
	entry.Content = "The Third Fleet vanished at Kepler Gate."
	if _, err := b.AddLore(entry); err != nil {
		t.Fatalf("AddLore() error = %v, want nil", err)
	}

	if err := b.Save(path); err != nil {
		t.Fatalf("Save() error = %v, want nil", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if !reflect.DeepEqual(b, loaded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, b)
	}
}

func TestBible_Save_NoTempLeftover(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "story_bible.json")

	b := NewBible()
	if err := b.Save(path); err != nil {
		t.Fatalf("Save() error = %v, want nil", err)
	}
	// Overwrite an existing file too.
	b.SummaryBuffer = "updated"
	if err := b.Save(path); err != nil {
		t.Fatalf("second Save() error = %v, want nil", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v, want nil", err)
	}
	if len(entries) != 1 || entries[0].Name() != "story_bible.json" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("directory contents = %v, want only story_bible.json", names)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	b, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if b.World.Genre != DefaultGenre || len(b.Characters) != 0 {
		t.Errorf("missing file should yield a fresh bible, got %+v", b)
	}
}

func TestLoad_FillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "story_bible.json")
	if err := os.WriteFile(path, []byte(`{"characters": []}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v, want nil", err)
	}

	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if b.World.Genre != DefaultGenre || b.World.Tone != DefaultTone {
		t.Errorf("World = %+v, want defaults", b.World)
	}
	if b.WorldInfo == nil || b.WorldInfo.ScanDepth != types.DefaultScanDepth {
		t.Errorf("WorldInfo = %+v, want default book", b.WorldInfo)
	}
	if b.AuthorNoteDepth != types.DefaultInsertDepth {
		t.Errorf("AuthorNoteDepth = %d, want %d", b.AuthorNoteDepth, types.DefaultInsertDepth)
	}
	if b.ChapterMap == nil {
		t.Error("ChapterMap = nil, want empty map")
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{"characters": [`},
		{"wrong shape", `{"characters": "not a list"}`},
		{"invalid scan depth", `{"world_info": {"entries": [], "scan_depth": 9}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "story_bible.json")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v, want nil", err)
			}
			if _, err := Load(path); !errors.Is(err, types.ErrInvalidBible) {
				t.Errorf("Load() error = %v, want ErrInvalidBible", err)
			}
		})
	}
}

func TestBible_WordCount(t *testing.T) {
	dir := t.TempDir()
	b := NewBible()

	one := b.CreateChapter("One")
	if err := os.WriteFile(filepath.Join(dir, b.ChapterMap[one]), []byte("four words right here\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v, want nil", err)
	}
	two := b.CreateChapter("Two")
	if err := os.WriteFile(filepath.Join(dir, b.ChapterMap[two]), []byte("and  three   more"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v, want nil", err)
	}
	b.CreateChapter("Never Written")

	if got := b.WordCount(dir); got != 7 {
		t.Errorf("WordCount() = %d, want 7", got)
	}
}
