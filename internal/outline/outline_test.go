package outline

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pkeller/loregate/internal/types"
)

func TestNewScene_Defaults(t *testing.T) {
	s := NewScene("Opening", "Introduce the city")

	if s.ID == "" || len(s.ID) != 8 {
		t.Errorf("ID = %q, want 8-character id", s.ID)
	}
	if s.Tone != DefaultSceneTone {
		t.Errorf("Tone = %q, want %q", s.Tone, DefaultSceneTone)
	}
	if s.Pacing != DefaultScenePacing {
		t.Errorf("Pacing = %q, want %q", s.Pacing, DefaultScenePacing)
	}
	if s.Status != StatusPlanned {
		t.Errorf("Status = %q, want %q", s.Status, StatusPlanned)
	}
}

func TestScene_UnmarshalDefaults(t *testing.T) {
	var s Scene
	if err := json.Unmarshal([]byte(`{"title": "X", "goal": "Y"}`), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}
	if s.ID == "" {
		t.Error("ID empty, want generated id")
	}
	if s.Tone != DefaultSceneTone || s.Pacing != DefaultScenePacing || s.Status != StatusPlanned {
		t.Errorf("defaults not applied: %+v", s)
	}
}

func TestScene_Directive(t *testing.T) {
	s := NewScene("The Bridge", "Cross the river under fire")
	s.Tone = "Tense"
	s.Pacing = "Fast"

	want := "## Scene: The Bridge\n" +
		"**Goal**: Cross the river under fire\n" +
		"**Tone**: Tense | **Pacing**: Fast"
	if got := s.Directive(); got != want {
		t.Errorf("Directive() = %q, want %q", got, want)
	}

	s.Location = "Old Stone Bridge"
	s.CharactersPresent = []types.CharacterID{"aaaa1111", "bbbb2222"}
	s.Notes = "Keep dialogue sparse"

	got := s.Directive()
	for _, frag := range []string{
		"**Location**: Old Stone Bridge",
		"**Characters**: aaaa1111, bbbb2222",
		"\n\n*Author's Notes*: Keep dialogue sparse",
	} {
		if !strings.Contains(got, frag) {
			t.Errorf("Directive() = %q, missing %q", got, frag)
		}
	}
}

func TestScene_SummaryLine(t *testing.T) {
	s := NewScene("Short", "A brief goal")
	if got, want := s.SummaryLine(), "○ Short: A brief goal"; got != want {
		t.Errorf("SummaryLine() = %q, want %q", got, want)
	}

	s.Status = StatusFinal
	s.Goal = strings.Repeat("g", 51)
	want := "✓ Short: " + strings.Repeat("g", 50) + "..."
	if got := s.SummaryLine(); got != want {
		t.Errorf("truncated SummaryLine() = %q, want %q", got, want)
	}

	// Exactly 50 characters keeps the full goal.
	s.Goal = strings.Repeat("g", 50)
	if got := s.SummaryLine(); strings.HasSuffix(got, "...") {
		t.Errorf("SummaryLine() = %q, want no ellipsis at 50 chars", got)
	}
}

func TestSceneStatus_Icon(t *testing.T) {
	tests := []struct {
		status SceneStatus
		want   string
	}{
		{StatusPlanned, "○"},
		{StatusDrafting, "◐"},
		{StatusDrafted, "●"},
		{StatusRevised, "◉"},
		{StatusFinal, "✓"},
		{SceneStatus("bogus"), "?"},
	}
	for _, tt := range tests {
		if got := tt.status.Icon(); got != tt.want {
			t.Errorf("Icon(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func newTestOutline(titles ...string) *Outline {
	o := NewOutline()
	for _, title := range titles {
		o.AddScene(NewScene(title, "goal for "+title))
	}
	return o
}

func TestOutline_Navigation(t *testing.T) {
	o := newTestOutline("one", "two", "three")

	cur, ok := o.Current()
	if !ok || cur.Title != "one" {
		t.Fatalf("Current() = %v, %v, want first scene", cur, ok)
	}

	if next, ok := o.Next(); !ok || next.Title != "two" {
		t.Errorf("Next() = %v, %v, want second scene", next, ok)
	}
	if next, ok := o.Next(); !ok || next.Title != "three" {
		t.Errorf("Next() = %v, %v, want third scene", next, ok)
	}
	if _, ok := o.Next(); ok {
		t.Error("Next() past end = true, want false")
	}
	if o.CurrentSceneIndex != 2 {
		t.Errorf("index after failed Next = %d, want 2", o.CurrentSceneIndex)
	}

	if prev, ok := o.Prev(); !ok || prev.Title != "two" {
		t.Errorf("Prev() = %v, %v, want second scene", prev, ok)
	}
	o.Prev()
	if _, ok := o.Prev(); ok {
		t.Error("Prev() before start = true, want false")
	}
	if o.CurrentSceneIndex != 0 {
		t.Errorf("index after failed Prev = %d, want 0", o.CurrentSceneIndex)
	}
}

func TestOutline_Jump(t *testing.T) {
	o := newTestOutline("one", "two", "three")
	target := o.Scenes[2].ID

	s, ok := o.JumpTo(target)
	if !ok || s.Title != "three" || o.CurrentSceneIndex != 2 {
		t.Errorf("JumpTo(%q) = %v, %v, index %d", target, s, ok, o.CurrentSceneIndex)
	}
	if _, ok := o.JumpTo("ffffffff"); ok {
		t.Error("JumpTo(missing) = true, want false")
	}

	s, ok = o.JumpToIndex(1)
	if !ok || s.Title != "two" {
		t.Errorf("JumpToIndex(1) = %v, %v", s, ok)
	}
	if _, ok := o.JumpToIndex(5); ok {
		t.Error("JumpToIndex(5) = true, want false")
	}
	if _, ok := o.JumpToIndex(-1); ok {
		t.Error("JumpToIndex(-1) = true, want false")
	}
}

func TestOutline_DeleteScene(t *testing.T) {
	o := newTestOutline("one", "two", "three")
	o.JumpToIndex(2)

	if !o.DeleteScene(o.Scenes[2].ID) {
		t.Fatal("DeleteScene(last) = false, want true")
	}
	if o.CurrentSceneIndex != 1 {
		t.Errorf("index after deleting tail = %d, want clamped to 1", o.CurrentSceneIndex)
	}

	if !o.DeleteScene(o.Scenes[0].ID) {
		t.Fatal("DeleteScene(first) = false, want true")
	}
	if got := o.Scenes[0].Title; got != "two" {
		t.Errorf("remaining scene = %q, want %q", got, "two")
	}

	if o.DeleteScene("ffffffff") {
		t.Error("DeleteScene(missing) = true, want false")
	}
}

func TestOutline_Reorder(t *testing.T) {
	o := newTestOutline("one", "two", "three")

	if !o.Reorder(o.Scenes[0].ID, 2) {
		t.Fatal("Reorder() = false, want true")
	}
	got := []string{o.Scenes[0].Title, o.Scenes[1].Title, o.Scenes[2].Title}
	if want := []string{"two", "three", "one"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order after move = %v, want %v", got, want)
	}

	// Out-of-range targets clamp into the list.
	if !o.Reorder(o.Scenes[2].ID, 99) {
		t.Fatal("Reorder(clamp high) = false, want true")
	}
	if o.Scenes[2].Title != "one" {
		t.Errorf("clamped reorder moved scene: %v", o.Scenes)
	}
	if !o.Reorder(o.Scenes[2].ID, -5) {
		t.Fatal("Reorder(clamp low) = false, want true")
	}
	if o.Scenes[0].Title != "one" {
		t.Errorf("scene not clamped to front: %v", o.Scenes)
	}

	if o.Reorder("ffffffff", 0) {
		t.Error("Reorder(missing) = true, want false")
	}
}

func TestOutline_Progress(t *testing.T) {
	o := NewOutline()
	p := o.Progress()
	if p.TotalScenes != 0 || p.CurrentScene != 1 || p.PercentComplete != 0 {
		t.Errorf("empty Progress() = %+v", p)
	}

	statuses := []SceneStatus{StatusPlanned, StatusDrafting, StatusDrafted, StatusFinal}
	for i, st := range statuses {
		s := NewScene("scene", "goal")
		s.Status = st
		s.WordCount = (i + 1) * 100
		o.AddScene(s)
	}
	o.JumpToIndex(1)

	p = o.Progress()
	if p.TotalScenes != 4 {
		t.Errorf("TotalScenes = %d, want 4", p.TotalScenes)
	}
	if p.CurrentScene != 2 {
		t.Errorf("CurrentScene = %d, want 2", p.CurrentScene)
	}
	if p.TotalWords != 1000 {
		t.Errorf("TotalWords = %d, want 1000", p.TotalWords)
	}
	if p.PercentComplete != 50 {
		t.Errorf("PercentComplete = %v, want 50", p.PercentComplete)
	}
	wantCounts := map[SceneStatus]int{
		StatusPlanned:  1,
		StatusDrafting: 1,
		StatusDrafted:  1,
		StatusRevised:  0,
		StatusFinal:    1,
	}
	if !reflect.DeepEqual(p.StatusCounts, wantCounts) {
		t.Errorf("StatusCounts = %v, want %v", p.StatusCounts, wantCounts)
	}
}

func TestOutline_Validate(t *testing.T) {
	o := newTestOutline("one")
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}

	o.CurrentSceneIndex = -1
	if err := o.Validate(); !errors.Is(err, types.ErrInvalidOutline) {
		t.Errorf("negative index error = %v, want ErrInvalidOutline", err)
	}

	o.CurrentSceneIndex = 0
	o.Scenes[0].WordCount = -1
	if err := o.Validate(); !errors.Is(err, types.ErrInvalidOutline) {
		t.Errorf("negative word count error = %v, want ErrInvalidOutline", err)
	}

	o.Scenes[0].WordCount = 0
	o.Scenes[0].Status = "typo"
	if err := o.Validate(); !errors.Is(err, types.ErrInvalidOutline) {
		t.Errorf("unknown status error = %v, want ErrInvalidOutline", err)
	}
}

func TestOutline_JSONRoundTrip(t *testing.T) {
	o := newTestOutline("one", "two")
	o.Scenes[0].Location = "Harbor"
	o.Scenes[0].CharactersPresent = []types.CharacterID{"aaaa1111"}
	o.Scenes[1].Status = StatusRevised
	o.Scenes[1].WordCount = 1200
	o.Scenes[1].Summary = "They met at the harbor."
	o.CurrentSceneIndex = 1

	data, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("Marshal() error = %v, want nil", err)
	}

	got := new(Outline)
	if err := json.Unmarshal(data, got); err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}
	if !reflect.DeepEqual(o, got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, o)
	}
}
