// Package outline models the plot, outline, write workflow. The plot is
// the fixed statement of what the story is about, the outline breaks it
// into an ordered list of scenes, and each scene links to a prose draft
// on disk managed by Project.
package outline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkeller/loregate/internal/types"
)

// SceneStatus tracks a scene through the writing workflow.
type SceneStatus string

const (
	StatusPlanned  SceneStatus = "planned"
	StatusDrafting SceneStatus = "drafting"
	StatusDrafted  SceneStatus = "drafted"
	StatusRevised  SceneStatus = "revised"
	StatusFinal    SceneStatus = "final"
)

// Icon returns the single-glyph status marker used in outline listings.
func (s SceneStatus) Icon() string {
	switch s {
	case StatusPlanned:
		return "○"
	case StatusDrafting:
		return "◐"
	case StatusDrafted:
		return "●"
	case StatusRevised:
		return "◉"
	case StatusFinal:
		return "✓"
	}
	return "?"
}

func (s SceneStatus) valid() bool {
	switch s {
	case StatusPlanned, StatusDrafting, StatusDrafted, StatusRevised, StatusFinal:
		return true
	}
	return false
}

// done reports whether the scene counts toward completion.
func (s SceneStatus) done() bool {
	return s == StatusDrafted || s == StatusRevised || s == StatusFinal
}

// Defaults for a fresh scene's steering metadata.
const (
	DefaultSceneTone   = "Neutral"
	DefaultScenePacing = "Medium"
)

// Scene is the atomic unit of the workflow: a goal that must happen,
// plus tone and pacing metadata that steers generation toward it.
type Scene struct {
	ID    types.SceneID `json:"id"`
	Title string        `json:"title"`
	// Goal is what must happen in this scene (plot advancement).
	Goal   string `json:"goal"`
	Tone   string `json:"tone"`
	Pacing string `json:"pacing"`
	// CharactersPresent lists character IDs appearing in the scene.
	CharactersPresent []types.CharacterID `json:"characters_present"`
	Location          string              `json:"location"`
	// Notes are private author notes, surfaced in the directive.
	Notes string `json:"notes"`
	// Summary is filled after the scene is written, by hand or by the
	// generation client.
	Summary   string      `json:"summary"`
	Status    SceneStatus `json:"status"`
	WordCount int         `json:"word_count"`
}

// NewScene creates a planned scene with a fresh ID.
func NewScene(title, goal string) *Scene {
	return &Scene{
		ID:     types.NewSceneID(),
		Title:  title,
		Goal:   goal,
		Tone:   DefaultSceneTone,
		Pacing: DefaultScenePacing,
		Status: StatusPlanned,
	}
}

// UnmarshalJSON decodes a scene, filling defaults for absent fields.
// A scene without an id gets a fresh one.
func (s *Scene) UnmarshalJSON(data []byte) error {
	type plain Scene
	tmp := plain(*NewScene("", ""))
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*s = Scene(tmp)
	return nil
}

// Validate checks the constrained scene fields.
func (s *Scene) Validate() error {
	if s.WordCount < 0 {
		return fmt.Errorf("%w: scene %s: negative word count %d", types.ErrInvalidOutline, s.ID, s.WordCount)
	}
	if !s.Status.valid() {
		return fmt.Errorf("%w: scene %s: unknown status %q", types.ErrInvalidOutline, s.ID, s.Status)
	}
	return nil
}

// Directive formats the scene as a structural directive for the
// generation prompt: the goal to hit and the tone and pacing to hold
// while hitting it.
func (s *Scene) Directive() string {
	parts := []string{
		"## Scene: " + s.Title,
		"**Goal**: " + s.Goal,
		fmt.Sprintf("**Tone**: %s | **Pacing**: %s", s.Tone, s.Pacing),
	}
	if s.Location != "" {
		parts = append(parts, "**Location**: "+s.Location)
	}
	if len(s.CharactersPresent) > 0 {
		ids := make([]string, len(s.CharactersPresent))
		for i, id := range s.CharactersPresent {
			ids[i] = string(id)
		}
		parts = append(parts, "**Characters**: "+strings.Join(ids, ", "))
	}
	if s.Notes != "" {
		parts = append(parts, "\n*Author's Notes*: "+s.Notes)
	}
	return strings.Join(parts, "\n")
}

// SummaryLine formats the scene as one line for the outline view,
// truncating the goal to 50 characters.
func (s *Scene) SummaryLine() string {
	goal := s.Goal
	if r := []rune(goal); len(r) > 50 {
		goal = string(r[:50]) + "..."
	}
	return fmt.Sprintf("%s %s: %s", s.Status.Icon(), s.Title, goal)
}

// Outline is the ordered scene map for the whole story: the contract
// between the plot and the prose.
type Outline struct {
	Scenes            []*Scene `json:"scenes"`
	CurrentSceneIndex int      `json:"current_scene_index"`
}

// NewOutline creates an empty outline positioned at the first scene.
func NewOutline() *Outline {
	return &Outline{}
}

// Validate checks the outline's constrained fields and every scene.
func (o *Outline) Validate() error {
	if o.CurrentSceneIndex < 0 {
		return fmt.Errorf("%w: negative current scene index %d", types.ErrInvalidOutline, o.CurrentSceneIndex)
	}
	for _, s := range o.Scenes {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of scenes.
func (o *Outline) Len() int { return len(o.Scenes) }

// AddScene appends a scene and returns its ID.
func (o *Outline) AddScene(s *Scene) types.SceneID {
	o.Scenes = append(o.Scenes, s)
	return s.ID
}

// Scene returns the scene with the given ID.
func (o *Outline) Scene(id types.SceneID) (*Scene, bool) {
	for _, s := range o.Scenes {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// SceneAt returns the scene at index.
func (o *Outline) SceneAt(index int) (*Scene, bool) {
	if index < 0 || index >= len(o.Scenes) {
		return nil, false
	}
	return o.Scenes[index], true
}

// Current returns the active scene.
func (o *Outline) Current() (*Scene, bool) {
	return o.SceneAt(o.CurrentSceneIndex)
}

// Next advances to the following scene and returns it. At the last
// scene it stays put and reports false.
func (o *Outline) Next() (*Scene, bool) {
	if o.CurrentSceneIndex >= len(o.Scenes)-1 {
		return nil, false
	}
	o.CurrentSceneIndex++
	return o.Current()
}

// Prev steps back to the previous scene and returns it. At the first
// scene it stays put and reports false.
func (o *Outline) Prev() (*Scene, bool) {
	if o.CurrentSceneIndex <= 0 {
		return nil, false
	}
	o.CurrentSceneIndex--
	return o.Current()
}

// JumpTo makes the scene with the given ID current.
func (o *Outline) JumpTo(id types.SceneID) (*Scene, bool) {
	for i, s := range o.Scenes {
		if s.ID == id {
			o.CurrentSceneIndex = i
			return s, true
		}
	}
	return nil, false
}

// JumpToIndex makes the scene at index current.
func (o *Outline) JumpToIndex(index int) (*Scene, bool) {
	if index < 0 || index >= len(o.Scenes) {
		return nil, false
	}
	o.CurrentSceneIndex = index
	return o.Scenes[index], true
}

// DeleteScene removes the scene with the given ID, reporting whether it
// existed. The current index is clamped back into range when the tail
// scene goes away.
func (o *Outline) DeleteScene(id types.SceneID) bool {
	for i, s := range o.Scenes {
		if s.ID == id {
			o.Scenes = append(o.Scenes[:i], o.Scenes[i+1:]...)
			if o.CurrentSceneIndex >= len(o.Scenes) {
				o.CurrentSceneIndex = max(0, len(o.Scenes)-1)
			}
			return true
		}
	}
	return false
}

// Reorder moves the scene with the given ID to newIndex, clamping the
// target into range. Reports whether the scene existed.
func (o *Outline) Reorder(id types.SceneID, newIndex int) bool {
	oldIndex := -1
	for i, s := range o.Scenes {
		if s.ID == id {
			oldIndex = i
			break
		}
	}
	if oldIndex < 0 {
		return false
	}

	newIndex = max(0, min(newIndex, len(o.Scenes)-1))
	s := o.Scenes[oldIndex]
	o.Scenes = append(o.Scenes[:oldIndex], o.Scenes[oldIndex+1:]...)
	o.Scenes = append(o.Scenes[:newIndex], append([]*Scene{s}, o.Scenes[newIndex:]...)...)
	return true
}

// Progress summarizes outline completion.
type Progress struct {
	TotalScenes int `json:"total_scenes"`
	// CurrentScene is the 1-based position of the active scene.
	CurrentScene    int                 `json:"current_scene"`
	StatusCounts    map[SceneStatus]int `json:"status_counts"`
	TotalWords      int                 `json:"total_words"`
	PercentComplete float64             `json:"percent_complete"`
}

// Progress computes completion stats across all scenes. Every status
// appears in the counts, including zeroes, so displays stay stable.
func (o *Outline) Progress() Progress {
	counts := map[SceneStatus]int{
		StatusPlanned:  0,
		StatusDrafting: 0,
		StatusDrafted:  0,
		StatusRevised:  0,
		StatusFinal:    0,
	}
	totalWords := 0
	done := 0
	for _, s := range o.Scenes {
		counts[s.Status]++
		totalWords += s.WordCount
		if s.Status.done() {
			done++
		}
	}

	percent := 0.0
	if len(o.Scenes) > 0 {
		percent = float64(done) / float64(len(o.Scenes)) * 100
	}
	return Progress{
		TotalScenes:     len(o.Scenes),
		CurrentScene:    o.CurrentSceneIndex + 1,
		StatusCounts:    counts,
		TotalWords:      totalWords,
		PercentComplete: percent,
	}
}
