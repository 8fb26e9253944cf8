package outline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pkeller/loregate/internal/types"
)

// File names inside a project directory.
const (
	PlotFilename    = "plot.md"
	OutlineFilename = "outline.json"
	StateFilename   = "project_state.json"
	ScenesDirName   = "scenes"
)

// sceneSlugMax caps the title portion of a scene filename.
const sceneSlugMax = 30

// reconstructLimit caps how much draft prose is sent for re-summarization.
const reconstructLimit = 8000

// ProjectState tracks workflow progress across sessions. Stored as
// project_state.json.
type ProjectState struct {
	HasPlot           bool          `json:"has_plot"`
	HasOutline        bool          `json:"has_outline"`
	CurrentSceneID    types.SceneID `json:"current_scene_id"`
	TotalWordsWritten int           `json:"total_words_written"`
}

// Summarizer produces a condensed account of a piece of prose. The
// generation client satisfies this.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Project manages the file layout of one story project:
//
//	plot.md             story synopsis and themes (human-editable)
//	outline.json        scene breakdown
//	scenes/             individual scene drafts (scene_001_title.md, ...)
//	project_state.json  progress tracking
//
// Scene drafts are plain markdown so authors can edit them in any
// editor; ReconstructScene syncs the outline back afterwards.
type Project struct {
	Dir string
}

// NewProject wraps a project root directory.
func NewProject(dir string) *Project {
	return &Project{Dir: dir}
}

func (p *Project) plotPath() string    { return filepath.Join(p.Dir, PlotFilename) }
func (p *Project) outlinePath() string { return filepath.Join(p.Dir, OutlineFilename) }
func (p *Project) statePath() string   { return filepath.Join(p.Dir, StateFilename) }
func (p *Project) scenesDir() string   { return filepath.Join(p.Dir, ScenesDirName) }

// EnsureDirectories creates the project layout if absent.
func (p *Project) EnsureDirectories() error {
	if err := os.MkdirAll(p.scenesDir(), 0o755); err != nil {
		return fmt.Errorf("create scenes dir: %w", err)
	}
	return nil
}

// IsInitialized reports whether the project has a plot file.
func (p *Project) IsInitialized() bool {
	_, err := os.Stat(p.plotPath())
	return err == nil
}

// LoadPlot reads plot.md. A missing file yields an empty plot.
func (p *Project) LoadPlot() (*Plot, error) {
	data, err := os.ReadFile(p.plotPath())
	if err != nil {
		if os.IsNotExist(err) {
			return NewPlot(), nil
		}
		return nil, fmt.Errorf("read plot: %w", err)
	}
	return PlotFromMarkdown(string(data)), nil
}

// SavePlot writes plot.md and records that the project has a plot.
func (p *Project) SavePlot(plot *Plot) error {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}
	if err := os.WriteFile(p.plotPath(), []byte(plot.MarkdownDocument()), 0o644); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}

	state, err := p.LoadState()
	if err != nil {
		return err
	}
	state.HasPlot = true
	return p.SaveState(state)
}

// LoadOutline reads and validates outline.json. A missing file yields an
// empty outline; a corrupt one fails with types.ErrInvalidOutline.
func (p *Project) LoadOutline() (*Outline, error) {
	data, err := os.ReadFile(p.outlinePath())
	if err != nil {
		if os.IsNotExist(err) {
			return NewOutline(), nil
		}
		return nil, fmt.Errorf("read outline: %w", err)
	}

	o := new(Outline)
	if err := json.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidOutline, err)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// SaveOutline writes outline.json and refreshes the workflow state:
// whether an outline exists and which scene is current.
func (p *Project) SaveOutline(o *Outline) error {
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal outline: %w", err)
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}
	if err := os.WriteFile(p.outlinePath(), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write outline: %w", err)
	}

	state, err := p.LoadState()
	if err != nil {
		return err
	}
	state.HasOutline = o.Len() > 0
	if cur, ok := o.Current(); ok {
		state.CurrentSceneID = cur.ID
	}
	return p.SaveState(state)
}

// LoadState reads project_state.json. A missing file yields zero state.
func (p *Project) LoadState() (*ProjectState, error) {
	data, err := os.ReadFile(p.statePath())
	if err != nil {
		if os.IsNotExist(err) {
			return &ProjectState{}, nil
		}
		return nil, fmt.Errorf("read project state: %w", err)
	}

	state := new(ProjectState)
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decode project state: %w", err)
	}
	return state, nil
}

// SaveState writes project_state.json.
func (p *Project) SaveState(state *ProjectState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project state: %w", err)
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}
	if err := os.WriteFile(p.statePath(), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write project state: %w", err)
	}
	return nil
}

// ScenePath derives the scene's draft filename from its outline position
// and title. A scene missing from the outline files under position one.
func (p *Project) ScenePath(o *Outline, s *Scene) string {
	index := 0
	for i, sc := range o.Scenes {
		if sc.ID == s.ID {
			index = i
			break
		}
	}
	return filepath.Join(p.scenesDir(), fmt.Sprintf("scene_%03d_%s.md", index+1, sceneSlug(s.Title)))
}

// sceneSlug converts a scene title to a filesystem-safe slug capped at
// sceneSlugMax characters.
func sceneSlug(title string) string {
	var sb strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	slug := strings.TrimSpace(sb.String())
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = strings.ToLower(slug)
	if r := []rune(slug); len(r) > sceneSlugMax {
		slug = string(r[:sceneSlugMax])
	}
	return slug
}

// SceneContent reads the prose draft for a scene. No draft yet reads as
// empty.
func (p *Project) SceneContent(o *Outline, s *Scene) (string, error) {
	data, err := os.ReadFile(p.ScenePath(o, s))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read scene: %w", err)
	}
	return string(data), nil
}

// SaveSceneContent writes a draft and rolls the scene's metadata
// forward: the word count refreshes and a planned scene moves to
// drafting. The outline is saved so both stay in sync.
func (p *Project) SaveSceneContent(o *Outline, s *Scene, content string) error {
	if err := p.EnsureDirectories(); err != nil {
		return err
	}
	if err := os.WriteFile(p.ScenePath(o, s), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}

	s.WordCount = len(strings.Fields(content))
	if s.Status == StatusPlanned {
		s.Status = StatusDrafting
	}
	return p.SaveOutline(o)
}

// AppendSceneContent appends generated prose to an existing draft.
func (p *Project) AppendSceneContent(o *Outline, s *Scene, content string) error {
	existing, err := p.SceneContent(o, s)
	if err != nil {
		return err
	}
	return p.SaveSceneContent(o, s, existing+content)
}

// ReconstructScene re-derives a scene's summary and word count from its
// possibly human-edited draft, so the outline tracks what the prose
// actually says. An empty draft leaves the scene untouched.
func (p *Project) ReconstructScene(ctx context.Context, o *Outline, id types.SceneID, sum Summarizer) (*Scene, error) {
	s, ok := o.Scene(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrSceneNotFound, id)
	}

	content, err := p.SceneContent(o, s)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return s, nil
	}

	excerpt := content
	if r := []rune(excerpt); len(r) > reconstructLimit {
		excerpt = string(r[:reconstructLimit])
	}
	prompt := fmt.Sprintf(`Summarize this scene in 2-3 sentences, focusing on:
- Key plot events that occurred
- Character actions and decisions
- Important revelations or changes

Scene content:
%s`, excerpt)

	summary, err := sum.Summarize(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("summarize scene: %w", err)
	}

	s.Summary = summary
	s.WordCount = len(strings.Fields(content))
	if s.Status == StatusPlanned {
		s.Status = StatusDrafted
	}
	if err := p.SaveOutline(o); err != nil {
		return nil, err
	}
	return s, nil
}

// BuildSceneContext assembles the generation context for a scene: the
// plot overview, summaries of up to three preceding scenes, and the
// scene's structural directive.
func BuildSceneContext(plot *Plot, o *Outline, s *Scene) string {
	parts := []string{
		"# Story Context",
		"",
		plot.ContextString(),
		"",
	}

	if idx := o.CurrentSceneIndex; idx > 0 {
		parts = append(parts, "## Previous Events", "")
		for i := max(0, idx-3); i < idx && i < len(o.Scenes); i++ {
			prev := o.Scenes[i]
			if prev.Summary != "" {
				parts = append(parts, fmt.Sprintf("**%s**: %s", prev.Title, prev.Summary))
			}
		}
		parts = append(parts, "")
	}

	parts = append(parts, s.Directive())
	return strings.Join(parts, "\n")
}

// Status reports overall project progress for display.
type Status struct {
	HasPlot      bool          `json:"has_plot"`
	HasOutline   bool          `json:"has_outline"`
	Scenes       Progress      `json:"scenes"`
	CurrentScene types.SceneID `json:"current_scene"`
}

// Status loads the project files and summarizes where the work stands.
func (p *Project) Status() (Status, error) {
	o, err := p.LoadOutline()
	if err != nil {
		return Status{}, err
	}
	state, err := p.LoadState()
	if err != nil {
		return Status{}, err
	}

	st := Status{
		HasPlot:      state.HasPlot,
		HasOutline:   state.HasOutline,
		CurrentScene: state.CurrentSceneID,
	}
	if o.Len() > 0 {
		st.Scenes = o.Progress()
	}
	return st, nil
}
