// Package prompt renders author-note templates and assembles the final
// generation context: story facts, activated lore, and recent prose,
// each spliced in at its configured position.
package prompt

import (
	"strings"
	"time"

	"github.com/pkeller/loregate/internal/bible"
	"github.com/pkeller/loregate/internal/outline"
)

// Context carries the variables available to templates, grouped into
// namespaces. Paths without a scene/story/char/meta prefix resolve
// against Custom using the whole path as the key.
type Context struct {
	Scene  map[string]string
	Story  map[string]string
	Char   map[string]string
	Meta   map[string]string
	Custom map[string]string
}

// NewContext creates an empty context with all namespaces initialized.
func NewContext() *Context {
	return &Context{
		Scene:  make(map[string]string),
		Story:  make(map[string]string),
		Char:   make(map[string]string),
		Meta:   make(map[string]string),
		Custom: make(map[string]string),
	}
}

// bucket maps a path to its backing namespace map and in-namespace key.
// Unknown prefixes fall through to Custom with the whole path as key.
func (c *Context) bucket(path string) (*map[string]string, string) {
	if ns, key, ok := strings.Cut(path, "."); ok {
		switch ns {
		case "scene":
			return &c.Scene, key
		case "story":
			return &c.Story, key
		case "char":
			return &c.Char, key
		case "meta":
			return &c.Meta, key
		}
	}
	return &c.Custom, path
}

// Get resolves a dot-notation path like "scene.tone", returning fallback
// for unknown keys.
func (c *Context) Get(path, fallback string) string {
	m, key := c.bucket(strings.TrimSpace(path))
	if v, ok := (*m)[key]; ok {
		return v
	}
	return fallback
}

// Set stores a value under a dot-notation path.
func (c *Context) Set(path, value string) {
	m, key := c.bucket(strings.TrimSpace(path))
	if *m == nil {
		*m = make(map[string]string)
	}
	(*m)[key] = value
}

// BuildContext populates a Context from the current story state: world
// facts, the first character, runtime metadata, and the current scene
// when the project has an outline.
func BuildContext(b *bible.Bible, proj *outline.Project) *Context {
	ctx := NewContext()

	ctx.Story["genre"] = b.World.Genre
	ctx.Story["tone"] = b.World.Tone
	ctx.Story["rules"] = strings.Join(b.World.Rules, ", ")

	now := time.Now()
	ctx.Meta["date"] = now.Format("2006-01-02")
	ctx.Meta["time"] = now.Format("15:04")
	chapter := "none"
	if b.ActiveChapterID != "" {
		chapter = string(b.ActiveChapterID)
	}
	ctx.Meta["chapter"] = chapter

	if len(b.Characters) > 0 {
		c := b.Characters[0]
		ctx.Char["name"] = c.Name
		ctx.Char["archetype"] = c.Archetype
		ctx.Char["motivation"] = c.Motivation
	}

	if proj != nil {
		if o, err := proj.LoadOutline(); err == nil {
			if s, ok := o.Current(); ok {
				ctx.Scene["title"] = s.Title
				ctx.Scene["goal"] = s.Goal
				ctx.Scene["tone"] = s.Tone
				ctx.Scene["pacing"] = s.Pacing
				ctx.Scene["location"] = s.Location
				ctx.Scene["status"] = string(s.Status)
			}
		}
	}

	return ctx
}
