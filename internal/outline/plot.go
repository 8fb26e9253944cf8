package outline

import "strings"

// DefaultPlotTitle names a plot before the author does.
const DefaultPlotTitle = "Untitled Story"

// Plot is the axiomatic truth of the story: what it is about. Set during
// initialization, rarely touched during the writing phase. It persists
// as a human-editable markdown document rather than JSON.
type Plot struct {
	Title string `json:"title"`
	// Logline is a one-sentence summary of the story.
	Logline string `json:"logline"`
	// Synopsis is the multi-paragraph story summary.
	Synopsis string   `json:"synopsis"`
	Themes   []string `json:"themes"`
	// Protagonist and Antagonist are free-form: a name, or a force like
	// "the storm" or "her own doubt".
	Protagonist string `json:"protagonist"`
	Antagonist  string `json:"antagonist"`
	Setting     string `json:"setting"`
}

// NewPlot creates an empty plot with the default title.
func NewPlot() *Plot {
	return &Plot{Title: DefaultPlotTitle}
}

// MarkdownDocument renders the plot as a plot.md document. Empty
// sections are omitted entirely.
func (p *Plot) MarkdownDocument() string {
	lines := []string{"# " + p.Title, ""}

	if p.Logline != "" {
		lines = append(lines, "## Logline", "", p.Logline, "")
	}
	if p.Synopsis != "" {
		lines = append(lines, "## Synopsis", "", p.Synopsis, "")
	}
	if len(p.Themes) > 0 {
		lines = append(lines, "## Themes", "")
		for _, theme := range p.Themes {
			lines = append(lines, "- "+theme)
		}
		lines = append(lines, "")
	}
	if p.Protagonist != "" || p.Antagonist != "" {
		lines = append(lines, "## Characters", "")
		if p.Protagonist != "" {
			lines = append(lines, "**Protagonist**: "+p.Protagonist)
		}
		if p.Antagonist != "" {
			lines = append(lines, "**Antagonist**: "+p.Antagonist)
		}
		lines = append(lines, "")
	}
	if p.Setting != "" {
		lines = append(lines, "## Setting", "", p.Setting, "")
	}

	return strings.Join(lines, "\n")
}

// PlotFromMarkdown parses a plot.md document back into a Plot. The
// parser is header-driven and tolerant: unknown sections are ignored,
// so authors can keep extra notes in the file.
func PlotFromMarkdown(content string) *Plot {
	p := NewPlot()
	section := ""
	var body []string

	flush := func() {
		if section == "" || len(body) == 0 {
			return
		}
		text := strings.TrimSpace(strings.Join(body, "\n"))
		switch section {
		case "Logline":
			p.Logline = text
		case "Synopsis":
			p.Synopsis = text
		case "Themes":
			p.Themes = parseBullets(body)
		case "Setting":
			p.Setting = text
		}
	}

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "# "):
			p.Title = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "## "):
			flush()
			section = strings.TrimSpace(line[3:])
			body = body[:0]
		case section == "Characters":
			if v, ok := strings.CutPrefix(line, "**Protagonist**:"); ok {
				p.Protagonist = strings.TrimSpace(v)
			} else if v, ok := strings.CutPrefix(line, "**Antagonist**:"); ok {
				p.Antagonist = strings.TrimSpace(v)
			}
		default:
			body = append(body, line)
		}
	}
	flush()
	return p
}

// parseBullets extracts "- item" list entries from section lines.
func parseBullets(lines []string) []string {
	var items []string
	for _, l := range lines {
		if !strings.HasPrefix(strings.TrimSpace(l), "-") {
			continue
		}
		item := ""
		if len(l) >= 2 {
			item = strings.TrimSpace(l[2:])
		}
		items = append(items, item)
	}
	return items
}

// ContextString formats the plot for prompt injection: the title plus
// whichever of logline, themes, and leads are set.
func (p *Plot) ContextString() string {
	parts := []string{"# Story: " + p.Title}

	if p.Logline != "" {
		parts = append(parts, "\n"+p.Logline)
	}
	if len(p.Themes) > 0 {
		parts = append(parts, "\nThemes: "+strings.Join(p.Themes, ", "))
	}
	if p.Protagonist != "" {
		parts = append(parts, "\nProtagonist: "+p.Protagonist)
	}
	if p.Antagonist != "" {
		parts = append(parts, "\nAntagonist: "+p.Antagonist)
	}

	return strings.Join(parts, "\n")
}
