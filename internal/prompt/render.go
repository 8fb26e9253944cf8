package prompt

import (
	"regexp"
	"strings"
	"unicode"
)

// varPattern matches {{expr}} and {{expr|modifier}} placeholders.
// expr may carry a transform prefix ("upper:scene.tone"); the modifier
// slot holds "default:fallback".
var varPattern = regexp.MustCompile(`\{\{\s*([^{}|]+?)(?:\s*\|\s*([^{}]+))?\s*\}\}`)

// Renderer substitutes {{variable}} placeholders in author-note and
// prompt templates. Not safe for concurrent transform registration;
// register transforms before rendering from multiple goroutines.
type Renderer struct {
	transforms map[string]func(string) string
}

// NewRenderer creates a renderer with the built-in transforms
// upper, lower, title, and caps.
func NewRenderer() *Renderer {
	return &Renderer{
		transforms: map[string]func(string) string{
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
			"title": titleCase,
			"caps":  capitalize,
		},
	}
}

// RegisterTransform adds a named transform usable as {{name:path}}.
func (r *Renderer) RegisterTransform(name string, fn func(string) string) {
	r.transforms[name] = fn
}

// Render substitutes every placeholder in template from ctx. Unknown
// variables render as empty unless a default modifier supplies a
// fallback. Unknown transforms make the whole expression an unknown
// variable rather than an error.
func (r *Renderer) Render(template string, ctx *Context) string {
	if template == "" || !strings.Contains(template, "{{") {
		return template
	}

	return varPattern.ReplaceAllStringFunc(template, func(m string) string {
		groups := varPattern.FindStringSubmatch(m)
		expr := strings.TrimSpace(groups[1])
		modifier := strings.TrimSpace(groups[2])

		if name, path, ok := strings.Cut(expr, ":"); ok && !strings.HasPrefix(expr, "default") {
			if fn, found := r.transforms[strings.TrimSpace(name)]; found {
				value := ctx.Get(strings.TrimSpace(path), "")
				if value == "" {
					return ""
				}
				return fn(value)
			}
		}

		value := ctx.Get(expr, "")
		if fallback, ok := strings.CutPrefix(modifier, "default:"); ok && value == "" {
			return strings.TrimSpace(fallback)
		}
		return value
	})
}

// Variables lists the variable paths referenced by a template, with
// transform prefixes resolved away.
func (r *Renderer) Variables(template string) []string {
	if template == "" {
		return nil
	}

	var paths []string
	for _, groups := range varPattern.FindAllStringSubmatch(template, -1) {
		expr := strings.TrimSpace(groups[1])
		if name, path, ok := strings.Cut(expr, ":"); ok {
			if _, found := r.transforms[strings.TrimSpace(name)]; found {
				expr = strings.TrimSpace(path)
			}
		}
		paths = append(paths, expr)
	}
	return paths
}

// titleCase uppercases the first letter of every word and lowercases
// the rest, treating any non-letter as a word boundary.
func titleCase(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r):
			prevLetter = false
			sb.WriteRune(r)
		case prevLetter:
			sb.WriteRune(unicode.ToLower(r))
		default:
			prevLetter = true
			sb.WriteRune(unicode.ToUpper(r))
		}
	}
	return sb.String()
}

// capitalize uppercases the first character and lowercases the rest.
func capitalize(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if i == 0 {
			runes[i] = unicode.ToUpper(r)
		} else {
			runes[i] = unicode.ToLower(r)
		}
	}
	return string(runes)
}
