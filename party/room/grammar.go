package room

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Fields holds the values captured for a shape's placeholders, keyed by field name.
type Fields map[string]string

// Field describes one placeholder of a shape.
type Field struct {
	// Name is referenced as {name} in Path and Room.
	Name string
	// Charset is a regexp fragment (no anchors, no capture groups) the value must match.
	Charset string
	// Lower folds the captured value to lowercase before it enters an identifier.
	Lower bool
}

// Shape is one recognizable watch-page layout of a platform. Path and Room are
// templates; both directions of the mapping are derived from them.
type Shape struct {
	// Platform is the display name reported for this shape (e.g. "ESPN Watch").
	Platform string
	// Path is the watch-page path template, e.g. "/watch/playback/live/{id}".
	Path string
	// Room lists the identifier segments following the platform tag, e.g. {"live", "{id}"}.
	// Only the last segment may contain hyphens.
	Room   []string
	Fields []Field
	// Label renders the human-readable description of a decoded identifier.
	Label func(f Fields) string

	re       *regexp.Regexp
	charsets map[string]*regexp.Regexp
	lower    map[string]bool
}

// Grammar groups the shapes recognized on one platform domain.
type Grammar struct {
	// Tag is the first identifier segment, e.g. "espn".
	Tag string
	// Domain is the host suffix, e.g. "espn.com".
	Domain string
	// Origin is the scheme and host used when rebuilding watch URLs.
	Origin string
	// Shapes are tried in order; the first match wins.
	Shapes []Shape
}

var (
	placeholderPattern = regexp.MustCompile(`\{([A-Za-z]+)\}`)
	tagPattern         = regexp.MustCompile(`^[a-z0-9]+$`)
)

func (g Grammar) compile() (Grammar, error) {
	if !tagPattern.MatchString(g.Tag) {
		return Grammar{}, fmt.Errorf("grammar tag %q must be lowercase alphanumeric", g.Tag)
	}
	if strings.TrimSpace(g.Domain) == "" {
		return Grammar{}, fmt.Errorf("grammar %s: domain required", g.Tag)
	}
	origin, err := url.Parse(g.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return Grammar{}, fmt.Errorf("grammar %s: invalid origin %q", g.Tag, g.Origin)
	}
	if len(g.Shapes) == 0 {
		return Grammar{}, fmt.Errorf("grammar %s: at least one shape required", g.Tag)
	}

	compiled := g
	compiled.Domain = strings.ToLower(strings.TrimPrefix(g.Domain, "."))
	compiled.Origin = strings.TrimRight(g.Origin, "/")
	compiled.Shapes = make([]Shape, len(g.Shapes))
	for i, s := range g.Shapes {
		cs, err := s.compile()
		if err != nil {
			return Grammar{}, fmt.Errorf("grammar %s shape %d: %w", g.Tag, i, err)
		}
		compiled.Shapes[i] = cs
	}
	return compiled, nil
}

func (s Shape) compile() (Shape, error) {
	if s.Platform == "" {
		return Shape{}, errors.New("platform name required")
	}
	if !strings.HasPrefix(s.Path, "/") {
		return Shape{}, fmt.Errorf("path template %q must start with /", s.Path)
	}
	if len(s.Room) == 0 {
		return Shape{}, errors.New("room template required")
	}
	if s.Label == nil {
		return Shape{}, errors.New("label required")
	}

	s.charsets = make(map[string]*regexp.Regexp, len(s.Fields))
	s.lower = make(map[string]bool, len(s.Fields))
	fragments := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" || f.Charset == "" {
			return Shape{}, errors.New("field name and charset required")
		}
		re, err := regexp.Compile(`^(?:` + f.Charset + `)$`)
		if err != nil {
			return Shape{}, fmt.Errorf("field %s: %w", f.Name, err)
		}
		if re.NumSubexp() > 0 {
			return Shape{}, fmt.Errorf("field %s: charset must not capture", f.Name)
		}
		s.charsets[f.Name] = re
		s.lower[f.Name] = f.Lower
		fragments[f.Name] = f.Charset
	}

	var body strings.Builder
	last := 0
	seen := make(map[string]bool)
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(s.Path, -1) {
		name := s.Path[loc[2]:loc[3]]
		fragment, ok := fragments[name]
		if !ok {
			return Shape{}, fmt.Errorf("path references unknown field %q", name)
		}
		body.WriteString(regexp.QuoteMeta(s.Path[last:loc[0]]))
		body.WriteString(`(?P<` + name + `>` + fragment + `)`)
		seen[name] = true
		last = loc[1]
	}
	body.WriteString(regexp.QuoteMeta(s.Path[last:]))

	re, err := regexp.Compile(`^` + body.String() + `(?:/|$)`)
	if err != nil {
		return Shape{}, fmt.Errorf("path %q: %w", s.Path, err)
	}
	s.re = re

	for _, seg := range s.Room {
		name, isField := fieldName(seg)
		if !isField {
			if seg == "" || strings.Contains(seg, "-") {
				return Shape{}, fmt.Errorf("room literal %q must be a single non-empty segment", seg)
			}
			continue
		}
		if !seen[name] {
			return Shape{}, fmt.Errorf("room references field %q not captured by path", name)
		}
		delete(seen, name)
	}
	if len(seen) > 0 {
		return Shape{}, errors.New("every captured field must appear in the room template")
	}
	return s, nil
}

func fieldName(seg string) (string, bool) {
	if len(seg) > 2 && seg[0] == '{' && seg[len(seg)-1] == '}' {
		return seg[1 : len(seg)-1], true
	}
	return "", false
}

// match extracts fields from an escaped URL path.
func (s *Shape) match(path string) (Fields, bool) {
	m := s.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	fields := make(Fields, len(s.charsets))
	for i, name := range s.re.SubexpNames() {
		if name == "" {
			continue
		}
		value := m[i]
		if s.lower[name] {
			value = strings.ToLower(value)
		}
		fields[name] = value
	}
	return fields, true
}

// encode renders the identifier segments after the tag.
func (s *Shape) encode(fields Fields) string {
	parts := make([]string, len(s.Room))
	for i, seg := range s.Room {
		if name, ok := fieldName(seg); ok {
			parts[i] = fields[name]
		} else {
			parts[i] = seg
		}
	}
	return strings.Join(parts, "-")
}

// decode splits the identifier remainder (after "tag-") against the room
// template. The last segment takes whatever is left, hyphens included.
func (s *Shape) decode(rest string) (Fields, bool) {
	fields := make(Fields, len(s.charsets))
	remaining := rest
	for i, seg := range s.Room {
		var value string
		if i == len(s.Room)-1 {
			value = remaining
			remaining = ""
		} else {
			var found bool
			value, remaining, found = strings.Cut(remaining, "-")
			if !found {
				return nil, false
			}
		}
		if value == "" {
			return nil, false
		}
		if name, ok := fieldName(seg); ok {
			fields[name] = value
		} else if value != seg {
			return nil, false
		}
	}
	return fields, true
}

// rebuildable reports whether every field can be placed in a path segment.
// Values outside the charset are still escaped into the URL; only empty and
// dot segments would change the path itself.
func (s *Shape) rebuildable(fields Fields) bool {
	for name := range s.charsets {
		switch fields[name] {
		case "", ".", "..":
			return false
		}
	}
	return true
}

// watchURL rebuilds the watch page, escaping every inserted value.
func (s *Shape) watchURL(origin string, fields Fields) string {
	path := placeholderPattern.ReplaceAllStringFunc(s.Path, func(ph string) string {
		name, _ := fieldName(ph)
		return url.PathEscape(fields[name])
	})
	return origin + path
}

// matchHost reports whether host is the grammar domain or one of its subdomains.
func (g *Grammar) matchHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	return host == g.Domain || strings.HasSuffix(host, "."+g.Domain)
}

// decode finds the first shape that classifies the identifier remainder.
func (g *Grammar) decode(rest string) (*Shape, Fields, bool) {
	for i := range g.Shapes {
		if fields, ok := g.Shapes[i].decode(rest); ok {
			return &g.Shapes[i], fields, true
		}
	}
	return nil, nil, false
}
