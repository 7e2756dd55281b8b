package room

import (
	"maps"
	"net/url"
	"strings"
)

// DefaultChatBase is the rendezvous page opened for a room.
const DefaultChatBase = "https://watchparty-4u9v.onrender.com/chat.html"

// ParsedGame is a recognized watch-page URL.
type ParsedGame struct {
	Platform  string `json:"platform"`
	RoomID    string `json:"roomId"`
	SourceURL string `json:"sourceUrl"`
	// NativeID is the platform's own content id as it appears in the room id.
	NativeID string `json:"nativeId"`
	League   string `json:"league,omitempty"`
}

// RoomDescription is the display form of a room identifier.
type RoomDescription struct {
	Platform string `json:"platform"`
	Label    string `json:"label"`
	// URL is empty when no watch page can be rebuilt from the identifier.
	URL     string `json:"url,omitempty"`
	ChatURL string `json:"chatUrl,omitempty"`
}

// Codec maps watch URLs to room identifiers and back using one grammar table.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	registry *Registry
	chatBase string
}

// NewCodec creates a codec over the given registry. A nil registry uses Default.
func NewCodec(registry *Registry, chatBase string) *Codec {
	if registry == nil {
		registry = Default
	}
	return &Codec{registry: registry, chatBase: chatBase}
}

var defaultCodec = NewCodec(Default, DefaultChatBase)

// Parse maps a watch-page URL to its room using the default registry.
func Parse(rawURL string) (ParsedGame, bool) {
	return defaultCodec.Parse(rawURL)
}

// Describe maps a room identifier to its display form using the default registry.
func Describe(roomID string) RoomDescription {
	return defaultCodec.Describe(roomID)
}

// Registry returns the grammar table the codec consults.
func (c *Codec) Registry() *Registry {
	return c.registry
}

// Parse recognizes a watch-page URL. The boolean is false for malformed
// input and for URLs no grammar recognizes; neither is an error.
func (c *Codec) Parse(rawURL string) (ParsedGame, bool) {
	parsed, ok := absoluteURL(rawURL)
	if !ok {
		return ParsedGame{}, false
	}
	host := parsed.Hostname()
	path := parsed.EscapedPath()

	for _, g := range c.registry.All() {
		if !g.matchHost(host) {
			continue
		}
		for i := range g.Shapes {
			shape := &g.Shapes[i]
			fields, ok := shape.match(path)
			if !ok {
				continue
			}
			rest := shape.encode(fields)
			// Only emit identifiers that decode back to this shape.
			back, backFields, ok := g.decode(rest)
			if !ok || back != shape || !maps.Equal(fields, backFields) {
				continue
			}
			return ParsedGame{
				Platform:  shape.Platform,
				RoomID:    g.Tag + "-" + rest,
				SourceURL: parsed.String(),
				NativeID:  fields["id"],
				League:    fields["league"],
			}, true
		}
	}
	return ParsedGame{}, false
}

// Describe classifies a room identifier. It never fails: identifiers that no
// grammar classifies get the generic platform and their raw text as label.
func (c *Codec) Describe(roomID string) RoomDescription {
	desc := RoomDescription{
		Platform: PlatformGeneric,
		Label:    roomID,
		ChatURL:  ChatURL(c.chatBase, roomID),
	}

	tag, rest, found := strings.Cut(roomID, "-")
	if !found {
		return desc
	}
	g, ok := c.registry.Get(tag)
	if !ok {
		return desc
	}
	shape, fields, ok := g.decode(rest)
	if !ok {
		return desc
	}

	desc.Platform = shape.Platform
	desc.Label = shape.Label(fields)
	if shape.rebuildable(fields) {
		desc.URL = shape.watchURL(g.Origin, fields)
	}
	return desc
}

// ChatURL links the rendezvous page for a room. It returns an empty string
// when either the base or the identifier is unusable.
func ChatURL(base, roomID string) string {
	if strings.TrimSpace(base) == "" || roomID == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	q := u.Query()
	q.Set("room", roomID)
	u.RawQuery = q.Encode()
	return u.String()
}

// OverrideParam builds the query string that forces a room overlay on any page.
func OverrideParam(roomID string) string {
	return "?wpRoom=" + url.QueryEscape(roomID)
}

func absoluteURL(rawURL string) (*url.URL, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, false
	}
	if parsed.Opaque != "" || parsed.Hostname() == "" {
		return nil, false
	}
	return parsed, true
}
