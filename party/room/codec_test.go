package room

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		wantRoom     string
		wantPlatform string
		wantNative   string
		wantMatch    bool
	}{
		{
			name:         "Peacock live channel with extra segment",
			url:          "https://www.peacocktv.com/watch/playback/live/abc123/extra",
			wantRoom:     "peacock-live-abc123",
			wantPlatform: PlatformPeacock,
			wantNative:   "abc123",
			wantMatch:    true,
		},
		{
			name:         "Peacock digits only",
			url:          "https://www.peacocktv.com/watch/playback/live/4412",
			wantRoom:     "peacock-live-4412",
			wantPlatform: PlatformPeacock,
			wantNative:   "4412",
			wantMatch:    true,
		},
		{
			name:         "ESPN game with uppercase league",
			url:          "https://www.espn.com/NFL/game/_/gameId/401547417",
			wantRoom:     "espn-nfl-401547417",
			wantPlatform: PlatformESPN,
			wantNative:   "401547417",
			wantMatch:    true,
		},
		{
			name:         "ESPN game with trailing slug",
			url:          "https://www.espn.com/nba/game/_/gameId/401585601/celtics-lakers",
			wantRoom:     "espn-nba-401585601",
			wantPlatform: PlatformESPN,
			wantNative:   "401585601",
			wantMatch:    true,
		},
		{
			name:         "ESPN Watch player",
			url:          "https://www.espn.com/watch/player/_/id/39ab-22",
			wantRoom:     "espn-watch-39ab-22",
			wantPlatform: PlatformESPNWatch,
			wantNative:   "39ab-22",
			wantMatch:    true,
		},
		{
			name:         "ESPN event player",
			url:          "https://www.espn.com/watch/player/_/eventId/777/",
			wantRoom:     "espn-event-777",
			wantPlatform: PlatformESPN,
			wantNative:   "777",
			wantMatch:    true,
		},
		{
			name:         "Prime Video detail with query",
			url:          "https://www.amazon.com/gp/video/detail/B08XYZ123?autoplay=1",
			wantRoom:     "prime-B08XYZ123",
			wantPlatform: PlatformPrime,
			wantNative:   "B08XYZ123",
			wantMatch:    true,
		},
		{
			name:         "Bare domain without www",
			url:          "https://amazon.com/gp/video/detail/B0ABC",
			wantRoom:     "prime-B0ABC",
			wantPlatform: PlatformPrime,
			wantNative:   "B0ABC",
			wantMatch:    true,
		},
		{
			name:      "Surrounding whitespace",
			url:       "  https://www.espn.com/mlb/game/_/gameId/12  ",
			wantRoom:  "espn-mlb-12",
			wantMatch: true,
		},
		{name: "Not a URL", url: "not a url"},
		{name: "Empty", url: ""},
		{name: "Unknown host", url: "https://example.com/foo"},
		{name: "Lookalike host", url: "https://notespn.com/nfl/game/_/gameId/1"},
		{name: "Relative path", url: "/watch/playback/live/1"},
		{name: "Non web scheme", url: "ftp://www.espn.com/nfl/game/_/gameId/1"},
		{name: "Peacock wrong path", url: "https://www.peacocktv.com/watch/playback/vod/123"},
		{name: "ESPN game id not numeric", url: "https://www.espn.com/nfl/game/_/gameId/abc"},
		{name: "ESPN path not anchored", url: "https://www.espn.com/x/nfl/game/_/gameId/1"},
		{name: "ESPN league colliding with watch shape", url: "https://www.espn.com/watch/game/_/gameId/1"},
		{name: "ESPN league colliding with event shape", url: "https://www.espn.com/EVENT/game/_/gameId/1"},
		{name: "Prime on wrong domain", url: "https://www.peacocktv.com/gp/video/detail/B0"},
		{name: "Prime id with punctuation", url: "https://www.amazon.com/gp/video/detail/B0_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.url)
			if ok != tt.wantMatch {
				t.Fatalf("Parse(%q) matched = %v, want %v", tt.url, ok, tt.wantMatch)
			}
			if !ok {
				assert.Equal(t, ParsedGame{}, got)
				return
			}
			assert.Equal(t, tt.wantRoom, got.RoomID)
			if tt.wantPlatform != "" {
				assert.Equal(t, tt.wantPlatform, got.Platform)
			}
			if tt.wantNative != "" {
				assert.Equal(t, tt.wantNative, got.NativeID)
			}
			assert.NotEmpty(t, got.SourceURL)
		})
	}
}

func TestParseKeepsSourceURL(t *testing.T) {
	got, ok := Parse("https://www.espn.com/nfl/game/_/gameId/401547417?src=share#top")
	require.True(t, ok)
	assert.Equal(t, "https://www.espn.com/nfl/game/_/gameId/401547417?src=share#top", got.SourceURL)
	assert.Equal(t, "nfl", got.League)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name         string
		roomID       string
		wantPlatform string
		wantLabel    string
		wantURL      string
	}{
		{
			name:         "ESPN Watch with hyphenated id",
			roomID:       "espn-watch-39ab-22",
			wantPlatform: PlatformESPNWatch,
			wantLabel:    "ESPN Watch stream 39ab-22",
			wantURL:      "https://www.espn.com/watch/player/_/id/39ab-22",
		},
		{
			name:         "ESPN event",
			roomID:       "espn-event-555",
			wantPlatform: PlatformESPN,
			wantLabel:    "ESPN event 555",
			wantURL:      "https://www.espn.com/watch/player/_/eventId/555",
		},
		{
			name:         "ESPN game",
			roomID:       "espn-nfl-401547417",
			wantPlatform: PlatformESPN,
			wantLabel:    "NFL game 401547417",
			wantURL:      "https://www.espn.com/nfl/game/_/gameId/401547417",
		},
		{
			name:         "Peacock",
			roomID:       "peacock-live-abc123",
			wantPlatform: PlatformPeacock,
			wantLabel:    "Peacock live channel abc123",
			wantURL:      "https://www.peacocktv.com/watch/playback/live/abc123",
		},
		{
			name:         "Prime Video",
			roomID:       "prime-B08XYZ123",
			wantPlatform: PlatformPrime,
			wantLabel:    "Prime Video title B08XYZ123",
			wantURL:      "https://www.amazon.com/gp/video/detail/B08XYZ123",
		},
		{
			name:         "ESPN game id outside charset keeps label, drops url",
			roomID:       "espn-nfl-12/../admin",
			wantPlatform: PlatformESPN,
			wantLabel:    "NFL game 12/../admin",
		},
		{
			name:         "ESPN league outside charset",
			roomID:       "espn-n f l-1",
			wantPlatform: PlatformESPN,
			wantLabel:    "N F L game 1",
		},
		{name: "Unknown tag", roomID: "foo-bar", wantPlatform: PlatformGeneric, wantLabel: "foo-bar"},
		{name: "Empty", roomID: "", wantPlatform: PlatformGeneric, wantLabel: ""},
		{name: "No hyphen", roomID: "espn", wantPlatform: PlatformGeneric, wantLabel: "espn"},
		{name: "ESPN two segments", roomID: "espn-nfl", wantPlatform: PlatformGeneric, wantLabel: "espn-nfl"},
		{name: "ESPN Watch without id", roomID: "espn-watch-", wantPlatform: PlatformGeneric, wantLabel: "espn-watch-"},
		{name: "Peacock without live", roomID: "peacock-vod-1", wantPlatform: PlatformGeneric, wantLabel: "peacock-vod-1"},
		{name: "Prime without id", roomID: "prime-", wantPlatform: PlatformGeneric, wantLabel: "prime-"},
		{name: "Tag is case sensitive", roomID: "PRIME-B0", wantPlatform: PlatformGeneric, wantLabel: "PRIME-B0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(tt.roomID)
			assert.Equal(t, tt.wantPlatform, got.Platform)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantURL, got.URL)
		})
	}
}

func TestDescribeEscapesInsertedText(t *testing.T) {
	codec := NewCodec(nil, DefaultChatBase)
	got := codec.Describe("espn-watch-a b")
	assert.Equal(t, PlatformESPNWatch, got.Platform)
	assert.Equal(t, "https://www.espn.com/watch/player/_/id/a%20b", got.URL)

	chat := ChatURL(DefaultChatBase, "espn-watch-a b")
	parsed, err := url.Parse(chat)
	require.NoError(t, err)
	assert.Equal(t, "espn-watch-a b", parsed.Query().Get("room"))
	assert.NotContains(t, chat, " ")
}

func TestDescribeRebuildsOutsideCharset(t *testing.T) {
	tests := []struct {
		roomID  string
		wantURL string
	}{
		{"espn-watch-a_b", "https://www.espn.com/watch/player/_/id/a_b"},
		{"espn-watch-a/b", "https://www.espn.com/watch/player/_/id/a%2Fb"},
		{"peacock-live-x?y", "https://www.peacocktv.com/watch/playback/live/x%3Fy"},
		{"espn-watch-..", ""},
		{"espn-watch-.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.roomID, func(t *testing.T) {
			got := Describe(tt.roomID)
			assert.NotEqual(t, PlatformGeneric, got.Platform)
			assert.Equal(t, tt.wantURL, got.URL)
			if tt.wantURL != "" {
				_, err := url.Parse(got.URL)
				assert.NoError(t, err)
			}
		})
	}
}

func TestChatURL(t *testing.T) {
	assert.Equal(t, "https://watchparty-4u9v.onrender.com/chat.html?room=prime-B08XYZ123", ChatURL(DefaultChatBase, "prime-B08XYZ123"))
	assert.Equal(t, "https://x.test/chat?lang=en&room=espn-nfl-1", ChatURL("https://x.test/chat?lang=en", "espn-nfl-1"))
	assert.Empty(t, ChatURL("", "espn-nfl-1"))
	assert.Empty(t, ChatURL("not a url", "espn-nfl-1"))
	assert.Empty(t, ChatURL(DefaultChatBase, ""))
}

func TestDescribeUsesCodecChatBase(t *testing.T) {
	codec := NewCodec(Default, "https://chat.example/room")
	assert.Equal(t, "https://chat.example/room?room=foo-bar", codec.Describe("foo-bar").ChatURL)
	assert.Empty(t, NewCodec(Default, "").Describe("foo-bar").ChatURL)
}

func TestOverrideParam(t *testing.T) {
	assert.Equal(t, "?wpRoom=espn-watch-39ab-22", OverrideParam("espn-watch-39ab-22"))
	assert.Equal(t, "?wpRoom=a%26b%3Dc", OverrideParam("a&b=c"))
}

func TestRoundTripExamples(t *testing.T) {
	urls := []string{
		"https://www.peacocktv.com/watch/playback/live/abc123/extra",
		"https://www.espn.com/NFL/game/_/gameId/401547417",
		"https://www.espn.com/watch/player/_/id/39ab-22",
		"https://www.espn.com/watch/player/_/eventId/9001",
		"https://www.amazon.com/gp/video/detail/B08XYZ123",
	}
	for _, raw := range urls {
		t.Run(raw, func(t *testing.T) {
			parsed, ok := Parse(raw)
			require.True(t, ok)

			desc := Describe(parsed.RoomID)
			assert.Equal(t, parsed.Platform, desc.Platform)
			require.NotEmpty(t, desc.URL)
			assert.Contains(t, desc.URL, "/"+parsed.NativeID)

			again, ok := Parse(desc.URL)
			require.True(t, ok)
			assert.Equal(t, parsed.RoomID, again.RoomID)
		})
	}
}

func TestCustomRegistry(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Grammar{
		Tag:    "yt",
		Domain: "youtube.com",
		Origin: "https://www.youtube.com",
		Shapes: []Shape{{
			Platform: "YouTube",
			Path:     "/live/{id}",
			Room:     []string{"{id}"},
			Fields:   []Field{{Name: "id", Charset: `[A-Za-z0-9_]+`}},
			Label:    func(f Fields) string { return "YouTube stream " + f["id"] },
		}},
	}))
	codec := NewCodec(r, "")

	parsed, ok := codec.Parse("https://m.youtube.com/live/abc_DEF")
	require.True(t, ok)
	assert.Equal(t, "yt-abc_DEF", parsed.RoomID)

	desc := codec.Describe(parsed.RoomID)
	assert.Equal(t, "YouTube", desc.Platform)
	assert.Equal(t, "https://www.youtube.com/live/abc_DEF", desc.URL)

	_, ok = codec.Parse("https://www.espn.com/nfl/game/_/gameId/1")
	assert.False(t, ok, "custom registry must not see built-in grammars")
}
