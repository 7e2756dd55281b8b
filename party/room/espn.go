package room

import (
	"fmt"
	"strings"
)

// ESPN exposes three watch-page layouts on espn.com. Shapes with a literal
// second segment come first so that "espn-watch-*" and "espn-event-*"
// are never read as a league called "watch" or "event".
func espnGrammar() Grammar {
	return Grammar{
		Tag:    "espn",
		Domain: "espn.com",
		Origin: "https://www.espn.com",
		Shapes: []Shape{
			{
				// https://www.espn.com/watch/player/_/id/<uuid>
				Platform: PlatformESPNWatch,
				Path:     "/watch/player/_/id/{id}",
				Room:     []string{"watch", "{id}"},
				Fields:   []Field{{Name: "id", Charset: `[A-Za-z0-9-]+`}},
				Label: func(f Fields) string {
					return fmt.Sprintf("ESPN Watch stream %s", f["id"])
				},
			},
			{
				// https://www.espn.com/watch/player/_/eventId/<digits>
				Platform: PlatformESPN,
				Path:     "/watch/player/_/eventId/{id}",
				Room:     []string{"event", "{id}"},
				Fields:   []Field{{Name: "id", Charset: `[0-9]+`}},
				Label: func(f Fields) string {
					return fmt.Sprintf("ESPN event %s", f["id"])
				},
			},
			{
				// https://www.espn.com/nfl/game/_/gameId/<digits>
				Platform: PlatformESPN,
				Path:     "/{league}/game/_/gameId/{id}",
				Room:     []string{"{league}", "{id}"},
				Fields: []Field{
					{Name: "league", Charset: `[A-Za-z]+`, Lower: true},
					{Name: "id", Charset: `[0-9]+`},
				},
				Label: func(f Fields) string {
					return fmt.Sprintf("%s game %s", strings.ToUpper(f["league"]), f["id"])
				},
			},
		},
	}
}
