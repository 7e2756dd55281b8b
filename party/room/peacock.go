package room

import "fmt"

// Peacock live channels: https://www.peacocktv.com/watch/playback/live/<id>
func peacockGrammar() Grammar {
	return Grammar{
		Tag:    "peacock",
		Domain: "peacocktv.com",
		Origin: "https://www.peacocktv.com",
		Shapes: []Shape{
			{
				Platform: PlatformPeacock,
				Path:     "/watch/playback/live/{id}",
				Room:     []string{"live", "{id}"},
				Fields:   []Field{{Name: "id", Charset: `[A-Za-z0-9]+`}},
				Label: func(f Fields) string {
					return fmt.Sprintf("Peacock live channel %s", f["id"])
				},
			},
		},
	}
}
