package room

import "fmt"

// Prime Video titles: https://www.amazon.com/gp/video/detail/<asin>
func primeGrammar() Grammar {
	return Grammar{
		Tag:    "prime",
		Domain: "amazon.com",
		Origin: "https://www.amazon.com",
		Shapes: []Shape{
			{
				Platform: PlatformPrime,
				Path:     "/gp/video/detail/{id}",
				Room:     []string{"{id}"},
				Fields:   []Field{{Name: "id", Charset: `[A-Za-z0-9]+`}},
				Label: func(f Fields) string {
					return fmt.Sprintf("Prime Video title %s", f["id"])
				},
			},
		},
	}
}
