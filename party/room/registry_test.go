package room

import (
	"sync"
	"testing"
)

func testGrammar(tag string) Grammar {
	return Grammar{
		Tag:    tag,
		Domain: tag + ".test",
		Origin: "https://" + tag + ".test",
		Shapes: []Shape{{
			Platform: tag,
			Path:     "/v/{id}",
			Room:     []string{"{id}"},
			Fields:   []Field{{Name: "id", Charset: `[0-9]+`}},
			Label:    func(f Fields) string { return tag + " " + f["id"] },
		}},
	}
}

func TestRegister_Success(t *testing.T) {
	r := New()
	if err := r.Register(testGrammar("alpha")); err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}

	got, ok := r.Get("alpha")
	if !ok {
		t.Fatal("Get() returned false, want true")
	}
	if got.Domain != "alpha.test" {
		t.Errorf("Get() domain = %v, want alpha.test", got.Domain)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := New()
	if err := r.Register(testGrammar("alpha")); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := r.Register(testGrammar("alpha")); err == nil {
		t.Error("duplicate Register() error = nil, want error")
	}
}

func TestRegister_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *Grammar)
	}{
		{"empty tag", func(g *Grammar) { g.Tag = "" }},
		{"tag with hyphen", func(g *Grammar) { g.Tag = "a-b" }},
		{"uppercase tag", func(g *Grammar) { g.Tag = "Alpha" }},
		{"missing domain", func(g *Grammar) { g.Domain = "" }},
		{"relative origin", func(g *Grammar) { g.Origin = "/x" }},
		{"no shapes", func(g *Grammar) { g.Shapes = nil }},
		{"unknown path field", func(g *Grammar) { g.Shapes[0].Path = "/v/{other}" }},
		{"room field not in path", func(g *Grammar) { g.Shapes[0].Room = []string{"{other}"} }},
		{"captured field missing from room", func(g *Grammar) { g.Shapes[0].Room = []string{"v"} }},
		{"hyphenated literal", func(g *Grammar) { g.Shapes[0].Room = []string{"a-b", "{id}"} }},
		{"capturing charset", func(g *Grammar) { g.Shapes[0].Fields[0].Charset = `([0-9]+)` }},
		{"bad charset", func(g *Grammar) { g.Shapes[0].Fields[0].Charset = `[0-9` }},
		{"no label", func(g *Grammar) { g.Shapes[0].Label = nil }},
		{"relative path", func(g *Grammar) { g.Shapes[0].Path = "v/{id}" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGrammar("alpha")
			tt.mutate(&g)
			if err := New().Register(g); err == nil {
				t.Errorf("Register() error = nil, want error")
			}
		})
	}
}

func TestAll_PreservesOrder(t *testing.T) {
	r := New()
	for _, tag := range []string{"charlie", "alpha", "bravo"} {
		if err := r.Register(testGrammar(tag)); err != nil {
			t.Fatalf("Register(%s) error = %v", tag, err)
		}
	}

	tags := r.Tags()
	want := []string{"charlie", "alpha", "bravo"}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("Tags() = %v, want %v", tags, want)
		}
	}
	if len(r.All()) != 3 {
		t.Fatalf("All() len = %d, want 3", len(r.All()))
	}
}

func TestDefaultTags(t *testing.T) {
	tags := Default.Tags()
	want := []string{"peacock", "espn", "prime"}
	if len(tags) != len(want) {
		t.Fatalf("Default.Tags() = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("Default.Tags() = %v, want %v", tags, want)
		}
	}
}

func TestReset(t *testing.T) {
	r := NewDefault()
	r.Reset()
	if len(r.All()) != 0 {
		t.Fatal("Reset() left grammars behind")
	}
	if _, ok := r.Get("espn"); ok {
		t.Fatal("Get() after Reset() returned true")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.Register(testGrammar("g" + string(rune('a'+i))))
			_ = r.All()
			_, _ = r.Get("ga")
		}(i)
	}
	wg.Wait()

	if len(r.All()) != 10 {
		t.Fatalf("expected 10 grammars, got %d", len(r.All()))
	}
}
