package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Nunți", "nunti"},
		{"Botez Ștefan & Ioana", "botez-stefan-ioana"},
		{"  Portrete   de familie  ", "portrete-de-familie"},
		{"Evenimente_2024 -- Brașov", "evenimente-2024-brasov"},
		{"Café Crème", "cafe-creme"},
		{"!!!", ""},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestUniqueSlug(t *testing.T) {
	existing := map[string]bool{"nunta": true, "nunta-2": true}
	got, err := UniqueSlug("nunta", func(s string) (bool, error) { return existing[s], nil })
	if err != nil {
		t.Fatalf("UniqueSlug: %v", err)
	}
	if got != "nunta-3" {
		t.Errorf("UniqueSlug = %q, want nunta-3", got)
	}

	boom := errors.New("db down")
	if _, err := UniqueSlug("x", func(string) (bool, error) { return false, boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("ăîșțâ", 3); got != "ăîș" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("Truncate = %q", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	html := RenderMarkdown("O zi **frumoasă**.\nLa mare.")
	if !strings.Contains(html, "<strong>frumoasă</strong>") || !strings.Contains(html, "<br />") {
		t.Errorf("RenderMarkdown = %q", html)
	}
	if RenderMarkdown("   ") != "" {
		t.Error("blank input should render empty")
	}
	if strings.Contains(RenderMarkdown("<script>alert(1)</script>"), "<script>") {
		t.Error("raw html should not pass through")
	}
}
