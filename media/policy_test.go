package media

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPolicies(t *testing.T) {
	table := DefaultPolicies()
	want := map[EntityKind]Policy{
		KindAlbumCover:    {85, 1920, 1920},
		KindPhoto:         {88, 2400, 2400},
		KindCategoryCover: {85, 1920, 1920},
	}
	for kind, p := range want {
		got, err := table.For(kind)
		if err != nil {
			t.Fatalf("For(%s): %v", kind, err)
		}
		if got != p {
			t.Errorf("For(%s) = %+v, want %+v", kind, got, p)
		}
	}
	if _, err := table.For("banner"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func writePolicyFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadPoliciesOverride(t *testing.T) {
	path := writePolicyFile(t, "photo:\n  quality: 92\n  max_width: 3000\n  max_height: 2000\n")

	table, err := LoadPolicies(path)
	if err != nil {
		t.Fatalf("LoadPolicies: %v", err)
	}
	if got := table[KindPhoto]; got != (Policy{92, 3000, 2000}) {
		t.Errorf("photo policy = %+v", got)
	}
	if got := table[KindAlbumCover]; got != (Policy{85, 1920, 1920}) {
		t.Errorf("album cover policy should keep defaults, got %+v", got)
	}
}

func TestLoadPoliciesRejectsInvalid(t *testing.T) {
	bodies := []string{
		"photo:\n  quality: 0\n  max_width: 10\n  max_height: 10\n",
		"photo:\n  quality: 101\n  max_width: 10\n  max_height: 10\n",
		"photo:\n  quality: 80\n  max_width: 0\n  max_height: 10\n",
		"banner:\n  quality: 80\n  max_width: 10\n  max_height: 10\n",
		"photo: [",
	}
	for _, body := range bodies {
		if _, err := LoadPolicies(writePolicyFile(t, body)); err == nil {
			t.Errorf("expected error for %q", body)
		}
	}
}

func TestLoadPoliciesEmptyPath(t *testing.T) {
	table, err := LoadPolicies("")
	if err != nil {
		t.Fatalf("LoadPolicies: %v", err)
	}
	if len(table) != 3 {
		t.Errorf("len = %d, want 3", len(table))
	}
}
