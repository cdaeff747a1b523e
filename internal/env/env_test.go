package env

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFileBasics(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	content := "# comment\n\nDISCORD_TOKEN=abc123\nQUOTED='with spaces'\nDQ=\"double\"\n  SPACED =  v  \nNOEQ\n=noval\n"
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := ParseFile(p)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	want := map[string]string{
		"DISCORD_TOKEN": "abc123",
		"QUOTED":        "with spaces",
		"DQ":            "double",
		"SPACED":        "v",
	}
	if len(m) != len(want) {
		t.Fatalf("got %d vars, want %d: %v", len(m), len(want), m)
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %q, want %q", k, m[k], v)
		}
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestMergeOverridesOSAndExpands(t *testing.T) {
	t.Setenv("GOJO_BASE", "/srv/bot")
	t.Setenv("GOJO_OVERRIDE_ME", "os-value")
	out := Merge(Var{
		"GOJO_OVERRIDE_ME": "file-value",
		"GOJO_DATA":        "${GOJO_BASE}/data",
	})
	got := make(map[string]string, len(out))
	for _, kv := range out {
		k, v, _ := strings.Cut(kv, "=")
		got[k] = v
	}
	if got["GOJO_OVERRIDE_ME"] != "file-value" {
		t.Errorf("override = %q, want file-value", got["GOJO_OVERRIDE_ME"])
	}
	if got["GOJO_DATA"] != "/srv/bot/data" {
		t.Errorf("expansion = %q, want /srv/bot/data", got["GOJO_DATA"])
	}
	if got["GOJO_BASE"] != "/srv/bot" {
		t.Errorf("base env lost: %q", got["GOJO_BASE"])
	}
}
