package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"prompt-feeder/internal/model"
)

func TestBuiltinCatalogMatchesKnownTargets(t *testing.T) {
	cat := BuiltinCatalog()

	leo, err := cat.Resolve("Leonardo")
	if err != nil {
		t.Fatalf("resolve leonardo: %v", err)
	}
	if leo.BaseDelay != 40*time.Second || leo.Jitter != 15*time.Second {
		t.Fatalf("leonardo timing mismatch: base=%s jitter=%s", leo.BaseDelay, leo.Jitter)
	}
	if got := leo.Format("a cat"); got != "a cat" {
		t.Fatalf("leonardo format mismatch: %q", got)
	}

	oai, err := cat.Resolve("openai")
	if err != nil {
		t.Fatalf("resolve openai: %v", err)
	}
	if !oai.Refresh || oai.SettleDelay != 10*time.Second {
		t.Fatalf("openai refresh settings mismatch: %+v", oai)
	}
	if got := oai.Format("a cat"); got != "create image: a cat 16:9" {
		t.Fatalf("openai format mismatch: %q", got)
	}
	for _, p := range cat.List() {
		if err := ValidateProfile(p); err != nil {
			t.Fatalf("builtin %s invalid: %v", p.Name, err)
		}
	}
}

func TestResolveUnknownProfileIsConfigError(t *testing.T) {
	_, err := BuiltinCatalog().Resolve("midjourney")
	cfgErr, ok := err.(*model.ConfigError)
	if !ok {
		t.Fatalf("expected *model.ConfigError, got %T (%v)", err, err)
	}
	if cfgErr.Field != "profile" {
		t.Fatalf("field mismatch: %q", cfgErr.Field)
	}
}

func TestLoadCatalogOverlaysFileEntries(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "profiles.yaml")
	content := `profiles:
  midjourney:
    title: Midjourney
    base_delay_ms: 60000
    jitter_ms: 5000
    template: "/imagine {prompt}"
  openai:
    base_delay_ms: 120000
    refresh: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write profiles: %v", err)
	}

	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if got, want := cat.Names(), []string{"leonardo", "midjourney", "openai"}; len(got) != len(want) || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("names mismatch: got %v want %v", got, want)
	}

	mj, _ := cat.Resolve("midjourney")
	if mj.BaseDelay != time.Minute || mj.Jitter != 5*time.Second || mj.Format("x") != "/imagine x" {
		t.Fatalf("midjourney mismatch: %+v", mj)
	}

	oai, _ := cat.Resolve("openai")
	if oai.BaseDelay != 2*time.Minute {
		t.Fatalf("openai base delay override mismatch: %s", oai.BaseDelay)
	}
	if oai.Refresh {
		t.Fatalf("expected refresh to be turned off")
	}
	if oai.Jitter != 30*time.Second || oai.Template != "create image: {prompt} 16:9" {
		t.Fatalf("expected unset openai fields to be inherited: %+v", oai)
	}
}

func TestLoadCatalogRejectsInvalidTemplate(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "profiles.yaml")
	content := "profiles:\n  bad:\n    base_delay_ms: 5000\n    template: \"{prompt} and {prompt}\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write profiles: %v", err)
	}

	_, err := LoadCatalog(path)
	if _, ok := err.(*model.ConfigError); !ok {
		t.Fatalf("expected *model.ConfigError, got %T (%v)", err, err)
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	if _, ok := err.(*model.ConfigError); !ok {
		t.Fatalf("expected *model.ConfigError, got %T (%v)", err, err)
	}
}
