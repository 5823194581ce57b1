package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveRunSettingsDefaults(t *testing.T) {
	leo, _ := BuiltinCatalog().Resolve("leonardo")

	out, err := ResolveRunSettings(leo, RunOverrides{})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if out.Profile.BaseDelay != 40*time.Second {
		t.Fatalf("base delay mismatch: %s", out.Profile.BaseDelay)
	}
	if out.SetupDelay != DefaultSetupDelay {
		t.Fatalf("setup delay mismatch: %s", out.SetupDelay)
	}
	if out.CheckpointEvery != DefaultCheckpointEvery {
		t.Fatalf("checkpoint mismatch: %d", out.CheckpointEvery)
	}
}

func TestResolveRunSettingsOverrides(t *testing.T) {
	leo, _ := BuiltinCatalog().Resolve("leonardo")
	setup := time.Duration(0)
	every := 0

	out, err := ResolveRunSettings(leo, RunOverrides{
		BaseDelay:       5 * time.Second,
		SetupDelay:      &setup,
		CheckpointEvery: &every,
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if out.Profile.BaseDelay != 5*time.Second {
		t.Fatalf("base delay mismatch: %s", out.Profile.BaseDelay)
	}
	if leo.BaseDelay != 40*time.Second {
		t.Fatalf("catalog profile must not be mutated")
	}
	if out.SetupDelay != 0 || out.CheckpointEvery != 0 {
		t.Fatalf("explicit zero overrides lost: %+v", out)
	}
}

func TestResolveRunSettingsRejectsShortBaseDelay(t *testing.T) {
	leo, _ := BuiltinCatalog().Resolve("leonardo")
	if _, err := ResolveRunSettings(leo, RunOverrides{BaseDelay: 500 * time.Millisecond}); err == nil {
		t.Fatalf("expected error for sub-second base delay")
	}
	negative := -time.Second
	if _, err := ResolveRunSettings(leo, RunOverrides{SetupDelay: &negative}); err == nil {
		t.Fatalf("expected error for negative setup delay")
	}
}

func TestDoctorReportsBacklog(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "prompts.txt")
	if err := os.WriteFile(path, []byte("1→a\n2→b\n"), 0o644); err != nil {
		t.Fatalf("write backlog: %v", err)
	}

	res, err := Doctor(DoctorOptions{BacklogPath: path})
	if err != nil {
		t.Fatalf("doctor failed: %v", err)
	}
	var dirCheck, backlogCheck *DoctorCheck
	for i := range res.Checks {
		switch res.Checks[i].Name {
		case "directory:backlog":
			dirCheck = &res.Checks[i]
		case "backlog:prompts.txt":
			backlogCheck = &res.Checks[i]
		}
	}
	if dirCheck == nil || !dirCheck.OK {
		t.Fatalf("expected writable backlog dir check, got %+v", res.Checks)
	}
	if backlogCheck == nil || !backlogCheck.OK || backlogCheck.Message != "sequence backlog, 2 pending" {
		t.Fatalf("backlog check mismatch: %+v", backlogCheck)
	}
}

func TestDoctorFlagsMissingBacklog(t *testing.T) {
	res, err := Doctor(DoctorOptions{BacklogPath: filepath.Join(t.TempDir(), "missing.csv")})
	if err != nil {
		t.Fatalf("doctor failed: %v", err)
	}
	if res.OK {
		t.Fatalf("expected doctor to fail for missing backlog")
	}
}
