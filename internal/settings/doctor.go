package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"prompt-feeder/internal/backlog"
	"prompt-feeder/internal/injector"
)

type DoctorOptions struct {
	BacklogPath string
}

type DoctorResult struct {
	OK     bool          `json:"ok"`
	Checks []DoctorCheck `json:"checks"`
}

type DoctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Doctor runs the preflight checks a desktop run depends on.
func Doctor(opts DoctorOptions) (DoctorResult, error) {
	checks := make([]DoctorCheck, 0, 4)

	clipOK := injector.ClipboardSupported()
	clipMsg := "clipboard backend available"
	if !clipOK {
		clipMsg = "no clipboard backend found (install xclip, xsel or wl-clipboard)"
	}
	checks = append(checks, DoctorCheck{Name: "dependency:clipboard", OK: clipOK, Message: clipMsg})

	name, path, found := injector.KeyToolStatus()
	checks = append(checks, DoctorCheck{
		Name:    "dependency:" + name,
		OK:      found,
		Message: dependencyMessage(found, path, name),
	})

	backlogPath := strings.TrimSpace(opts.BacklogPath)
	dir := "."
	if backlogPath != "" {
		dir = filepath.Dir(backlogPath)
	}
	dirOK, dirMsg := checkWritableDir(dir)
	checks = append(checks, DoctorCheck{Name: "directory:backlog", OK: dirOK, Message: dirMsg})

	if backlogPath != "" {
		st, err := backlog.Open(backlogPath, backlog.Options{}).Stats()
		c := DoctorCheck{Name: "backlog:" + filepath.Base(backlogPath)}
		if err != nil {
			c.Message = err.Error()
		} else {
			c.OK = true
			c.Message = fmt.Sprintf("%s backlog, %d pending", st.Kind, st.Pending)
		}
		checks = append(checks, c)
	}

	ok := true
	for _, c := range checks {
		if !c.OK {
			ok = false
			break
		}
	}
	return DoctorResult{OK: ok, Checks: checks}, nil
}

func dependencyMessage(ok bool, path, name string) string {
	if ok {
		return name + " found at " + path
	}
	return name + " not found on PATH"
}

func checkWritableDir(path string) (bool, string) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err.Error()
	}
	if !info.IsDir() {
		return false, path + " is not a directory"
	}
	f, err := os.CreateTemp(path, "prompt-feeder-check-*.tmp")
	if err != nil {
		return false, err.Error()
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return true, "writable"
}
