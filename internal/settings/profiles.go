package settings

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"prompt-feeder/internal/model"
)

// profilesFile is the on-disk shape of a --profiles YAML file.
type profilesFile struct {
	Profiles map[string]profileEntry `yaml:"profiles"`
}

type profileEntry struct {
	Title         string `yaml:"title"`
	Description   string `yaml:"description"`
	BaseDelayMS   int64  `yaml:"base_delay_ms"`
	JitterMS      *int64 `yaml:"jitter_ms"`
	Template      string `yaml:"template"`
	Refresh       *bool  `yaml:"refresh"`
	SettleDelayMS *int64 `yaml:"settle_delay_ms"`
}

// Catalog is the set of profiles a run can pick from.
type Catalog struct {
	Source   string
	profiles map[string]model.Profile
}

func BuiltinCatalog() Catalog {
	return Catalog{Source: "builtin", profiles: builtinProfiles()}
}

// LoadCatalog returns the builtin profiles, overlaid with the entries of the
// YAML file at path when path is non-empty. A file entry named like a builtin
// inherits every field it leaves unset.
func LoadCatalog(path string) (Catalog, error) {
	cat := BuiltinCatalog()
	path = strings.TrimSpace(path)
	if path == "" {
		return cat, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Catalog{}, &model.ConfigError{Field: "profiles", Err: fmt.Errorf("file %s does not exist", path)}
		}
		return Catalog{}, fmt.Errorf("read profiles %s: %w", path, err)
	}
	var raw profilesFile
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return Catalog{}, &model.ConfigError{Field: "profiles", Err: fmt.Errorf("parse %s: %w", path, err)}
	}

	for rawName, entry := range raw.Profiles {
		name := normalizeProfileName(rawName)
		if name == "" {
			return Catalog{}, &model.ConfigError{Field: "profiles", Err: errors.New("profile name must not be empty")}
		}
		p, err := mergeProfile(name, cat.profiles[name], entry)
		if err != nil {
			return Catalog{}, &model.ConfigError{Field: "profiles." + name, Err: err}
		}
		cat.profiles[name] = p
	}
	cat.Source = path
	return cat, nil
}

func mergeProfile(name string, base model.Profile, entry profileEntry) (model.Profile, error) {
	p := base
	p.Name = name
	p.Title = firstNonEmpty(entry.Title, base.Title, name)
	p.Description = firstNonEmpty(entry.Description, base.Description)
	p.Template = firstNonEmpty(entry.Template, base.Template, model.PromptPlaceholder)

	if entry.BaseDelayMS != 0 {
		p.BaseDelay = time.Duration(entry.BaseDelayMS) * time.Millisecond
	}
	if entry.JitterMS != nil {
		p.Jitter = time.Duration(*entry.JitterMS) * time.Millisecond
	}
	if entry.Refresh != nil {
		p.Refresh = *entry.Refresh
	}
	if entry.SettleDelayMS != nil {
		p.SettleDelay = time.Duration(*entry.SettleDelayMS) * time.Millisecond
	}

	if err := ValidateProfile(p); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

// ValidateProfile checks the invariants every profile must hold.
func ValidateProfile(p model.Profile) error {
	if p.BaseDelay < MinBaseDelay {
		return fmt.Errorf("base delay must be >= %s, got %s", MinBaseDelay, p.BaseDelay)
	}
	if p.Jitter < 0 {
		return fmt.Errorf("jitter must be >= 0, got %s", p.Jitter)
	}
	if p.SettleDelay < 0 {
		return fmt.Errorf("settle delay must be >= 0, got %s", p.SettleDelay)
	}
	if n := strings.Count(p.Template, model.PromptPlaceholder); n != 1 {
		return fmt.Errorf("template must contain %s exactly once, found %d", model.PromptPlaceholder, n)
	}
	return nil
}

// Resolve returns the named profile, or a *model.ConfigError listing the
// known names.
func (c Catalog) Resolve(name string) (model.Profile, error) {
	key := normalizeProfileName(name)
	if p, ok := c.profiles[key]; ok {
		return p, nil
	}
	return model.Profile{}, &model.ConfigError{
		Field: "profile",
		Err:   fmt.Errorf("unknown target %q (available: %s)", name, strings.Join(c.Names(), ", ")),
	}
}

func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.profiles))
	for name := range c.profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c Catalog) List() []model.Profile {
	out := make([]model.Profile, 0, len(c.profiles))
	for _, name := range c.Names() {
		out = append(out, c.profiles[name])
	}
	return out
}

func normalizeProfileName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
