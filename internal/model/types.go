package model

import (
	"strings"
	"time"
)

// PromptPlaceholder is the single substitution point in a profile template.
const PromptPlaceholder = "{prompt}"

// Profile is the per-target timing and text configuration for one run.
type Profile struct {
	Name        string        `json:"name"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	BaseDelay   time.Duration `json:"base_delay"`
	Jitter      time.Duration `json:"jitter"`
	Template    string        `json:"template"`
	Refresh     bool          `json:"refresh,omitempty"`
	SettleDelay time.Duration `json:"settle_delay,omitempty"`
}

// Format substitutes prompt into the first placeholder of the template.
func (p Profile) Format(prompt string) string {
	if p.Template == "" {
		return prompt
	}
	return strings.Replace(p.Template, PromptPlaceholder, prompt, 1)
}

// WithBaseDelay returns a copy of p with its base delay replaced.
func (p Profile) WithBaseDelay(d time.Duration) Profile {
	out := p
	out.BaseDelay = d
	return out
}
