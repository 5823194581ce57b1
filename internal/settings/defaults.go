package settings

import (
	"time"

	"prompt-feeder/internal/model"
)

const (
	DefaultProfileName     = "leonardo"
	DefaultSetupDelay      = 10 * time.Second
	DefaultCheckpointEvery = 8
	MinBaseDelay           = time.Second

	InjectorDesktop = "desktop"
	InjectorBrowser = "browser"
	DefaultInjector = InjectorDesktop
)

func builtinProfiles() map[string]model.Profile {
	return map[string]model.Profile{
		"leonardo": {
			Name:        "leonardo",
			Title:       "Leonardo.ai",
			Description: "Image generation prompt box; submits on Enter.",
			BaseDelay:   40 * time.Second,
			Jitter:      15 * time.Second,
			Template:    model.PromptPlaceholder,
		},
		"openai": {
			Name:        "openai",
			Title:       "ChatGPT image",
			Description: "Chat composer; the page is reloaded between prompts.",
			BaseDelay:   240 * time.Second,
			Jitter:      30 * time.Second,
			Template:    "create image: " + model.PromptPlaceholder + " 16:9",
			Refresh:     true,
			SettleDelay: 10 * time.Second,
		},
	}
}
