package settings

import (
	"fmt"
	"time"

	"prompt-feeder/internal/model"
)

// RunOverrides carries values given on the command line. Nil pointers mean
// "not given"; a zero BaseDelay keeps the profile's.
type RunOverrides struct {
	BaseDelay       time.Duration
	SetupDelay      *time.Duration
	CheckpointEvery *int
}

type RunSettings struct {
	Profile         model.Profile
	SetupDelay      time.Duration
	CheckpointEvery int
}

// ResolveRunSettings applies overrides on top of profile and package defaults.
func ResolveRunSettings(profile model.Profile, o RunOverrides) (RunSettings, error) {
	if o.BaseDelay != 0 && o.BaseDelay < MinBaseDelay {
		return RunSettings{}, &model.ConfigError{
			Field: "base delay",
			Err:   fmt.Errorf("must be >= %s, got %s", MinBaseDelay, o.BaseDelay),
		}
	}
	if o.SetupDelay != nil && *o.SetupDelay < 0 {
		return RunSettings{}, &model.ConfigError{
			Field: "setup delay",
			Err:   fmt.Errorf("must be >= 0, got %s", *o.SetupDelay),
		}
	}
	if o.CheckpointEvery != nil && *o.CheckpointEvery < 0 {
		return RunSettings{}, &model.ConfigError{
			Field: "checkpoint interval",
			Err:   fmt.Errorf("must be >= 0, got %d", *o.CheckpointEvery),
		}
	}

	out := RunSettings{
		Profile:         profile.WithBaseDelay(firstPositive(o.BaseDelay, profile.BaseDelay)),
		SetupDelay:      DefaultSetupDelay,
		CheckpointEvery: DefaultCheckpointEvery,
	}
	if o.SetupDelay != nil {
		out.SetupDelay = *o.SetupDelay
	}
	if o.CheckpointEvery != nil {
		out.CheckpointEvery = *o.CheckpointEvery
	}
	if err := ValidateProfile(out.Profile); err != nil {
		return RunSettings{}, &model.ConfigError{Field: "profile " + profile.Name, Err: err}
	}
	return out, nil
}

func firstPositive[T ~int | ~int64](values ...T) T {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
