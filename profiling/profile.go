package profiling

import (
	"github.com/pkg/errors"
	"github.com/pkg/profile"
)

// Stopper flushes a running profile to disk.
type Stopper interface {
	Stop()
}

type noop struct{}

func (noop) Stop() {}

// Start begins profiling for mode ("cpu" or "mem"); an empty mode
// profiles nothing. Profiles are written under dir.
func Start(mode, dir string) (Stopper, error) {
	opts := []func(*profile.Profile){
		profile.ProfilePath(dir),
		profile.NoShutdownHook,
		profile.Quiet,
	}

	switch mode {
	case "":
		return noop{}, nil
	case "cpu":
		opts = append(opts, profile.CPUProfile)
	case "mem":
		opts = append(opts, profile.MemProfile)
	default:
		return nil, errors.Errorf("unknown profile mode %q", mode)
	}

	return profile.Start(opts...), nil
}
