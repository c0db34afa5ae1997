package observe

import (
	"fmt"
	"strings"

	"github.com/jk2pr/GoGit-KMP/pkg/config"
	"github.com/jk2pr/GoGit-KMP/pkg/errors"
)

// Level is the logging verbosity, ordered from least to most detail.
type Level int

const (
	LevelNone    Level = iota // nothing
	LevelBasic                // status codes
	LevelVerbose              // method, URL and bodies
)

// ParseLevel converts a configured level name
func ParseLevel(s string) (Level, error) {
	switch config.LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case config.LogLevelNone:
		return LevelNone, nil
	case config.LogLevelBasic, "":
		return LevelBasic, nil
	case config.LogLevelVerbose:
		return LevelVerbose, nil
	}
	return LevelNone, errors.WrapError(fmt.Errorf("unknown log level: %q", s), errors.ErrConfiguration, "parse log level")
}

func (l Level) String() string {
	switch l {
	case LevelNone:
		return string(config.LogLevelNone)
	case LevelBasic:
		return string(config.LogLevelBasic)
	case LevelVerbose:
		return string(config.LogLevelVerbose)
	}
	return fmt.Sprintf("Level(%d)", int(l))
}
