package logger

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Level is a system log severity. Lower values are more severe; a threshold
// emits its own level and every level below it.
type Level int8

const (
	LevelFatal Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

var levelNames = [...]string{"fatal", "error", "warn", "info", "debug"}

func (l Level) String() string {
	if l < LevelFatal || l > LevelDebug {
		return fmt.Sprintf("level(%d)", int8(l))
	}
	return levelNames[l]
}

// Enabled reports whether an entry at l passes the threshold.
func (l Level) Enabled(threshold Level) bool {
	return l <= threshold
}

// ParseLevel parses one of fatal, error, warn, info or debug.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return LevelDebug, fmt.Errorf("unknown log level %q", s)
}

// LevelNames lists the accepted level names, most severe first.
func LevelNames() []string {
	return levelNames[:]
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelFatal:
		return zerolog.FatalLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

// DefaultLevel is warn for production and debug everywhere else.
func DefaultLevel(environment string) Level {
	if environment == EnvProduction {
		return LevelWarn
	}
	return LevelDebug
}
