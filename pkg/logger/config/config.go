package config

import (
	"errors"
	"time"
)

// level sama dengan zapcore.Level: -1 debug sampai 5 fatal
const (
	DEBUG_LEVEL = -1
	INFO_LEVEL  = 0
	WARN_LEVEL  = 1
	ERROR_LEVEL = 2
	FATAL_LEVEL = 5
)

var (
	ErrInvalidLevel      = errors.New("log level must be between -1 (debug) and 5 (fatal)")
	ErrInvalidTimeFormat = errors.New("log time format is empty")
)

type Configuration struct {
	Level      int
	TimeFormat string
}

func (c Configuration) Validate() error {
	if c.Level < DEBUG_LEVEL || c.Level > FATAL_LEVEL {
		return ErrInvalidLevel
	}
	if c.TimeFormat == "" {
		return ErrInvalidTimeFormat
	}
	// format yang tidak punya satu pun komponen layout tidak berguna
	if time.Unix(0, 0).UTC().Format(c.TimeFormat) == c.TimeFormat {
		return ErrInvalidTimeFormat
	}
	return nil
}
