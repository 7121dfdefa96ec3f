package config

import "errors"

var (
	ErrConfiguration       = errors.New("configuration")
	ErrCantReadConfigFile  = errors.New("can't read config file")
	ErrCantParseConfigFile = errors.New("can't parse config file")
)
