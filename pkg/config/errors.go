package config

import (
	"github.com/eventpass/companion-sdk/pkg/util/errors"
)

// config errors
var (
	ErrBadConfig = errors.Newf(1401, "error with config %s, please set and/or check its value")
)
