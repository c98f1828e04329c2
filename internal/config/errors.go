package config

import "errors"

// ErrConfigInvalid marks a rejected config per the spec's ConfigInvalid
// failure class (regex compile, numeric range, missing key).
var ErrConfigInvalid = errors.New("config invalid")
