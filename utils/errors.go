package utils

import (
	"github.com/pkg/errors"
)

// NewUnsupportedValueError is used when a configuration enum holds a value we cannot act on.
func NewUnsupportedValueError(field, value string, supported ...string) error {
	return errors.Errorf("unsupported %s %q, expected one of %q", field, value, supported)
}

// NewInvalidDimensionsError is used when a render surface cannot produce a usable frustum.
func NewInvalidDimensionsError(width, height int) error {
	return errors.Errorf("render surface must have positive dimensions, got %dx%d", width, height)
}
