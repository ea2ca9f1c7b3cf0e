// SPDX-License-Identifier: GPL-3.0-or-later

package metricparse

import (
	"errors"
	"fmt"
)

// ConfigurationError is a fatal, parse-time error in the metrics configuration.
type ConfigurationError struct {
	msg string
	err error
}

func (e *ConfigurationError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *ConfigurationError) Unwrap() error { return e.err }

// IsConfigurationError reports whether err or any error it wraps is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// ConfigErrorf returns a ConfigurationError with a formatted message.
func ConfigErrorf(format string, a ...any) error {
	return &ConfigurationError{msg: fmt.Sprintf(format, a...)}
}

func wrapConfigError(err error, format string, a ...any) error {
	return &ConfigurationError{msg: fmt.Sprintf(format, a...), err: err}
}
