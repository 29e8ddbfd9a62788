package config

import (
	"errors"
	"fmt"
)

// FieldError names the offending setting and why it was rejected.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func newFieldError(field, reason string) error {
	return FieldError{Field: field, Reason: reason}
}

func sourceField(idx int, field string) string {
	return fmt.Sprintf("sources[%d].%s", idx, field)
}

func (c *Config) Validate() error {
	var errs []error

	if c.Architecture == "" {
		errs = append(errs, newFieldError("architecture", "must not be empty"))
	}
	if c.ListsDir == "" {
		errs = append(errs, newFieldError("lists_dir", "must not be empty"))
	}
	if c.StatusFile == "" {
		errs = append(errs, newFieldError("status_file", "must not be empty"))
	}
	if c.MaxParallel <= 0 {
		errs = append(errs, newFieldError("max_parallel", "must be positive"))
	}
	if c.Retries < 0 {
		errs = append(errs, newFieldError("retries", "must not be negative"))
	}
	if c.DownloadLimit < 0 {
		errs = append(errs, newFieldError("dl_limit", "must not be negative"))
	}
	if c.PulseInterval < 0 {
		errs = append(errs, newFieldError("pulse_interval", "must not be negative"))
	}

	for i, s := range c.Sources {
		if s.URI == "" {
			errs = append(errs, newFieldError(sourceField(i, "uri"), "must not be empty"))
		}
		if len(s.Suites) == 0 {
			errs = append(errs, newFieldError(sourceField(i, "suites"), "at least one suite required"))
		}
		for _, suite := range s.Suites {
			if len(suite) > 0 && suite[len(suite)-1] != '/' && len(s.Components) == 0 {
				errs = append(errs, newFieldError(sourceField(i, "components"), "required for non-flat suite "+suite))
			}
		}
	}

	for i, p := range c.Pins {
		if p.Priority == 0 {
			errs = append(errs, newFieldError(fmt.Sprintf("pins[%d].priority", i), "must not be zero"))
		}
	}

	return errors.Join(errs...)
}
