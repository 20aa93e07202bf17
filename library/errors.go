package library

import "fmt"

// ConfigError reports an invalid or missing required option. It fails the
// whole call; nothing is retried internally.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid option %s: %s", e.Field, e.Reason)
}

// FingerprintError reports that reading a track's file failed and the
// metadata-only fallback key was used instead. The returned key is still
// usable; callers typically log the error and carry on.
type FingerprintError struct {
	Location string
	Err      error
}

func (e *FingerprintError) Error() string {
	return fmt.Sprintf("fingerprint %s: %v (metadata fallback used)", e.Location, e.Err)
}

func (e *FingerprintError) Unwrap() error { return e.Err }
