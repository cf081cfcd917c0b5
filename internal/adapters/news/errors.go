package news

import (
	"fmt"
)

// ConfigError reports a missing or invalid source setting. It is returned
// before any network activity and is never worth retrying.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("news config: %s: %s", e.Field, e.Reason)
}

// FetchError reports a transport failure or a non-2xx response. Callers may
// retry it with backoff; the fetcher itself never does.
type FetchError struct {
	Cause      error
	Source     string
	StatusCode int
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		if e.Cause != nil {
			return fmt.Sprintf("%s fetch: HTTP %d: %v", e.Source, e.StatusCode, e.Cause)
		}
		return fmt.Sprintf("%s fetch: HTTP %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("%s fetch: %v", e.Source, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ParseError reports a payload that does not have the expected shape,
// which usually means the upstream schema changed.
type ParseError struct {
	Cause  error
	Source string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s parse: %s: %v", e.Source, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s parse: %s", e.Source, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
