package rules

import "errors"

var (
	// ErrRuleNotFound is returned by GetBySlug when no rule has the slug.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrStoreUnreachable wraps connectivity failures against the backing
	// store. Tool handlers treat it as fatal for the current call only.
	ErrStoreUnreachable = errors.New("rule store unreachable")

	// ErrMalformedSnapshot is returned when the local snapshot file cannot
	// be decoded or fails validation.
	ErrMalformedSnapshot = errors.New("malformed rules snapshot")
)
