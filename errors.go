package framecast

import "errors"

// Sentinel errors for orchestrator operations. These enable reliable
// error classification using errors.Is().

var (
	// ErrInputNotFound indicates the input file or session directory does
	// not exist. Fatal; nothing is written.
	ErrInputNotFound = errors.New("input path not found")

	// ErrSizeMismatch indicates the reconstructed output length differs
	// from the recorded original size. Recoverable: the partial output is
	// written before this error is returned.
	ErrSizeMismatch = errors.New("reconstructed size does not match original")
)
