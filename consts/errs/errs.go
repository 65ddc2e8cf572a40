package errs

import (
	"errors"
	"fmt"
)

type Errorf struct {
	Type      string
	Message   string
	Error     error
	ReturnRaw bool
}

// Kinds for Errorf.Type.
const (
	ErrInternal        = "INTERNAL_ERROR"
	ErrSessionRequired = "SESSION_REQUIRED"
)

// Validation & Input Errors
const (
	ErrInvalidInput  = "INVALID_INPUT"
	ErrMissingField  = "MISSING_FIELD"
	ErrInvalidFormat = "INVALID_FORMAT"
)

// Crypto Errors
const (
	ErrDerivationFailed = "KEY_DERIVATION_FAILED"
	ErrIntegrityFailed  = "INTEGRITY_CHECK_FAILED"
)

// File & Storage Errors
const (
	ErrStorageFailed = "STORAGE_OPERATION_FAILED"
	ErrChunkFailed   = "CHUNK_TRANSFER_FAILED"
)

// Custom Business Logic Errors
const (
	ErrDependencyFailed = "DEPENDENCY_FAILED"
	ErrStateConflict    = "STATE_CONFLICT"
)

// >>>
// Sentinels returned by the core packages. Callers match them with errors.Is.

var (
	ErrInvalidInputLength = errors.New("invalid input length")
	ErrMissingChunk       = errors.New("missing chunk")
	ErrInvalidChunkFormat = errors.New("invalid chunk format")
	ErrNoChunksFound      = errors.New("no chunks found")
	ErrMalformedTag       = errors.New("malformed tag")
	ErrKeyDerivation      = errors.New("key derivation failure")
	ErrNoSession          = errors.New("no active session")
	ErrIntegrity          = errors.New("integrity check failed")
	ErrFinalized          = errors.New("entropy pool already finalized")
	ErrUnknownRecipient   = errors.New("recipient has no public key")
)

// MissingChunkError carries the index of the chunk that was not found.
type MissingChunkError struct {
	Index int
}

func (e *MissingChunkError) Error() string {
	return fmt.Sprintf("missing chunk at index %d", e.Index)
}

func (e *MissingChunkError) Unwrap() error {
	return ErrMissingChunk
}

// Kind maps a core sentinel to the string kind used in Errorf.Type.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInputLength), errors.Is(err, ErrUnknownRecipient):
		return ErrInvalidInput
	case errors.Is(err, ErrMissingChunk), errors.Is(err, ErrInvalidChunkFormat), errors.Is(err, ErrNoChunksFound):
		return ErrChunkFailed
	case errors.Is(err, ErrMalformedTag):
		return ErrInvalidFormat
	case errors.Is(err, ErrKeyDerivation):
		return ErrDerivationFailed
	case errors.Is(err, ErrNoSession):
		return ErrSessionRequired
	case errors.Is(err, ErrIntegrity):
		return ErrIntegrityFailed
	case errors.Is(err, ErrFinalized):
		return ErrStateConflict
	default:
		return ErrInternal
	}
}

// Describe turns err into a line fit for the status bar, fallback when err
// carries nothing the user can act on.
func Describe(err error, fallback string) string {
	var missing *MissingChunkError
	switch {
	case errors.As(err, &missing):
		return fmt.Sprintf("Backup is incomplete, chunk %d is missing.", missing.Index)
	case errors.Is(err, ErrIntegrity):
		return "Backup failed its integrity check."
	case errors.Is(err, ErrInvalidChunkFormat), errors.Is(err, ErrNoChunksFound):
		return "Backup data is damaged or missing."
	case errors.Is(err, ErrMalformedTag):
		return "That tag is not valid."
	case errors.Is(err, ErrNoSession):
		return "Session closed. Log in again."
	case errors.Is(err, ErrFinalized):
		return "Entropy was already used. Start a new backup."
	case errors.Is(err, ErrUnknownRecipient):
		return "No plumcave user with that email."
	}
	return fallback
}
