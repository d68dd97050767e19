// Package apperrors defines the error taxonomy shared by the verification
// core and the HTTP boundary. Workflow functions return one of these kinds;
// the Fiber error handler maps them to status codes.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks missing or malformed request fields.
	ErrValidation = errors.New("validation failed")
	// ErrSessionNotFound marks lookups of unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoHoldings marks a wallet with zero direct and staked holdings.
	ErrNoHoldings = errors.New("no holdings found")
	// ErrChainQuery marks transient chain capability failures.
	ErrChainQuery = errors.New("chain query failed")
	// ErrChainTimeout marks a chain query that exceeded its deadline.
	ErrChainTimeout = errors.New("chain query timed out")
	// ErrInternal marks unexpected failures.
	ErrInternal = errors.New("internal error")
)

// ValidationError describes a user-correctable request problem.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: is required", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a named field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RequiredError creates a validation error for a missing field.
func RequiredError(field string) error {
	return &ValidationError{Field: field}
}

// SessionNotFoundError carries the id that failed to resolve.
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.SessionID)
}

func (e *SessionNotFoundError) Unwrap() error { return ErrSessionNotFound }

func NewSessionNotFoundError(sessionID string) error {
	return &SessionNotFoundError{SessionID: sessionID}
}

// NoHoldingsError is the deliberate reject for empty wallets. It carries both
// balance components for diagnostics.
type NoHoldingsError struct {
	Address      string
	NFTBalance   int
	StakedTokens int
}

func (e *NoHoldingsError) Error() string {
	return fmt.Sprintf("no holdings found for %s (balance=%d, staked=%d)",
		e.Address, e.NFTBalance, e.StakedTokens)
}

func (e *NoHoldingsError) Unwrap() error { return ErrNoHoldings }

func NewNoHoldingsError(address string, nftBalance, stakedTokens int) error {
	return &NoHoldingsError{Address: address, NFTBalance: nftBalance, StakedTokens: stakedTokens}
}

// ChainQueryError wraps an underlying chain capability failure.
type ChainQueryError struct {
	Op    string
	Cause error
}

func (e *ChainQueryError) Error() string {
	return fmt.Sprintf("chain query %s failed: %v", e.Op, e.Cause)
}

func (e *ChainQueryError) Unwrap() error { return ErrChainQuery }

func NewChainQueryError(op string, cause error) error {
	return &ChainQueryError{Op: op, Cause: cause}
}

// ChainTimeoutError marks a query cut off by its deadline.
type ChainTimeoutError struct {
	Op string
}

func (e *ChainTimeoutError) Error() string {
	return fmt.Sprintf("chain query %s timed out", e.Op)
}

func (e *ChainTimeoutError) Unwrap() error { return ErrChainTimeout }

func NewChainTimeoutError(op string) error {
	return &ChainTimeoutError{Op: op}
}

func IsValidation(err error) bool      { return errors.Is(err, ErrValidation) }
func IsSessionNotFound(err error) bool { return errors.Is(err, ErrSessionNotFound) }
func IsNoHoldings(err error) bool      { return errors.Is(err, ErrNoHoldings) }
func IsChainQuery(err error) bool      { return errors.Is(err, ErrChainQuery) }
func IsChainTimeout(err error) bool    { return errors.Is(err, ErrChainTimeout) }
