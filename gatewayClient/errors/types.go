package errors

import (
	"fmt"
)

// ErrorCode represents different categories of errors
type ErrorCode string

const (
	// ErrCodeEncoding indicates malformed string input (non UTF-8, empty selector)
	ErrCodeEncoding ErrorCode = "ENCODING"

	// ErrCodeSizeMismatch indicates a buffer that does not match a fixed protocol width
	ErrCodeSizeMismatch ErrorCode = "SIZE_MISMATCH"

	// ErrCodeInvalidRecoveryID indicates a signature v outside {27,28}
	ErrCodeInvalidRecoveryID ErrorCode = "INVALID_RECOVERY_ID"

	// ErrCodeDerivationExhausted indicates no off-curve program address exists for the seeds
	ErrCodeDerivationExhausted ErrorCode = "DERIVATION_EXHAUSTED"

	// ErrCodeUpstream indicates a failure reported by the RPC or signing collaborator
	ErrCodeUpstream ErrorCode = "UPSTREAM"

	// ErrCodeValidation indicates input validation errors
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeConfig indicates configuration errors
	ErrCodeConfig ErrorCode = "CONFIG"

	// ErrCodeRPC indicates RPC-related errors
	ErrCodeRPC ErrorCode = "RPC"

	// ErrCodeNetwork indicates network-related errors
	ErrCodeNetwork ErrorCode = "NETWORK"

	// ErrCodeTimeout indicates timeout errors
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeDatabase indicates journal database errors
	ErrCodeDatabase ErrorCode = "DATABASE"

	// ErrCodeInternal indicates internal system errors
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Severity represents the severity level of an error
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// ChainError is the coded error returned across the gateway client.
type ChainError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Chain    string                 `json:"chain,omitempty"`
	Severity Severity               `json:"severity"`
	Cause    error                  `json:"-"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

// NewChainError creates a new ChainError
func NewChainError(code ErrorCode, chain, message string, cause error) *ChainError {
	return &ChainError{
		Code:     code,
		Message:  message,
		Chain:    chain,
		Severity: determineSeverity(code),
		Cause:    cause,
		Context:  make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *ChainError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Chain != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Chain, e.Code, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause
func (e *ChainError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *ChainError) WithContext(key string, value interface{}) *ChainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsRetryable reports whether a caller may retry the failed operation.
// Errors raised while constructing a transaction are final.
func (e *ChainError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeNetwork, ErrCodeRPC, ErrCodeTimeout:
		return true
	default:
		return false
	}
}

func determineSeverity(code ErrorCode) Severity {
	switch code {
	case ErrCodeDerivationExhausted, ErrCodeInternal:
		return SeverityCritical
	case ErrCodeInvalidRecoveryID, ErrCodeSizeMismatch, ErrCodeDatabase:
		return SeverityHigh
	case ErrCodeUpstream, ErrCodeNetwork, ErrCodeRPC, ErrCodeTimeout:
		return SeverityMedium
	case ErrCodeEncoding, ErrCodeValidation, ErrCodeConfig:
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// ErrorGroup collects independent errors, e.g. from config validation.
type ErrorGroup struct {
	Errors []error
}

// NewErrorGroup creates a new error group
func NewErrorGroup() *ErrorGroup {
	return &ErrorGroup{Errors: make([]error, 0)}
}

// Add adds an error to the group
func (eg *ErrorGroup) Add(err error) {
	if err != nil {
		eg.Errors = append(eg.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (eg *ErrorGroup) HasErrors() bool {
	return len(eg.Errors) > 0
}

// Error implements the error interface
func (eg *ErrorGroup) Error() string {
	switch len(eg.Errors) {
	case 0:
		return ""
	case 1:
		return eg.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors occurred: %v", len(eg.Errors), eg.Errors[0])
	}
}

// Common error constructors

// NewEncodingError creates an encoding error
func NewEncodingError(message string) *ChainError {
	return NewChainError(ErrCodeEncoding, "", message, nil)
}

// NewSizeMismatchError creates a size mismatch error for a named buffer.
func NewSizeMismatchError(field string, want, got int) *ChainError {
	return NewChainError(ErrCodeSizeMismatch, "", fmt.Sprintf("%s must be %d bytes, got %d", field, want, got), nil).
		WithContext("field", field).
		WithContext("want", want).
		WithContext("got", got)
}

// NewInvalidRecoveryIDError creates an invalid recovery id error
func NewInvalidRecoveryIDError(v byte) *ChainError {
	return NewChainError(ErrCodeInvalidRecoveryID, "", fmt.Sprintf("signature v must be 27 or 28, got %d", v), nil).
		WithContext("v", v)
}

// NewDerivationExhaustedError creates a derivation exhausted error
func NewDerivationExhaustedError(program string) *ChainError {
	return NewChainError(ErrCodeDerivationExhausted, "", "no off-curve program address for seeds", nil).
		WithContext("program", program)
}

// NewUpstreamError wraps an RPC or signer failure without interpreting it
func NewUpstreamError(operation string, cause error) *ChainError {
	return NewChainError(ErrCodeUpstream, "", operation, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *ChainError {
	return NewChainError(ErrCodeValidation, "", message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string) *ChainError {
	return NewChainError(ErrCodeConfig, "", message, nil)
}

// NewRPCError creates an RPC error
func NewRPCError(chain, message string, cause error) *ChainError {
	return NewChainError(ErrCodeRPC, chain, message, cause)
}

// NewDatabaseError creates a database error
func NewDatabaseError(message string, cause error) *ChainError {
	return NewChainError(ErrCodeDatabase, "", message, cause)
}
