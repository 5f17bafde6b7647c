// Package errors provides error types and handling for endpoint discovery.
package errors

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorType categorizes errors for handling decisions.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// Network represents network-related errors (DNS, connection).
	Network
	// Timeout represents timeout errors.
	Timeout
	// RateLimit represents rate limiting (429) errors.
	RateLimit
	// Auth represents authentication/authorization errors (401, 403).
	Auth
	// NotFound represents a remote source that does not exist (404).
	NotFound
	// ServerError represents 5xx errors.
	ServerError
	// FileSystem represents unreadable files or directories during the walk.
	FileSystem
	// TypedParse represents a malformed TypeScript source.
	TypedParse
	// UntypedParse represents a malformed JavaScript source.
	UntypedParse
	// Cancelled represents context cancellation.
	Cancelled
	// Config represents invalid configuration.
	Config
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case Network:
		return "network"
	case Timeout:
		return "timeout"
	case RateLimit:
		return "rate_limit"
	case Auth:
		return "auth"
	case NotFound:
		return "not_found"
	case ServerError:
		return "server_error"
	case FileSystem:
		return "filesystem"
	case TypedParse:
		return "typed_parse"
	case UntypedParse:
		return "untyped_parse"
	case Cancelled:
		return "cancelled"
	case Config:
		return "config"
	default:
		return "unknown"
	}
}

// IsRetryable returns whether errors of this type should be retried.
func (t ErrorType) IsRetryable() bool {
	switch t {
	case Network, Timeout, RateLimit, ServerError:
		return true
	default:
		return false
	}
}

// IsMaterialization reports whether the type is a transport or authentication
// failure raised while acquiring a remote source.
func (t ErrorType) IsMaterialization() bool {
	switch t {
	case Network, Timeout, RateLimit, Auth, NotFound, ServerError:
		return true
	default:
		return false
	}
}

// ScanError represents a categorized discovery error.
type ScanError struct {
	Type       ErrorType
	Path       string // file path or source locator
	Operation  string
	Message    string
	Cause      error
	StatusCode int
	Retryable  bool
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error during %s on %s: %s (caused by: %v)",
			e.Type.String(), e.Operation, e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s: %s",
		e.Type.String(), e.Operation, e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target.
func (e *ScanError) Is(target error) bool {
	t, ok := target.(*ScanError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewScanError creates a new ScanError.
func NewScanError(errType ErrorType, path, operation, message string, cause error) *ScanError {
	return &ScanError{
		Type:      errType,
		Path:      path,
		Operation: operation,
		Message:   message,
		Cause:     cause,
		Retryable: errType.IsRetryable(),
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(locator, operation string, cause error) *ScanError {
	return NewScanError(Network, locator, operation, "network failure", cause)
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(locator, operation string, cause error) *ScanError {
	return NewScanError(Timeout, locator, operation, "request timed out", cause)
}

// NewRateLimitError creates a rate limit error.
func NewRateLimitError(locator string, retryAfter int) *ScanError {
	err := NewScanError(RateLimit, locator, "request", fmt.Sprintf("rate limited, retry after %ds", retryAfter), nil)
	err.StatusCode = 429
	return err
}

// NewAuthError creates an authentication error.
func NewAuthError(locator string, statusCode int, message string) *ScanError {
	err := NewScanError(Auth, locator, "request", message, nil)
	err.StatusCode = statusCode
	err.Retryable = false
	return err
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(locator string) *ScanError {
	err := NewScanError(NotFound, locator, "request", "source not found", nil)
	err.StatusCode = 404
	err.Retryable = false
	return err
}

// NewServerError creates a server error.
func NewServerError(locator string, statusCode int, message string) *ScanError {
	err := NewScanError(ServerError, locator, "request", message, nil)
	err.StatusCode = statusCode
	return err
}

// NewFileSystemError creates a filesystem error.
func NewFileSystemError(path, operation string, cause error) *ScanError {
	return NewScanError(FileSystem, path, operation, "filesystem access failed", cause)
}

// NewTypedParseError creates a parse error for a TypeScript source.
func NewTypedParseError(path string, cause error) *ScanError {
	return NewScanError(TypedParse, path, "parse", "malformed typescript source", cause)
}

// NewUntypedParseError creates a parse error for a JavaScript source.
func NewUntypedParseError(path string, cause error) *ScanError {
	return NewScanError(UntypedParse, path, "parse", "malformed javascript source", cause)
}

// NewCancelledError creates a cancelled error.
func NewCancelledError(locator, operation string) *ScanError {
	err := NewScanError(Cancelled, locator, operation, "operation cancelled", nil)
	err.Retryable = false
	return err
}

// NewConfigError creates a configuration error.
func NewConfigError(field, message string) *ScanError {
	return NewScanError(Config, field, "validate", message, nil)
}

// Categorize determines the error type from a generic error.
func Categorize(err error, locator string) *ScanError {
	if err == nil {
		return nil
	}

	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr
	}

	if errors.Is(err, context_Canceled) || strings.Contains(err.Error(), "context canceled") {
		return NewCancelledError(locator, "request")
	}

	if isTimeout(err) {
		return NewTimeoutError(locator, "request", err)
	}

	if isNetworkError(err) {
		return NewNetworkError(locator, "request", err)
	}

	return NewScanError(Unknown, locator, "request", err.Error(), err)
}

// CategorizeHTTPStatus creates an error from HTTP status code.
func CategorizeHTTPStatus(statusCode int, locator string) *ScanError {
	switch {
	case statusCode == 401:
		return NewAuthError(locator, statusCode, "unauthorized")
	case statusCode == 403:
		return NewAuthError(locator, statusCode, "forbidden")
	case statusCode == 404:
		return NewNotFoundError(locator)
	case statusCode == 429:
		return NewRateLimitError(locator, 60)
	case statusCode >= 500:
		return NewServerError(locator, statusCode, fmt.Sprintf("server returned %d", statusCode))
	case statusCode >= 400:
		err := NewScanError(Unknown, locator, "request", fmt.Sprintf("client error %d", statusCode), nil)
		err.StatusCode = statusCode
		return err
	default:
		return nil
	}
}

// isTimeout checks if an error is a timeout.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "context deadline")
}

// isNetworkError checks if an error is network-related.
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "dial tcp")
}

// Sentinel errors for context (avoid import cycle).
var context_Canceled = errors.New("context canceled")

// IsRetryable checks if an error should be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Retryable
	}

	var tempErr interface{ Temporary() bool }
	if errors.As(err, &tempErr) && tempErr.Temporary() {
		return true
	}

	return isTimeout(err) || isNetworkError(err)
}

// IsAuthError checks if an error is authentication-related.
func IsAuthError(err error) bool {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Type == Auth
	}
	return false
}

// IsMaterializationError checks if an error was raised acquiring a remote source.
func IsMaterializationError(err error) bool {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Type.IsMaterialization()
	}
	return false
}

// GetStatusCode extracts the status code from an error.
func GetStatusCode(err error) int {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.StatusCode
	}
	return 0
}

// GetErrorType extracts the error type from an error.
func GetErrorType(err error) ErrorType {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Type
	}
	return Unknown
}
