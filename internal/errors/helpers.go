package errors

import "time"

// New creates a generic AppError with the supplied metadata.
func New(category ErrorCategory, code, message string, err error) *AppError {
	return &AppError{
		Code:      code,
		Category:  category,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// NewRecoverable creates an AppError flagged as recoverable.
func NewRecoverable(category ErrorCategory, code, message string, err error) *AppError {
	return New(category, code, message, err).WithRecoverable(true)
}

// SystemError creates a SYSTEM category error instance.
func SystemError(code, message string, err error) *AppError {
	return New(ErrCategorySystem, code, message, err)
}

// NetworkError creates a NETWORK category error instance.
func NetworkError(code, message string, err error) *AppError {
	return NewRecoverable(ErrCategoryNetwork, code, message, err)
}

// ConfigError creates a CONFIG category error instance.
func ConfigError(code, message string, err error) *AppError {
	return New(ErrCategoryConfig, code, message, err)
}

// ValidationError creates a VALIDATION category error instance.
func ValidationError(code, message string, err error) *AppError {
	return New(ErrCategoryValidation, code, message, err)
}

// DependencyError creates a DEPENDENCY category error instance.
func DependencyError(code, message string, err error) *AppError {
	return New(ErrCategoryDependency, code, message, err)
}

// DatabaseError creates a DATABASE category error instance.
func DatabaseError(code, message string, err error) *AppError {
	return New(ErrCategoryDatabase, code, message, err)
}

// NotFound reports a remote resource that does not exist at the requested URL.
func NotFound(url string, err error) *AppError {
	return NetworkError(CodeNotFound, "resource not found", err).WithField("url", url)
}

// MalformedSource reports a URL or coordinate that cannot be interpreted.
func MalformedSource(message, source string) *AppError {
	return ValidationError(CodeMalformedSource, message, nil).WithField("source", source)
}

// Integrity reports a file whose content hash does not match the expected value.
func Integrity(path, expected, actual string) *AppError {
	return New(ErrCategoryIntegrity, CodeIntegrity, "checksum mismatch", nil).
		WithFields(Metadata{
			"path":     path,
			"expected": expected,
			"actual":   actual,
		})
}

// MirrorTampered reports mirror-served metadata that failed hash verification.
func MirrorTampered(url string, err error) *AppError {
	return New(ErrCategoryIntegrity, CodeMirrorTampered, "mirror served data that failed verification", err).
		WithField("url", url)
}

// RuntimeInstall reports a runtime precondition that could not be satisfied.
func RuntimeInstall(message string, err error) *AppError {
	return DependencyError(CodeRuntimeInstall, message, err)
}

// Cancelled reports an operation stopped by its caller.
func Cancelled(err error) *AppError {
	return SystemError(CodeCancelled, "operation cancelled", err)
}
