package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/moderation-service/internal/repositories"
	"github.com/SAP-F-2025/moderation-service/internal/validator"
)

// ErrorCode classifies every error a service returns; handlers map codes to
// HTTP statuses.
type ErrorCode string

const (
	CodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	CodePermissionDenied   ErrorCode = "PERMISSION_DENIED"
	CodeInvalidArgument    ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeFailedPrecondition ErrorCode = "FAILED_PRECONDITION"
	CodeInternal           ErrorCode = "INTERNAL"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func NewUnauthenticatedError() *ServiceError {
	return &ServiceError{Code: CodeUnauthenticated, Message: "caller identity required"}
}

func NewPermissionError(userID, resource, action, reason string) *ServiceError {
	return &ServiceError{
		Code:    CodePermissionDenied,
		Message: fmt.Sprintf("user %s may not %s %s: %s", userID, action, resource, reason),
	}
}

func NewValidationError(message string) *ServiceError {
	return &ServiceError{Code: CodeInvalidArgument, Message: message}
}

func NewNotFoundError(resource, id string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", resource, id)}
}

func NewPreconditionError(message string) *ServiceError {
	return &ServiceError{Code: CodeFailedPrecondition, Message: message}
}

func NewInternalError(message string, err error) *ServiceError {
	return &ServiceError{Code: CodeInternal, Message: message, Err: err}
}

// CodeOf extracts the classification of any error a service returned.
// Validation and not-found errors from lower layers are normalized; every
// unrecognized error is Internal.
func CodeOf(err error) ErrorCode {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return CodeInvalidArgument
	}
	if repositories.IsNotFoundError(err) {
		return CodeNotFound
	}
	return CodeInternal
}
