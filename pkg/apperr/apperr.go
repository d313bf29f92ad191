package apperr

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// AppError is the standard error type for callers that surface facade errors
// over an RPC boundary.
type AppError struct {
	// Code is the canonical gRPC code for this error.
	Code codes.Code

	// Message is a user-facing error message.
	Message string

	// Err is the underlying wrapped error, for internal logging.
	Err error
}

// AppErrorTranslator is an interface that errors can implement to translate
// themselves into an AppError. This allows for decentralized error translation.
type AppErrorTranslator interface {
	ToAppError() *AppError
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap creates a new AppError that wraps an existing error.
func Wrap(code codes.Code, msg string, err error) *AppError {
	return &AppError{Code: code, Message: msg, Err: err}
}

// From converts any error into an AppError. Errors that know how to translate
// themselves are asked to, anything else becomes Internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var translator AppErrorTranslator
	if errors.As(err, &translator) {
		return translator.ToAppError()
	}

	return Internal(err)
}

// CodeOf returns the canonical code for err, codes.OK for nil.
func CodeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	return From(err).Code
}

// --- Pre-defined application Level errors  ---

func NotFound(resource, id string, err error) *AppError {
	return Wrap(codes.NotFound, fmt.Sprintf("%s '%s' not found", resource, id), err)
}

func AlreadyExists(resource, id string, err error) *AppError {
	return Wrap(codes.AlreadyExists, fmt.Sprintf("%s '%s' already exists", resource, id), err)
}

func PermissionDenied(msg string, err error) *AppError {
	return Wrap(codes.PermissionDenied, msg, err)
}

func FailedPrecondition(msg string, err error) *AppError {
	return Wrap(codes.FailedPrecondition, msg, err)
}

func Unavailable(msg string, err error) *AppError {
	return Wrap(codes.Unavailable, msg, err)
}

func InvalidArgument(msg string, err error) *AppError {
	return Wrap(codes.InvalidArgument, msg, err)
}

func Internal(err error) *AppError {
	// The public message for an internal error should always be generic.
	// The original error `err` is for internal logging.
	return Wrap(codes.Internal, "an unexpected internal error occurred", err)
}
