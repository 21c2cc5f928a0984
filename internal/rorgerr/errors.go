// Package rorgerr defines the ResultCode vocabulary and the error type the
// rest of Rorg uses to signal it. Every core error is a *rorgerr.Error;
// the RPC facade is the single place one gets translated back into a wire
// ResultCode (see ToResult).
package rorgerr

import (
	"errors"
	"fmt"
)

// ResultCode enumerates every outcome the RPC surface can report: the
// original implementation's result codes, plus Unimplemented, which
// DelayedAction.Wait reports for WaitForServiceHeartbeat.
type ResultCode int

const (
	OK ResultCode = iota
	Unknown
	ServiceNotFound
	ServiceAlreadyExist
	ServiceTypeNotSupported
	ServiceUnsupportedOptions
	Internal
	ServiceRequestNotExist
	InvalidServiceID
	ServiceNotActive
	Unimplemented
)

func (c ResultCode) String() string {
	switch c {
	case OK:
		return "OK"
	case ServiceNotFound:
		return "SERVICE_NOT_FOUND"
	case ServiceAlreadyExist:
		return "SERVICE_ALREADY_EXIST"
	case ServiceTypeNotSupported:
		return "SERVICE_TYPE_NOT_SUPPORTED"
	case ServiceUnsupportedOptions:
		return "SERVICE_UNSUPPORTED_OPTIONS"
	case Internal:
		return "INTERNAL"
	case ServiceRequestNotExist:
		return "SERVICE_REQUEST_NOT_EXIST"
	case InvalidServiceID:
		return "INVALID_SERVICE_ID"
	case ServiceNotActive:
		return "SERVICE_NOT_ACTIVE"
	case Unimplemented:
		return "UNIMPLEMENTED"
	default:
		return "UNKNOWN"
	}
}

// Error is the concrete error type every core package returns for
// expected, recoverable failures. It carries the ResultCode the RPC
// facade should report to the client.
type Error struct {
	Code    ResultCode
	Message string
	// Wrapped, if set, is the underlying error this Error was derived
	// from (e.g. an I/O failure folded into Internal).
	Wrapped error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return e.Message
}

// Unwrap allows errors.Is/errors.As to see through to the original cause.
func (e *Error) Unwrap() error { return e.Wrapped }

// New builds an Error with the given code and formatted message.
func New(code ResultCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap folds an arbitrary error into an Internal Error, preserving it via
// Unwrap. Used at the boundary with the runtime driver and the
// persistence layer, per the "unexpected runtime-driver or I/O exceptions
// wrap as INTERNAL" rule.
func Wrap(err error, format string, args ...interface{}) *Error {
	return &Error{Code: Internal, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

func ServiceNotFoundf(format string, args ...interface{}) *Error {
	return New(ServiceNotFound, format, args...)
}

func ServiceAlreadyExistf(format string, args ...interface{}) *Error {
	return New(ServiceAlreadyExist, format, args...)
}

func ServiceTypeNotSupportedf(format string, args ...interface{}) *Error {
	return New(ServiceTypeNotSupported, format, args...)
}

func ServiceUnsupportedOptionsf(format string, args ...interface{}) *Error {
	return New(ServiceUnsupportedOptions, format, args...)
}

func Internalf(format string, args ...interface{}) *Error {
	return New(Internal, format, args...)
}

func ServiceRequestNotExistf(format string, args ...interface{}) *Error {
	return New(ServiceRequestNotExist, format, args...)
}

func InvalidServiceIDf(format string, args ...interface{}) *Error {
	return New(InvalidServiceID, format, args...)
}

func ServiceNotActivef(format string, args ...interface{}) *Error {
	return New(ServiceNotActive, format, args...)
}

func Unimplementedf(format string, args ...interface{}) *Error {
	return New(Unimplemented, format, args...)
}

// ToResult translates any error into the (code, message) pair the RPC
// facade writes onto the wire. Non-*Error values are reported as
// INTERNAL, matching "unexpected ... exceptions wrap as INTERNAL".
func ToResult(err error) (ResultCode, string) {
	if err == nil {
		return OK, ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code, e.Message
	}
	return Internal, err.Error()
}
