package rorgerr

import (
	"errors"
	"testing"
)

func TestResultCodeStringWireFormat(t *testing.T) {
	cases := []struct {
		code ResultCode
		want string
	}{
		{OK, "OK"},
		{Unknown, "UNKNOWN"},
		{ServiceNotFound, "SERVICE_NOT_FOUND"},
		{ServiceAlreadyExist, "SERVICE_ALREADY_EXIST"},
		{ServiceTypeNotSupported, "SERVICE_TYPE_NOT_SUPPORTED"},
		{ServiceUnsupportedOptions, "SERVICE_UNSUPPORTED_OPTIONS"},
		{Internal, "INTERNAL"},
		{ServiceRequestNotExist, "SERVICE_REQUEST_NOT_EXIST"},
		{InvalidServiceID, "INVALID_SERVICE_ID"},
		{ServiceNotActive, "SERVICE_NOT_ACTIVE"},
		{Unimplemented, "UNIMPLEMENTED"},
		{ResultCode(999), "UNKNOWN"},
	}
	for _, c := range cases {
		if got := c.code.String(); got != c.want {
			t.Errorf("ResultCode(%d).String() = %q, want %q", c.code, got, c.want)
		}
	}
}

func TestConstructorsSetCodeAndFormattedMessage(t *testing.T) {
	err := ServiceNotFoundf("no service %q", "base:roscore")
	if err.Code != ServiceNotFound {
		t.Errorf("expected code ServiceNotFound, got %v", err.Code)
	}
	if want := `no service "base:roscore"`; err.Message != want {
		t.Errorf("expected message %q, got %q", want, err.Message)
	}
	if err.Error() != err.Message {
		t.Errorf("Error() should return Message when set, got %q", err.Error())
	}
}

func TestErrorStringFallsBackToCodeWhenMessageEmpty(t *testing.T) {
	err := &Error{Code: ServiceNotActive}
	if got := err.Error(); got != "SERVICE_NOT_ACTIVE" {
		t.Errorf("expected Error() to fall back to the code's wire string, got %q", got)
	}
}

func TestWrapPreservesCauseViaUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, "writing state to %s", "/tmp/RorgStorage")
	if err.Code != Internal {
		t.Errorf("Wrap should always set Internal, got %v", err.Code)
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to see through Wrap to the original cause")
	}
}

func TestToResultTranslatesKnownAndUnknownErrors(t *testing.T) {
	if code, msg := ToResult(nil); code != OK || msg != "" {
		t.Errorf("ToResult(nil) = (%v, %q), want (OK, \"\")", code, msg)
	}

	known := ServiceAlreadyExistf("already have %q", "base:roscore")
	if code, msg := ToResult(known); code != ServiceAlreadyExist || msg != known.Message {
		t.Errorf("ToResult(known) = (%v, %q), want (%v, %q)", code, msg, ServiceAlreadyExist, known.Message)
	}

	plain := errors.New("boom")
	if code, msg := ToResult(plain); code != Internal || msg != "boom" {
		t.Errorf("ToResult(plain) = (%v, %q), want (Internal, \"boom\")", code, msg)
	}
}

func TestEveryConstructorProducesItsNamedCode(t *testing.T) {
	cases := []struct {
		name string
		err  *Error
		want ResultCode
	}{
		{"ServiceNotFoundf", ServiceNotFoundf("x"), ServiceNotFound},
		{"ServiceAlreadyExistf", ServiceAlreadyExistf("x"), ServiceAlreadyExist},
		{"ServiceTypeNotSupportedf", ServiceTypeNotSupportedf("x"), ServiceTypeNotSupported},
		{"ServiceUnsupportedOptionsf", ServiceUnsupportedOptionsf("x"), ServiceUnsupportedOptions},
		{"Internalf", Internalf("x"), Internal},
		{"ServiceRequestNotExistf", ServiceRequestNotExistf("x"), ServiceRequestNotExist},
		{"InvalidServiceIDf", InvalidServiceIDf("x"), InvalidServiceID},
		{"ServiceNotActivef", ServiceNotActivef("x"), ServiceNotActive},
		{"Unimplementedf", Unimplementedf("x"), Unimplemented},
	}
	for _, c := range cases {
		if c.err.Code != c.want {
			t.Errorf("%s: expected code %v, got %v", c.name, c.want, c.err.Code)
		}
	}
}
