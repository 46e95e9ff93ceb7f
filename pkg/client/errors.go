package client

import (
	"errors"
	"fmt"
)

// Error codes returned by the driver.
const (
	CodeInvalidSession  = "invalid session id"
	CodeNoSuchElement   = "no such element"
	CodeNoSuchWindow    = "no such window"
	CodeInvalidArgument = "invalid argument"
	CodeUnsupported     = "unsupported operation"
	CodeSessionNotMade  = "session not created"
	CodeScriptError     = "javascript error"
	CodeUnknown         = "unknown error"
)

// Error is a WebDriver error answered by the driver.
type Error struct {
	Status     int    `json:"-"`
	Code       string `json:"error"`
	Message    string `json:"message"`
	Stacktrace string `json:"stacktrace"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("webdriver %d %s: %s", e.Status, e.Code, e.Message)
}

// IsCode reports whether err is a driver error with the given code.
func IsCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// protocolError reports whether the driver answered err itself. Such
// errors mean the driver is reachable and do not trip the breaker, except
// for unclassified server failures.
func protocolError(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code != CodeUnknown
}
