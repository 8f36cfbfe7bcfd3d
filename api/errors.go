package api

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Application error codes.
const (
	ECONFLICT       = "conflict"
	EFORBIDDEN      = "forbidden"
	EINTERNAL       = "internal"
	EINVALID        = "invalid"
	ENOTFOUND       = "not_found"
	ENOTIMPLEMENTED = "not_implemented"
	EUNAUTHORIZED   = "unauthorized"
)

// Errorf returns an error carrying an application code.
func Errorf(code string, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

// Wrap attaches an application code to err. A nil err stays nil.
func Wrap(code string, err error, msg string) error {
	if err == nil {
		return nil
	}
	return oops.Code(code).Wrapf(err, "%s", msg)
}

// ErrorCode returns the application code of err, EINTERNAL when it has none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var oopsErr oops.OopsError
	if errors.As(err, &oopsErr) {
		if code, ok := oopsErr.Code().(string); ok && code != "" {
			return code
		}
	}

	return EINTERNAL
}

// IsCode reports whether err carries the given application code.
func IsCode(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}

// ErrorMessage returns the human readable message of err. Internal errors
// are not exposed.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if e := HTTPErrorFromErr(err); e != nil {
		return e.Err
	}
	if ErrorCode(err) == EINTERNAL {
		return "internal error"
	}
	return err.Error()
}

// ErrorData returns machine readable data attached to an HTTPError.
func ErrorData(err error) string {
	if e := HTTPErrorFromErr(err); e != nil {
		return e.Data
	}
	return ""
}

// ErrorDebugInfo returns the full error chain of internal errors for logging.
func ErrorDebugInfo(err error) string {
	if err == nil || ErrorCode(err) != EINTERNAL {
		return ""
	}
	return fmt.Sprintf("%+v", err)
}
