package api

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kasuganosora/tablerow/pkg/executor"
	"github.com/kasuganosora/tablerow/pkg/resource/domain"
)

// ErrorCode 错误码
type ErrorCode string

const (
	ErrCodeTableNotFound      ErrorCode = "TABLE_NOT_FOUND"
	ErrCodeTableAlreadyExists ErrorCode = "TABLE_ALREADY_EXISTS"
	ErrCodeQuery              ErrorCode = "QUERY_FAILED"
	ErrCodeRowID              ErrorCode = "INVALID_ROWID"
	ErrCodeSerialize          ErrorCode = "SERIALIZE_FAILED"
	ErrCodeInvalidParam       ErrorCode = "INVALID_PARAM"
	ErrCodeClosed             ErrorCode = "CLOSED"
	ErrCodeInternal           ErrorCode = "INTERNAL"
)

// Error is what DB methods return: a code callers can switch on, the
// failing operation, and the frames where the error entered the API.
type Error struct {
	Code    ErrorCode
	Message string
	Stack   []string // 调用堆栈
	Cause   error    // 原始错误
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StackTrace 返回调用堆栈
func (e *Error) StackTrace() []string {
	return e.Stack
}

// NewError 创建错误
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Stack: callers(3), Cause: cause}
}

// WrapError wraps err under code. An *Error already in the chain keeps its
// stack, so the frames always point at where the failure first surfaced.
func WrapError(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return &Error{Code: code, Message: message, Stack: apiErr.Stack, Cause: err}
	}
	return &Error{Code: code, Message: message, Stack: callers(3), Cause: err}
}

// Classify picks the code for an error coming out of the executor or a row.
// Anything it does not recognise is a query failure.
func Classify(err error) ErrorCode {
	var (
		notFound *domain.ErrTableNotFound
		exists   *domain.ErrTableAlreadyExists
		serr     *domain.ErrSerialize
		rerr     *domain.ErrInvalidRowID
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, executor.ErrClosed):
		return ErrCodeClosed
	case errors.As(err, &notFound):
		return ErrCodeTableNotFound
	case errors.As(err, &exists):
		return ErrCodeTableAlreadyExists
	case errors.As(err, &serr):
		return ErrCodeSerialize
	case errors.As(err, &rerr):
		return ErrCodeRowID
	default:
		return ErrCodeQuery
	}
}

// callers formats the stack above skip as "pkg.Func (file.go:line)".
func callers(skip int) []string {
	pc := make([]uintptr, 32)
	n := runtime.Callers(skip, pc)
	frames := runtime.CallersFrames(pc[:n])

	var stack []string
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			fn := frame.Function[strings.LastIndex(frame.Function, "/")+1:]
			stack = append(stack, fmt.Sprintf("  at %s (%s:%d)", fn, filepath.Base(frame.File), frame.Line))
		}
		if !more {
			return stack
		}
	}
}

// IsErrorCode reports whether any *Error in err's chain carries code.
func IsErrorCode(err error, code ErrorCode) bool {
	for err != nil {
		var apiErr *Error
		if !errors.As(err, &apiErr) {
			return false
		}
		if apiErr.Code == code {
			return true
		}
		err = apiErr.Cause
	}
	return false
}

// GetErrorCode returns the code of the outermost *Error in err's chain.
func GetErrorCode(err error) ErrorCode {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}
