package json

import "fmt"

// JSONErrorCode 文档构建错误码
type JSONErrorCode int

const (
	ErrInvalidKey JSONErrorCode = iota + 1001
	ErrDuplicateKey
	ErrTypeMismatch
	ErrOverflow
)

func (c JSONErrorCode) String() string {
	switch c {
	case ErrInvalidKey:
		return "invalid key"
	case ErrDuplicateKey:
		return "duplicate key"
	case ErrTypeMismatch:
		return "type mismatch"
	case ErrOverflow:
		return "overflow"
	default:
		return fmt.Sprintf("code %d", int(c))
	}
}

// JSONError is returned when a value cannot be placed into a document.
// Key names the object member being written, if any.
type JSONError struct {
	Code    JSONErrorCode
	Key     string
	Message string
}

func (e *JSONError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("json %s at %q: %s", e.Code, e.Key, e.Message)
	}
	return fmt.Sprintf("json %s: %s", e.Code, e.Message)
}

// NewTypeError reports a Go value with no JSON form.
func NewTypeError(key string, value any) *JSONError {
	return &JSONError{Code: ErrTypeMismatch, Key: key, Message: fmt.Sprintf("unsupported value type %T", value)}
}

// NewKeyError reports an unusable member name.
func NewKeyError(key string) *JSONError {
	return &JSONError{Code: ErrInvalidKey, Message: fmt.Sprintf("invalid object key: %q", key)}
}

// NewDuplicateKeyError reports a member written twice.
func NewDuplicateKeyError(key string) *JSONError {
	return &JSONError{Code: ErrDuplicateKey, Key: key, Message: "already set"}
}

// NewOverflowError reports a number JSON cannot represent (NaN, ±Inf).
func NewOverflowError(key string, value float64) *JSONError {
	return &JSONError{Code: ErrOverflow, Key: key, Message: fmt.Sprintf("number %v has no JSON representation", value)}
}
