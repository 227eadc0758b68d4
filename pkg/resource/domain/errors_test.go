package domain

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// TestErrTableNotFound_Error 测试ErrTableNotFound的Error方法
func TestErrTableNotFound_Error(t *testing.T) {
	err := NewErrTableNotFound("processes")

	expected := "table processes not found"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}
}

func TestErrInvalidRowID_Error(t *testing.T) {
	err := NewErrInvalidRowID("abc", "not an integer")
	if !strings.Contains(err.Error(), `"abc"`) {
		t.Errorf("Expected error message to quote the value, got '%s'", err.Error())
	}
	if !strings.Contains(err.Error(), "not an integer") {
		t.Errorf("Expected error message to contain the reason")
	}
}

func TestErrSerialize_Unwrap(t *testing.T) {
	err := NewErrSerialize("pid", io.ErrShortWrite)

	if !errors.Is(err, io.ErrShortWrite) {
		t.Error("ErrSerialize should unwrap to its cause")
	}
	if err.Error() != "serialize column pid: short write" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if NewErrSerialize("", io.ErrShortWrite).Error() != "serialize row: short write" {
		t.Error("row-level serialize error should omit the column")
	}

	var target *ErrSerialize
	wrapped := errors.Join(errors.New("outer"), err)
	if !errors.As(wrapped, &target) || target.Column != "pid" {
		t.Error("errors.As should find ErrSerialize")
	}
}

func TestErrInvalidConfig_Error(t *testing.T) {
	err := NewErrInvalidConfig("log.level", "unknown level")
	expected := "invalid config for log.level: unknown level"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}
}
