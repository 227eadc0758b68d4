package domain

import "fmt"

// 行抽象领域错误

// ErrTableNotFound 表不存在错误
type ErrTableNotFound struct {
	TableName string
}

func (e *ErrTableNotFound) Error() string {
	return fmt.Sprintf("table %s not found", e.TableName)
}

// ErrTableAlreadyExists table already exists error
type ErrTableAlreadyExists struct {
	TableName string
}

func (e *ErrTableAlreadyExists) Error() string {
	return fmt.Sprintf("table %s already exists", e.TableName)
}

// ErrInvalidRowID is returned when a row carries an explicit row id that
// cannot be resolved to a 64-bit integer. The accompanying id is meaningless.
type ErrInvalidRowID struct {
	Value  string
	Reason string
}

func (e *ErrInvalidRowID) Error() string {
	return fmt.Sprintf("invalid rowid %q: %s", e.Value, e.Reason)
}

// ErrSerialize 行序列化失败错误
type ErrSerialize struct {
	Column string
	Err    error
}

func (e *ErrSerialize) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("serialize row: %v", e.Err)
	}
	return fmt.Sprintf("serialize column %s: %v", e.Column, e.Err)
}

func (e *ErrSerialize) Unwrap() error {
	return e.Err
}

// ErrInvalidConfig 配置无效错误
type ErrInvalidConfig struct {
	ConfigKey string
	Message   string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config for %s: %s", e.ConfigKey, e.Message)
}

// 辅助函数

// NewErrTableNotFound 创建表不存在错误
func NewErrTableNotFound(tableName string) *ErrTableNotFound {
	return &ErrTableNotFound{TableName: tableName}
}

// NewErrTableAlreadyExists creates table already exists error
func NewErrTableAlreadyExists(tableName string) *ErrTableAlreadyExists {
	return &ErrTableAlreadyExists{TableName: tableName}
}

// NewErrInvalidRowID creates an invalid rowid error
func NewErrInvalidRowID(value, reason string) *ErrInvalidRowID {
	return &ErrInvalidRowID{Value: value, Reason: reason}
}

// NewErrSerialize 创建序列化错误
func NewErrSerialize(column string, err error) *ErrSerialize {
	return &ErrSerialize{Column: column, Err: err}
}

// NewErrInvalidConfig 创建配置无效错误
func NewErrInvalidConfig(configKey, message string) *ErrInvalidConfig {
	return &ErrInvalidConfig{ConfigKey: configKey, Message: message}
}
