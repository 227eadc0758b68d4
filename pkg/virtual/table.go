package virtual

import (
	"context"

	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/tablerow"
)

// VirtualTable represents a virtual table that generates rows dynamically.
// Virtual tables don't store persistent data; every scan calls Generate.
type VirtualTable interface {
	// GetName returns the table name
	GetName() string

	// GetSchema returns the table schema (column definitions). Column i of
	// every generated row corresponds to GetSchema()[i].
	GetSchema() []domain.ColumnInfo

	// Generate produces the rows of one scan. The caller owns the result.
	Generate(ctx context.Context) ([]tablerow.TableRow, error)
}

// VirtualTableProvider provides access to a collection of virtual tables
type VirtualTableProvider interface {
	// GetVirtualTable returns a virtual table by name
	// Returns error if table doesn't exist
	GetVirtualTable(name string) (VirtualTable, error)

	// ListVirtualTables returns all available virtual table names
	ListVirtualTables() []string

	// HasTable returns true if a virtual table with the given name exists
	HasTable(name string) bool
}
