package virtual

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kasuganosora/tablerow/pkg/json"
	"github.com/kasuganosora/tablerow/pkg/monitor"
	"github.com/kasuganosora/tablerow/pkg/resource/domain"
	"github.com/kasuganosora/tablerow/pkg/tablerow"
)

// ErrCursorNotOpen is returned when a cursor is read before Open or after Close.
var ErrCursorNotOpen = errors.New("cursor is not open")

// ErrCursorEOF is returned when a cursor positioned past the last row is read.
var ErrCursorEOF = errors.New("cursor is past the last row")

// CursorOption configures a Cursor
type CursorOption func(*Cursor)

// WithMetrics records deliveries and row errors into m
func WithMetrics(m *monitor.MetricsCollector) CursorOption {
	return func(c *Cursor) { c.metrics = m }
}

// WithRowIDBase sets the id given to the first row that has no explicit id.
// Later rows count up from it.
func WithRowIDBase(base int64) CursorOption {
	return func(c *Cursor) { c.rowIDBase = base }
}

// Cursor walks the rows of one scan of a virtual table. It is the engine side
// of the row contract: the engine advances with Next and reads the current
// row through RowID and Column.
//
// A Cursor is not safe for concurrent use.
type Cursor struct {
	id        string
	table     VirtualTable
	rows      []tablerow.TableRow
	pos       int
	open      bool
	rowIDBase int64
	metrics   *monitor.MetricsCollector
}

// NewCursor creates a closed cursor over table
func NewCursor(table VirtualTable, opts ...CursorOption) *Cursor {
	c := &Cursor{
		id:        uuid.NewString(),
		table:     table,
		rowIDBase: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the cursor's correlation id
func (c *Cursor) ID() string {
	return c.id
}

// Table returns the table being scanned
func (c *Cursor) Table() VirtualTable {
	return c.table
}

// Open generates the table's rows and positions the cursor on the first one.
// Opening an open cursor restarts the scan.
func (c *Cursor) Open(ctx context.Context) error {
	rows, err := c.table.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate rows for table %s: %w", c.table.GetName(), err)
	}
	c.rows = rows
	c.pos = 0
	c.open = true

	if c.metrics != nil {
		c.metrics.RecordRows(c.table.GetName(), int64(len(rows)))
	}
	slog.Debug("cursor opened", "cursor", c.id, "table", c.table.GetName(), "rows", len(rows))
	return nil
}

// Eof reports whether the cursor is past the last row
func (c *Cursor) Eof() bool {
	return !c.open || c.pos >= len(c.rows)
}

// Next advances to the next row
func (c *Cursor) Next() error {
	if !c.open {
		return ErrCursorNotOpen
	}
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Position returns the zero-based index of the current row
func (c *Cursor) Position() int {
	return c.pos
}

func (c *Cursor) current() (tablerow.TableRow, error) {
	if !c.open {
		return nil, ErrCursorNotOpen
	}
	if c.pos >= len(c.rows) {
		return nil, ErrCursorEOF
	}
	return c.rows[c.pos], nil
}

// RowID returns the current row's id. Rows without an explicit id get their
// sequence number counted from the row id base.
func (c *Cursor) RowID() (int64, error) {
	row, err := c.current()
	if err != nil {
		return 0, err
	}
	id, err := row.RowID(c.rowIDBase + int64(c.pos))
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordRowIDError(c.table.GetName())
		}
		slog.Warn("row id unresolvable", "cursor", c.id, "table", c.table.GetName(), "row", c.pos, "error", err)
		return 0, fmt.Errorf("table %s row %d: %w", c.table.GetName(), c.pos, err)
	}
	return id, nil
}

// Column delivers column col of the current row into sink
func (c *Cursor) Column(col int, sink tablerow.ResultSink) error {
	row, err := c.current()
	if err != nil {
		return err
	}
	if c.metrics != nil {
		sink = &meteredSink{inner: sink, metrics: c.metrics, table: c.table.GetName()}
	}
	return row.Column(col, sink)
}

// Serialize writes the current row into obj
func (c *Cursor) Serialize(obj *json.Object) error {
	row, err := c.current()
	if err != nil {
		return err
	}
	if err := row.Serialize(obj); err != nil {
		if c.metrics != nil {
			c.metrics.RecordSerializeError(c.table.GetName())
		}
		return fmt.Errorf("table %s row %d: %w", c.table.GetName(), c.pos, err)
	}
	return nil
}

// Retain returns an independent copy of the current row that stays valid
// after the cursor moves on or closes.
func (c *Cursor) Retain() (tablerow.TableRow, error) {
	row, err := c.current()
	if err != nil {
		return nil, err
	}
	return row.Clone(), nil
}

// Close releases the generated rows
func (c *Cursor) Close() error {
	if c.open {
		slog.Debug("cursor closed", "cursor", c.id, "table", c.table.GetName(), "position", c.pos)
	}
	c.rows = nil
	c.pos = 0
	c.open = false
	return nil
}

// meteredSink forwards deliveries to inner and counts them.
type meteredSink struct {
	inner   tablerow.ResultSink
	metrics *monitor.MetricsCollector
	table   string
}

func (s *meteredSink) ResultInt(v int32) {
	s.metrics.RecordDelivery(tablerow.KindInt.String())
	s.inner.ResultInt(v)
}

func (s *meteredSink) ResultInt64(v int64) {
	s.metrics.RecordDelivery(tablerow.KindInt64.String())
	s.inner.ResultInt64(v)
}

func (s *meteredSink) ResultDouble(v float64) {
	s.metrics.RecordDelivery(tablerow.KindDouble.String())
	s.inner.ResultDouble(v)
}

func (s *meteredSink) ResultText(v string) {
	s.metrics.RecordDelivery(tablerow.KindText.String())
	s.inner.ResultText(v)
}

func (s *meteredSink) ResultBlob(v []byte) {
	s.metrics.RecordDelivery(tablerow.KindBlob.String())
	s.inner.ResultBlob(v)
}

func (s *meteredSink) ResultNull() {
	s.metrics.RecordDelivery(tablerow.KindNull.String())
	s.inner.ResultNull()
}

func (s *meteredSink) ObserveMismatch(col int, declared domain.ColumnType) {
	s.metrics.RecordNullSubstitution(s.table)
	if obs, ok := s.inner.(tablerow.MismatchObserver); ok {
		obs.ObserveMismatch(col, declared)
	}
}
