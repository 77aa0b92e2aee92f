// Package table is the boundary between loosely-typed tabular input and the
// typed series the analysis packages work on.
package table

import (
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// Kind is the value type of a column.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	}
	return "unknown"
}

type column struct {
	kind    Kind
	numbers []float64
	strings []string
	times   []time.Time
}

// Frame is a set of equally long, named, typed columns.
type Frame struct {
	rows  int
	cols  map[string]*column
	names []string
}

func NewFrame() *Frame {
	return &Frame{rows: -1, cols: make(map[string]*column)}
}

// Len returns the number of rows, zero for an empty frame.
func (f *Frame) Len() int {
	if f.rows < 0 {
		return 0
	}
	return f.rows
}

// Columns returns column names in insertion order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.names...)
}

func (f *Frame) AddNumbers(name string, values []float64) error {
	return f.add(name, len(values), &column{kind: KindNumber, numbers: values})
}

func (f *Frame) AddStrings(name string, values []string) error {
	return f.add(name, len(values), &column{kind: KindString, strings: values})
}

func (f *Frame) AddTimes(name string, values []time.Time) error {
	return f.add(name, len(values), &column{kind: KindTime, times: values})
}

func (f *Frame) add(name string, n int, c *column) error {
	if name == "" {
		return domain.NewColumnError(name, domain.ErrInvalidValue, "empty column name")
	}
	if _, exists := f.cols[name]; exists {
		return domain.NewColumnError(name, domain.ErrInvalidValue, "column added twice")
	}
	if f.rows >= 0 && n != f.rows {
		return domain.NewColumnError(name, domain.ErrMismatchedLength, "has %d rows, frame has %d", n, f.rows)
	}
	f.rows = n
	f.cols[name] = c
	f.names = append(f.names, name)
	return nil
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

func (f *Frame) Numbers(name string) ([]float64, error) {
	c, err := f.get(name, KindNumber)
	if err != nil {
		return nil, err
	}
	return c.numbers, nil
}

func (f *Frame) Strings(name string) ([]string, error) {
	c, err := f.get(name, KindString)
	if err != nil {
		return nil, err
	}
	return c.strings, nil
}

func (f *Frame) Times(name string) ([]time.Time, error) {
	c, err := f.get(name, KindTime)
	if err != nil {
		return nil, err
	}
	return c.times, nil
}

func (f *Frame) get(name string, kind Kind) (*column, error) {
	c, ok := f.cols[name]
	if !ok {
		return nil, domain.NewColumnError(name, domain.ErrMissingColumn, "")
	}
	if c.kind != kind {
		return nil, domain.NewColumnError(name, domain.ErrInvalidValue, "expected %s column, got %s", kind, c.kind)
	}
	return c, nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame(%d rows, %d columns)", f.Len(), len(f.names))
}
