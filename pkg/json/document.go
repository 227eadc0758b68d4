package json

import (
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Document is a JSON document under construction. Its root is always an
// object node; rows serialize themselves into it or into nested objects.
type Document struct {
	root *Object
}

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{root: NewObject()}
}

// Root returns the root object node
func (d *Document) Root() *Object {
	return d.root
}

// MarshalJSON encodes the document
func (d *Document) MarshalJSON() ([]byte, error) {
	return d.root.MarshalJSON()
}

// String returns the compact JSON encoding, or "" if encoding fails
func (d *Document) String() string {
	data, err := d.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(data)
}

// Object is an insertion-ordered JSON object node.
//
// Values are restricted to the JSON scalar kinds a row can produce
// (string, int64, float64, bool, nil) and nested *Object nodes.
type Object struct {
	fields *orderedmap.OrderedMap[string, any]
}

// NewObject creates an empty object node
func NewObject() *Object {
	return &Object{fields: orderedmap.New[string, any]()}
}

// Len returns the number of keys
func (o *Object) Len() int {
	return o.fields.Len()
}

// Keys returns the keys in insertion order
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.fields.Len())
	for pair := o.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Get returns the value stored under key
func (o *Object) Get(key string) (any, bool) {
	return o.fields.Get(key)
}

// Has reports whether key is present
func (o *Object) Has(key string) bool {
	_, ok := o.fields.Get(key)
	return ok
}

// Set stores a single value. Setting an existing key is an error.
func (o *Object) Set(key string, value any) error {
	normalized, err := normalizeValue(key, value)
	if err != nil {
		return err
	}
	if o.Has(key) {
		return NewDuplicateKeyError(key)
	}
	o.fields.Set(key, normalized)
	return nil
}

// Stage starts a batch of writes against o. Nothing becomes visible in o
// until Commit succeeds.
func (o *Object) Stage() *Batch {
	return &Batch{target: o}
}

// MarshalJSON encodes the object with keys in insertion order
func (o *Object) MarshalJSON() ([]byte, error) {
	return o.fields.MarshalJSON()
}

// Batch buffers key/value pairs for an all-or-nothing write into an Object.
// The first failed Add poisons the batch; Commit then reports that error and
// leaves the target untouched.
type Batch struct {
	target *Object
	keys   []string
	values []any
	err    error
}

// Len returns the number of staged pairs
func (b *Batch) Len() int {
	return len(b.keys)
}

// Err returns the first error recorded by the batch
func (b *Batch) Err() error {
	return b.err
}

// Fail records err; the batch will refuse to commit.
func (b *Batch) Fail(err error) *Batch {
	if b.err == nil && err != nil {
		b.err = err
	}
	return b
}

// Add stages a value of any supported kind
func (b *Batch) Add(key string, value any) *Batch {
	if b.err != nil {
		return b
	}
	normalized, err := normalizeValue(key, value)
	if err != nil {
		b.err = err
		return b
	}
	b.keys = append(b.keys, key)
	b.values = append(b.values, normalized)
	return b
}

// AddString stages a string value
func (b *Batch) AddString(key, value string) *Batch {
	return b.Add(key, value)
}

// AddInt64 stages an integer value
func (b *Batch) AddInt64(key string, value int64) *Batch {
	return b.Add(key, value)
}

// AddFloat64 stages a floating point value
func (b *Batch) AddFloat64(key string, value float64) *Batch {
	return b.Add(key, value)
}

// AddBool stages a boolean value
func (b *Batch) AddBool(key string, value bool) *Batch {
	return b.Add(key, value)
}

// AddNull stages a JSON null
func (b *Batch) AddNull(key string) *Batch {
	return b.Add(key, nil)
}

// Commit writes every staged pair into the target object, or none of them.
func (b *Batch) Commit() error {
	if b.err != nil {
		return b.err
	}
	seen := make(map[string]struct{}, len(b.keys))
	for _, key := range b.keys {
		if _, dup := seen[key]; dup || b.target.Has(key) {
			return NewDuplicateKeyError(key)
		}
		seen[key] = struct{}{}
	}
	for i, key := range b.keys {
		b.target.fields.Set(key, b.values[i])
	}
	b.keys, b.values = nil, nil
	return nil
}

// normalizeValue maps Go values onto the node's value kinds.
func normalizeValue(key string, value any) (any, error) {
	if key == "" {
		return nil, NewKeyError(key)
	}
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string, bool, int64, *Object:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, NewOverflowError(key, v)
		}
		return v, nil
	case float32:
		return normalizeValue(key, float64(v))
	default:
		return nil, NewTypeError(key, value)
	}
}
