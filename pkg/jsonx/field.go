package jsonx

import "encoding/json"

// ---------- Field[T] ----------

// Field[T] tracks presence (key appeared) and holds a pointer value:
//   - IsSet() == true  => key existed (even if it was null; allows null vs. undefined distinction)
//   - val == nil       => value was JSON null
//
// An unset Field is its zero value; tag it `json:",omitzero"` to drop the key on encode.
type Field[T any] struct {
	set bool
	val *T
}

// Set returns a present field holding v.
func Set[T any](v T) Field[T] { return Field[T]{set: true, val: &v} }

// Null returns a present field holding JSON null.
func Null[T any]() Field[T] { return Field[T]{set: true} }

func (o Field[T]) IsSet() bool  { return o.set }
func (o Field[T]) IsNull() bool { return o.set && o.val == nil }
func (o Field[T]) Value() *T    { return o.val }

// IsZero reports an absent key; used by encoding/json's omitzero.
func (o Field[T]) IsZero() bool { return !o.set }

// Get returns the value, or T's zero value when absent or null.
func (o Field[T]) Get() T {
	if o.val == nil {
		var zero T
		return zero
	}
	return *o.val
}

func (o Field[T]) MarshalJSON() ([]byte, error) {
	if o.val == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.val)
}

func (o *Field[T]) UnmarshalJSON(b []byte) error {
	switch string(bytesTrimSpace(b)) {
	case "null":
		o.set, o.val = true, nil
		return nil
	default:
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		o.set, o.val = true, &v
		return nil
	}
}

func bytesTrimSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\n' || b[i] == '\t' || b[i] == '\r') {
		i++
	}

	j := len(b) - 1
	for j >= i && (b[j] == ' ' || b[j] == '\n' || b[j] == '\t' || b[j] == '\r') {
		j--
	}

	return b[i : j+1]
}
