package lms

import (
	"bytes"
	"encoding/json"
)

// entity is a raw API object whose fields are decoded on demand so that a
// missing key can be told apart from a zero value.
type entity map[string]json.RawMessage

var jsonNull = []byte("null")

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}

// entityArray decodes the EntityArray envelope most list endpoints return.
// When optional is true an absent array yields no entities instead of an error.
func entityArray(body []byte, kind string, optional bool) ([]entity, error) {
	var envelope entity
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &SchemaError{Entity: kind, Field: "EntityArray", Err: err}
	}
	raw, ok := envelope["EntityArray"]
	if !ok || isNull(raw) {
		if optional {
			return nil, nil
		}
		return nil, &SchemaError{Entity: kind, Field: "EntityArray"}
	}
	var items []entity
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &SchemaError{Entity: kind, Field: "EntityArray", Err: err}
	}
	return items, nil
}

// fields reads required fields from one entity and keeps the first error,
// so a mapping can read every field and check once at the end.
type fields struct {
	e    entity
	kind string
	err  error
}

func (e entity) fields(kind string) *fields {
	return &fields{e: e, kind: kind}
}

// get decodes key into dst. JSON null leaves dst at its zero value.
func (f *fields) get(key string, dst any) {
	if f.err != nil {
		return
	}
	raw, ok := f.e[key]
	if !ok {
		f.err = &SchemaError{Entity: f.kind, Field: key}
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		f.err = &SchemaError{Entity: f.kind, Field: key, Err: err}
	}
}

// object returns the nested entity stored under key. A null object is a
// mismatch, the same as an absent one.
func (f *fields) object(key string) entity {
	var nested entity
	f.get(key, &nested)
	if f.err == nil && nested == nil {
		f.err = &SchemaError{Entity: f.kind, Field: key}
	}
	return nested
}

// present reports whether key exists and is not null.
func (f *fields) present(key string) bool {
	raw, ok := f.e[key]
	return ok && !isNull(raw)
}

// fail records err unless an earlier one is already held.
func (f *fields) fail(err error) {
	if f.err == nil {
		f.err = err
	}
}
