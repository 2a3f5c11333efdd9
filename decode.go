package esquery

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/kailas-cloud/esquery/internal/mapping"
)

// RowsAs decodes materialized rows into structs of type R. A column fills
// the field whose Go name or esquery tag name matches it, ignoring case.
// Numeric values convert to the field's numeric kind; RFC 3339 strings
// convert to time.Time.
func RowsAs[R any](rows []*Row) ([]R, error) {
	t := reflect.TypeOf((*R)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("esquery: row type %s is not a struct", t)
	}
	out := make([]R, len(rows))
	for i, row := range rows {
		dst := reflect.ValueOf(&out[i]).Elem()
		for _, name := range row.Names() {
			f, ok := fieldFor(t, name)
			if !ok {
				continue
			}
			v, _ := row.Get(name)
			if err := assign(dst.FieldByIndex(f.Index), v); err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, name, err)
			}
		}
	}
	return out, nil
}

func fieldFor(t reflect.Type, column string) (reflect.StructField, bool) {
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous || mapping.Skipped(f) {
			continue
		}
		if strings.EqualFold(f.Name, column) || strings.EqualFold(mapping.FieldOf(f), column) {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

var timeType = reflect.TypeOf((*time.Time)(nil)).Elem()

func assign(dst reflect.Value, v any) error {
	if v == nil {
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		p := reflect.New(dst.Type().Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}

	src := reflect.ValueOf(v)
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
		return nil
	case dst.Type() == timeType && src.Kind() == reflect.String:
		ts, err := time.Parse(time.RFC3339Nano, src.String())
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(ts))
		return nil
	case isNumber(src.Kind()) && isNumber(dst.Kind()):
		dst.Set(src.Convert(dst.Type()))
		return nil
	case src.Kind() == reflect.String && dst.Kind() == reflect.String:
		dst.SetString(src.String())
		return nil
	case src.Kind() == reflect.Bool && dst.Kind() == reflect.Bool:
		dst.SetBool(src.Bool())
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || !isNumber(rv.Kind()) {
		return 0, false
	}
	return rv.Convert(reflect.TypeOf((*float64)(nil)).Elem()).Float(), true
}

// decodeSource unmarshals a hit source into T, renaming stored field names
// (esquery tags) back to Go field names first.
func decodeSource[T any](raw json.RawMessage, dst *T) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return json.Unmarshal(raw, dst)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	renamed := make(map[string]json.RawMessage, len(doc))
	for k, v := range doc {
		if f, ok := fieldFor(t, k); ok {
			k = jsonName(f)
		}
		renamed[k] = v
	}
	data, err := json.Marshal(renamed)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// jsonName is the key encoding/json decodes into f.
func jsonName(f reflect.StructField) string {
	if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return f.Name
}
