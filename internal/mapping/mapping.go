// Package mapping resolves member names to engine field names and converts
// Go values to their wire form, driven by `esquery` struct tags.
package mapping

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/kailas-cloud/esquery/internal/domain/query/expr"
)

// TagKey is the struct tag read by Default.
const TagKey = "esquery"

// KeywordSuffix addresses the exact-match sub-field of a text field.
const KeywordSuffix = ".keyword"

// Default maps members by tag, falling back to lower camel case.
//
//	Name string `esquery:"title"`          -> "title"
//	Name string `esquery:",keyword"`       -> "name.keyword"
//	Name string `esquery:"title,keyword"`  -> "title.keyword"
type Default struct{}

// ResolveField returns the engine field name of a member.
func (Default) ResolveField(d expr.MemberDescriptor) string {
	name, mods := parseTag(d.Tag.Get(TagKey))
	if name == "" {
		name = LowerCamel(d.Name)
	}
	for _, m := range mods {
		if m == "keyword" {
			name += KeywordSuffix
		}
	}
	return name
}

// FormatValue converts v to the value sent to the engine.
func (Default) FormatValue(_ expr.MemberDescriptor, v any) any {
	return Format(v)
}

// Format converts v to its wire form: dates as RFC 3339 strings, enums via
// String or MarshalText, named scalar types to their underlying kind and
// collections element-wise.
func Format(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case json.Number, string, bool, float64, int, int64:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case encoding.TextMarshaler:
		if b, err := t.MarshalText(); err == nil {
			return string(b)
		}
	case fmt.Stringer:
		return t.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Format(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Format(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

func parseTag(tag string) (string, []string) {
	if tag == "" || tag == "-" {
		return "", nil
	}
	parts := strings.Split(tag, ",")
	return parts[0], parts[1:]
}

// LowerCamel lower-cases the leading upper-case run of name:
// "Name" -> "name", "ID" -> "id", "URLPath" -> "urlPath".
func LowerCamel(name string) string {
	runes := []rune(name)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
		return name
	case n == len(runes):
		return strings.ToLower(name)
	case n > 1:
		// Keep the last capital: it starts the next word.
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// FieldOf resolves the field name a struct field is stored under, using the
// same rules as Default. Used to decode rows and documents back into structs.
func FieldOf(f reflect.StructField) string {
	name, _ := parseTag(f.Tag.Get(TagKey))
	if name == "" {
		name = LowerCamel(f.Name)
	}
	return name
}

// Skipped reports whether a struct field is excluded by an "-" tag.
func Skipped(f reflect.StructField) bool {
	return f.Tag.Get(TagKey) == "-"
}
