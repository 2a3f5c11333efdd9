package expr

import (
	"reflect"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// MemberDescriptor describes one member access, handed to the field mapping.
// Type and Tag are zero when the owning type is unknown or lacks the member.
type MemberDescriptor struct {
	Name string
	Type reflect.Type
	Tag  reflect.StructTag
}

// Resolved reports whether the member was found on a concrete type.
func (d MemberDescriptor) Resolved() bool { return d.Type != nil }

// IsDate reports whether the member holds a date/time value.
func (d MemberDescriptor) IsDate() bool {
	return d.Type != nil && Indirect(d.Type) == timeType
}

// IsString reports whether the member holds a string.
func (d MemberDescriptor) IsString() bool {
	return d.Type != nil && Indirect(d.Type).Kind() == reflect.String
}

// IsBool reports whether the member holds a bool.
func (d MemberDescriptor) IsBool() bool {
	return d.Type != nil && Indirect(d.Type).Kind() == reflect.Bool
}

// IsCollection reports whether the member holds a slice or array (strings and
// byte slices excluded).
func (d MemberDescriptor) IsCollection() bool {
	if d.Type == nil {
		return false
	}
	t := Indirect(d.Type)
	return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() != reflect.Uint8
}

// ElemType returns the element type of a collection member, or nil.
func (d MemberDescriptor) ElemType() reflect.Type {
	if !d.IsCollection() {
		return nil
	}
	return Indirect(Indirect(d.Type).Elem())
}

// Describe looks up name on owner. Lookup is exact first, then
// case-insensitive. owner may be nil, in which case only Name is set.
func Describe(owner reflect.Type, name string) MemberDescriptor {
	d := MemberDescriptor{Name: name}
	if owner == nil {
		return d
	}
	owner = Indirect(owner)
	if owner.Kind() != reflect.Struct {
		return d
	}
	if f, ok := owner.FieldByName(name); ok && f.IsExported() {
		d.Type, d.Tag = f.Type, f.Tag
		return d
	}
	for i := 0; i < owner.NumField(); i++ {
		f := owner.Field(i)
		if f.IsExported() && strings.EqualFold(f.Name, name) {
			d.Name, d.Type, d.Tag = f.Name, f.Type, f.Tag
			return d
		}
	}
	return d
}

// Indirect strips pointer types.
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// IsDateValue reports whether v holds a date/time value.
func IsDateValue(v any) bool {
	switch t := v.(type) {
	case time.Time:
		return true
	case *time.Time:
		return t != nil
	}
	return false
}

// IsEnumerable reports whether v is a slice or array other than a string or
// byte slice.
func IsEnumerable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Type().Elem().Kind() != reflect.Uint8
	}
	return false
}

// Elements flattens an enumerable value into a slice.
func Elements(v any) []any {
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
