// Package serialize turns typed resource structs into CloudFormation
// property maps.
package serialize

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// Resource serializes a resource struct to CloudFormation properties.
//
// Field names come from json tags, falling back to the Go field name.
// Nil pointers, empty collections and zero scalars are omitted, so optional
// properties never reach the template. Values implementing json.Marshaler
// (AttrRef and the intrinsics) are embedded in their JSON form. Integers are
// normalized to int64 and unsigned integers to uint64.
//
// A non-struct value yields a nil map.
func Resource(v any) (map[string]any, error) {
	return properties(reflect.ValueOf(v), "")
}

func properties(val reflect.Value, path string) (map[string]any, error) {
	for val.Kind() == reflect.Ptr || val.Kind() == reflect.Interface {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, nil
	}

	typ := val.Type()
	props := make(map[string]any)
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := propertyName(field)
		if name == "-" {
			continue
		}

		fv := val.Field(i)
		if omit(fv) {
			continue
		}
		out, err := encode(fv, join(path, name))
		if err != nil {
			return nil, err
		}
		if out != nil {
			props[name] = out
		}
	}
	return props, nil
}

func propertyName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" {
		return field.Name
	}
	return name
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// omit reports whether a field holds nothing worth emitting.
func omit(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Struct:
		if z, ok := v.Interface().(interface{ IsZero() bool }); ok {
			return z.IsZero()
		}
		return false
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v.IsZero()
	default:
		return false
	}
}

func encode(v reflect.Value, path string) (any, error) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	if m, ok := v.Interface().(json.Marshaler); ok {
		return viaJSON(m, path)
	}

	switch v.Kind() {
	case reflect.Struct:
		return properties(v, path)
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return nil, nil
		}
		items := make([]any, v.Len())
		for i := range items {
			item, err := encode(v.Index(i), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return items, nil
	case reflect.Map:
		if v.Len() == 0 {
			return nil, nil
		}
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%s: map key must be a string, got %s", path, v.Type().Key())
		}
		entries := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			item, err := encode(iter.Value(), join(path, key))
			if err != nil {
				return nil, err
			}
			entries[key] = item
		}
		return entries, nil
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	default:
		return viaJSON(v.Interface(), path)
	}
}

// viaJSON round-trips a value through encoding/json into generic form.
func viaJSON(v any, path string) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// LogicalID converts a resource identifier to a CloudFormation logical ID.
// Separators ('-', '_', '.', '/', ' ') start a new word and are dropped, and
// any other non-alphanumeric rune is removed.
// e.g., "hello-world-r2r-arm64" -> "HelloWorldR2rArm64"
func LogicalID(s string) string {
	var result strings.Builder
	capitalizeNext := true

	for _, r := range s {
		switch {
		case r == '-' || r == '_' || r == '.' || r == '/' || r == ' ':
			capitalizeNext = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if capitalizeNext {
				result.WriteRune(unicode.ToUpper(r))
				capitalizeNext = false
			} else {
				result.WriteRune(r)
			}
		}
	}

	return result.String()
}
