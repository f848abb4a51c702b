package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// CircularPlaceholder replaces any reference already emitted during a Dump.
const CircularPlaceholder = "[Circular]"

var jsonMarshalerType = reflect.TypeFor[json.Marshaler]()

type refKey struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

type dumper struct {
	seen map[refKey]struct{}
}

// Dump renders v as two-space indented JSON. Maps, slices and pointers are
// tracked by identity; a reference seen earlier in the same pass is written
// as CircularPlaceholder instead of being walked again, so cyclic values
// terminate. Values implementing json.Marshaler, such as json.RawMessage,
// are emitted as they marshal themselves. Go maps are written with sorted
// keys.
func Dump(v any) (string, error) {
	d := &dumper{seen: map[refKey]struct{}{}}
	tree := d.walk(reflect.ValueOf(v))

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tree); err != nil {
		return "", fmt.Errorf("failed to encode dump: %w", err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// visit reports whether the reference was already seen and marks it.
func (d *dumper) visit(v reflect.Value, n int) bool {
	k := refKey{typ: v.Type(), ptr: v.Pointer(), n: n}
	if _, ok := d.seen[k]; ok {
		return true
	}
	d.seen[k] = struct{}{}
	return false
}

func (d *dumper) walk(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}

	if v.Kind() != reflect.Pointer && v.Kind() != reflect.Interface &&
		v.Type().Implements(jsonMarshalerType) && v.CanInterface() {
		return v.Interface()
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return d.walk(v.Elem())

	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if d.visit(v, 0) {
			return CircularPlaceholder
		}
		if v.Type().Implements(jsonMarshalerType) {
			return v.Interface()
		}
		return d.walk(v.Elem())

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		if d.visit(v, 0) {
			return CircularPlaceholder
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[mapKey(iter.Key())] = d.walk(iter.Value())
		}
		return out

	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Bytes()
		}
		if v.Len() > 0 && d.visit(v, v.Len()) {
			return CircularPlaceholder
		}
		return d.walkList(v)

	case reflect.Array:
		return d.walkList(v)

	case reflect.Struct:
		return d.walkStruct(v)

	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return nil

	default:
		if !v.CanInterface() {
			return nil
		}
		return v.Interface()
	}
}

func (d *dumper) walkList(v reflect.Value) []any {
	out := make([]any, v.Len())
	for i := range v.Len() {
		out[i] = d.walk(v.Index(i))
	}
	return out
}

func (d *dumper) walkStruct(v reflect.Value) map[string]any {
	out := map[string]any{}
	t := v.Type()

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name, omitEmpty, skip := parseJSONTag(f)
		if skip {
			continue
		}

		fv := v.Field(i)
		if f.Anonymous && name == "" && indirectKind(fv) == reflect.Struct {
			if fv.Kind() == reflect.Pointer && fv.IsNil() {
				continue
			}
			if nested, ok := d.walk(fv).(map[string]any); ok {
				for k, val := range nested {
					if _, exists := out[k]; !exists {
						out[k] = val
					}
				}
			}
			continue
		}

		if omitEmpty && fv.IsZero() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out[name] = d.walk(fv)
	}

	return out
}

func parseJSONTag(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	for opt := range strings.SplitSeq(opts, ",") {
		if opt == "omitempty" || opt == "omitzero" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func indirectKind(v reflect.Value) reflect.Kind {
	if v.Kind() == reflect.Pointer {
		return v.Type().Elem().Kind()
	}
	return v.Kind()
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	if k.CanInterface() {
		return fmt.Sprint(k.Interface())
	}
	return k.String()
}
