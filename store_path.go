package pulse

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// PathError reports a store path that cannot be navigated or written.
type PathError struct {
	Path   string
	Op     string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("store: cannot %s %q: %s", e.Op, e.Path, e.Reason)
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// valueAt resolves a dot-separated path against nested maps, slices,
// arrays and structs. A missing map key or nil branch yields nil rather
// than an error; only a value that cannot be indexed at all errors.
func valueAt(root any, path string) (any, error) {
	current := root
	for _, seg := range splitPath(path) {
		if current == nil {
			return nil, nil
		}

		if m, ok := current.(map[string]any); ok {
			current = m[seg]
			continue
		}

		rv := reflect.ValueOf(current)
		for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				return nil, nil
			}
			rv = rv.Elem()
		}

		switch rv.Kind() {
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				return nil, &PathError{Path: path, Op: "read", Reason: "map key is not a string"}
			}
			v := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
			if !v.IsValid() {
				current = nil
				continue
			}
			current = v.Interface()
		case reflect.Slice, reflect.Array:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= rv.Len() {
				return nil, &PathError{Path: path, Op: "read", Reason: fmt.Sprintf("index %q out of range", seg)}
			}
			current = rv.Index(i).Interface()
		case reflect.Struct:
			f := rv.FieldByName(seg)
			if !f.IsValid() {
				return nil, &PathError{Path: path, Op: "read", Reason: fmt.Sprintf("no field %q in %s", seg, rv.Type())}
			}
			current = f.Interface()
		default:
			return nil, &PathError{Path: path, Op: "read", Reason: fmt.Sprintf("cannot index into %T", current)}
		}
	}
	return current, nil
}

// withValueAt returns root with the value at path replaced, copying
// each container along the path so the original stays untouched.
// Missing intermediate branches become string-keyed maps.
func withValueAt(root any, path string, v any) (any, error) {
	return setSegments(root, splitPath(path), path, v)
}

func setSegments(current any, segs []string, full string, v any) (any, error) {
	if len(segs) == 0 {
		return v, nil
	}

	seg, rest := segs[0], segs[1:]

	if current == nil {
		child, err := setSegments(nil, rest, full, v)
		if err != nil {
			return nil, err
		}
		return map[string]any{seg: child}, nil
	}

	if m, ok := current.(map[string]any); ok {
		child, err := setSegments(m[seg], rest, full, v)
		if err != nil {
			return nil, err
		}
		next := make(map[string]any, len(m)+1)
		for k, val := range m {
			next[k] = val
		}
		next[seg] = child
		return next, nil
	}

	rv := reflect.ValueOf(current)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, &PathError{Path: full, Op: "set", Reason: "nil pointer on path"}
		}
		inner, err := setSegments(rv.Elem().Interface(), segs, full, v)
		if err != nil {
			return nil, err
		}
		out := reflect.New(rv.Type().Elem())
		out.Elem().Set(reflect.ValueOf(inner))
		return out.Interface(), nil
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, &PathError{Path: full, Op: "set", Reason: "map key is not a string"}
		}
		key := reflect.ValueOf(seg).Convert(rv.Type().Key())
		var old any
		if ev := rv.MapIndex(key); ev.IsValid() {
			old = ev.Interface()
		}
		child, err := setSegments(old, rest, full, v)
		if err != nil {
			return nil, err
		}
		next := reflect.MakeMapWithSize(rv.Type(), rv.Len()+1)
		iter := rv.MapRange()
		for iter.Next() {
			next.SetMapIndex(iter.Key(), iter.Value())
		}
		cv, err := assignable(child, rv.Type().Elem(), full)
		if err != nil {
			return nil, err
		}
		next.SetMapIndex(key, cv)
		return next.Interface(), nil
	case reflect.Slice:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, &PathError{Path: full, Op: "set", Reason: fmt.Sprintf("index %q out of range", seg)}
		}
		child, err := setSegments(rv.Index(i).Interface(), rest, full, v)
		if err != nil {
			return nil, err
		}
		next := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(next, rv)
		cv, err := assignable(child, rv.Type().Elem(), full)
		if err != nil {
			return nil, err
		}
		next.Index(i).Set(cv)
		return next.Interface(), nil
	case reflect.Struct:
		f := rv.FieldByName(seg)
		if !f.IsValid() {
			return nil, &PathError{Path: full, Op: "set", Reason: fmt.Sprintf("no field %q in %s", seg, rv.Type())}
		}
		child, err := setSegments(f.Interface(), rest, full, v)
		if err != nil {
			return nil, err
		}
		next := reflect.New(rv.Type()).Elem()
		next.Set(rv)
		target := next.FieldByName(seg)
		if !target.CanSet() {
			return nil, &PathError{Path: full, Op: "set", Reason: fmt.Sprintf("field %q is unexported", seg)}
		}
		cv, err := assignable(child, target.Type(), full)
		if err != nil {
			return nil, err
		}
		target.Set(cv)
		return next.Interface(), nil
	default:
		return nil, &PathError{Path: full, Op: "set", Reason: fmt.Sprintf("cannot index into %T", current)}
	}
}

func assignable(v any, t reflect.Type, full string) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, &PathError{Path: full, Op: "set", Reason: fmt.Sprintf("%T is not assignable to %s", v, t)}
	}
	return rv, nil
}
