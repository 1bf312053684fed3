package unicache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// KeyFunc derives a cache identifier from function arguments.
type KeyFunc func(args []any) string

// Key composes the full cache key for a namespace and identifier. String
// and integer identifiers are used verbatim as "namespace:identifier";
// anything else is canonicalized and content-hashed, so identical content
// yields an identical key regardless of how the value was built.
func Key(namespace string, identifier any) string {
	return namespace + ":" + identifierString(identifier)
}

// identifierString renders an identifier for key composition.
func identifierString(identifier any) string {
	if identifier == nil {
		return hashCanonical("nil")
	}

	v := reflect.ValueOf(identifier)
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	default:
		return hashCanonical(canonicalize(identifier))
	}
}

// DefaultKeyFunc derives identifiers from function arguments by
// canonicalizing each argument and hashing the combined rendering. The
// result is always a fixed-length digest; the empty argument list hashes
// to a constant.
func DefaultKeyFunc(args []any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = strconv.Itoa(i) + ":" + canonicalize(arg)
	}
	return hashCanonical(strings.Join(parts, "|"))
}

// SimpleKeyFunc joins plain string representations of the arguments.
// Faster and human-readable, but may collide for structured types.
func SimpleKeyFunc(args []any) string {
	if len(args) == 0 {
		return "no-args"
	}

	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprintf("%v", arg)
	}
	return strings.Join(parts, ":")
}

func hashCanonical(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// canonicalize renders a value into a stable textual form: map keys are
// sorted, struct fields appear in declaration order, and every element is
// rendered in full so distinct content never collapses to the same key.
func canonicalize(arg any) string {
	if arg == nil {
		return "nil"
	}

	v := reflect.ValueOf(arg)
	t := v.Type()

	switch t.Kind() {
	case reflect.String:
		return "s:" + v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "i:" + strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "u:" + strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return "f:" + strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Bool:
		return "b:" + strconv.FormatBool(v.Bool())
	case reflect.Ptr:
		if v.IsNil() {
			return "ptr:nil"
		}
		return "ptr:" + canonicalize(v.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return canonicalizeSequence(v)
	case reflect.Map:
		return canonicalizeMap(v)
	case reflect.Struct:
		return canonicalizeStruct(v, t)
	case reflect.Interface:
		if v.IsNil() {
			return "iface:nil"
		}
		return "iface:" + canonicalize(v.Elem().Interface())
	default:
		// Fallback to string representation for other types
		return fmt.Sprintf("%T:%v", arg, arg)
	}
}

// canonicalizeSequence renders slices and arrays element by element.
func canonicalizeSequence(v reflect.Value) string {
	if v.Kind() == reflect.Slice && v.IsNil() {
		return "slice:nil"
	}

	length := v.Len()
	if length == 0 {
		return "slice:empty"
	}

	elements := make([]string, length)
	for i := 0; i < length; i++ {
		elements[i] = canonicalize(v.Index(i).Interface())
	}
	return "slice:[" + strings.Join(elements, ",") + "]"
}

// canonicalizeMap renders maps with pairs sorted by rendered key, so
// iteration order never leaks into the result.
func canonicalizeMap(v reflect.Value) string {
	if v.IsNil() {
		return "map:nil"
	}

	keys := v.MapKeys()
	if len(keys) == 0 {
		return "map:empty"
	}

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, canonicalize(key.Interface())+"="+canonicalize(v.MapIndex(key).Interface()))
	}
	sort.Strings(pairs)
	return "map:{" + strings.Join(pairs, ",") + "}"
}

// canonicalizeStruct renders exported fields in declaration order.
func canonicalizeStruct(v reflect.Value, t reflect.Type) string {
	numFields := v.NumField()
	if numFields == 0 {
		return "struct:empty"
	}

	var fields []string
	for i := 0; i < numFields; i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		fieldValue := v.Field(i)
		if !fieldValue.CanInterface() {
			continue
		}

		fields = append(fields, field.Name+":"+canonicalize(fieldValue.Interface()))
	}

	structName := t.Name()
	if structName == "" {
		structName = "anonymous"
	}

	return "struct:" + structName + "{" + strings.Join(fields, ",") + "}"
}
