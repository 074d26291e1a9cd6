package schema

import (
	"math/big"
	"reflect"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Project re-labels decoded values with the schema's declared field names.
// Fields and values are matched pairwise in order; tuples become objects
// keyed by component names, arrays stay arrays, and a value that does not
// structurally match its field degrades to null without affecting siblings.
func Project(fields []Field, values []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for i, field := range fields {
		if i >= len(values) {
			break
		}
		out[field.Name] = projectField(field.Type, values[i])
	}
	return out
}

func projectField(fieldType FieldType, value interface{}) interface{} {
	switch fieldType.Kind {
	case KindTuple:
		return projectTuple(fieldType.Fields, value)
	case KindArray:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || rv.Kind() != reflect.Slice {
			return nil
		}
		items := make([]interface{}, rv.Len())
		for i := range items {
			items[i] = projectField(*fieldType.Elem, rv.Index(i).Interface())
		}
		return items
	default:
		return projectValue(value)
	}
}

// projectTuple accepts the two shapes a tuple value takes: the struct the
// ABI decoder produces, or a plain []interface{} of component values.
func projectTuple(fields []Field, value interface{}) interface{} {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return nil
	}
	var component func(i int) interface{}
	var n int
	switch {
	case rv.Kind() == reflect.Struct:
		n = rv.NumField()
		component = func(i int) interface{} { return rv.Field(i).Interface() }
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Interface:
		n = rv.Len()
		component = func(i int) interface{} { return rv.Index(i).Interface() }
	default:
		return nil
	}
	obj := make(map[string]interface{}, len(fields))
	for i, sub := range fields {
		if i >= n {
			break
		}
		obj[sub.Name] = projectField(sub.Type, component(i))
	}
	return obj
}

// projectValue renders a single decoded value without schema guidance.
// Integers of every width render as decimal strings so values past 53 bits
// survive JSON consumers; addresses and byte strings render as lowercase
// 0x-prefixed hex.
func projectValue(value interface{}) interface{} {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v
	case common.Address:
		return hexBytes(v.Bytes())
	case *big.Int:
		if v == nil {
			return nil
		}
		return v.String()
	case []byte:
		return hexBytes(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	}

	// Fixed byte arrays, nested slices, and tuple structs arrive as
	// reflection-only shapes.
	rv := reflect.ValueOf(value)
	switch {
	case !rv.IsValid():
		return nil
	case rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8:
		buf := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(buf), rv)
		return hexBytes(buf)
	case rv.Kind() == reflect.Slice:
		items := make([]interface{}, rv.Len())
		for i := range items {
			items[i] = projectValue(rv.Index(i).Interface())
		}
		return items
	case rv.Kind() == reflect.Struct:
		items := make([]interface{}, rv.NumField())
		for i := range items {
			items[i] = projectValue(rv.Field(i).Interface())
		}
		return items
	}
	return nil
}

// hexBytes renders b as lowercase 0x-prefixed hex. Empty input renders as
// the empty string, not "0x".
func hexBytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return hexutil.Encode(b)
}
