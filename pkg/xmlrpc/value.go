// Package xmlrpc implements the subset of the XML-RPC wire format used by
// MetaWeblog endpoints: a closed Value model, a request encoder, a response
// decoder and a small HTTP client.
package xmlrpc

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"
)

// DateTimeLayout is the wire layout of dateTime.iso8601 values.
// It carries no zone and no fractional seconds.
const DateTimeLayout = "20060102T15:04:05"

// Value is a wire-representable XML-RPC value.
// The set of implementations is closed: Nil, Bool, Int, Double, DateTime,
// String, Array and Struct.
type Value interface {
	xmlrpcValue()
}

// Nil is the absent value, encoded as <nil/>.
type Nil struct{}

// Bool is encoded as <boolean>1</boolean> or <boolean>0</boolean>.
type Bool bool

// Int is a wire-integral number.
type Int int64

// Double is a wire-floating number.
type Double float64

// DateTime holds the wire text of a dateTime.iso8601 value.
// The decoder keeps the text as received; use Time to interpret it.
type DateTime struct {
	Raw string
}

// String is a text value.
type String string

// Array is an ordered sequence of values.
type Array []Value

// Member is a single named entry of a Struct.
type Member struct {
	Name  string
	Value Value
}

// Struct is a mapping of names to values that preserves insertion order.
type Struct struct {
	Members []Member
}

func (Nil) xmlrpcValue()      {}
func (Bool) xmlrpcValue()     {}
func (Int) xmlrpcValue()      {}
func (Double) xmlrpcValue()   {}
func (DateTime) xmlrpcValue() {}
func (String) xmlrpcValue()   {}
func (Array) xmlrpcValue()    {}
func (*Struct) xmlrpcValue()  {}

// NewDateTime formats t at second granularity. Sub-second precision is dropped.
func NewDateTime(t time.Time) DateTime {
	return DateTime{Raw: t.Format(DateTimeLayout)}
}

// Time parses the raw wire text in the local time zone.
func (d DateTime) Time() (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, d.Raw, time.Local)
}

// NewStruct returns an empty Struct.
func NewStruct() *Struct {
	return &Struct{}
}

// Set assigns a member. An existing name is overwritten in place, so the
// original position is kept.
func (s *Struct) Set(name string, v Value) *Struct {
	if v == nil {
		v = Nil{}
	}
	for i := range s.Members {
		if s.Members[i].Name == name {
			s.Members[i].Value = v
			return s
		}
	}
	s.Members = append(s.Members, Member{Name: name, Value: v})
	return s
}

// Get returns the value of the named member.
func (s *Struct) Get(name string) (Value, bool) {
	if s == nil {
		return nil, false
	}
	for _, m := range s.Members {
		if m.Name == name {
			return m.Value, true
		}
	}
	return nil, false
}

// Len returns the number of members.
func (s *Struct) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Members)
}

// Number classifies f: Int when it has no fractional part, Double otherwise.
func Number(f float64) Value {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && f >= math.MinInt64 && f < math.MaxInt64 {
		return Int(int64(f))
	}
	return Double(f)
}

// From converts a plain Go value into a Value.
// Unsupported kinds, including nil, become Nil.
// Map keys are visited in sorted order since Go maps have no order of their own.
func From(v any) Value {
	switch x := v.(type) {
	case nil:
		return Nil{}
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(x)
	case int8:
		return Int(x)
	case int16:
		return Int(x)
	case int32:
		return Int(x)
	case int64:
		return Int(x)
	case uint8:
		return Int(x)
	case uint16:
		return Int(x)
	case uint32:
		return Int(x)
	case uint:
		return unsigned(uint64(x))
	case uint64:
		return unsigned(x)
	case uintptr:
		return unsigned(uint64(x))
	case float32:
		return Number(float64(x))
	case float64:
		return Number(x)
	case string:
		return String(x)
	case time.Time:
		return NewDateTime(x)
	case fmt.Stringer:
		return String(x.String())
	case []string:
		arr := make(Array, len(x))
		for i, s := range x {
			arr[i] = String(s)
		}
		return arr
	case []any:
		arr := make(Array, len(x))
		for i, item := range x {
			arr[i] = From(item)
		}
		return arr
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s := NewStruct()
		for _, k := range keys {
			s.Set(k, From(x[k]))
		}
		return s
	}

	// Named kinds such as `type level int` land here.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return unsigned(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Slice, reflect.Array:
		arr := make(Array, rv.Len())
		for i := range arr {
			arr[i] = From(rv.Index(i).Interface())
		}
		return arr
	case reflect.Pointer:
		if rv.IsNil() {
			return Nil{}
		}
		return From(rv.Elem().Interface())
	}
	return Nil{}
}

// unsigned keeps u integral while it fits the wire's signed range.
func unsigned(u uint64) Value {
	if u <= math.MaxInt64 {
		return Int(int64(u))
	}
	return Double(float64(u))
}

// Interface converts a Value back into plain Go values: nil, bool, int64,
// float64, string (DateTime yields its raw text), []any and map[string]any.
func Interface(v Value) any {
	switch x := v.(type) {
	case Bool:
		return bool(x)
	case Int:
		return int64(x)
	case Double:
		return float64(x)
	case DateTime:
		return x.Raw
	case String:
		return string(x)
	case Array:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Interface(item)
		}
		return out
	case *Struct:
		out := make(map[string]any, x.Len())
		for _, m := range x.Members {
			out[m.Name] = Interface(m.Value)
		}
		return out
	}
	return nil
}
