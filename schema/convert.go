package schema

import (
	"bytes"
	"database/sql"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order when a text column hydrates a time.Time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType    = reflect.TypeOf((*time.Time)(nil)).Elem()
)

// assign stores a value produced by the driver in dst. Columns declared with
// the default char(20) type have TEXT affinity, so numbers often arrive as
// strings and are parsed back.
func assign(dst reflect.Value, src any) error {
	if !dst.CanSet() {
		return fmt.Errorf("cannot set value of type %s", dst.Type())
	}
	if dst.CanAddr() && dst.Addr().Type().Implements(scannerType) {
		if dst.Kind() == reflect.Pointer && dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return dst.Addr().Interface().(sql.Scanner).Scan(src)
	}
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		v := reflect.New(dst.Type().Elem())
		if err := assign(v.Elem(), src); err != nil {
			return err
		}
		dst.Set(v)
		return nil
	}
	if b, ok := src.([]byte); ok {
		// The driver may reuse the buffer.
		src = bytes.Clone(b)
	}
	sv := reflect.ValueOf(src)
	if dst.Type() == timeType {
		t, err := asTime(src)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	}
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}
	switch dst.Kind() {
	case reflect.String:
		s, err := asString(src)
		if err != nil {
			return err
		}
		dst.SetString(s)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var (
			i   int64
			err error
		)
		switch sv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			i = sv.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if sv.Uint() > math.MaxInt64 {
				return fmt.Errorf("value %d overflows %s", sv.Uint(), dst.Type())
			}
			i = int64(sv.Uint())
		case reflect.Float32, reflect.Float64:
			f := sv.Float()
			// -2^63 is exact as a float64; 2^63 is the first value past MaxInt64.
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return fmt.Errorf("converting %T %v to %s: not an integral value in range", src, f, dst.Type())
			}
			i = int64(f)
		case reflect.Bool:
			if sv.Bool() {
				i = 1
			}
		default:
			s, serr := asString(src)
			if serr != nil {
				return serr
			}
			i, err = strconv.ParseInt(strings.TrimSpace(s), 10, dst.Type().Bits())
		}
		if err != nil {
			return fmt.Errorf("converting %T to %s: %w", src, dst.Type(), err)
		}
		if dst.OverflowInt(i) {
			return fmt.Errorf("value %d overflows %s", i, dst.Type())
		}
		dst.SetInt(i)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var (
			u   uint64
			err error
		)
		switch sv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if sv.Int() < 0 {
				return fmt.Errorf("negative value %d for %s", sv.Int(), dst.Type())
			}
			u = uint64(sv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			u = sv.Uint()
		default:
			s, serr := asString(src)
			if serr != nil {
				return serr
			}
			u, err = strconv.ParseUint(strings.TrimSpace(s), 10, dst.Type().Bits())
		}
		if err != nil {
			return fmt.Errorf("converting %T to %s: %w", src, dst.Type(), err)
		}
		if dst.OverflowUint(u) {
			return fmt.Errorf("value %d overflows %s", u, dst.Type())
		}
		dst.SetUint(u)
		return nil
	case reflect.Float32, reflect.Float64:
		var (
			f   float64
			err error
		)
		switch sv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(sv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			f = float64(sv.Uint())
		case reflect.Float32, reflect.Float64:
			f = sv.Float()
		default:
			s, serr := asString(src)
			if serr != nil {
				return serr
			}
			f, err = strconv.ParseFloat(strings.TrimSpace(s), dst.Type().Bits())
		}
		if err != nil {
			return fmt.Errorf("converting %T to %s: %w", src, dst.Type(), err)
		}
		dst.SetFloat(f)
		return nil
	case reflect.Bool:
		switch sv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			dst.SetBool(sv.Int() != 0)
			return nil
		case reflect.Bool:
			dst.SetBool(sv.Bool())
			return nil
		}
		s, err := asString(src)
		if err != nil {
			return err
		}
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("converting %T to %s: %w", src, dst.Type(), err)
		}
		dst.SetBool(b)
		return nil
	case reflect.Slice:
		if dst.Type().Elem().Kind() == reflect.Uint8 {
			if s, ok := src.(string); ok {
				dst.SetBytes([]byte(s))
				return nil
			}
		}
	}
	if sv.Type().ConvertibleTo(dst.Type()) && sv.Kind() == dst.Kind() {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("unsupported conversion from %T to %s", src, dst.Type())
}

func asString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	}
	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(sv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(sv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(sv.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(sv.Float(), 'g', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(sv.Bool()), nil
	case reflect.String:
		return sv.String(), nil
	}
	return "", fmt.Errorf("unsupported conversion from %T to string", src)
}

func asTime(src any) (time.Time, error) {
	switch v := src.(type) {
	case time.Time:
		return v, nil
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case string, []byte:
		s, _ := asString(v)
		s = strings.TrimSpace(s)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
	}
	return time.Time{}, fmt.Errorf("unsupported conversion from %T to time.Time", src)
}
