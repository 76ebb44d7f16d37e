package processor

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// ErrInvalidDestination is returned when Scan is given something other than
// a pointer to a slice of structs or a pointer to a struct.
var ErrInvalidDestination = errors.New("sqlkit: destination must be a pointer to a struct or a slice of structs")

// Scan maps result rows onto dest. dest is either a pointer to a slice of
// structs (or struct pointers), filled with one element per row, or a pointer
// to a struct, filled from the first row. Columns are matched against the
// "db" tag, falling back to the snake_case field name; unmatched columns
// are ignored.
func Scan(rows []map[string]interface{}, dest interface{}) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrInvalidDestination
	}
	v = v.Elem()

	switch v.Kind() {
	case reflect.Struct:
		if len(rows) == 0 {
			return nil
		}
		return mapRow(rows[0], v)
	case reflect.Slice:
		elem := v.Type().Elem()
		ptr := elem.Kind() == reflect.Ptr
		if ptr {
			elem = elem.Elem()
		}
		if elem.Kind() != reflect.Struct {
			return ErrInvalidDestination
		}
		out := reflect.MakeSlice(v.Type(), 0, len(rows))
		for i, row := range rows {
			item := reflect.New(elem)
			if err := mapRow(row, item.Elem()); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			if ptr {
				out = reflect.Append(out, item)
			} else {
				out = reflect.Append(out, item.Elem())
			}
		}
		v.Set(out)
		return nil
	}
	return ErrInvalidDestination
}

func mapRow(row map[string]interface{}, v reflect.Value) error {
	columns := make(map[string]interface{}, len(row))
	for k, val := range row {
		columns[strings.ToLower(k)] = val
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}
		name, ok := columnName(field)
		if !ok {
			continue
		}
		value, ok := columns[strings.ToLower(name)]
		if !ok {
			continue
		}
		if err := setField(fv, value); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}
	return nil
}

// Values returns the column/value map of a struct, suitable for Insert and
// Update. Nil pointer fields are skipped.
func Values(src interface{}) (map[string]interface{}, error) {
	v := reflect.ValueOf(src)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, ErrInvalidDestination
	}

	out := make(map[string]interface{})
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)
		if !fv.CanInterface() {
			continue
		}
		name, ok := columnName(field)
		if !ok {
			continue
		}
		if fv.Kind() == reflect.Ptr && fv.IsNil() {
			continue
		}
		out[name] = fv.Interface()
	}
	return out, nil
}

func columnName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("db")
	if tag == "-" {
		return "", false
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, true
	}
	return snakeCase(field.Name), true
}

func setField(fv reflect.Value, value interface{}) error {
	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}

	if fv.Kind() == reflect.Ptr {
		elem := reflect.New(fv.Type().Elem())
		if err := setField(elem.Elem(), value); err != nil {
			return err
		}
		fv.Set(elem)
		return nil
	}

	// Drivers return text columns as []byte.
	if b, ok := value.([]byte); ok && fv.Kind() == reflect.String {
		fv.SetString(string(b))
		return nil
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(fv.Type()) {
		fv.Set(val)
		return nil
	}
	if isNumeric(val.Kind()) && isNumeric(fv.Kind()) {
		fv.Set(val.Convert(fv.Type()))
		return nil
	}
	if fv.Kind() == reflect.Bool && isNumeric(val.Kind()) {
		fv.SetBool(!val.IsZero())
		return nil
	}
	return fmt.Errorf("cannot convert %s to %s", val.Type(), fv.Type())
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// snakeCase converts UserID to user_id and CreatedAt to created_at.
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
