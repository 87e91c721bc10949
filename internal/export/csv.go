// Package export serializes entity lists to comma-separated files. The
// header row carries the column names of the first record; every data field
// is double-quoted with embedded quotes doubled, so the output parses back
// into the same records.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
)

// Columns returns the column names for a record type: the JSON tag names of
// its exported fields, in declaration order.
func Columns(record any) []string {
	t := reflect.TypeOf(record)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		cols = append(cols, columnName(field))
	}
	return cols
}

// Write serializes records. An empty list produces no output, matching the
// download button doing nothing on an empty screen.
func Write[T any](w io.Writer, records []T) error {
	if len(records) == 0 {
		return nil
	}

	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(Columns(records[0]), ","))

	for _, record := range records {
		fields := fieldStrings(record)
		quoted := make([]string, len(fields))
		for i, value := range fields {
			quoted[i] = `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
		}
		lines = append(lines, strings.Join(quoted, ","))
	}

	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// WriteFile writes records to <dir>/<name>.csv.
func WriteFile[T any](dir, name string, records []T) (string, error) {
	path := filepath.Join(dir, name+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating csv file: %w", err)
	}
	defer file.Close()

	if err := Write(file, records); err != nil {
		return "", err
	}
	return path, nil
}

func fieldStrings(record any) []string {
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	var fields []string
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			continue
		}
		fields = append(fields, stringify(v.Field(i)))
	}
	return fields
}

func stringify(v reflect.Value) string {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	default:
		return fmt.Sprint(v.Interface())
	}
}

func columnName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	if comma := strings.Index(tag, ","); comma >= 0 {
		tag = tag[:comma]
	}
	if tag == "" {
		return field.Name
	}
	return tag
}
