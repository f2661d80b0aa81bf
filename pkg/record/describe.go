package record

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// WriteFields writes one "    - prefix.Field: value" line per decoded field of s.
// Nested structs and raw fields implementing fmt.Stringer are written with their String form.
// Lines are joined with newlines, without a trailing one; a newline separates
// them from previous builder content.
func WriteFields(sb *strings.Builder, prefix string, s interface{}) {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}

	lines := fieldLines(prefix, val)
	if len(lines) == 0 {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Join(lines, "\n"))
}

func fieldLines(prefix string, val reflect.Value) []string {
	typ := val.Type()
	var lines []string

	for i := 0; i < val.NumField(); i++ {
		sf := typ.Field(i)
		tag, tagged := sf.Tag.Lookup("record")
		if tag == "-" || !sf.IsExported() {
			continue
		}
		field := val.Field(i)
		name := prefix + "." + sf.Name

		if !tagged {
			if sf.Type.Kind() != reflect.Struct || sf.Type == timeType {
				continue
			}
			if str, ok := field.Interface().(fmt.Stringer); ok {
				lines = append(lines, fmt.Sprintf("    - %s: %s", name, str))
				continue
			}
			lines = append(lines, fieldLines(name, field)...)
			continue
		}

		_, rule, err := parseTag(tag)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("    - %s: %s", name, formatValue(rule, field)))
	}
	return lines
}

func formatValue(rule string, field reflect.Value) string {
	switch rule {
	case RuleText, RuleName:
		return fmt.Sprintf("%q", field.String())
	case RuleBCD:
		return field.String()
	case RuleTime:
		t := field.Interface().(time.Time)
		if t.IsZero() {
			return "(not set)"
		}
		return t.Format(time.RFC3339)
	}

	if str, ok := field.Interface().(fmt.Stringer); ok {
		return str.String()
	}

	switch field.Kind() {
	case reflect.Uint8:
		return fmt.Sprintf("%02X", field.Uint())
	case reflect.Array:
		b := make([]byte, field.Len())
		reflect.Copy(reflect.ValueOf(b), field)
		return fmt.Sprintf("%X", b)
	default:
		return fmt.Sprintf("%X", field.Bytes())
	}
}
