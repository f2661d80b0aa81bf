// Package record decodes fixed-layout card records into Go structures using struct tags.
//
//	type Holder struct {
//		Surname   string    `record:"36,name"`
//		BirthDate Date
//		Issued    time.Time `record:"4,time"`
//	}
//
// A tag gives the field width in bytes and the rule decoding it:
//
//	raw   byte, []byte or [N]byte, copied as is
//	text  string, fixed-width text in DefaultCharset
//	name  string, text optionally preceded by a code page byte
//	bcd   string, packed decimal digits
//	time  time.Time, 4-byte TimeReal
//
// Untagged struct fields are decoded in place, so a record reads as the
// concatenation of its fields. Bytes past the last field are ignored.
package record

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Decoding rules accepted in the record tag.
const (
	RuleRaw  = "raw"
	RuleText = "text"
	RuleName = "name"
	RuleBCD  = "bcd"
	RuleTime = "time"
)

var timeType = reflect.TypeOf(time.Time{})

// Field is one leaf of a record layout.
type Field struct {
	Name   string
	Offset int
	Length int
	Rule   string
}

// Layout lists the leaves of a record in wire order.
type Layout []Field

// Size is the number of bytes the layout consumes.
func (l Layout) Size() int {
	if len(l) == 0 {
		return 0
	}
	last := l[len(l)-1]
	return last.Offset + last.Length
}

// LayoutOf returns the layout of the struct v or points to.
func LayoutOf(v interface{}) (Layout, error) {
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("record layout needs a struct, got %v", t)
	}

	var layout Layout
	if _, err := walk(t, "", 0, func(f Field, _ []int) error {
		layout = append(layout, f)
		return nil
	}, nil); err != nil {
		return nil, err
	}
	return layout, nil
}

// Size returns the encoded size of the record v, or 0 if v has no valid layout.
func Size(v interface{}) int {
	layout, err := LayoutOf(v)
	if err != nil {
		return 0
	}
	return layout.Size()
}

// Unmarshal decodes data into the struct pointed to by target.
// Decode failures are reported as *FieldError.
func Unmarshal(data []byte, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a non-nil pointer to a struct")
	}
	root := v.Elem()

	rest := data
	_, err := walk(root.Type(), "", 0, func(f Field, index []int) error {
		head, tail, err := TakeN(f.Length, rest)
		if err != nil {
			return &FieldError{Field: f.Name, Offset: f.Offset, Err: err}
		}
		if err := decodeField(head, f.Rule, root.FieldByIndex(index)); err != nil {
			return &FieldError{Field: f.Name, Offset: f.Offset, Err: err}
		}
		rest = tail
		return nil
	}, nil)
	return err
}

// walk visits every tagged leaf of t in declaration order and returns the
// offset following the last one.
func walk(t reflect.Type, prefix string, offset int, visit func(Field, []int) error, index []int) (int, error) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, tagged := sf.Tag.Lookup("record")
		if tag == "-" || !sf.IsExported() {
			continue
		}

		path := append(append([]int(nil), index...), i)
		name := prefix + sf.Name

		if !tagged {
			if sf.Type.Kind() != reflect.Struct || sf.Type == timeType {
				continue
			}
			next, err := walk(sf.Type, name+".", offset, visit, path)
			if err != nil {
				return 0, err
			}
			offset = next
			continue
		}

		length, rule, err := parseTag(tag)
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", name, err)
		}
		if err := checkKind(rule, length, sf.Type); err != nil {
			return 0, fmt.Errorf("field %s: %w", name, err)
		}
		if err := visit(Field{Name: name, Offset: offset, Length: length, Rule: rule}, path); err != nil {
			return 0, err
		}
		offset += length
	}
	return offset, nil
}

func parseTag(tag string) (int, string, error) {
	lenStr, rule, _ := strings.Cut(tag, ",")
	length, err := strconv.Atoi(lenStr)
	if err != nil || length < 0 {
		return 0, "", fmt.Errorf("invalid record length %q", lenStr)
	}
	if rule == "" {
		rule = RuleRaw
	}
	return length, rule, nil
}

func checkKind(rule string, length int, t reflect.Type) error {
	ok := false
	switch rule {
	case RuleRaw:
		switch {
		case t.Kind() == reflect.Uint8:
			ok = length == 1
		case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
			ok = true
		case t.Kind() == reflect.Array && t.Elem().Kind() == reflect.Uint8:
			ok = t.Len() == length
		}
	case RuleText, RuleName, RuleBCD:
		ok = t.Kind() == reflect.String
	case RuleTime:
		ok = t == timeType && length == 4
	default:
		return fmt.Errorf("unknown record rule %q", rule)
	}
	if !ok {
		return fmt.Errorf("rule %s with length %d cannot fill %s", rule, length, t)
	}
	return nil
}

func decodeField(data []byte, rule string, field reflect.Value) error {
	switch rule {
	case RuleRaw:
		switch field.Kind() {
		case reflect.Uint8:
			field.SetUint(uint64(data[0]))
		case reflect.Array:
			reflect.Copy(field, reflect.ValueOf(data))
		default:
			field.SetBytes(append([]byte(nil), data...))
		}
		return nil

	case RuleTime:
		t, err := DecodeTimeReal(data)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
		return nil
	}

	var (
		s   string
		err error
	)
	switch rule {
	case RuleText:
		s, err = DecodeText(data)
	case RuleName:
		s, err = DecodeName(data)
	case RuleBCD:
		s, err = DecodeBCD(data)
	}
	if err != nil {
		return err
	}
	field.SetString(s)
	return nil
}
