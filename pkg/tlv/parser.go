// Package tlv maps BER-TLV (Tag-Length-Value) data onto Go structures using struct tags.
//
//	type Template struct {
//		AID     []byte       `tlv:"4F"`
//		Label   []byte       `tlv:"50"`
//		Unknown []bertlv.TLV `tlv:",unknown"`
//	}
//
// Supported field kinds are []byte (raw value, re-encoded children for
// constructed tags), string (hex of the value), nested structs, and slices of
// structs for repeated tags. A field tagged ",unknown" collects the packets no
// other field consumed.
package tlv

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Unmarshaler allows custom types to implement their own TLV parsing logic.
type Unmarshaler interface {
	UnmarshalTLV(data []byte) error
}

// Unmarshal parses raw BER-TLV data and maps it into a target Go struct.
func Unmarshal(data []byte, target interface{}) error {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return fmt.Errorf("bertlv decode failed: %w", err)
	}
	return UnmarshalFromPackets(packets, target)
}

// UnmarshalFromPackets maps pre-decoded packets onto the struct pointed to by target.
func UnmarshalFromPackets(packets []bertlv.TLV, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a non-nil pointer to a struct")
	}
	v = v.Elem()
	t := v.Type()

	consumed := make([]bool, len(packets))
	var unknown reflect.Value

	for i := 0; i < v.NumField(); i++ {
		tag := t.Field(i).Tag.Get("tlv")
		if tag == "" {
			continue
		}

		name, opt, _ := strings.Cut(tag, ",")
		if opt == "unknown" {
			unknown = v.Field(i)
			continue
		}

		for idx, packet := range packets {
			if !strings.EqualFold(packet.Tag, name) {
				continue
			}
			if err := assign(packet, v.Field(i)); err != nil {
				return fmt.Errorf("tag %s: %w", packet.Tag, err)
			}
			consumed[idx] = true
		}
	}

	if unknown.IsValid() && unknown.CanSet() {
		for idx, packet := range packets {
			if !consumed[idx] {
				unknown.Set(reflect.Append(unknown, reflect.ValueOf(packet)))
			}
		}
	}

	return nil
}

// assign stores one packet in a field, appending when the field is a slice of structs.
func assign(packet bertlv.TLV, field reflect.Value) error {
	if field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Struct {
		elem := reflect.New(field.Type().Elem())
		if err := decodeInto(packet, elem.Elem()); err != nil {
			return err
		}
		field.Set(reflect.Append(field, elem.Elem()))
		return nil
	}
	return decodeInto(packet, field)
}

func decodeInto(packet bertlv.TLV, field reflect.Value) error {
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(rawValue(packet))
		}
	}

	switch {
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Uint8:
		field.SetBytes(rawValue(packet))
	case field.Kind() == reflect.String:
		field.SetString(strings.ToUpper(hex.EncodeToString(rawValue(packet))))
	case field.Kind() == reflect.Struct:
		return decodeStruct(packet, field.Addr())
	case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return decodeStruct(packet, field)
	}
	return nil
}

func decodeStruct(packet bertlv.TLV, ptr reflect.Value) error {
	if len(packet.TLVs) > 0 {
		return UnmarshalFromPackets(packet.TLVs, ptr.Interface())
	}
	return Unmarshal(packet.Value, ptr.Interface())
}

// rawValue returns the value bytes, re-encoding children of constructed tags.
func rawValue(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}
