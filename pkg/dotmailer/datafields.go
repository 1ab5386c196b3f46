package dotmailer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/natserract/dotmailer/pkg/soap"
)

// FieldType selects the wire encoding of a data field value.
type FieldType string

const (
	// FieldDefault encodes the value as a string.
	FieldDefault FieldType = ""
	FieldString  FieldType = "string"
	FieldInt     FieldType = "int"

	// Types the service returns for Date, Boolean and Numeric data labels.
	// Fields read from a contact keep them so the contact can be sent back.
	FieldDateTime FieldType = "dateTime"
	FieldBoolean  FieldType = "boolean"
	FieldDecimal  FieldType = "decimal"
	FieldDouble   FieldType = "double"
	FieldLong     FieldType = "long"
)

// DataField is one custom contact attribute.
type DataField struct {
	Key   string
	Value any
	Type  FieldType
}

// DataFields keeps custom attributes in the order they are sent.
type DataFields []DataField

// StringField is a data field encoded as xsd:string.
func StringField(key, value string) DataField {
	return DataField{Key: key, Value: value, Type: FieldString}
}

// IntField is a data field encoded as xsd:int.
func IntField(key string, value int) DataField {
	return DataField{Key: key, Value: value, Type: FieldInt}
}

// ContactDataFields is the wire form of custom attributes: two parallel
// sequences of keys and typed values.
type ContactDataFields struct {
	Keys   []string          `xml:"Keys>string"`
	Values []soap.TypedValue `xml:"Values>anyType"`
}

func (d *ContactDataFields) MarshalSOAP(el *etree.Element) error {
	if err := soap.EncodeValue(el, "Keys", d.Keys); err != nil {
		return err
	}
	return soap.EncodeValue(el, "Values", d.Values)
}

// EncodeDataFields converts fields to their wire form, preserving order.
func EncodeDataFields(fields DataFields) (*ContactDataFields, error) {
	out := &ContactDataFields{
		Keys:   make([]string, 0, len(fields)),
		Values: make([]soap.TypedValue, 0, len(fields)),
	}

	for _, f := range fields {
		tv, err := encodeField(f)
		if err != nil {
			return nil, fmt.Errorf("data field %s: %w", f.Key, err)
		}
		out.Keys = append(out.Keys, f.Key)
		out.Values = append(out.Values, tv)
	}

	return out, nil
}

func encodeField(f DataField) (soap.TypedValue, error) {
	switch f.Type {
	case FieldDefault, FieldString:
		if s, ok := f.Value.(string); ok {
			return soap.String(s), nil
		}
		return soap.String(fmt.Sprint(f.Value)), nil
	case FieldInt:
		n, err := numericID(f.Value)
		if err != nil {
			return soap.TypedValue{}, err
		}
		return soap.Int(n), nil
	case FieldDateTime:
		if t, ok := f.Value.(time.Time); ok {
			return soap.TypedValue{Type: soap.XSDDateTime, Value: t.Format("2006-01-02T15:04:05")}, nil
		}
		return soap.TypedValue{Type: soap.XSDDateTime, Value: fmt.Sprint(f.Value)}, nil
	case FieldBoolean, FieldDecimal, FieldDouble, FieldLong:
		return soap.TypedValue{Type: soap.XSDType(f.Type), Value: fmt.Sprint(f.Value)}, nil
	}
	return soap.TypedValue{}, fmt.Errorf("%w: %q", ErrUnsupportedFieldType, f.Type)
}

// FlattenContactFields zips the contact's DataFields keys and values into
// Contact.Fields. xsd:int values become int; other values stay strings and
// keep their wire type.
// Sequences of different length are zipped up to the shorter one.
func FlattenContactFields(c *Contact) *Contact {
	if c == nil {
		return nil
	}
	c.Fields = nil
	if c.DataFields == nil {
		return c
	}

	n := min(len(c.DataFields.Keys), len(c.DataFields.Values))
	c.Fields = make(DataFields, 0, n)
	for i := 0; i < n; i++ {
		c.Fields = append(c.Fields, decodeField(c.DataFields.Keys[i], c.DataFields.Values[i]))
	}
	return c
}

func decodeField(key string, tv soap.TypedValue) DataField {
	switch tv.Type {
	case soap.XSDInt:
		if n, err := strconv.Atoi(tv.Value); err == nil {
			return DataField{Key: key, Value: n, Type: FieldInt}
		}
	case soap.XSDString, "":
		return DataField{Key: key, Value: tv.Value, Type: FieldString}
	}
	return DataField{Key: key, Value: tv.Value, Type: FieldType(tv.Type)}
}
