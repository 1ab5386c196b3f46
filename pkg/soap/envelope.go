// Package soap implements the small slice of SOAP 1.1 the dotMailer API needs:
// document/literal envelopes with ordered named parameters, xsi-typed scalar
// values, fault decoding and navigation of the response body.
package soap

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

const (
	NamespaceEnvelope = "http://schemas.xmlsoap.org/soap/envelope/"
	NamespaceXSD      = "http://www.w3.org/2001/XMLSchema"
	NamespaceXSI      = "http://www.w3.org/2001/XMLSchema-instance"
)

// ErrUnsupportedValue is returned when a parameter value has no wire encoding.
var ErrUnsupportedValue = errors.New("unsupported parameter value")

// XSDType is the name of an XML Schema scalar type used in xsi:type attributes.
type XSDType string

const (
	XSDString       XSDType = "string"
	XSDInt          XSDType = "int"
	XSDBoolean      XSDType = "boolean"
	XSDBase64Binary XSDType = "base64Binary"
	XSDDateTime     XSDType = "dateTime"
)

// TypedValue is a scalar carrying its schema type explicitly on the wire, e.g.
// <anyType xsi:type="xsd:int">42</anyType>.
type TypedValue struct {
	Type  XSDType
	Value string
}

func String(v string) TypedValue { return TypedValue{Type: XSDString, Value: v} }

func Int(v int) TypedValue { return TypedValue{Type: XSDInt, Value: strconv.Itoa(v)} }

// Param is one named argument of a remote operation.
type Param struct {
	Name  string
	Value any
}

// Params is the ordered argument list of a remote operation. Order is
// significant: the service validates parameters against an xs:sequence.
type Params []Param

// Get returns the value of the first parameter with the given name.
func (p Params) Get(name string) (any, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return nil, false
}

// Marshaler is implemented by structured values that write their own child
// elements into el.
type Marshaler interface {
	MarshalSOAP(el *etree.Element) error
}

// BuildEnvelope returns a SOAP 1.1 request document invoking operation in the
// given target namespace.
func BuildEnvelope(namespace, operation string, params Params) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	env := doc.CreateElement("soap:Envelope")
	env.CreateAttr("xmlns:soap", NamespaceEnvelope)
	env.CreateAttr("xmlns:xsi", NamespaceXSI)
	env.CreateAttr("xmlns:xsd", NamespaceXSD)

	body := env.CreateElement("soap:Body")
	op := body.CreateElement(operation)
	op.CreateAttr("xmlns", namespace)

	for _, p := range params {
		if err := EncodeValue(op, p.Name, p.Value); err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
	}

	return doc, nil
}

// EncodeValue appends a child element called name holding v to parent. A nil
// value is omitted.
func EncodeValue(parent *etree.Element, name string, v any) error {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		parent.CreateElement(name).SetText(val)
	case bool:
		parent.CreateElement(name).SetText(strconv.FormatBool(val))
	case int:
		parent.CreateElement(name).SetText(strconv.Itoa(val))
	case int32:
		parent.CreateElement(name).SetText(strconv.FormatInt(int64(val), 10))
	case int64:
		parent.CreateElement(name).SetText(strconv.FormatInt(val, 10))
	case TypedValue:
		encodeTyped(parent.CreateElement(name), val)
	case []string:
		el := parent.CreateElement(name)
		for _, s := range val {
			el.CreateElement("string").SetText(s)
		}
	case []TypedValue:
		el := parent.CreateElement(name)
		for _, tv := range val {
			encodeTyped(el.CreateElement("anyType"), tv)
		}
	case Marshaler:
		return val.MarshalSOAP(parent.CreateElement(name))
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return nil
}

func encodeTyped(el *etree.Element, tv TypedValue) {
	typ := tv.Type
	if typ == "" {
		typ = XSDString
	}
	el.CreateAttr("xsi:type", "xsd:"+string(typ))
	el.SetText(tv.Value)
}
