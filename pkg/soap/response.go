package soap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

var (
	ErrMalformedResponse = errors.New("malformed soap response")
	ErrElementNotFound   = errors.New("element not found in soap response")
)

// Response is the {Operation}Response element of a successful call. The
// element may be absent when the service answers with an empty body.
type Response struct {
	Operation string
	el        *etree.Element
}

// ParseResponse decodes a SOAP envelope. A Fault in the body is returned as a
// *Fault error.
func ParseResponse(operation string, data []byte) (*Response, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "Envelope" {
		return nil, fmt.Errorf("%w: missing Envelope", ErrMalformedResponse)
	}
	body := root.SelectElement("Body")
	if body == nil {
		return nil, fmt.Errorf("%w: missing Body", ErrMalformedResponse)
	}
	if fault := body.SelectElement("Fault"); fault != nil {
		return nil, parseFault(fault)
	}

	return &Response{
		Operation: operation,
		el:        body.SelectElement(operation + "Response"),
	}, nil
}

// Element returns the raw response element, or nil.
func (r *Response) Element() *etree.Element {
	if r == nil {
		return nil
	}
	return r.el
}

// Find walks path from the response element, matching child tags in any
// namespace. An empty path returns the response element itself.
func (r *Response) Find(path ...string) *etree.Element {
	el := r.Element()
	for _, tag := range path {
		if el == nil {
			return nil
		}
		el = el.SelectElement(tag)
	}
	return el
}

// Has reports whether the element at path exists.
func (r *Response) Has(path ...string) bool {
	return r.Find(path...) != nil
}

// Text returns the trimmed character data of the element at path.
func (r *Response) Text(path ...string) (string, bool) {
	el := r.Find(path...)
	if el == nil {
		return "", false
	}
	return strings.TrimSpace(el.Text()), true
}

// Decode unmarshals the element at path into v using encoding/xml.
func (r *Response) Decode(v any, path ...string) error {
	el := r.Find(path...)
	if el == nil {
		return fmt.Errorf("%w: %s", ErrElementNotFound, strings.Join(path, "."))
	}

	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	data, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", el.Tag, err)
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", el.Tag, err)
	}
	return nil
}

// UnmarshalXML reads a typed scalar, taking the schema type from xsi:type.
func (tv *TypedValue) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	tv.Type = XSDString
	for _, attr := range start.Attr {
		if attr.Name.Local != "type" {
			continue
		}
		typ := attr.Value
		if i := strings.IndexByte(typ, ':'); i >= 0 {
			typ = typ[i+1:]
		}
		tv.Type = XSDType(typ)
	}

	var text string
	if err := d.DecodeElement(&text, &start); err != nil {
		return err
	}
	tv.Value = text
	return nil
}
