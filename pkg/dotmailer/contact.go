package dotmailer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/natserract/dotmailer/pkg/soap"
)

// NewContactID marks a contact that does not exist on the service yet.
const NewContactID = -1

type AudienceType string

const (
	AudienceUnknown AudienceType = "Unknown"
	AudienceB2C     AudienceType = "B2C"
	AudienceB2B     AudienceType = "B2B"
	AudienceB2M     AudienceType = "B2M"
)

func (a AudienceType) Valid() bool {
	switch a {
	case AudienceUnknown, AudienceB2C, AudienceB2B, AudienceB2M:
		return true
	}
	return false
}

type OptInType string

const (
	OptInUnknown        OptInType = "Unknown"
	OptInSingle         OptInType = "Single"
	OptInDouble         OptInType = "Double"
	OptInVerifiedDouble OptInType = "VerifiedDouble"
)

func (o OptInType) Valid() bool {
	switch o {
	case OptInUnknown, OptInSingle, OptInDouble, OptInVerifiedDouble:
		return true
	}
	return false
}

type EmailType string

const (
	EmailPlainText EmailType = "PlainText"
	EmailHTML      EmailType = "Html"
)

func (e EmailType) Valid() bool {
	return e == EmailPlainText || e == EmailHTML
}

// Contact is an APIContact.
//
// An ID of 0 is treated as unset and becomes NewContactID on validation.
// Fields is filled by FlattenContactFields from the DataFields sent by the
// service and is never transmitted.
type Contact struct {
	ID           int                `xml:"ID"`
	Email        string             `xml:"Email"`
	AudienceType AudienceType       `xml:"AudienceType"`
	DataFields   *ContactDataFields `xml:"DataFields"`
	OptInType    OptInType          `xml:"OptInType"`
	EmailType    EmailType          `xml:"EmailType"`
	Notes        string             `xml:"Notes"`

	Fields DataFields `xml:"-"`
}

// MarshalSOAP writes the contact in APIContact sequence order.
func (c *Contact) MarshalSOAP(el *etree.Element) error {
	values := soap.Params{
		{Name: "ID", Value: c.ID},
		{Name: "Email", Value: c.Email},
		{Name: "AudienceType", Value: string(c.AudienceType)},
	}
	if c.DataFields != nil {
		values = append(values, soap.Param{Name: "DataFields", Value: c.DataFields})
	}
	values = append(values,
		soap.Param{Name: "OptInType", Value: string(c.OptInType)},
		soap.Param{Name: "EmailType", Value: string(c.EmailType)},
	)
	if c.Notes != "" {
		values = append(values, soap.Param{Name: "Notes", Value: c.Notes})
	}

	for _, v := range values {
		if err := soap.EncodeValue(el, v.Name, v.Value); err != nil {
			return fmt.Errorf("contact %s: %w", v.Name, err)
		}
	}
	return nil
}

// Field returns the flattened data field called key.
func (c *Contact) Field(key string) (any, bool) {
	for _, f := range c.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// FieldMap returns the flattened data fields keyed by name.
func (c *Contact) FieldMap() map[string]any {
	m := make(map[string]any, len(c.Fields))
	for _, f := range c.Fields {
		m[f.Key] = f.Value
	}
	return m
}

// ValidateContact normalizes a contact supplied as *Contact, Contact,
// map[string]any or map[string]string. Missing enumerated fields get their
// defaults (B2C, Single, Html, ID -1); present but unknown values fail with
// ErrInvalidParameters. The input is never modified.
func ValidateContact(v any) (*Contact, error) {
	switch c := v.(type) {
	case *Contact:
		if c == nil {
			return nil, fmt.Errorf("%w: nil contact", ErrInvalidContactType)
		}
		return normalizeContact(*c)
	case Contact:
		return normalizeContact(c)
	case map[string]any:
		return contactFromMap(c)
	case map[string]string:
		m := make(map[string]any, len(c))
		for k, val := range c {
			m[k] = val
		}
		return contactFromMap(m)
	}
	return nil, fmt.Errorf("%w: %T", ErrInvalidContactType, v)
}

func normalizeContact(c Contact) (*Contact, error) {
	if c.AudienceType == "" {
		c.AudienceType = AudienceB2C
	} else if !c.AudienceType.Valid() {
		return nil, fmt.Errorf("%w: AudienceType must be one of Unknown, B2C, B2B or B2M", ErrInvalidParameters)
	}

	if c.OptInType == "" {
		c.OptInType = OptInSingle
	} else if !c.OptInType.Valid() {
		return nil, fmt.Errorf("%w: OptInType must be one of Unknown, Single, Double or VerifiedDouble", ErrInvalidParameters)
	}

	if c.EmailType == "" {
		c.EmailType = EmailHTML
	} else if !c.EmailType.Valid() {
		return nil, fmt.Errorf("%w: EmailType must be one of PlainText or Html", ErrInvalidParameters)
	}

	if c.ID == 0 {
		c.ID = NewContactID
	}

	if c.DataFields != nil {
		df := *c.DataFields
		c.DataFields = &df
	}
	c.Fields = append(DataFields(nil), c.Fields...)

	return &c, nil
}

func contactFromMap(m map[string]any) (*Contact, error) {
	var c Contact

	for key, dst := range map[string]*string{
		"Email": &c.Email,
		"Notes": &c.Notes,
	} {
		if v, ok := m[key]; ok && v != nil {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidParameters, key)
			}
			*dst = s
		}
	}

	enums := []struct {
		key string
		set func(string)
	}{
		{"AudienceType", func(s string) { c.AudienceType = AudienceType(s) }},
		{"OptInType", func(s string) { c.OptInType = OptInType(s) }},
		{"EmailType", func(s string) { c.EmailType = EmailType(s) }},
	}
	for _, e := range enums {
		v, ok := m[e.key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("%w: %s has invalid value %v", ErrInvalidParameters, e.key, v)
		}
		e.set(s)
	}

	c.ID = NewContactID
	if v, ok := m["ID"]; ok && v != nil {
		id, err := numericID(v)
		if err != nil {
			return nil, fmt.Errorf("%w: ID must be a number", ErrInvalidParameters)
		}
		c.ID = id
	}

	switch fields := m["DataFields"].(type) {
	case nil:
	case DataFields:
		c.Fields = fields
	case *ContactDataFields:
		c.DataFields = fields
	default:
		return nil, fmt.Errorf("%w: DataFields has unsupported type %T", ErrInvalidParameters, fields)
	}

	return normalizeContact(c)
}

// ParseID parses a numeric identifier supplied as text.
func ParseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidParameters, s)
	}
	return id, nil
}

func numericID(v any) (int, error) {
	switch id := v.(type) {
	case int:
		return id, nil
	case int32:
		return int(id), nil
	case int64:
		return int(id), nil
	case float64:
		if id != float64(int(id)) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidParameters, id)
		}
		return int(id), nil
	case string:
		return ParseID(id)
	}
	return 0, fmt.Errorf("%w: %T is not a number", ErrInvalidParameters, v)
}
