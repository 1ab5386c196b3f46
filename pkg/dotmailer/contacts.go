package dotmailer

import (
	"context"
	"fmt"

	"github.com/natserract/dotmailer/pkg/soap"
	"go.uber.org/zap"
)

type dataLabelList struct {
	Labels []ContactDataLabel `xml:"ContactDataLabel"`
}

// attachFields encodes fields into c.DataFields. Explicit fields win over
// flattened fields already on the contact; with neither, DataFields is left
// as supplied.
func attachFields(c *Contact, fields DataFields) error {
	if len(fields) == 0 {
		fields = c.Fields
	}
	if len(fields) == 0 {
		return nil
	}

	encoded, err := EncodeDataFields(fields)
	if err != nil {
		return err
	}
	c.DataFields = encoded
	return nil
}

func (c *Client) decodeContact(resp *soap.Response, resultTag string) (*Contact, error) {
	var contact Contact
	if err := decode(resp, &contact, resultTag); err != nil {
		return nil, err
	}
	return FlattenContactFields(&contact), nil
}

// GetContactByEmail looks a contact up by email address.
func (c *Client) GetContactByEmail(ctx context.Context, email string) (*Contact, error) {
	resp, err := c.Call(ctx, "GetContactByEmail", soap.Params{
		{Name: "email", Value: email},
	})
	if err != nil {
		return nil, err
	}
	return c.decodeContact(resp, "GetContactByEmailResult")
}

// GetContactByID looks a contact up by its service ID.
func (c *Client) GetContactByID(ctx context.Context, id int) (*Contact, error) {
	resp, err := c.Call(ctx, "GetContactById", soap.Params{
		{Name: "id", Value: id},
	})
	if err != nil {
		return nil, err
	}
	return c.decodeContact(resp, "GetContactByIdResult")
}

// CreateContact creates a contact with optional data fields.
func (c *Client) CreateContact(ctx context.Context, contact any, fields DataFields) (*Contact, error) {
	validated, err := ValidateContact(contact)
	if err != nil {
		return nil, err
	}
	if err := attachFields(validated, fields); err != nil {
		return nil, err
	}

	resp, err := c.Call(ctx, "CreateContact", soap.Params{
		{Name: "contact", Value: validated},
	})
	if err != nil {
		return nil, err
	}

	created, err := c.decodeContact(resp, "CreateContactResult")
	if err != nil {
		return nil, err
	}

	c.logger.Info("Created contact",
		zap.Int("contact_id", created.ID),
		zap.String("email", created.Email))
	return created, nil
}

// UpdateContact replaces a contact's standard and data fields.
func (c *Client) UpdateContact(ctx context.Context, contact any, fields DataFields) error {
	validated, err := ValidateContact(contact)
	if err != nil {
		return err
	}
	if err := attachFields(validated, fields); err != nil {
		return err
	}

	if _, err := c.Call(ctx, "UpdateContact", soap.Params{
		{Name: "contact", Value: validated},
	}); err != nil {
		return err
	}

	c.logger.Debug("Updated contact", zap.Int("contact_id", validated.ID))
	return nil
}

// ListContactDataLabels returns the custom data fields defined on the account.
func (c *Client) ListContactDataLabels(ctx context.Context) ([]ContactDataLabel, error) {
	resp, err := c.Call(ctx, "ListContactDataLabels", nil)
	if err != nil {
		return nil, err
	}

	if !resp.Has("ListContactDataLabelsResult", "ContactDataLabel") {
		return []ContactDataLabel{}, nil
	}
	var list dataLabelList
	if err := decode(resp, &list, "ListContactDataLabelsResult"); err != nil {
		return nil, err
	}
	return list.Labels, nil
}

// ListAddressBooksForContact returns the address books a contact belongs to.
// Unlike the campaign variant, a response without the nested list is
// ErrMissingResult.
func (c *Client) ListAddressBooksForContact(ctx context.Context, contact any) ([]AddressBook, error) {
	validated, err := ValidateContact(contact)
	if err != nil {
		return nil, err
	}

	resp, err := c.Call(ctx, "ListAddressBooksForContact", soap.Params{
		{Name: "contact", Value: validated},
	})
	if err != nil {
		return nil, err
	}

	books, found, err := decodeAddressBooks(resp, "ListAddressBooksForContactResult")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: ListAddressBooksForContactResult.APIAddressBook", ErrMissingResult)
	}
	return books, nil
}
