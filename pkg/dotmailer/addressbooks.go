package dotmailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/natserract/dotmailer/pkg/soap"
	"go.uber.org/zap"
)

type addressBookList struct {
	Books []AddressBook `xml:"APIAddressBook"`
}

type contactList struct {
	Contacts []Contact `xml:"APIContact"`
}

// decodeAddressBooks reads {op}Result.APIAddressBook. found is false when the
// nested list is absent.
func decodeAddressBooks(resp *soap.Response, resultTag string) (books []AddressBook, found bool, err error) {
	if !resp.Has(resultTag, "APIAddressBook") {
		return []AddressBook{}, false, nil
	}
	var list addressBookList
	if err := decode(resp, &list, resultTag); err != nil {
		return nil, true, err
	}
	return list.Books, true, nil
}

// ListAddressBooks retrieves every address book on the account
func (c *Client) ListAddressBooks(ctx context.Context) ([]AddressBook, error) {
	resp, err := c.Call(ctx, "ListAddressBooks", nil)
	if err != nil {
		return nil, err
	}

	books, _, err := decodeAddressBooks(resp, "ListAddressBooksResult")
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Retrieved address books", zap.Int("count", len(books)))
	return books, nil
}

// ListContactsInAddressBook retrieves one page of contacts. A response without
// a contact list is an empty page, not an error.
func (c *Client) ListContactsInAddressBook(ctx context.Context, addressBookID, selectCount, skip int) ([]Contact, error) {
	if err := requireAddressBookID(addressBookID); err != nil {
		return nil, err
	}

	resp, err := c.Call(ctx, "ListContactsInAddressBook", soap.Params{
		{Name: "addressBookId", Value: addressBookID},
		{Name: "select", Value: selectCount},
		{Name: "skip", Value: skip},
	})
	if err != nil {
		return nil, err
	}

	if !resp.Has("ListContactsInAddressBookResult", "APIContact") {
		return []Contact{}, nil
	}

	var list contactList
	if err := decode(resp, &list, "ListContactsInAddressBookResult"); err != nil {
		return nil, err
	}
	for i := range list.Contacts {
		FlattenContactFields(&list.Contacts[i])
	}
	return list.Contacts, nil
}

// AddContactToAddressBook adds a contact, with optional data fields, to an
// address book and returns the stored contact.
func (c *Client) AddContactToAddressBook(ctx context.Context, addressBookID int, contact any, fields DataFields) (*Contact, error) {
	if err := requireAddressBookID(addressBookID); err != nil {
		return nil, err
	}

	validated, err := ValidateContact(contact)
	if err != nil {
		return nil, err
	}
	if err := attachFields(validated, fields); err != nil {
		return nil, err
	}

	resp, err := c.Call(ctx, "AddContactToAddressBook", soap.Params{
		{Name: "contact", Value: validated},
		{Name: "addressbookId", Value: addressBookID},
	})
	if err != nil {
		return nil, err
	}

	var out Contact
	if err := decode(resp, &out, "AddContactToAddressBookResult"); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveAllContactsFromAddressBook empties an address book. The response
// carries no data; ErrMissingResult means the service sent an empty body.
func (c *Client) RemoveAllContactsFromAddressBook(ctx context.Context, addressBookID int, opts RemoveOptions) (*soap.Response, error) {
	if err := requireAddressBookID(addressBookID); err != nil {
		return nil, err
	}

	resp, err := c.Call(ctx, "RemoveAllContactsFromAddressBook", soap.Params{
		{Name: "addressBookId", Value: addressBookID},
		{Name: "preventAddressbookResubscribe", Value: opts.PreventAddressBookResubscribe},
		{Name: "totalUnsubscribe", Value: opts.TotalUnsubscribe},
	})
	if err != nil {
		return nil, err
	}

	if !resp.Has() {
		return nil, fmt.Errorf("%w: RemoveAllContactsFromAddressBookResponse", ErrMissingResult)
	}
	return resp, nil
}

// AddContactsToAddressBookWithProgress starts an asynchronous import of a CSV
// or XLS file and returns the progress GUID to poll.
func (c *Client) AddContactsToAddressBookWithProgress(ctx context.Context, addressBookID int, data []byte, dataType string) (string, error) {
	if _, err := ParseFileFormat(dataType); err != nil {
		return "", err
	}

	resp, err := c.Call(ctx, "AddContactsToAddressBookWithProgress", soap.Params{
		{Name: "addressbookID", Value: addressBookID},
		{Name: "data", Value: soap.TypedValue{Type: soap.XSDBase64Binary, Value: base64.StdEncoding.EncodeToString(data)}},
		{Name: "dataType", Value: dataType},
	})
	if err != nil {
		return "", err
	}

	progressID, ok := resp.Text("AddContactsToAddressBookWithProgressResult")
	if !ok {
		return "", fmt.Errorf("%w: AddContactsToAddressBookWithProgressResult", ErrMissingResult)
	}
	if _, err := uuid.Parse(progressID); err != nil {
		c.logger.Warn("Import progress ID is not a GUID",
			zap.String("progress_id", progressID),
			zap.Error(err))
	}

	c.logger.Info("Started contact import",
		zap.Int("address_book_id", addressBookID),
		zap.String("data_type", dataType),
		zap.Int("bytes", len(data)),
		zap.String("progress_id", progressID))

	return progressID, nil
}

// GetContactImportProgress returns the state of an import started by
// AddContactsToAddressBookWithProgress.
func (c *Client) GetContactImportProgress(ctx context.Context, progressID string) (ImportStatus, error) {
	resp, err := c.Call(ctx, "GetContactImportProgress", soap.Params{
		{Name: "progressID", Value: progressID},
	})
	if err != nil {
		return "", err
	}

	status, ok := resp.Text("GetContactImportProgressResult")
	if !ok || status == "" {
		return "", fmt.Errorf("%w: GetContactImportProgressResult", ErrMissingResult)
	}
	return ImportStatus(status), nil
}

// GetAddressBookContactCount returns the number of contacts in an address book.
func (c *Client) GetAddressBookContactCount(ctx context.Context, addressBookID int) (int, error) {
	if err := requireAddressBookID(addressBookID); err != nil {
		return 0, err
	}

	resp, err := c.Call(ctx, "GetAddressBookContactCount", soap.Params{
		{Name: "addressbookid", Value: addressBookID},
	})
	if err != nil {
		return 0, err
	}

	text, ok := resp.Text("GetAddressBookContactCountResult")
	if !ok {
		return 0, fmt.Errorf("%w: GetAddressBookContactCountResult", ErrMissingResult)
	}
	count, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("failed to parse contact count %q: %w", text, err)
	}
	return count, nil
}

// CreateAddressBook creates an address book with the given name.
func (c *Client) CreateAddressBook(ctx context.Context, name string) (*AddressBook, error) {
	resp, err := c.Call(ctx, "CreateAddressBook", soap.Params{
		{Name: "book", Value: AddressBook{ID: -1, Name: name}},
	})
	if err != nil {
		return nil, err
	}

	var book AddressBook
	if err := decode(resp, &book, "CreateAddressBookResult"); err != nil {
		return nil, err
	}

	c.logger.Info("Created address book",
		zap.Int("address_book_id", book.ID),
		zap.String("name", book.Name))
	return &book, nil
}

// DeleteAddressBook deletes an address book.
func (c *Client) DeleteAddressBook(ctx context.Context, addressBookID int) error {
	if err := requireAddressBookID(addressBookID); err != nil {
		return err
	}

	_, err := c.Call(ctx, "DeleteAddressBook", soap.Params{
		{Name: "addressbookid", Value: addressBookID},
	})
	return err
}
