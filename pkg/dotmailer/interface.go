package dotmailer

import (
	"context"

	"github.com/natserract/dotmailer/pkg/soap"
)

// API defines the interface for dotMailer operations
type API interface {
	// Address books
	ListAddressBooks(ctx context.Context) ([]AddressBook, error)
	ListContactsInAddressBook(ctx context.Context, addressBookID, selectCount, skip int) ([]Contact, error)
	AddContactToAddressBook(ctx context.Context, addressBookID int, contact any, fields DataFields) (*Contact, error)
	RemoveAllContactsFromAddressBook(ctx context.Context, addressBookID int, opts RemoveOptions) (*soap.Response, error)
	AddContactsToAddressBookWithProgress(ctx context.Context, addressBookID int, data []byte, dataType string) (string, error)
	GetContactImportProgress(ctx context.Context, progressID string) (ImportStatus, error)
	WaitForImport(ctx context.Context, progressID string, opts PollOptions) (ImportStatus, error)
	GetAddressBookContactCount(ctx context.Context, addressBookID int) (int, error)
	CreateAddressBook(ctx context.Context, name string) (*AddressBook, error)
	DeleteAddressBook(ctx context.Context, addressBookID int) error

	// Contacts
	GetContactByEmail(ctx context.Context, email string) (*Contact, error)
	GetContactByID(ctx context.Context, id int) (*Contact, error)
	CreateContact(ctx context.Context, contact any, fields DataFields) (*Contact, error)
	UpdateContact(ctx context.Context, contact any, fields DataFields) error
	ListContactDataLabels(ctx context.Context) ([]ContactDataLabel, error)
	ListAddressBooksForContact(ctx context.Context, contact any) ([]AddressBook, error)

	// Campaigns
	ListSentCampaignsWithActivitySinceDate(ctx context.Context, startDate string) ([]Campaign, error)
	GetCampaign(ctx context.Context, campaignID int) (*Campaign, error)
	GetCampaignSummary(ctx context.Context, campaignID int) (*CampaignSummary, error)
	ListAddressBooksForCampaign(ctx context.Context, campaignID int) ([]AddressBook, error)
	SendCampaignToContact(ctx context.Context, campaignID, contactID int, sendDate string) error

	// Account
	GetCurrentAccountInfo(ctx context.Context) (*AccountInfo, error)
	GetServerTime(ctx context.Context) (string, error)

	// Raw access
	Call(ctx context.Context, operation string, params soap.Params) (*soap.Response, error)
	LastError() error
	LastFault() *soap.Fault
	IsError() bool
}

var _ API = (*Client)(nil)
