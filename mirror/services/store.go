package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/natserract/dotmailer/pkg/dotmailer"
)

// Store is the persistence the mirror services need. postgres.Store is the
// production implementation.
type Store interface {
	SaveAddressBook(ctx context.Context, book dotmailer.AddressBook, contactCount int) error
	SaveContacts(ctx context.Context, addressBookID int, contacts []dotmailer.Contact) error

	CreateSyncJob(ctx context.Context, jobType string, totalItems int, metadata map[string]any) (uuid.UUID, error)
	UpdateSyncJobProgress(ctx context.Context, id uuid.UUID, processed, succeeded, failed int) error
	CompleteSyncJob(ctx context.Context, id uuid.UUID, status string, duration, avg time.Duration, errMsg string) error

	CreateContactImport(ctx context.Context, progressID string, addressBookID int, fileName, dataType string, size int) error
	UpdateContactImportStatus(ctx context.Context, progressID string, status dotmailer.ImportStatus) error
}

// AddressBookClient is the part of the dotMailer API used by SyncService.
type AddressBookClient interface {
	ListAddressBooks(ctx context.Context) ([]dotmailer.AddressBook, error)
	GetAddressBookContactCount(ctx context.Context, addressBookID int) (int, error)
	ListContactsInAddressBook(ctx context.Context, addressBookID, selectCount, skip int) ([]dotmailer.Contact, error)
}

// ImportClient is the part of the dotMailer API used by ImportService.
type ImportClient interface {
	AddContactsToAddressBookWithProgress(ctx context.Context, addressBookID int, data []byte, dataType string) (string, error)
	WaitForImport(ctx context.Context, progressID string, opts dotmailer.PollOptions) (dotmailer.ImportStatus, error)
}

// Job statuses recorded in sync_jobs.
const (
	JobStatusCompleted           = "completed"
	JobStatusCompletedWithErrors = "completed_with_errors"
	JobStatusFailed              = "failed"
)
