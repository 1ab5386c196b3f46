package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/natserract/dotmailer/pkg/dotmailer"
	"go.uber.org/zap"
)

// ErrImportNotFound is returned when a status update names an unknown import.
var ErrImportNotFound = errors.New("contact import not found")

// Store persists the mirror on top of DB.
type Store struct {
	db      *DB
	queries *Queries
	logger  *zap.Logger
}

// NewStore creates a new store
func NewStore(db *DB, logger *zap.Logger) *Store {
	return &Store{
		db:      db,
		queries: NewQueries(),
		logger:  logger,
	}
}

// SaveAddressBook saves or updates an address book. A negative contactCount
// stores NULL.
func (s *Store) SaveAddressBook(ctx context.Context, book dotmailer.AddressBook, contactCount int) error {
	_, err := s.queries.UpsertAddressBook(ctx, s.db.Pool(), UpsertAddressBookParams{
		ID:           int32(book.ID),
		Name:         book.Name,
		ContactCount: pgtype.Int4{Int32: int32(contactCount), Valid: contactCount >= 0},
	})
	if err != nil {
		return fmt.Errorf("failed to save address book %d: %w", book.ID, err)
	}

	s.logger.Debug("Saved address book",
		zap.Int("address_book_id", book.ID),
		zap.String("name", book.Name))
	return nil
}

// SaveContacts saves a page of contacts and their membership of the address
// book in one transaction.
func (s *Store) SaveContacts(ctx context.Context, addressBookID int, contacts []dotmailer.Contact) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range contacts {
		params, err := contactParams(c)
		if err != nil {
			return err
		}
		if err := s.queries.UpsertContact(ctx, tx, params); err != nil {
			return fmt.Errorf("failed to save contact %d: %w", c.ID, err)
		}
		if err := s.queries.AddAddressBookContact(ctx, tx, AddAddressBookContactParams{
			AddressBookID: int32(addressBookID),
			ContactID:     int32(c.ID),
		}); err != nil {
			return fmt.Errorf("failed to link contact %d to address book %d: %w", c.ID, addressBookID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("Saved contacts batch",
		zap.Int("address_book_id", addressBookID),
		zap.Int("count", len(contacts)))
	return nil
}

func contactParams(c dotmailer.Contact) (UpsertContactParams, error) {
	if len(c.Fields) == 0 && c.DataFields != nil {
		dotmailer.FlattenContactFields(&c)
	}
	fields, err := json.Marshal(c.FieldMap())
	if err != nil {
		return UpsertContactParams{}, fmt.Errorf("failed to marshal data fields of contact %d: %w", c.ID, err)
	}

	return UpsertContactParams{
		ID:           int32(c.ID),
		Email:        c.Email,
		AudienceType: string(c.AudienceType),
		OptInType:    string(c.OptInType),
		EmailType:    string(c.EmailType),
		Notes:        pgtype.Text{String: c.Notes, Valid: c.Notes != ""},
		DataFields:   fields,
	}, nil
}

// CreateSyncJob records a running job and returns its ID.
func (s *Store) CreateSyncJob(ctx context.Context, jobType string, totalItems int, metadata map[string]any) (uuid.UUID, error) {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal sync job metadata: %w", err)
	}

	job, err := s.queries.CreateSyncJob(ctx, s.db.Pool(), CreateSyncJobParams{
		ID:         uuid.New(),
		JobType:    jobType,
		Status:     "running",
		TotalItems: int32(totalItems),
		Metadata:   meta,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create sync job: %w", err)
	}
	return job.ID, nil
}

// GetSyncJob loads a job by ID.
func (s *Store) GetSyncJob(ctx context.Context, id uuid.UUID) (*SyncJob, error) {
	job, err := s.queries.GetSyncJob(ctx, s.db.Pool(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync job %s: %w", id, err)
	}
	return &job, nil
}

func (s *Store) UpdateSyncJobProgress(ctx context.Context, id uuid.UUID, processed, succeeded, failed int) error {
	err := s.queries.UpdateSyncJobProgress(ctx, s.db.Pool(), UpdateSyncJobProgressParams{
		ProcessedItems: int32(processed),
		SucceededItems: int32(succeeded),
		FailedItems:    int32(failed),
		ID:             id,
	})
	if err != nil {
		return fmt.Errorf("failed to update sync job %s: %w", id, err)
	}
	return nil
}

func (s *Store) CompleteSyncJob(ctx context.Context, id uuid.UUID, status string, duration, avg time.Duration, errMsg string) error {
	err := s.queries.CompleteSyncJob(ctx, s.db.Pool(), CompleteSyncJobParams{
		Status:              status,
		ErrorMessage:        pgtype.Text{String: errMsg, Valid: errMsg != ""},
		DurationMs:          pgtype.Int4{Int32: int32(duration.Milliseconds()), Valid: true},
		AvgProcessingTimeMs: pgtype.Int4{Int32: int32(avg.Milliseconds()), Valid: true},
		ID:                  id,
	})
	if err != nil {
		return fmt.Errorf("failed to complete sync job %s: %w", id, err)
	}
	return nil
}

// CreateContactImport records a submitted file import. Resubmitting a known
// progress ID is an error.
func (s *Store) CreateContactImport(ctx context.Context, progressID string, addressBookID int, fileName, dataType string, size int) error {
	err := s.queries.CreateContactImport(ctx, s.db.Pool(), CreateContactImportParams{
		ProgressID:    progressID,
		AddressBookID: int32(addressBookID),
		FileName:      fileName,
		DataType:      dataType,
		SizeBytes:     int32(size),
		Status:        string(dotmailer.ImportNotFinished),
	})
	if err != nil {
		if isUniqueConstraintViolation(err) {
			return fmt.Errorf("contact import %s already recorded: %w", progressID, err)
		}
		return fmt.Errorf("failed to record contact import %s: %w", progressID, err)
	}
	return nil
}

func (s *Store) UpdateContactImportStatus(ctx context.Context, progressID string, status dotmailer.ImportStatus) error {
	n, err := s.queries.UpdateContactImportStatus(ctx, s.db.Pool(), UpdateContactImportStatusParams{
		Status:     string(status),
		Finished:   status.Done(),
		ProgressID: progressID,
	})
	if err != nil {
		return fmt.Errorf("failed to update contact import %s: %w", progressID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrImportNotFound, progressID)
	}
	return nil
}

// isUniqueConstraintViolation checks if the error is a unique constraint violation
func isUniqueConstraintViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "unique constraint")
}
