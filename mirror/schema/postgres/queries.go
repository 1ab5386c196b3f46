package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Queries holds the mirror's SQL. Every method takes the connection or
// transaction to run on.
type Queries struct{}

func NewQueries() *Queries {
	return &Queries{}
}

type AddressBook struct {
	ID           int32
	Name         string
	ContactCount pgtype.Int4
	SyncedAt     pgtype.Timestamptz
}

type SyncJob struct {
	ID                  uuid.UUID
	JobType             string
	Status              string
	TotalItems          int32
	ProcessedItems      int32
	SucceededItems      int32
	FailedItems         int32
	Metadata            []byte
	ErrorMessage        pgtype.Text
	StartedAt           pgtype.Timestamptz
	CompletedAt         pgtype.Timestamptz
	DurationMs          pgtype.Int4
	AvgProcessingTimeMs pgtype.Int4
}

type ContactImport struct {
	ProgressID    string
	AddressBookID int32
	FileName      string
	DataType      string
	SizeBytes     int32
	Status        string
	StartedAt     pgtype.Timestamptz
	FinishedAt    pgtype.Timestamptz
}

const upsertAddressBook = `
INSERT INTO address_books (id, name, contact_count, synced_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    contact_count = EXCLUDED.contact_count,
    synced_at = NOW()
RETURNING id, name, contact_count, synced_at`

type UpsertAddressBookParams struct {
	ID           int32
	Name         string
	ContactCount pgtype.Int4
}

func (q *Queries) UpsertAddressBook(ctx context.Context, db DBTX, arg UpsertAddressBookParams) (AddressBook, error) {
	row := db.QueryRow(ctx, upsertAddressBook, arg.ID, arg.Name, arg.ContactCount)
	var i AddressBook
	err := row.Scan(&i.ID, &i.Name, &i.ContactCount, &i.SyncedAt)
	return i, err
}

const upsertContact = `
INSERT INTO contacts (id, email, audience_type, opt_in_type, email_type, notes, data_fields, synced_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
ON CONFLICT (id) DO UPDATE
SET email = EXCLUDED.email,
    audience_type = EXCLUDED.audience_type,
    opt_in_type = EXCLUDED.opt_in_type,
    email_type = EXCLUDED.email_type,
    notes = EXCLUDED.notes,
    data_fields = EXCLUDED.data_fields,
    synced_at = NOW()`

type UpsertContactParams struct {
	ID           int32
	Email        string
	AudienceType string
	OptInType    string
	EmailType    string
	Notes        pgtype.Text
	DataFields   []byte
}

func (q *Queries) UpsertContact(ctx context.Context, db DBTX, arg UpsertContactParams) error {
	_, err := db.Exec(ctx, upsertContact,
		arg.ID,
		arg.Email,
		arg.AudienceType,
		arg.OptInType,
		arg.EmailType,
		arg.Notes,
		arg.DataFields,
	)
	return err
}

const addAddressBookContact = `
INSERT INTO address_book_contacts (address_book_id, contact_id, synced_at)
VALUES ($1, $2, NOW())
ON CONFLICT (address_book_id, contact_id) DO UPDATE
SET synced_at = NOW()`

type AddAddressBookContactParams struct {
	AddressBookID int32
	ContactID     int32
}

func (q *Queries) AddAddressBookContact(ctx context.Context, db DBTX, arg AddAddressBookContactParams) error {
	_, err := db.Exec(ctx, addAddressBookContact, arg.AddressBookID, arg.ContactID)
	return err
}

const createSyncJob = `
INSERT INTO sync_jobs (id, job_type, status, total_items, metadata)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, job_type, status, total_items, processed_items, succeeded_items, failed_items,
    metadata, error_message, started_at, completed_at, duration_ms, avg_processing_time_ms`

type CreateSyncJobParams struct {
	ID         uuid.UUID
	JobType    string
	Status     string
	TotalItems int32
	Metadata   []byte
}

func (q *Queries) CreateSyncJob(ctx context.Context, db DBTX, arg CreateSyncJobParams) (SyncJob, error) {
	row := db.QueryRow(ctx, createSyncJob, arg.ID, arg.JobType, arg.Status, arg.TotalItems, arg.Metadata)
	return scanSyncJob(row)
}

const getSyncJob = `
SELECT id, job_type, status, total_items, processed_items, succeeded_items, failed_items,
    metadata, error_message, started_at, completed_at, duration_ms, avg_processing_time_ms
FROM sync_jobs
WHERE id = $1`

func (q *Queries) GetSyncJob(ctx context.Context, db DBTX, id uuid.UUID) (SyncJob, error) {
	return scanSyncJob(db.QueryRow(ctx, getSyncJob, id))
}

func scanSyncJob(row pgx.Row) (SyncJob, error) {
	var i SyncJob
	err := row.Scan(
		&i.ID,
		&i.JobType,
		&i.Status,
		&i.TotalItems,
		&i.ProcessedItems,
		&i.SucceededItems,
		&i.FailedItems,
		&i.Metadata,
		&i.ErrorMessage,
		&i.StartedAt,
		&i.CompletedAt,
		&i.DurationMs,
		&i.AvgProcessingTimeMs,
	)
	return i, err
}

const updateSyncJobProgress = `
UPDATE sync_jobs
SET processed_items = $1,
    succeeded_items = $2,
    failed_items = $3
WHERE id = $4`

type UpdateSyncJobProgressParams struct {
	ProcessedItems int32
	SucceededItems int32
	FailedItems    int32
	ID             uuid.UUID
}

func (q *Queries) UpdateSyncJobProgress(ctx context.Context, db DBTX, arg UpdateSyncJobProgressParams) error {
	_, err := db.Exec(ctx, updateSyncJobProgress, arg.ProcessedItems, arg.SucceededItems, arg.FailedItems, arg.ID)
	return err
}

const completeSyncJob = `
UPDATE sync_jobs
SET status = $1,
    error_message = $2,
    completed_at = NOW(),
    duration_ms = $3,
    avg_processing_time_ms = $4
WHERE id = $5`

type CompleteSyncJobParams struct {
	Status              string
	ErrorMessage        pgtype.Text
	DurationMs          pgtype.Int4
	AvgProcessingTimeMs pgtype.Int4
	ID                  uuid.UUID
}

func (q *Queries) CompleteSyncJob(ctx context.Context, db DBTX, arg CompleteSyncJobParams) error {
	_, err := db.Exec(ctx, completeSyncJob,
		arg.Status,
		arg.ErrorMessage,
		arg.DurationMs,
		arg.AvgProcessingTimeMs,
		arg.ID,
	)
	return err
}

const createContactImport = `
INSERT INTO contact_imports (progress_id, address_book_id, file_name, data_type, size_bytes, status)
VALUES ($1, $2, $3, $4, $5, $6)`

type CreateContactImportParams struct {
	ProgressID    string
	AddressBookID int32
	FileName      string
	DataType      string
	SizeBytes     int32
	Status        string
}

func (q *Queries) CreateContactImport(ctx context.Context, db DBTX, arg CreateContactImportParams) error {
	_, err := db.Exec(ctx, createContactImport,
		arg.ProgressID,
		arg.AddressBookID,
		arg.FileName,
		arg.DataType,
		arg.SizeBytes,
		arg.Status,
	)
	return err
}

const updateContactImportStatus = `
UPDATE contact_imports
SET status = $1,
    finished_at = CASE WHEN $2::boolean THEN NOW() ELSE finished_at END
WHERE progress_id = $3`

type UpdateContactImportStatusParams struct {
	Status     string
	Finished   bool
	ProgressID string
}

func (q *Queries) UpdateContactImportStatus(ctx context.Context, db DBTX, arg UpdateContactImportStatusParams) (int64, error) {
	tag, err := db.Exec(ctx, updateContactImportStatus, arg.Status, arg.Finished, arg.ProgressID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
