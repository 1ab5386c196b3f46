package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/natserract/dotmailer/pkg/dotmailer"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// DefaultPageSize is the select size used when paging contacts. The service
// returns at most 1000 contacts per call.
const DefaultPageSize = 1000

// SyncMetrics tracks the overall sync operation metrics
type SyncMetrics struct {
	AddressBooksSucceeded int
	AddressBooksFailed    int
	ContactsSucceeded     int
	ContactsFailed        int
	mu                    sync.Mutex
}

// AddAddressBookSuccess increments the address books succeeded count
func (m *SyncMetrics) AddAddressBookSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddressBooksSucceeded++
}

// AddAddressBookFailure increments the address books failed count
func (m *SyncMetrics) AddAddressBookFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddressBooksFailed++
}

// AddContacts adds the results of one page of contacts
func (m *SyncMetrics) AddContacts(succeeded, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ContactsSucceeded += succeeded
	m.ContactsFailed += failed
}

// TotalSucceeded returns the total number of succeeded operations
func (m *SyncMetrics) TotalSucceeded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AddressBooksSucceeded + m.ContactsSucceeded
}

// TotalFailed returns the total number of failed operations
func (m *SyncMetrics) TotalFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AddressBooksFailed + m.ContactsFailed
}

// SyncOptions tunes SyncService. Zero values pick the defaults.
type SyncOptions struct {
	PageSize    int
	Concurrency int
}

// SyncService mirrors address books and their contacts into the store, with
// durable tracking via sync jobs
type SyncService struct {
	client      AddressBookClient
	store       Store
	logger      *zap.Logger
	pageSize    int
	concurrency int
}

// NewSyncService creates a new sync service
func NewSyncService(client AddressBookClient, store Store, logger *zap.Logger, opts SyncOptions) *SyncService {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}
	return &SyncService{
		client:      client,
		store:       store,
		logger:      logger,
		pageSize:    opts.PageSize,
		concurrency: opts.Concurrency,
	}
}

// SyncAll syncs every address book on the account. When only is non-empty,
// address books with other IDs are skipped.
func (s *SyncService) SyncAll(ctx context.Context, only ...int) (*SyncMetrics, error) {
	startTime := time.Now()
	s.logger.Info("Starting address book sync")

	books, err := s.client.ListAddressBooks(ctx)
	if err != nil {
		return &SyncMetrics{}, fmt.Errorf("failed to list address books: %w", err)
	}
	books = filterAddressBooks(books, only)

	s.logger.Info("Fetched address books", zap.Int("count", len(books)))

	metrics := &SyncMetrics{}
	jobID := s.startJob(ctx, books)

	bookPool := pool.New().WithMaxGoroutines(s.concurrency).WithErrors()
	for _, book := range books {
		bookPool.Go(func() error {
			return s.SyncAddressBook(ctx, book, metrics)
		})
	}
	syncErr := bookPool.Wait()

	s.finishJob(ctx, jobID, len(books), metrics, time.Since(startTime), syncErr)

	s.logger.Info("Completed address book sync",
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("address_books_succeeded", metrics.AddressBooksSucceeded),
		zap.Int("address_books_failed", metrics.AddressBooksFailed),
		zap.Int("contacts_succeeded", metrics.ContactsSucceeded),
		zap.Int("contacts_failed", metrics.ContactsFailed),
		zap.Int("total_succeeded", metrics.TotalSucceeded()),
		zap.Int("total_failed", metrics.TotalFailed()))

	if ctxErr := ctx.Err(); ctxErr != nil {
		return metrics, ctxErr
	}
	return metrics, nil
}

// SyncAddressBook saves one address book and pages through its contacts
// until a short page.
func (s *SyncService) SyncAddressBook(ctx context.Context, book dotmailer.AddressBook, metrics *SyncMetrics) error {
	count, err := s.client.GetAddressBookContactCount(ctx, book.ID)
	if err != nil {
		s.logger.Warn("Failed to fetch contact count",
			zap.Int("address_book_id", book.ID),
			zap.Error(err))
		count = -1
	}

	if err := s.store.SaveAddressBook(ctx, book, count); err != nil {
		metrics.AddAddressBookFailure()
		s.logger.Error("Failed to save address book",
			zap.Int("address_book_id", book.ID),
			zap.String("name", book.Name),
			zap.Error(err))
		return fmt.Errorf("failed to save address book %d: %w", book.ID, err)
	}

	skip := 0
	for {
		contacts, err := s.client.ListContactsInAddressBook(ctx, book.ID, s.pageSize, skip)
		if err != nil {
			metrics.AddAddressBookFailure()
			s.logger.Error("Failed to list contacts",
				zap.Int("address_book_id", book.ID),
				zap.Int("skip", skip),
				zap.Error(err))
			return fmt.Errorf("failed to list contacts of address book %d at %d: %w", book.ID, skip, err)
		}
		if len(contacts) == 0 {
			break
		}

		if err := s.store.SaveContacts(ctx, book.ID, contacts); err != nil {
			metrics.AddContacts(0, len(contacts))
			s.logger.Error("Failed to save contacts page",
				zap.Int("address_book_id", book.ID),
				zap.Int("skip", skip),
				zap.Int("count", len(contacts)),
				zap.Error(err))
		} else {
			metrics.AddContacts(len(contacts), 0)
			s.logger.Debug("Saved contacts page",
				zap.Int("address_book_id", book.ID),
				zap.Int("skip", skip),
				zap.Int("count", len(contacts)))
		}

		skip += len(contacts)
		if len(contacts) < s.pageSize {
			break
		}
	}

	metrics.AddAddressBookSuccess()
	s.logger.Info("Synced address book",
		zap.Int("address_book_id", book.ID),
		zap.String("name", book.Name),
		zap.Int("contact_count", count),
		zap.Int("contacts_seen", skip))
	return nil
}

func (s *SyncService) startJob(ctx context.Context, books []dotmailer.AddressBook) uuid.UUID {
	ids := make([]int, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}

	jobID, err := s.store.CreateSyncJob(ctx, "address_book_sync", len(books), map[string]any{
		"operation":       "address_book_sync",
		"address_books":   ids,
		"page_size":       s.pageSize,
		"max_concurrency": s.concurrency,
	})
	if err != nil {
		s.logger.Warn("Failed to create sync job", zap.Error(err))
		return uuid.Nil
	}

	s.logger.Info("Created sync job",
		zap.String("job_id", jobID.String()),
		zap.Int("total_items", len(books)))
	return jobID
}

func (s *SyncService) finishJob(ctx context.Context, jobID uuid.UUID, total int, metrics *SyncMetrics, duration time.Duration, syncErr error) {
	if jobID == uuid.Nil {
		return
	}

	// the job row is written even when the sync was cancelled
	ctx = context.WithoutCancel(ctx)

	metrics.mu.Lock()
	succeeded, failed := metrics.AddressBooksSucceeded, metrics.AddressBooksFailed
	metrics.mu.Unlock()

	if err := s.store.UpdateSyncJobProgress(ctx, jobID, succeeded+failed, succeeded, failed); err != nil {
		s.logger.Warn("Failed to update sync job progress",
			zap.String("job_id", jobID.String()),
			zap.Error(err))
	}

	status := JobStatusCompleted
	errMsg := ""
	switch {
	case syncErr != nil && succeeded == 0 && total > 0:
		status = JobStatusFailed
		errMsg = syncErr.Error()
	case syncErr != nil:
		status = JobStatusCompletedWithErrors
		errMsg = syncErr.Error()
	}

	avg := duration
	if total > 0 {
		avg = duration / time.Duration(total)
	}
	if err := s.store.CompleteSyncJob(ctx, jobID, status, duration, avg, errMsg); err != nil {
		s.logger.Warn("Failed to complete sync job",
			zap.String("job_id", jobID.String()),
			zap.Error(err))
		return
	}

	s.logger.Info("Completed sync job",
		zap.String("job_id", jobID.String()),
		zap.String("status", status),
		zap.Int64("duration_ms", duration.Milliseconds()))
}

func filterAddressBooks(books []dotmailer.AddressBook, only []int) []dotmailer.AddressBook {
	if len(only) == 0 {
		return books
	}
	keep := make(map[int]bool, len(only))
	for _, id := range only {
		keep[id] = true
	}

	out := make([]dotmailer.AddressBook, 0, len(only))
	for _, b := range books {
		if keep[b.ID] {
			out = append(out, b)
		}
	}
	return out
}
