package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/natserract/dotmailer/pkg/dotmailer"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ImportFile is one file to upload into an address book.
type ImportFile struct {
	Name string
	Data []byte
	// DataType is CSV or XLS. When empty it is taken from the file extension.
	DataType string
}

// ImportResult is the outcome of one ImportFile.
type ImportResult struct {
	File       string
	ProgressID string
	Status     dotmailer.ImportStatus
	Err        error
}

// ImportService uploads contact files and tracks them until the service has
// processed them.
type ImportService struct {
	client      ImportClient
	store       Store
	logger      *zap.Logger
	poll        dotmailer.PollOptions
	concurrency int
}

// NewImportService creates a new import service
func NewImportService(client ImportClient, store Store, logger *zap.Logger, poll dotmailer.PollOptions, concurrency int) *ImportService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &ImportService{
		client:      client,
		store:       store,
		logger:      logger,
		poll:        poll,
		concurrency: concurrency,
	}
}

// ImportFiles uploads files into an address book concurrently. Each file has
// its own result; the returned error is set only when every file failed.
func (s *ImportService) ImportFiles(ctx context.Context, addressBookID int, files []ImportFile) ([]ImportResult, error) {
	p := pool.NewWithResults[ImportResult]().WithMaxGoroutines(s.concurrency)
	for _, f := range files {
		p.Go(func() ImportResult {
			return s.ImportFile(ctx, addressBookID, f)
		})
	}
	results := p.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	s.logger.Info("Completed contact imports",
		zap.Int("address_book_id", addressBookID),
		zap.Int("files", len(files)),
		zap.Int("failed", failed))

	if len(files) > 0 && failed == len(files) {
		return results, fmt.Errorf("all %d imports into address book %d failed", failed, addressBookID)
	}
	return results, nil
}

// ImportFile uploads one file, records it and waits for a terminal status.
func (s *ImportService) ImportFile(ctx context.Context, addressBookID int, f ImportFile) ImportResult {
	res := ImportResult{File: f.Name}

	dataType := f.DataType
	if dataType == "" {
		dataType = strings.TrimPrefix(filepath.Ext(f.Name), ".")
	}
	format, err := dotmailer.ParseFileFormat(dataType)
	if err != nil {
		res.Err = err
		s.logger.Error("Skipping file with unknown format",
			zap.String("file", f.Name),
			zap.Error(err))
		return res
	}

	progressID, err := s.client.AddContactsToAddressBookWithProgress(ctx, addressBookID, f.Data, string(format))
	if err != nil {
		res.Err = fmt.Errorf("failed to submit %s: %w", f.Name, err)
		s.logger.Error("Failed to submit contact import",
			zap.String("file", f.Name),
			zap.Int("address_book_id", addressBookID),
			zap.Error(err))
		return res
	}
	res.ProgressID = progressID

	if err := s.store.CreateContactImport(ctx, progressID, addressBookID, f.Name, string(format), len(f.Data)); err != nil {
		s.logger.Warn("Failed to record contact import",
			zap.String("progress_id", progressID),
			zap.Error(err))
	}

	status, err := s.client.WaitForImport(ctx, progressID, s.poll)
	res.Status = status
	if status != "" {
		if uerr := s.store.UpdateContactImportStatus(context.WithoutCancel(ctx), progressID, status); uerr != nil {
			s.logger.Warn("Failed to record contact import status",
				zap.String("progress_id", progressID),
				zap.Error(uerr))
		}
	}
	if err != nil {
		res.Err = fmt.Errorf("failed waiting for %s: %w", f.Name, err)
		return res
	}
	if status != dotmailer.ImportFinished {
		res.Err = fmt.Errorf("import of %s ended with status %s", f.Name, status)
	}

	s.logger.Info("Contact import done",
		zap.String("file", f.Name),
		zap.String("progress_id", progressID),
		zap.String("status", string(status)))
	return res
}
