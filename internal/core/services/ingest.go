package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// TextExtractor is the part of the extractor registry ingestion needs.
type TextExtractor interface {
	Extract(ctx context.Context, file domain.UploadedFile) (string, error)
}

// IngestService turns uploaded files into tenant-scoped vector records.
type IngestService struct {
	extractor TextExtractor
	chunker   driven.Chunker
	store     driven.VectorStore
	now       func() time.Time
}

// NewIngestService creates a new ingestion service.
// A nil store makes every call fail with domain.ErrConfiguration.
func NewIngestService(extractor TextExtractor, chunker driven.Chunker, store driven.VectorStore) *IngestService {
	return &IngestService{
		extractor: extractor,
		chunker:   chunker,
		store:     store,
		now:       time.Now,
	}
}

// Ingest extracts, chunks and upserts files into the tenant namespace.
// Files are processed sequentially and independently; all records are
// written in one batch at the end.
func (s *IngestService) Ingest(ctx context.Context, slug string, files []domain.UploadedFile) (*domain.IngestResult, error) {
	logger.Section("Ingest")

	if strings.TrimSpace(slug) == "" {
		return nil, fmt.Errorf("%w: missing organization slug", domain.ErrBadRequest)
	}
	if err := domain.ValidateSlug(slug); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", domain.ErrBadRequest)
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrConfiguration, errStoreNotConfigured)
	}

	uploadedAt := s.now().UTC().Truncate(time.Millisecond)
	result := &domain.IngestResult{FilesProcessed: len(files)}
	var records []driven.VectorRecord

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fileRecords, truncated, err := s.processFile(ctx, slug, file, uploadedAt)
		if err != nil {
			logger.Warn("ingest %s/%s: %v", slug, file.Name, err)
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if truncated {
			logger.Warn("ingest %s/%s: truncated at %d chunks", slug, file.Name, len(fileRecords))
			result.Truncated = append(result.Truncated, file.Name)
		}
		records = append(records, fileRecords...)
	}

	if len(records) == 0 {
		return nil, &domain.IngestError{Details: result.Errors}
	}

	logger.Debug("upserting %d records into namespace %q", len(records), slug)
	if err := s.store.Upsert(ctx, slug, records); err != nil {
		if errors.Is(err, domain.ErrStoreMisconfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("upsert %d records into %s: %w", len(records), slug, err)
	}

	result.Upserted = len(records)
	logger.Info("ingested %d files into %s: %d chunks, %d errors",
		len(files), slug, result.Upserted, len(result.Errors))
	return result, nil
}

// processFile returns the records for one file. Returned errors are
// per-file messages that already name the file.
func (s *IngestService) processFile(
	ctx context.Context, slug string, file domain.UploadedFile, uploadedAt time.Time,
) ([]driven.VectorRecord, bool, error) {
	text, err := s.extractor.Extract(ctx, file)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", file.Name, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, false, fmt.Errorf("no extractable text found in %s", file.Name)
	}

	split := s.chunker.Split(text)
	if len(split.Chunks) == 0 {
		return nil, false, fmt.Errorf("no non-empty chunks produced for %s", file.Name)
	}

	records := make([]driven.VectorRecord, 0, len(split.Chunks))
	for idx, chunk := range split.Chunks {
		records = append(records, driven.VectorRecord{
			ID:   domain.ChunkID(slug, file.Name, idx),
			Data: chunk,
			Metadata: &domain.ChunkMetadata{
				Slug:        slug,
				FileName:    file.Name,
				MIMEType:    file.MIMEType,
				ChunkIndex:  idx,
				TotalChunks: len(split.Chunks),
				UploadedAt:  uploadedAt,
			},
		})
	}
	return records, split.Truncated, nil
}
