package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// TimestampLayout formats upload times on retrieval results.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const errStoreNotConfigured = "vector store is not configured; set UPSTASH_VECTOR_REST_URL and UPSTASH_VECTOR_REST_TOKEN"

// RetrievalService answers knowledge-base lookups against the vector store.
// It is stateless and safe for concurrent use.
type RetrievalService struct {
	store driven.VectorStore
}

// NewRetrievalService creates a new retrieval service.
// A nil store yields configuration failures instead of panics.
func NewRetrievalService(store driven.VectorStore) *RetrievalService {
	return &RetrievalService{store: store}
}

// Search finds the chunks most relevant to a query in the tenant namespace.
// All failures are reported in the outcome.
func (s *RetrievalService) Search(ctx context.Context, req domain.SearchRequest) (out domain.SearchOutcome) {
	out = domain.SearchOutcome{Query: req.Query, OrganizationSlug: req.TenantSlug}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("search %s panicked: %v", req.TenantSlug, r)
			out = domain.SearchOutcome{
				Query:            req.Query,
				OrganizationSlug: req.TenantSlug,
				Error:            fmt.Sprintf("an unexpected error occurred during the search: %v", r),
			}
		}
	}()

	if s.store == nil {
		out.Error = errStoreNotConfigured
		return out
	}
	if strings.TrimSpace(req.TenantSlug) == "" {
		out.Error = "organization slug is required"
		return out
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		out.Error = "query must be a non-empty string"
		return out
	}

	includeMetadata := req.IncludeMetadata == nil || *req.IncludeMetadata
	topK := domain.ClampTopK(req.TopK)

	logger.Debug("search %s: %q (topK=%d)", req.TenantSlug, query, topK)
	matches, err := s.store.Query(ctx, req.TenantSlug, driven.VectorQuery{
		Data:            query,
		TopK:            topK,
		IncludeMetadata: includeMetadata,
		IncludeData:     true,
	})
	if err != nil {
		logger.Warn("search %s failed: %v", req.TenantSlug, err)
		out.Error = err.Error()
		return out
	}

	out.Success = true
	if len(matches) == 0 {
		out.Message = fmt.Sprintf("No relevant documents found for query: %q", req.Query)
		out.Results = []domain.RetrievalResult{}
		return out
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}

	out.Results = make([]domain.RetrievalResult, 0, len(matches))
	for i, m := range matches {
		res := domain.RetrievalResult{
			Rank:    i + 1,
			Score:   m.Score,
			Content: m.Data,
		}
		if includeMetadata {
			res.Metadata = projectMetadata(m.Metadata)
		}
		out.Results = append(out.Results, res)
	}

	out.TotalResults = len(out.Results)
	out.Message = fmt.Sprintf("Found %d relevant document%s", out.TotalResults, plural(out.TotalResults))
	return out
}

// Expand fetches the target chunk and its neighbours from one file.
// Each index is fetched concurrently; missing or failing ids are dropped.
func (s *RetrievalService) Expand(ctx context.Context, req domain.ExpandRequest) (out domain.ExpandOutcome) {
	out = domain.ExpandOutcome{
		FileName:         req.FileName,
		OrganizationSlug: req.TenantSlug,
		ChunkIndex:       req.ChunkIndex,
		AllChunks:        []domain.ExpandedChunk{},
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("expand %s/%s panicked: %v", req.TenantSlug, req.FileName, r)
			out = domain.ExpandOutcome{
				FileName:         req.FileName,
				OrganizationSlug: req.TenantSlug,
				ChunkIndex:       req.ChunkIndex,
				Error:            fmt.Sprintf("an unexpected error occurred while retrieving detailed information: %v", r),
			}
		}
	}()

	switch {
	case s.store == nil:
		out.Error = errStoreNotConfigured
		return out
	case strings.TrimSpace(req.TenantSlug) == "":
		out.Error = "organization slug is required"
		return out
	case strings.TrimSpace(req.FileName) == "":
		out.Error = "fileName is required"
		return out
	}

	indices := ExpansionWindow(req.ChunkIndex, domain.ClampContextChunks(req.ContextChunks))
	fetched := make([]*driven.VectorRecord, len(indices))

	var g errgroup.Group
	for i, idx := range indices {
		g.Go(func() error {
			id := domain.ChunkID(req.TenantSlug, req.FileName, idx)
			recs, err := s.store.Fetch(ctx, req.TenantSlug, []string{id}, driven.FetchOptions{
				IncludeData:     true,
				IncludeMetadata: true,
			})
			if err != nil {
				logger.Debug("expand: fetch %s failed: %v", id, err)
				return nil
			}
			if len(recs) > 0 {
				fetched[i] = recs[0]
			}
			return nil
		})
	}
	_ = g.Wait()

	var contents []string
	for i, rec := range fetched {
		if rec == nil {
			continue
		}
		chunk := domain.ExpandedChunk{
			ChunkIndex:    indices[i],
			Content:       rec.Data,
			IsTargetChunk: indices[i] == req.ChunkIndex,
			Metadata:      projectMetadata(rec.Metadata),
		}
		out.AllChunks = append(out.AllChunks, chunk)
		contents = append(contents, rec.Data)
	}

	for i := range out.AllChunks {
		if out.AllChunks[i].IsTargetChunk {
			target := out.AllChunks[i]
			out.TargetChunk = &target
			break
		}
	}

	out.Success = true
	out.FullContent = strings.Join(contents, "\n\n")
	out.ChunksRetrieved = len(out.AllChunks)
	return out
}

// ExpansionWindow returns the ascending chunk indices [idx-c, idx+c],
// dropping negatives.
func ExpansionWindow(idx, c int) []int {
	lo, hi := max(idx-c, 0), idx+c
	if hi < lo {
		return []int{}
	}
	indices := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		indices = append(indices, i)
	}
	return indices
}

// projectMetadata copies the whitelisted fields.
func projectMetadata(md *domain.ChunkMetadata) *domain.ResultMetadata {
	if md == nil {
		return nil
	}
	res := &domain.ResultMetadata{
		FileName:    md.FileName,
		MIMEType:    md.MIMEType,
		ChunkIndex:  md.ChunkIndex,
		TotalChunks: md.TotalChunks,
	}
	if !md.UploadedAt.IsZero() {
		res.UploadedAt = md.UploadedAt.UTC().Format(TimestampLayout)
	}
	return res
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
