package pagetoll

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// IngestRequest is the payload submitted by the content-management hook.
type IngestRequest struct {
	Content     string `json:"content"`
	Title       string `json:"title"`
	OwnerWallet string `json:"wallet_address"`
	URL         string `json:"url"`
}

// IngestResult reports the outcome of a successful ingestion.
type IngestResult struct {
	ToolName string `json:"toolName"`
	CID      string `json:"lighthouseHash"`
}

// Ingestor runs the content ingestion pipeline: pin the content, derive a
// capability name and description, register the capability, and record the
// ledger entry that makes the content payable.
type Ingestor struct {
	pinner     Pinner
	summarizer Summarizer
	contents   ContentStore
	registry   *Registry
	priceFIL   string
	logger     *slog.Logger
}

func NewIngestor(pinner Pinner, summarizer Summarizer, contents ContentStore, registry *Registry, priceFIL string, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		pinner:     pinner,
		summarizer: summarizer,
		contents:   contents,
		registry:   registry,
		priceFIL:   priceFIL,
		logger:     logger,
	}
}

// Ingest validates and processes one ingestion request.
//
// Pinning failure aborts the pipeline without creating any record.
// Summarization failure does not: the capability falls back to a generated
// placeholder name and a generic description, so registration always
// succeeds once the content is pinned.
func (s *Ingestor) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	switch {
	case req.Content == "":
		return IngestResult{}, Errorf(KindValidation, "content is required")
	case req.URL == "":
		return IngestResult{}, Errorf(KindValidation, "url is required")
	case req.OwnerWallet == "":
		return IngestResult{}, Errorf(KindValidation, "wallet_address is required")
	case req.Title == "":
		return IngestResult{}, Errorf(KindValidation, "title is required")
	}

	cidStr, err := s.pinner.PinText(ctx, req.Content, req.OwnerWallet)
	if err != nil {
		return IngestResult{}, NewError(KindUploadFailed, "failed to pin content: "+err.Error(), nil)
	}
	s.logger.Info("content pinned", "url", req.URL, "cid", cidStr)

	// Read the pinned text back through the gateway so the capability is
	// built from what was actually stored. Best effort; the submitted
	// content is an acceptable substitute if the gateway lags.
	text, err := s.pinner.FetchText(ctx, cidStr)
	if err != nil || text == "" {
		if err != nil {
			s.logger.Warn("gateway fetch failed, using submitted content", "cid", cidStr, "err", err)
		}
		text = req.Content
	}

	summary, err := s.summarizer.Summarize(ctx, text)
	if err != nil || summary.Name == "" {
		if err != nil {
			s.logger.Warn("summarization failed, falling back to placeholder name", "err", err)
		}
		summary = Summary{
			Name:        fmt.Sprintf("tool-%d", time.Now().UnixMilli()),
			Description: "Summary could not be generated.",
		}
	}
	if summary.Description == "" {
		summary.Description = fmt.Sprintf("Tutorial: %s", req.Title)
	}

	s.registry.Register(summary.Name, summary.Description, text)
	s.contents.Put(req.URL, ContentRecord{
		URL:         req.URL,
		CID:         cidStr,
		OwnerWallet: req.OwnerWallet,
		Title:       req.Title,
		PriceFIL:    s.priceFIL,
		CreatedAt:   time.Now(),
	})

	s.logger.Info("content monetized", "url", req.URL, "toolName", summary.Name, "cid", cidStr)
	return IngestResult{ToolName: summary.Name, CID: cidStr}, nil
}
