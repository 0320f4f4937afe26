package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/w-h-a/medichat/bloodtest"
	"github.com/w-h-a/medichat/extractor"
	"github.com/w-h-a/medichat/mailbox"
	"github.com/w-h-a/medichat/pdftext"
)

// RawAttachment is the provenance of one processed attachment, kept for
// storage and audit alongside the structured records.
type RawAttachment struct {
	Filename string `json:"filename"`
	Data     string `json:"data"` // base64
	TestDate string `json:"testDate,omitempty"`
}

// Result is the pipeline's output: records sorted ascending by report date
// plus the raw attachments they came from.
type Result struct {
	BloodTestResults []bloodtest.Record `json:"bloodTestResults"`
	RawAttachments   []RawAttachment    `json:"rawAttachments"`
}

// Pipeline routes inbox attachments through PDF text extraction and the
// structured extractor. Attachments are processed concurrently on a bounded
// worker pool; each failure is isolated to its attachment.
type Pipeline struct {
	mailbox     mailbox.Mailbox
	extractor   extractor.Extractor
	extractText func(data []byte) (string, error)
	pool        *ants.Pool
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent attachment
// processing. Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithTextExtractor replaces PDF text extraction, mainly for tests.
func WithTextExtractor(fn func(data []byte) (string, error)) Option {
	return func(p *Pipeline) error {
		if fn != nil {
			p.extractText = fn
		}
		return nil
	}
}

// NewPipeline builds a pipeline. The mailbox may be nil for payload-only
// deployments; Run then fails with ErrMailboxRequired while RunPayload still
// works.
func NewPipeline(mb mailbox.Mailbox, ex extractor.Extractor, opts ...Option) (*Pipeline, error) {
	if ex == nil {
		return nil, ErrExtractorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		mailbox:     mb,
		extractor:   ex,
		extractText: pdftext.Extract,
		pool:        pool,
		logger:      slog.Default().With("component", "ingest-pipeline"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Run discovers attachments in the inbox and processes them all.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.mailbox == nil {
		return nil, ErrMailboxRequired
	}

	attachments, err := p.mailbox.Attachments(ctx)
	if err != nil {
		return nil, fmt.Errorf("inbox discovery: %w", err)
	}

	return p.process(ctx, attachments), nil
}

// RunPayload processes a single pre-supplied attachment instead of the inbox.
func (p *Pipeline) RunPayload(ctx context.Context, filename string, payload string) (*Result, error) {
	if len(strings.TrimSpace(payload)) == 0 {
		return nil, ErrEmptyPayload
	}

	data, err := decodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	return p.process(ctx, []mailbox.Attachment{{Filename: filename, Data: data}}), nil
}

func (p *Pipeline) process(ctx context.Context, attachments []mailbox.Attachment) *Result {
	result := &Result{
		BloodTestResults: []bloodtest.Record{},
		RawAttachments:   []RawAttachment{},
	}

	var mtx sync.Mutex
	var wg sync.WaitGroup

	for _, att := range attachments {
		att := att

		if !strings.EqualFold(filepath.Ext(att.Filename), ".pdf") {
			p.logger.Debug("skipping non-pdf attachment", "filename", att.Filename)
			continue
		}

		wg.Add(1)

		err := p.pool.Submit(func() {
			defer wg.Done()

			rec, ok := p.processOne(ctx, att)
			if !ok {
				return
			}

			mtx.Lock()
			defer mtx.Unlock()

			result.BloodTestResults = append(result.BloodTestResults, *rec)
			result.RawAttachments = append(result.RawAttachments, RawAttachment{
				Filename: att.Filename,
				Data:     base64.StdEncoding.EncodeToString(att.Data),
				TestDate: rec.ReportDate.String(),
			})
		})
		if err != nil {
			wg.Done()
			p.logger.Warn("failed to submit attachment", "filename", att.Filename, "error", err)
		}
	}

	wg.Wait()

	// completion order is arbitrary; report date restores the order
	bloodtest.SortByDate(result.BloodTestResults)

	sort.Slice(result.RawAttachments, func(i, j int) bool {
		return result.RawAttachments[i].TestDate < result.RawAttachments[j].TestDate
	})

	return result
}

// processOne is the per-attachment path. A false return means the attachment
// was dropped; the rest of the batch is unaffected.
func (p *Pipeline) processOne(ctx context.Context, att mailbox.Attachment) (*bloodtest.Record, bool) {
	text, err := p.extractText(att.Data)
	if err != nil {
		p.logger.Warn("dropping attachment", "filename", att.Filename, "error", err)
		return nil, false
	}

	rec, err := p.extractor.Extract(ctx, text)
	if err != nil {
		p.logger.Warn("dropping attachment", "filename", att.Filename, "error", err)
		return nil, false
	}

	// a record without a report date cannot be ordered or compared
	if !rec.HasDate() {
		p.logger.Warn("dropping attachment without report date", "filename", att.Filename)
		return nil, false
	}

	return rec, true
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func decodePayload(payload string) ([]byte, error) {
	if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(payload)
}
