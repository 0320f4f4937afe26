package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/medichat/bloodtest"
	"github.com/w-h-a/medichat/mailbox"
)

type fakeMailbox struct {
	attachments []mailbox.Attachment
	err         error
}

func (m *fakeMailbox) Attachments(_ context.Context) ([]mailbox.Attachment, error) {
	return m.attachments, m.err
}

// fakeExtractor resolves extracted text to a record dated by the dates map.
// Text not in the map is an extraction failure.
type fakeExtractor struct {
	dates map[string]string
}

func (e *fakeExtractor) Extract(_ context.Context, text string) (*bloodtest.Record, error) {
	raw, ok := e.dates[text]
	if !ok {
		return nil, errors.New("nothing recognizable in the document")
	}

	if len(raw) == 0 {
		return &bloodtest.Record{}, nil
	}

	date, err := bloodtest.ParseDate(raw)
	if err != nil {
		return nil, err
	}

	return &bloodtest.Record{ReportDate: date}, nil
}

func passThroughText(data []byte) (string, error) {
	return string(data), nil
}

func newTestPipeline(t *testing.T, mb mailbox.Mailbox, dates map[string]string) *Pipeline {
	t.Helper()

	p, err := NewPipeline(
		mb,
		&fakeExtractor{dates: dates},
		WithTextExtractor(passThroughText),
		WithPoolSize(2),
	)
	require.NoError(t, err)

	t.Cleanup(p.Release)

	return p
}

func TestRunSortsRecordsByReportDate(t *testing.T) {
	mb := &fakeMailbox{
		attachments: []mailbox.Attachment{
			{Filename: "march.pdf", Data: []byte("march results")},
			{Filename: "january.pdf", Data: []byte("january results")},
			{Filename: "february.pdf", Data: []byte("february results")},
		},
	}

	p := newTestPipeline(t, mb, map[string]string{
		"march results":    "2024-03-01",
		"january results":  "2024-01-15",
		"february results": "2024-02-10",
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.BloodTestResults, 3)

	assert.Equal(t, "2024-01-15", result.BloodTestResults[0].ReportDate.String())
	assert.Equal(t, "2024-02-10", result.BloodTestResults[1].ReportDate.String())
	assert.Equal(t, "2024-03-01", result.BloodTestResults[2].ReportDate.String())

	require.Len(t, result.RawAttachments, 3)
	assert.Equal(t, "january.pdf", result.RawAttachments[0].Filename)
	assert.Equal(t, "february.pdf", result.RawAttachments[1].Filename)
	assert.Equal(t, "march.pdf", result.RawAttachments[2].Filename)
}

func TestRunIsolatesPerAttachmentFailures(t *testing.T) {
	mb := &fakeMailbox{
		attachments: []mailbox.Attachment{
			{Filename: "good.pdf", Data: []byte("good results")},
			{Filename: "garbage.pdf", Data: []byte("a scanned napkin")},
		},
	}

	p := newTestPipeline(t, mb, map[string]string{
		"good results": "2024-05-05",
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.BloodTestResults, 1)
	assert.Equal(t, "2024-05-05", result.BloodTestResults[0].ReportDate.String())
	require.Len(t, result.RawAttachments, 1)
	assert.Equal(t, "good.pdf", result.RawAttachments[0].Filename)
}

func TestRunDropsRecordsWithoutReportDate(t *testing.T) {
	mb := &fakeMailbox{
		attachments: []mailbox.Attachment{
			{Filename: "undated.pdf", Data: []byte("undated results")},
		},
	}

	p := newTestPipeline(t, mb, map[string]string{
		"undated results": "",
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.BloodTestResults)
	assert.Empty(t, result.RawAttachments)
}

func TestRunSkipsNonPDFAttachments(t *testing.T) {
	mb := &fakeMailbox{
		attachments: []mailbox.Attachment{
			{Filename: "notes.txt", Data: []byte("good results")},
			{Filename: "results.PDF", Data: []byte("good results")},
		},
	}

	p := newTestPipeline(t, mb, map[string]string{
		"good results": "2024-05-05",
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.BloodTestResults, 1)
	assert.Equal(t, "results.PDF", result.RawAttachments[0].Filename)
}

func TestRunPropagatesMailboxFailure(t *testing.T) {
	mb := &fakeMailbox{err: errors.New("token expired")}

	p := newTestPipeline(t, mb, nil)

	_, err := p.Run(context.Background())
	assert.Error(t, err)
}

func TestRunPayloadProcessesSingleAttachment(t *testing.T) {
	p := newTestPipeline(t, &fakeMailbox{}, map[string]string{
		"uploaded results": "2024-07-01",
	})

	payload := base64.StdEncoding.EncodeToString([]byte("uploaded results"))

	result, err := p.RunPayload(context.Background(), "upload.pdf", payload)
	require.NoError(t, err)

	require.Len(t, result.BloodTestResults, 1)
	assert.Equal(t, "2024-07-01", result.BloodTestResults[0].ReportDate.String())

	require.Len(t, result.RawAttachments, 1)
	assert.Equal(t, "upload.pdf", result.RawAttachments[0].Filename)
	assert.Equal(t, payload, result.RawAttachments[0].Data)
}

func TestRunPayloadRejectsEmptyPayload(t *testing.T) {
	p := newTestPipeline(t, &fakeMailbox{}, nil)

	_, err := p.RunPayload(context.Background(), "upload.pdf", "   ")
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestNewPipelineRequiresExtractor(t *testing.T) {
	_, err := NewPipeline(&fakeMailbox{}, nil)
	assert.ErrorIs(t, err, ErrExtractorRequired)
}

func TestRunRequiresMailbox(t *testing.T) {
	p, err := NewPipeline(nil, &fakeExtractor{}, WithPoolSize(1))
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Run(context.Background())
	assert.ErrorIs(t, err, ErrMailboxRequired)
}
