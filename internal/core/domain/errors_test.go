package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrInvalidURL", ErrInvalidURL},
		{"ErrFetchFailed", ErrFetchFailed},
		{"ErrExtractionFailed", ErrExtractionFailed},
		{"ErrTranscriptUnavailable", ErrTranscriptUnavailable},
		{"ErrLimitExceeded", ErrLimitExceeded},
		{"ErrEmbeddingFailed", ErrEmbeddingFailed},
		{"ErrAnswerFailed", ErrAnswerFailed},
		{"ErrNotReady", ErrNotReady},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestSourceError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("%w: status 404", ErrFetchFailed)
	err := &SourceError{SourceID: "https://example.com", Kind: SourceKindWeb, Err: cause}

	assert.True(t, errors.Is(err, ErrFetchFailed))
	assert.False(t, errors.Is(err, ErrUnsupportedType))
	assert.Equal(t, "web https://example.com: fetch failed: status 404", err.Error())
}

func TestIngestReport_Fail(t *testing.T) {
	report := &IngestReport{}
	assert.False(t, report.HasFailures())

	report.Fail(NewFileSource("notes.md"), ErrUnsupportedType)

	assert.True(t, report.HasFailures())
	assert.Equal(t, "notes.md", report.Failures[0].SourceID)
	assert.Equal(t, SourceKindFile, report.Failures[0].Kind)
	assert.ErrorIs(t, &report.Failures[0], ErrUnsupportedType)
}
