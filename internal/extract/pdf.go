// Package extract converts uploaded resume files into plain text for the
// parsing and scoring pipeline.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnreadablePDF marks documents that are encrypted, corrupted, or
	// yield no extractable text. Extraction is deterministic, so callers
	// must not retry; they surface the error to the applicant instead.
	ErrUnreadablePDF = errors.New("unreadable pdf")

	// ErrTooLarge marks uploads over the configured size cap.
	ErrTooLarge = errors.New("resume file too large")
)

const pdfMagic = "%PDF-"

// Extractor turns PDF bytes into plain text.
type Extractor struct {
	maxBytes int64
}

func New(maxBytes int64) *Extractor {
	return &Extractor{maxBytes: maxBytes}
}

// Extract returns the best-effort plain-text transcription of a PDF,
// preserving page order. It never retries: identical bytes always produce
// the identical outcome.
func (e *Extractor) Extract(data []byte) (text string, err error) {
	if e.maxBytes > 0 && int64(len(data)) > e.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	if !bytes.HasPrefix(data, []byte(pdfMagic)) {
		return "", fmt.Errorf("%w: missing PDF header", ErrUnreadablePDF)
	}

	// The pdf package panics on some malformed cross-reference tables;
	// fold those into the unreadable error instead of crashing the request.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrUnreadablePDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}

	out := strings.TrimSpace(buf.String())
	if out == "" {
		return "", fmt.Errorf("%w: no extractable text", ErrUnreadablePDF)
	}
	return out, nil
}
