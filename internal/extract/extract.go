// Package extract turns résumé files into plain text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindText Kind = "txt"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtractionFailed  = errors.New("text extraction failed")
)

// ExtractionError carries the underlying cause of a failed extraction.
type ExtractionError struct {
	Kind Kind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s text: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtractionFailed }

// ParseKind accepts a bare kind ("pdf"), a file name or extension ("cv.PDF", ".docx")
// or a MIME type.
func ParseKind(s string) (Kind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case mimePDF:
		return KindPDF, nil
	case mimeDOCX:
		return KindDOCX, nil
	case mimeText:
		return KindText, nil
	}
	if ext := filepath.Ext(v); ext != "" {
		v = ext
	}
	switch strings.TrimPrefix(v, ".") {
	case "pdf":
		return KindPDF, nil
	case "docx":
		return KindDOCX, nil
	case "txt", "text":
		return KindText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

type pdfMethod func(ctx context.Context, data []byte) (string, error)

type Extractor struct {
	logger    *zap.Logger
	timeout   time.Duration
	pdftotext string

	primary   pdfMethod
	secondary pdfMethod
}

type Option func(*Extractor)

// WithTimeout bounds a single extraction, subprocess included.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.timeout = d }
}

// WithPdftotext overrides the pdftotext binary used as the secondary PDF method.
func WithPdftotext(path string) Option {
	return func(e *Extractor) { e.pdftotext = path }
}

func New(logger *zap.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		logger:    logger.Named("extract"),
		timeout:   60 * time.Second,
		pdftotext: "pdftotext",
	}
	for _, opt := range opts {
		opt(e)
	}
	e.primary = readPDFText
	e.secondary = e.runPdftotext
	return e
}

// Extract returns the whitespace-trimmed text of data. An empty string is a valid
// result; deciding whether it is usable is up to the caller.
func (e *Extractor) Extract(ctx context.Context, data []byte, kind Kind) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var (
		text string
		err  error
	)
	switch kind {
	case KindPDF:
		text, err = e.extractPDF(ctx, data)
	case KindDOCX:
		text, err = readDocxText(data)
	case KindText:
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, kind)
	}
	if err != nil {
		return "", &ExtractionError{Kind: kind, Err: err}
	}
	return strings.TrimSpace(text), nil
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	text, primaryErr := e.primary(ctx, data)
	if primaryErr == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if primaryErr != nil {
		e.logger.Debug("primary pdf method failed, trying pdftotext", zap.Error(primaryErr))
	} else {
		e.logger.Debug("primary pdf method returned no text, trying pdftotext")
	}

	text, err := e.secondary(ctx, data)
	if err != nil {
		if primaryErr != nil {
			return "", errors.Join(primaryErr, err)
		}
		return "", err
	}
	return text, nil
}
