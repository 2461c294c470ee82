package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"github.com/dslipak/pdf"
)

// TextExtractor is what ingestion and full document retrieval depend on.
type TextExtractor interface {
	Extract(ctx context.Context, name string, r io.Reader) (string, error)
}

type rawPage struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

// Source is a validated file ready for extraction.
type Source struct {
	Name string
	Type commonModels.DocType
	Data []byte
	pdf  *pdf.Reader
}

type Extractor struct {
	maxFileSize int64
	pageTimeout time.Duration
	logger      *logger_i.Logger
}

func New(maxFileSize int64) *Extractor {
	if maxFileSize <= 0 {
		maxFileSize = config.MaxFileSize
	}
	return &Extractor{
		maxFileSize: maxFileSize,
		pageTimeout: 10 * time.Second,
		logger:      logger_i.NewLogger("Extractor"),
	}
}

func GetDocType(name string) commonModels.DocType {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".odt", ".rtf":
		return commonModels.DOCX
	case ".txt":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

// Extract validates the stream and returns its raw text.
func (e *Extractor) Extract(ctx context.Context, name string, r io.Reader) (string, error) {
	src, err := e.Load(ctx, name, r)
	if err != nil {
		return "", err
	}
	return e.Text(ctx, src)
}

// Load reads at most maxFileSize bytes and runs the file checks:
// known type, size limit, and for PDFs not encrypted with at least one page.
func (e *Extractor) Load(ctx context.Context, name string, r io.Reader) (*Source, error) {
	if r == nil {
		return nil, commonModels.NewValidationError(commonModels.ErrFileMissing, name)
	}

	docType := GetDocType(name)
	if docType == commonModels.ERR {
		return nil, commonModels.NewValidationError(commonModels.ErrUnsupportedType, filepath.Ext(name))
	}

	data, err := io.ReadAll(io.LimitReader(r, e.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if int64(len(data)) > e.maxFileSize {
		return nil, commonModels.NewValidationError(commonModels.ErrFileTooLarge, fmt.Sprintf("limit is %d bytes", e.maxFileSize))
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	src := &Source{Name: name, Type: docType, Data: data}
	if docType == commonModels.PDF {
		reader, err := openPDF(data)
		if err != nil {
			return nil, err
		}
		src.pdf = reader
	}
	e.logger.Debug("file validated", "name", name, "type", docType, "size", len(data))
	return src, nil
}

// Text extracts page by page, skipping blank pages and stopping when ctx is cancelled.
func (e *Extractor) Text(ctx context.Context, src *Source) (string, error) {
	var pages []rawPage
	var err error

	switch src.Type {
	case commonModels.PDF:
		pages, err = e.extractPDF(ctx, src.pdf)
	case commonModels.DOCX, commonModels.TXT:
		pages, err = e.extractdocxTxtRtf(src)
	default:
		return "", commonModels.NewValidationError(commonModels.ErrUnsupportedType, string(src.Type))
	}
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, p := range pages {
		sb.WriteString(p.Content)
		sb.WriteString("\n\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", commonModels.NewValidationError(commonModels.ErrEmptyText, src.Name)
	}
	return text, nil
}

func openPDF(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader = nil
			err = commonModels.NewValidationError(commonModels.ErrUnreadable, fmt.Sprint(r))
		}
	}()

	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "encrypt") {
			return nil, commonModels.NewValidationError(commonModels.ErrEncrypted, err.Error())
		}
		return nil, commonModels.NewValidationError(commonModels.ErrUnreadable, err.Error())
	}
	if !reader.Trailer().Key("Encrypt").IsNull() {
		return nil, commonModels.NewValidationError(commonModels.ErrEncrypted, "")
	}
	if reader.NumPage() < 1 {
		return nil, commonModels.NewValidationError(commonModels.ErrNoPages, "")
	}
	return reader, nil
}
