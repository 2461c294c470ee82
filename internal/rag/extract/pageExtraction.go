package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

func (e *Extractor) extractPDF(ctx context.Context, f *pdf.Reader) ([]rawPage, error) {
	var pages []rawPage
	numPages := f.NumPage()
	e.logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := f.Page(i)
		if page.V.IsNull() {
			e.logger.Debug("extractPDF", "page value is null", i)
			continue
		}

		content, err := e.protectExtract(page)
		if err != nil {
			// a single broken page should not cost the whole document
			e.logger.Error("Error parsing page content", "page", i, "Error", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}

		pages = append(pages, rawPage{
			Number:  i,
			Content: content,
		})
	}
	return pages, nil
}

// cat only reads from disk, so the bytes go through a temp file with the original extension
func (e *Extractor) extractdocxTxtRtf(src *Source) ([]rawPage, error) {
	tmp, err := os.CreateTemp("", "documind-*"+strings.ToLower(filepath.Ext(src.Name)))
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(src.Data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	text, err := cat.File(tmp.Name())
	if err != nil {
		e.logger.Error("Error extracting content from doc", "name", src.Name, "error", err)
		return nil, fmt.Errorf("failed to extract %s: %w", src.Name, err)
	}

	//TODO: page tracking for docx needs a reader that understands page breaks
	return []rawPage{
		{
			Number:  1,
			Content: text,
		},
	}, nil
}

func (e *Extractor) protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("page extraction panicked: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(e.pageTimeout):
		e.logger.Error("pageExtract", "timeout", e.pageTimeout)
		return "", errors.New("timeout")
	}
}
