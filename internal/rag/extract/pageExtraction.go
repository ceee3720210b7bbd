package extract

import (
	"errors"
	"fmt"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"

	"github.com/smehrotra/docpod/internal/config"
)

type rawPage struct {
	Number    int
	Content   string
	viaVision bool
}

func extractPDF(path string) ([]rawPage, error) {
	logger.Debug("extractPDF", "attempting extraction", path)
	f, err := pdf.Open(path)
	if err != nil {
		logger.Error("failed opening of pdf file")
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []rawPage
	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			pages = append(pages, rawPage{Number: i})
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// Keep the page slot so the vision pass can pick it up
			logger.Error("Error parsing page content", "page", i, "Error", err)
			pages = append(pages, rawPage{Number: i})
			continue
		}

		pages = append(pages, rawPage{
			Number:  i,
			Content: content,
		})
	}
	return pages, nil
}

// extractdocxTxtRtf reads a .odt, .docx, .rtf or plaintext file and
// returns the content as a single page.
func extractdocxTxtRtf(path string) ([]rawPage, error) {
	text, err := cat.File(path)
	if err != nil {
		logger.Error("Error extracting content from doc")
		return nil, fmt.Errorf("failed to extract docx: %w", err)
	}

	return []rawPage{
		{
			Number:  1,
			Content: text,
		},
	}, nil
}

// protectExtract guards against parser hangs on malformed pages.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(config.PdfExtractTimeout):
		logger.Error("pageExtract", "timeout")
		return "", errors.New("timeout")
	}
}
