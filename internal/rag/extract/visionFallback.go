package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/domain/docModel"
)

// isolatePage trims the document down to a single page so the vision
// model only ever sees the page it is asked about.
func isolatePage(path string, pageNumber int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf for page isolation: %w", err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := api.Trim(f, &out, []string{strconv.Itoa(pageNumber)}, nil); err != nil {
		return nil, fmt.Errorf("isolating page %d: %w", pageNumber, err)
	}
	return out.Bytes(), nil
}

// visionPass re-reads the flagged pages through the vision backend. Pages
// the model cannot read keep their direct content.
func (e *Extractor) visionPass(ctx context.Context, path string, pages []rawPage, flagged []int) []rawPage {
	log := e.logger.With("flaggedPages", len(flagged))

	for _, idx := range flagged {
		page := pages[idx]
		pagePDF, err := isolatePage(path, page.Number)
		if err != nil {
			log.Error("Could not isolate page for vision pass", "page", page.Number, "err", err)
			continue
		}

		content, err := e.vision.ExtractPageText(ctx, pagePDF, page.Number)
		if err != nil {
			log.Error("Vision pass failed for page", "page", page.Number, "err", err)
			continue
		}
		if cleaned := cleanText(content); cleaned != "" {
			pages[idx].Content = cleaned
			pages[idx].viaVision = true
		}
	}
	return pages
}

// visionDocument is the last resort: the whole PDF goes through the vision
// backend in one call when no individual page produced readable text.
func (e *Extractor) visionDocument(ctx context.Context, path string) *docModel.ExtractedText {
	log := e.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("Could not read document for whole-document vision pass", "err", err)
		return nil
	}

	content, err := e.vision.ExtractPageText(ctx, data, 0)
	if err != nil {
		log.Error("Whole-document vision pass failed", "err", err)
		return nil
	}

	cleaned := cleanText(content)
	if cleaned == "" || readableRatio(cleaned) < config.MinReadableRatio {
		return nil
	}
	return &docModel.ExtractedText{Pages: []docModel.PageText{
		{Number: 1, Text: cleaned, Method: docModel.MethodOCR},
	}}
}
