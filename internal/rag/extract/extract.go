package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/domain/docModel"
	"github.com/smehrotra/docpod/internal/metrics"
	"github.com/smehrotra/docpod/internal/rag/llm"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

var logger *logger_i.Logger

var (
	// ErrNoText means every extraction path came up empty. Callers record
	// the document as unextractable rather than failing the request.
	ErrNoText = errors.New("no text could be extracted")

	// ErrFetch covers everything that goes wrong before the document is on
	// disk: unreachable source, non-200 status, interrupted download.
	ErrFetch = errors.New("document could not be fetched")

	// ErrSizeLimit rejects documents over the configured download cap.
	ErrSizeLimit = errors.New("document exceeds the size limit")
)

type docType int

const (
	typePDF docType = iota
	typeOffice
	typeUnknown
)

// Extractor turns a source URL into cleaned per-page text. PDFs go through
// the direct text layer first, and pages that come back empty or garbled
// are retried through the vision backend when one is wired.
type Extractor struct {
	httpClient *http.Client
	vision     llm.VisionBackend
	logger     *logger_i.Logger
}

func New(httpClient *http.Client, vision llm.VisionBackend) *Extractor {
	if logger == nil {
		logger = logger_i.NewLogger("Extraction")
	}
	return &Extractor{
		httpClient: httpClient,
		vision:     vision,
		logger:     logger,
	}
}

func (e *Extractor) Extract(ctx context.Context, doc docModel.Document) (*docModel.ExtractedText, error) {
	log := e.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", doc.Id)

	start := time.Now()
	path, err := e.fetchDocument(ctx, doc.SourceURL)
	metrics.CaptureExecutionMetrics("document_fetch", time.Since(start))
	if err != nil {
		log.Error("Error fetching document", "error", err)
		return nil, err
	}
	defer os.Remove(path)

	kind := getDocType(path)
	log.Debug("Processing document", "type", kind)

	var rawPages []rawPage
	switch kind {
	case typePDF:
		rawPages, err = extractPDF(path)
	case typeOffice:
		rawPages, err = extractdocxTxtRtf(path)
	default:
		return nil, fmt.Errorf("unsupported document type: %s", filepath.Ext(path))
	}
	if err != nil {
		log.Error("Error extracting document content", "error", err)
		return nil, err
	}

	for i := range rawPages {
		rawPages[i].Content = cleanText(rawPages[i].Content)
	}

	if kind == typePDF && e.vision != nil {
		flagged := flagPagesForVision(rawPages)
		if len(flagged) > 0 {
			log.Info("Running vision pass", "pages", len(flagged))
			rawPages = e.visionPass(ctx, path, rawPages, flagged)
		}
	}

	extracted := assemble(rawPages)
	if extracted == nil && kind == typePDF && e.vision != nil {
		log.Info("No readable page survived, retrying the whole document through vision")
		extracted = e.visionDocument(ctx, path)
	}
	if extracted == nil {
		log.Error("No readable text in document")
		return nil, ErrNoText
	}

	log.Debug("Extraction finished", "pages", len(extracted.Pages), "method", Method(extracted))
	return extracted, nil
}

func getDocType(docPath string) docType {
	switch strings.ToLower(filepath.Ext(docPath)) {
	case ".pdf":
		return typePDF
	case ".docx", ".odt", ".txt", ".rtf":
		return typeOffice
	default:
		return typeUnknown
	}
}

func flagPagesForVision(pages []rawPage) []int {
	var flagged []int
	for i, page := range pages {
		if pageNeedsVision(page.Content) {
			flagged = append(flagged, i)
			if len(flagged) == config.VisionMaxPages {
				break
			}
		}
	}
	return flagged
}

// assemble keeps only pages whose text reads like prose. Garbled pages
// that the vision pass could not recover are dropped rather than stored.
func assemble(pages []rawPage) *docModel.ExtractedText {
	var out docModel.ExtractedText
	for _, page := range pages {
		trimmed := strings.TrimSpace(page.Content)
		if trimmed == "" {
			continue
		}
		if readableRatio(trimmed) < config.MinReadableRatio {
			continue
		}
		method := docModel.MethodDirect
		if page.viaVision {
			method = docModel.MethodOCR
		}
		out.Pages = append(out.Pages, docModel.PageText{
			Number: page.Number,
			Text:   page.Content,
			Method: method,
		})
	}
	if len(out.Pages) == 0 {
		return nil
	}
	return &out
}

// Method reports "ocr" when any page needed the vision pass, "direct"
// otherwise.
func Method(extracted *docModel.ExtractedText) docModel.ExtractionMethod {
	for _, page := range extracted.Pages {
		if page.Method == docModel.MethodOCR {
			return docModel.MethodOCR
		}
	}
	return docModel.MethodDirect
}
