package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"finsight-backend/internal/doctype"
)

// Progress milestones reported during a run.
const (
	progressExtracting  = 10
	progressClassifying = 20
	progressStructured  = 40
	progressReports     = 70
)

// Extractor is the default Runner.
type Extractor struct{}

// NewExtractor constructs the default extraction pipeline.
func NewExtractor() *Extractor { return &Extractor{} }

// Run executes the pipeline steps for one document, reporting progress at
// each milestone. All failures come back as *Error values; Run never panics
// on malformed input.
func (e *Extractor) Run(ctx context.Context, doc Document, progress ProgressFunc) (Result, error) {
	if progress == nil {
		progress = func(int, string) {}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	progress(progressExtracting, "Extracting text from document...")
	text, err := extractText(doc.FileName, doc.Content)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, extractionError("document contains no extractable text")
	}

	documentType := doc.Type
	if documentType == doctype.Auto || documentType == "" {
		progress(progressClassifying, "Classifying document type...")
		documentType = classify(text)
	}
	if !documentType.Concrete() {
		return Result{}, &Error{Kind: KindUnsupported, Message: fmt.Sprintf("unsupported document type: %s", documentType)}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	progress(progressStructured, "Extracting structured data...")
	var data any
	switch documentType {
	case doctype.BankStatement:
		data = extractBankStatement(text)
	case doctype.Invoice:
		data = extractInvoice(text)
	case doctype.PurchaseOrder:
		data = extractPurchaseOrder(text)
	case doctype.TrialBalance:
		data = extractTrialBalance(text)
	case doctype.ProfitLoss:
		data = extractProfitLoss(text)
	case doctype.GSTReturn:
		data = extractGSTReturn(text)
	default:
		return Result{}, &Error{Kind: KindUnsupported, Message: fmt.Sprintf("unsupported document type: %s", documentType)}
	}

	progress(progressReports, "Generating reports...")
	reports := buildReports(data)

	extracted, err := json.Marshal(data)
	if err != nil {
		return Result{}, extractionError("encode extracted data: " + err.Error())
	}

	return Result{
		DocumentType:  documentType,
		FileName:      doc.FileName,
		ExtractedData: extracted,
		Reports:       reports,
	}, nil
}

var _ Runner = (*Extractor)(nil)
