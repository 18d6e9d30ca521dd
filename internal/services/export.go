package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bimxplan/bimxplan-backend/internal/bep"
	"github.com/bimxplan/bimxplan-backend/internal/logger"
	"github.com/bimxplan/bimxplan-backend/internal/pdf"
)

// Flusher drains a pending debounced save before an export reads the
// project. WizardService implements it; exports taken outside any wizard
// session see a no-op.
type Flusher interface {
	FlushPendingSave(ctx context.Context, userID, projectID uuid.UUID) error
}

// PdfExport is the finished PDF artifact plus the companion outputs the
// export endpoint returns with it. Incomplete plans export fine; the
// validation summary rides along so the client can warn before download.
type PdfExport struct {
	Filename          string               `json:"filename"`
	Pdf               []byte               `json:"-"`
	Markdown          string               `json:"-"`
	VersionNumber     int64                `json:"version_number"`
	Validation        bep.ValidationReport `json:"validation"`
	ValidationSummary string               `json:"validation_summary,omitempty"`
}

type ExportService interface {
	ExportPDF(ctx context.Context, userID, projectID uuid.UUID) (*PdfExport, error)
	ExportMarkdown(ctx context.Context, userID, projectID uuid.UUID) (string, error)
}

type exportService struct {
	log       *logger.Logger
	collector CollectorService
	flusher   Flusher
	renderer  *pdf.Renderer
}

func NewExportService(log *logger.Logger, collector CollectorService, flusher Flusher, renderer *pdf.Renderer) ExportService {
	return &exportService{
		log:       log.With("service", "ExportService"),
		collector: collector,
		flusher:   flusher,
		renderer:  renderer,
	}
}

// ExportPDF runs the full pipeline: drain any pending autosave, collect the
// fresh export data, map it to the presentation model, render the PDF and
// the Markdown companion concurrently, then append the export version entry.
func (es *exportService) ExportPDF(ctx context.Context, userID, projectID uuid.UUID) (*PdfExport, error) {
	if err := es.flusher.FlushPendingSave(ctx, userID, projectID); err != nil {
		es.log.Warn("pending save flush failed before export",
			"project_id", projectID.String(), "error", err.Error())
	}

	data, err := es.collector.Fetch(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	model := bep.MapToPdfModel(data)
	filename := pdf.GeneratePdfFilename(data.ProjectName, time.Now())
	plan := data.Sections()

	var pdfBytes []byte
	var markdown string
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var rerr error
		pdfBytes, rerr = es.renderer.Render(model, data.ProjectID)
		return rerr
	})
	g.Go(func() error {
		var rerr error
		markdown, rerr = bep.RenderMarkdown(&plan)
		return rerr
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	version, err := es.collector.Save(ctx, userID, projectID, &plan, "BEP PDF Export: "+filename)
	if err != nil {
		return nil, err
	}

	report := bep.Validate(&plan)
	result := &PdfExport{
		Filename:      filename,
		Pdf:           pdfBytes,
		Markdown:      markdown,
		VersionNumber: version,
		Validation:    report,
	}
	if !report.IsValid {
		var msgs []string
		for _, issue := range report.Issues {
			if issue.Severity == bep.SeverityRequired {
				msgs = append(msgs, issue.Message)
			}
		}
		result.ValidationSummary = bep.SummarizeIssues(msgs)
	}
	es.log.Info("pdf export complete",
		"project_id", projectID.String(),
		"filename", filename,
		"version", version,
		"bytes", len(pdfBytes))
	return result, nil
}

func (es *exportService) ExportMarkdown(ctx context.Context, userID, projectID uuid.UUID) (string, error) {
	if err := es.flusher.FlushPendingSave(ctx, userID, projectID); err != nil {
		es.log.Warn("pending save flush failed before export",
			"project_id", projectID.String(), "error", err.Error())
	}
	data, err := es.collector.Fetch(ctx, userID, projectID)
	if err != nil {
		return "", err
	}
	plan := data.Sections()
	return bep.RenderMarkdown(&plan)
}
