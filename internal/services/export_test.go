package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/bimxplan/bimxplan-backend/internal/bep"
	"github.com/bimxplan/bimxplan-backend/internal/logger"
	"github.com/bimxplan/bimxplan-backend/internal/pdf"
)

type noopFlusher struct{ calls int }

func (n *noopFlusher) FlushPendingSave(ctx context.Context, userID, projectID uuid.UUID) error {
	n.calls++
	return nil
}

func TestExportPDF_Pipeline(t *testing.T) {
	collector := newFakeCollector()
	flusher := &noopFlusher{}
	es := NewExportService(logger.NewNop(), collector, flusher, pdf.NewRenderer(logger.NewNop()))

	result, err := es.ExportPDF(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	if flusher.calls != 1 {
		t.Fatalf("export must drain pending saves first, got %d flush calls", flusher.calls)
	}
	if !bytes.HasPrefix(result.Pdf, []byte("%PDF")) {
		t.Fatalf("artifact is not a PDF")
	}
	if !strings.Contains(result.Filename, "_BEP_Summary_") || !strings.HasSuffix(result.Filename, ".pdf") {
		t.Fatalf("unexpected filename %q", result.Filename)
	}
	if !strings.HasPrefix(result.Filename, "Tower_A_") {
		t.Fatalf("filename should start with the sanitized project name, got %q", result.Filename)
	}
	if result.Markdown == "" || !strings.Contains(result.Markdown, "# BIM Execution Plan") {
		t.Fatalf("companion markdown missing")
	}

	// Overview alone is incomplete, so the summary must carry the failing
	// required messages without blocking the export.
	if result.Validation.IsValid {
		t.Fatalf("partial plan should not validate clean")
	}
	if result.ValidationSummary == "" {
		t.Fatalf("incomplete export should include a validation summary")
	}

	// The export writes a version entry through the collector.
	if got := collector.saveCount(); got != 1 {
		t.Fatalf("expected one export version save, got %d", got)
	}
	if result.VersionNumber != 1 {
		t.Fatalf("expected version 1, got %d", result.VersionNumber)
	}
}

func TestExportMarkdown(t *testing.T) {
	collector := newFakeCollector()
	es := NewExportService(logger.NewNop(), collector, &noopFlusher{}, pdf.NewRenderer(logger.NewNop()))

	out, err := es.ExportMarkdown(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("ExportMarkdown: %v", err)
	}
	if !strings.Contains(out, "- **Project Name:** Tower A") {
		t.Fatalf("markdown missing project name:\n%s", out)
	}
}

func TestExportPDF_FetchErrorPropagates(t *testing.T) {
	collector := newFakeCollector()
	collector.fetchFails = 100
	es := NewExportService(logger.NewNop(), collector, &noopFlusher{}, pdf.NewRenderer(logger.NewNop()))

	if _, err := es.ExportPDF(context.Background(), uuid.New(), uuid.New()); err == nil {
		t.Fatalf("fetch failure must abort the export")
	}
}

func TestCollectorError_Unwraps(t *testing.T) {
	err := &CollectorError{Op: "fetch", ProjectID: "p1", Err: ErrAccessDenied}
	var ce *CollectorError
	if !errors.As(err, &ce) {
		t.Fatalf("errors.As should find the CollectorError")
	}
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("errors.Is should reach the sentinel through the wrapper")
	}
	if !strings.Contains(err.Error(), "fetch failed for project p1") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func TestSampleSeededExportValidatesClean(t *testing.T) {
	collector := newFakeCollector()
	sample, err := bep.SamplePlan()
	if err != nil {
		t.Fatalf("SamplePlan: %v", err)
	}
	collector.data.ProjectOverview = *sample.ProjectOverview
	collector.data.TeamResponsibilities = *sample.TeamResponsibilities
	collector.data.SoftwareOverview = *sample.SoftwareOverview
	collector.data.ModelingScope = *sample.ModelingScope
	collector.data.FileNaming = *sample.FileNaming
	collector.data.CollaborationCDE = *sample.CollaborationCDE
	collector.data.Geolocation = *sample.Geolocation
	collector.data.ModelChecking = *sample.ModelChecking
	collector.data.OutputsDeliverables = *sample.OutputsDeliverables

	es := NewExportService(logger.NewNop(), collector, &noopFlusher{}, pdf.NewRenderer(logger.NewNop()))
	result, err := es.ExportPDF(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	if !result.Validation.IsValid {
		t.Fatalf("sample-seeded export should validate clean, issues: %+v", result.Validation.Issues)
	}
	if result.ValidationSummary != "" {
		t.Fatalf("clean export must carry no validation summary")
	}
}
