package pdf

import (
	"bytes"
	"compress/zlib"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bimxplan/bimxplan-backend/internal/bep"
	"github.com/bimxplan/bimxplan-backend/internal/logger"
)

func fullModel() bep.PdfModel {
	return bep.PdfModel{
		Header: bep.PdfHeader{
			ProjectName:   "Tower A",
			ClientName:    "Acme Development",
			GeneratedDate: "03/14/2026",
			GeneratedAt:   time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			ProjectID:     "b7f9c2a0-0000-0000-0000-000000000001",
		},
		Sections: bep.PdfSections{
			Overview: &bep.PdfOverviewSection{
				ProjectName: "Tower A",
				ClientName:  "Acme Development",
				Location:    "Rotterdam",
				ProjectType: "Commercial",
				Milestones: []bep.PdfMilestone{
					{Name: "Design Freeze", Date: "2026-01-15", Description: "Signed off"},
				},
			},
			Team: &bep.PdfTeamSection{Firms: []bep.PdfFirm{
				{FirmName: "ABC Architecture", Discipline: "Architecture", BIMLead: "Jane Smith", Contact: "jane@abc.example"},
			}},
			Software: &bep.PdfSoftwareSection{MainTools: []bep.PdfTool{
				{Tool: "Revit", Version: "2025", Discipline: "Architecture", Usage: "Authoring"},
			}},
			Geolocation: &bep.PdfGeolocationSection{IsGeoreferenced: true, CoordinateSystem: "EPSG:2229"},
			Checking:    &bep.PdfCheckingSection{ClashDetectionTools: []string{"Navisworks"}},
		},
	}
}

func TestRender_ProducesPdf(t *testing.T) {
	r := NewRenderer(logger.NewNop())
	out, err := r.Render(fullModel(), "b7f9c2a0-0000-0000-0000-000000000001")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output does not start with a PDF header")
	}
}

func TestRender_SkipsAbsentSections(t *testing.T) {
	r := NewRenderer(logger.NewNop())
	model := fullModel()
	model.Sections = bep.PdfSections{Overview: model.Sections.Overview}
	out, err := r.Render(model, "p1")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected output for a single-section model")
	}
}

// Long content spills onto extra pages; every page gets a footer with the
// final total, so the multi-page document must be larger and still valid.
func TestRender_MultiPage(t *testing.T) {
	model := fullModel()
	firms := make([]bep.PdfFirm, 0, 120)
	for i := 0; i < 120; i++ {
		firms = append(firms, bep.PdfFirm{
			FirmName: "Firm", Discipline: "Discipline", BIMLead: "Lead", Contact: "contact@example.com",
		})
	}
	model.Sections.Team = &bep.PdfTeamSection{Firms: firms}

	r := NewRenderer(logger.NewNop())
	single, err := r.Render(fullModel(), "p1")
	if err != nil {
		t.Fatalf("Render single: %v", err)
	}
	multi, err := r.Render(model, "p1")
	if err != nil {
		t.Fatalf("Render multi: %v", err)
	}
	if len(multi) <= len(single) {
		t.Fatalf("multi-page render should be larger: %d vs %d", len(multi), len(single))
	}
	if !bytes.HasPrefix(multi, []byte("%PDF")) {
		t.Fatalf("multi-page output is not a PDF")
	}
}

// pageCount reads the page total from the document's page tree.
func pageCount(t *testing.T, out []byte) int {
	t.Helper()
	m := regexp.MustCompile(`/Count (\d+)`).FindSubmatch(out)
	if m == nil {
		t.Fatalf("no /Count entry in output")
	}
	n, err := strconv.Atoi(string(m[1]))
	if err != nil {
		t.Fatalf("bad /Count value: %v", err)
	}
	return n
}

// contentStreams inflates every compressed stream in the document so tests
// can inspect the text operators.
func contentStreams(t *testing.T, out []byte) []byte {
	t.Helper()
	var text []byte
	rest := out
	for {
		i := bytes.Index(rest, []byte("stream\n"))
		if i < 0 {
			break
		}
		rest = rest[i+len("stream\n"):]
		j := bytes.Index(rest, []byte("endstream"))
		if j < 0 {
			break
		}
		if zr, err := zlib.NewReader(bytes.NewReader(rest[:j])); err == nil {
			if data, err := io.ReadAll(zr); err == nil {
				text = append(text, data...)
			}
			zr.Close()
		}
		rest = rest[j:]
	}
	if len(text) == 0 {
		t.Fatalf("no readable content streams in output")
	}
	return text
}

// A single value that wraps to more lines than fit on a page must continue
// on following pages instead of running through the footer band.
func TestRender_LongValueBreaksPages(t *testing.T) {
	model := fullModel()
	model.Sections.Checking.CoordinationProcess = strings.Repeat("Weekly federated model review with all disciplines. ", 330)

	r := NewRenderer(logger.NewNop())
	out, err := r.Render(model, "p1")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n := pageCount(t, out); n < 2 {
		t.Fatalf("a ~17k char value must spill onto further pages, got %d page(s)", n)
	}
}

// Core fonts are cp1252; text must be re-encoded or non-ASCII characters
// (the footer bullet, accented names) come out as mojibake.
func TestRender_EncodesNonASCIIText(t *testing.T) {
	model := fullModel()
	model.Header.ProjectName = "Zürich Tower"
	model.Sections.Overview.Location = "Zürich"

	r := NewRenderer(logger.NewNop())
	out, err := r.Render(model, "p1")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	text := contentStreams(t, out)
	if bytes.Contains(text, []byte("Tower \xe2\x80\xa2 BEP Summary")) {
		t.Fatalf("raw UTF-8 bullet found in a text stream")
	}
	if bytes.Contains(text, []byte("Z\xc3\xbcrich")) {
		t.Fatalf("raw UTF-8 umlaut found in a text stream")
	}
	if !bytes.Contains(text, []byte("Z\xfcrich")) {
		t.Fatalf("expected cp1252-encoded project name in text stream")
	}
	if !bytes.Contains(text, []byte("Tower \x95 BEP Summary")) {
		t.Fatalf("expected cp1252-encoded footer bullet in text stream")
	}
}

// The footer centre carries the snapshot's export timestamp, not the clock,
// so rendering a fixed model is fully deterministic.
func TestRender_FooterUsesExportTimestamp(t *testing.T) {
	r := NewRenderer(logger.NewNop())
	model := fullModel()

	out, err := r.Render(model, "p1")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(contentStreams(t, out), []byte("03/14/2026 9:30 AM")) {
		t.Fatalf("footer should stamp the export timestamp")
	}

	again, err := r.Render(model, "p1")
	if err != nil {
		t.Fatalf("Render again: %v", err)
	}
	if !bytes.Equal(out, again) {
		t.Fatalf("rendering the same model twice must produce identical bytes")
	}
}

func TestLoadLogo_PathFallback(t *testing.T) {
	t.Setenv("BEP_LOGO_PATH", filepath.Join(t.TempDir(), "missing.png"))
	if !bytes.Equal(loadLogo(logger.NewNop()), logoPNG()) {
		t.Fatalf("missing logo file should fall back to the built-in mark")
	}

	// A file that is not a PNG falls back too.
	bad := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BEP_LOGO_PATH", bad)
	if !bytes.Equal(loadLogo(logger.NewNop()), logoPNG()) {
		t.Fatalf("non-PNG logo file should fall back to the built-in mark")
	}
}

func TestLoadLogo_ConfiguredPath(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("BEP_LOGO_PATH", path)
	if !bytes.Equal(loadLogo(logger.NewNop()), buf.Bytes()) {
		t.Fatalf("configured logo file should be used as-is")
	}
}

func TestGeneratePdfFilename(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	got := GeneratePdfFilename("Tower A (Phase 2)", at)
	want := "Tower_A__Phase_2__BEP_Summary_20260314_093000.pdf"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	got = GeneratePdfFilename("   ", at)
	if !strings.HasPrefix(got, "Untitled_Project_BEP_Summary_") {
		t.Fatalf("blank name should fall back to Untitled_Project, got %q", got)
	}
}
