// Package pdf renders the BEP summary document from the presentation model.
// Layout is A4 portrait in millimetres with a manually managed cursor; auto
// page breaking is disabled so every break is an explicit decision that
// reserves the footer band.
package pdf

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/bimxplan/bimxplan-backend/internal/bep"
	"github.com/bimxplan/bimxplan-backend/internal/logger"
	"github.com/bimxplan/bimxplan-backend/internal/utils"
)

const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	contentWidth = pageWidth - marginLeft - marginRight

	// Content may not run past this line; the band below it belongs to the
	// footer and the logo.
	contentBottom = 270.0
	footerLineY   = 278.0

	lineHeight    = 5.0
	headingHeight = 8.0
	labelWidth    = 48.0
)

type Renderer struct {
	log  *logger.Logger
	logo []byte
}

func NewRenderer(log *logger.Logger) *Renderer {
	r := &Renderer{log: log.With("component", "PdfRenderer")}
	r.logo = loadLogo(r.log)
	return r
}

// loadLogo reads the branding image from BEP_LOGO_PATH when configured. Any
// failure (missing file, not a PNG) falls back to the built-in mark so an
// export never fails over branding.
func loadLogo(log *logger.Logger) []byte {
	path := utils.GetEnv("BEP_LOGO_PATH", "", log)
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if _, err = png.DecodeConfig(bytes.NewReader(data)); err == nil {
				return data
			}
		}
		log.Warn("could not load configured logo, using built-in mark", "path", path, "error", err)
	}
	return logoPNG()
}

// Render produces the finished document. Two passes: the content pass lays
// out sections 1-9 with manual page breaks, then the footer pass revisits
// every page to stamp the footer with the now-known page total.
func (r *Renderer) Render(model bep.PdfModel, projectID string) ([]byte, error) {
	doc := newDocument(r.logo)
	if !model.Header.GeneratedAt.IsZero() {
		// Pin the document metadata to the export timestamp so rendering a
		// fixed model is deterministic.
		doc.pdf.SetCreationDate(model.Header.GeneratedAt)
		doc.pdf.SetModificationDate(model.Header.GeneratedAt)
	}

	doc.titleBlock(model.Header)

	s := model.Sections
	if s.Overview != nil {
		doc.sectionHeading(1, "Project Overview")
		doc.keyValue("Project Name", s.Overview.ProjectName)
		doc.keyValue("Client", s.Overview.ClientName)
		doc.keyValue("Location", s.Overview.Location)
		doc.keyValue("Project Type", s.Overview.ProjectType)
		if len(s.Overview.Milestones) > 0 {
			doc.subHeading("Key Milestones")
			for _, m := range s.Overview.Milestones {
				line := m.Name
				if m.Date != "" {
					line += " - " + m.Date
				}
				if m.Description != "" {
					line += ": " + m.Description
				}
				doc.bullet(line)
			}
		}
	}

	if s.Team != nil {
		doc.sectionHeading(2, "Team & Responsibilities")
		doc.tableHeader([]string{"Firm", "Discipline", "BIM Lead", "Contact"}, []float64{50, 40, 45, 45})
		for _, firm := range s.Team.Firms {
			doc.tableRow([]string{firm.FirmName, firm.Discipline, firm.BIMLead, firm.Contact}, []float64{50, 40, 45, 45})
		}
	}

	if s.Software != nil {
		doc.sectionHeading(3, "Software Overview")
		if len(s.Software.MainTools) > 0 {
			doc.subHeading("Main Tools")
			doc.toolTable(s.Software.MainTools)
		}
		if len(s.Software.TeamTools) > 0 {
			doc.subHeading("Team-Specific Tools")
			doc.toolTable(s.Software.TeamTools)
		}
	}

	if s.Modeling != nil {
		doc.sectionHeading(4, "Modeling Scope & LOD")
		doc.keyValue("General LOD", s.Modeling.GeneralLOD)
		doc.keyValue("Units", s.Modeling.Units)
		doc.keyValue("Levels & Grids", s.Modeling.DatumStrategy)
		if len(s.Modeling.DisciplineLODs) > 0 {
			doc.subHeading("Discipline LODs")
			for _, lod := range s.Modeling.DisciplineLODs {
				line := lod.Discipline + ": " + lod.Level
				if lod.Description != "" {
					line += " - " + lod.Description
				}
				doc.bullet(line)
			}
		}
		if len(s.Modeling.Exceptions) > 0 {
			doc.subHeading("Exceptions")
			for _, e := range s.Modeling.Exceptions {
				doc.bullet(e)
			}
		}
	}

	if s.Naming != nil {
		doc.sectionHeading(5, "File Naming Conventions")
		if !s.Naming.UseConventions {
			doc.paragraph("No formal file naming conventions are enforced on this project.")
		} else {
			doc.keyValue("Prefix Format", s.Naming.PrefixFormat)
			doc.keyValue("Discipline Codes", s.Naming.DisciplineCodes)
			doc.keyValue("Versioning", s.Naming.VersioningFormat)
			if len(s.Naming.Examples) > 0 {
				doc.subHeading("Examples")
				for _, ex := range s.Naming.Examples {
					doc.bullet(ex)
				}
			}
		}
	}

	if s.Collaboration != nil {
		doc.sectionHeading(6, "Collaboration & CDE")
		doc.keyValue("Platform", s.Collaboration.Platform)
		doc.keyValue("File Linking", s.Collaboration.LinkingMethod)
		doc.keyValue("Sharing Frequency", s.Collaboration.SharingFrequency)
		doc.keyValue("CDE Setup", s.Collaboration.SetupResponsibility)
		doc.keyValue("Access Controls", s.Collaboration.AccessControls)
	}

	if s.Geolocation != nil {
		doc.sectionHeading(7, "Geolocation")
		if s.Geolocation.IsGeoreferenced {
			doc.keyValue("Georeferenced", "Yes")
			doc.keyValue("Coordinate Setup", s.Geolocation.CoordinateSetup)
			doc.keyValue("Origin Location", s.Geolocation.OriginLocation)
			doc.keyValue("Coordinate System", s.Geolocation.CoordinateSystem)
		} else {
			doc.keyValue("Georeferenced", "No")
		}
	}

	if s.Checking != nil {
		doc.sectionHeading(8, "Model Checking & Coordination")
		if len(s.Checking.ClashDetectionTools) > 0 {
			doc.keyValue("Clash Detection", strings.Join(s.Checking.ClashDetectionTools, ", "))
		}
		doc.keyValue("Coordination Process", s.Checking.CoordinationProcess)
		doc.keyValue("Meeting Frequency", s.Checking.MeetingFrequency)
		doc.keyValue("Responsibility Matrix", s.Checking.ResponsibilityMatrix)
	}

	if s.Outputs != nil {
		doc.sectionHeading(9, "Outputs & Deliverables")
		for _, phase := range s.Outputs.DeliverablesByPhase {
			doc.subHeading(phase.Phase)
			for _, d := range phase.Deliverables {
				doc.bullet(d)
			}
			if len(phase.Formats) > 0 {
				doc.keyValue("Formats", strings.Join(phase.Formats, ", "))
			}
			doc.keyValue("Responsibility", phase.Responsibility)
		}
		if len(s.Outputs.FormatsStandards) > 0 {
			doc.keyValue("Standards", strings.Join(s.Outputs.FormatsStandards, ", "))
		}
		if len(s.Outputs.MilestoneSchedule) > 0 {
			doc.subHeading("Milestone Schedule")
			for _, ms := range s.Outputs.MilestoneSchedule {
				line := ms.Milestone
				if ms.Deadline != "" {
					line += " - due " + ms.Deadline
				}
				if len(ms.Deliverables) > 0 {
					line += " (" + strings.Join(ms.Deliverables, ", ") + ")"
				}
				doc.bullet(line)
			}
		}
	}

	doc.stampFooters(model.Header, projectID)

	if doc.pdf.Err() {
		return nil, fmt.Errorf("pdf generation failed: %w", doc.pdf.Error())
	}
	var buf bytes.Buffer
	if err := doc.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output failed: %w", err)
	}
	r.log.Debug("rendered pdf", "project_id", projectID, "pages", doc.pdf.PageCount(), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// GeneratePdfFilename sanitizes the project name (every non-alphanumeric run
// of characters becomes underscores) and appends the export timestamp.
func GeneratePdfFilename(projectName string, now time.Time) string {
	if strings.TrimSpace(projectName) == "" {
		projectName = "Untitled Project"
	}
	var b strings.Builder
	for _, r := range projectName {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return fmt.Sprintf("%s_BEP_Summary_%s.pdf", b.String(), now.Format("20060102_150405"))
}

// document wraps the fpdf instance with the cursor discipline used by the
// content pass. tr maps UTF-8 to the cp1252 encoding of the core fonts;
// every string must pass through it before reaching a text operator.
type document struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	logoName string
}

func newDocument(logo []byte) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	// Sort resource dictionaries on output; without this fpdf emits font
	// objects in map order and repeat renders are not byte-identical.
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetTitle("BIM Execution Plan", false)
	pdf.AddPage()

	doc := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if len(logo) > 0 {
		doc.logoName = "bimxplan-logo"
		pdf.RegisterImageOptionsReader(doc.logoName,
			fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(logo))
	}
	return doc
}

// ensureSpace breaks the page when the next block would cross into the
// footer band.
func (d *document) ensureSpace(height float64) {
	if d.pdf.GetY()+height > contentBottom {
		d.pdf.AddPage()
		d.pdf.SetY(marginTop)
	}
}

func (d *document) titleBlock(header bep.PdfHeader) {
	d.pdf.SetFont("Helvetica", "B", 22)
	d.pdf.SetTextColor(30, 30, 60)
	d.pdf.CellFormat(contentWidth, 12, "BIM Execution Plan", "", 1, "L", false, 0, "")

	d.pdf.SetFont("Helvetica", "", 12)
	d.pdf.SetTextColor(60, 60, 60)
	d.pdf.CellFormat(contentWidth, 7, d.tr(header.ProjectName), "", 1, "L", false, 0, "")
	d.pdf.CellFormat(contentWidth, 6, d.tr("Client: "+header.ClientName), "", 1, "L", false, 0, "")
	d.pdf.CellFormat(contentWidth, 6, "Generated: "+header.GeneratedDate, "", 1, "L", false, 0, "")

	y := d.pdf.GetY() + 3
	d.pdf.SetDrawColor(74, 87, 214)
	d.pdf.SetLineWidth(0.8)
	d.pdf.Line(marginLeft, y, pageWidth-marginRight, y)
	d.pdf.SetLineWidth(0.2)
	d.pdf.SetY(y + 5)
}

func (d *document) sectionHeading(number int, title string) {
	// A heading never sits alone at the bottom; break early so at least two
	// content lines fit beneath it.
	d.ensureSpace(headingHeight + 3*lineHeight)
	d.pdf.Ln(3)
	d.pdf.SetFont("Helvetica", "B", 14)
	d.pdf.SetTextColor(74, 87, 214)
	d.pdf.CellFormat(contentWidth, headingHeight, fmt.Sprintf("%d. %s", number, title), "", 1, "L", false, 0, "")
	d.pdf.SetTextColor(40, 40, 40)
}

func (d *document) subHeading(title string) {
	if strings.TrimSpace(title) == "" {
		return
	}
	d.ensureSpace(2 * lineHeight)
	d.pdf.Ln(1)
	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.CellFormat(contentWidth, lineHeight+1, d.tr(title), "", 1, "L", false, 0, "")
}

// writeLines wraps already-translated text to the given column and emits it
// one line at a time, each line with its own space check, so a value of any
// length breaks across pages instead of running into the footer band.
func (d *document) writeLines(x, width float64, translated string) {
	for _, line := range d.pdf.SplitLines([]byte(translated), width) {
		d.ensureSpace(lineHeight)
		d.pdf.SetX(x)
		d.pdf.CellFormat(width, lineHeight, string(line), "", 1, "L", false, 0, "")
	}
}

// keyValue prints one "Label  value" row; empty values are skipped so the
// document never shows blank rows.
func (d *document) keyValue(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	d.ensureSpace(lineHeight)
	d.pdf.SetFont("Helvetica", "B", 10)
	d.pdf.CellFormat(labelWidth, lineHeight, d.tr(label), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Helvetica", "", 10)
	d.writeLines(marginLeft+labelWidth, contentWidth-labelWidth, d.tr(value))
}

func (d *document) paragraph(text string) {
	d.ensureSpace(lineHeight)
	d.pdf.SetFont("Helvetica", "", 10)
	d.writeLines(marginLeft, contentWidth, d.tr(text))
}

func (d *document) bullet(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	d.ensureSpace(lineHeight)
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.CellFormat(6, lineHeight, "-", "", 0, "R", false, 0, "")
	d.writeLines(marginLeft+6, contentWidth-6, d.tr(text))
}

func (d *document) tableHeader(labels []string, widths []float64) {
	d.ensureSpace(2 * lineHeight)
	d.pdf.SetFont("Helvetica", "B", 9)
	d.pdf.SetFillColor(238, 240, 252)
	for i, label := range labels {
		d.pdf.CellFormat(widths[i], lineHeight+1, label, "1", 0, "L", true, 0, "")
	}
	d.pdf.Ln(-1)
}

func (d *document) tableRow(cells []string, widths []float64) {
	d.ensureSpace(lineHeight + 1)
	d.pdf.SetFont("Helvetica", "", 9)
	for i, cell := range cells {
		d.pdf.CellFormat(widths[i], lineHeight+1, d.tr(cell), "1", 0, "L", false, 0, "")
	}
	d.pdf.Ln(-1)
}

func (d *document) toolTable(tools []bep.PdfTool) {
	widths := []float64{55, 25, 45, 55}
	d.tableHeader([]string{"Tool", "Version", "Discipline", "Usage"}, widths)
	for _, t := range tools {
		d.tableRow([]string{t.Tool, t.Version, t.Discipline, t.Usage}, widths)
	}
}

// stampFooters is the second pass: with the page total known it revisits
// every page and draws the complete footer band plus the logo.
func (d *document) stampFooters(header bep.PdfHeader, projectID string) {
	total := d.pdf.PageCount()
	exportedAt := header.GeneratedAt
	if exportedAt.IsZero() {
		exportedAt = time.Now()
	}
	stampedAt := exportedAt.Format("01/02/2006 3:04 PM")

	for page := 1; page <= total; page++ {
		d.pdf.SetPage(page)

		d.pdf.SetDrawColor(200, 200, 200)
		d.pdf.Line(marginLeft, footerLineY, pageWidth-marginRight, footerLineY)

		d.pdf.SetFont("Helvetica", "", 8)
		d.pdf.SetTextColor(120, 120, 120)

		d.pdf.SetXY(marginLeft, footerLineY+2)
		left := d.tr(fmt.Sprintf("%s • BEP Summary", header.ProjectName))
		d.pdf.CellFormat(80, 4, left, "", 2, "L", false, 0, "")
		d.pdf.CellFormat(80, 4, "Project ID: "+projectID, "", 0, "L", false, 0, "")

		d.pdf.SetXY(marginLeft+80, footerLineY+2)
		d.pdf.CellFormat(contentWidth-160, 4, stampedAt, "", 0, "C", false, 0, "")

		d.pdf.SetXY(pageWidth-marginRight-30, footerLineY+2)
		d.pdf.CellFormat(30, 4, fmt.Sprintf("Page %d of %d", page, total), "", 0, "R", false, 0, "")

		if d.logoName != "" {
			d.pdf.ImageOptions(d.logoName, pageWidth-marginRight-8, footerLineY-10, 8, 8,
				false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
	}
}
