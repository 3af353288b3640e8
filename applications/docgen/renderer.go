// Package docgen implements the Document Renderer (C12): populate one of
// five typed templates with profile + sub-form data, stamp it with a
// Code128 barcode, and stream the result as bytes. It never writes to
// storage and never transitions profile state (spec §4.12).
package docgen

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"
	"text/template"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"

	"github.com/kunpeto/driver-management-system-sub001/domain/profile"
)

// typeCode is the short code embedded in a document's barcode payload
// (spec §4.12: "{profile_id}|{type_code}|{YYYY}|{MM}").
var typeCode = map[profile.Type]string{
	profile.TypeEventInvestigation: "EI",
	profile.TypePersonnelInterview: "PI",
	profile.TypeCorrectiveMeasures: "CM",
	profile.TypeAssessmentNotice:   "AN",
}

const checkedGlyph = "☑"
const uncheckedGlyph = "☐"

// Renderer implements profile.DocumentRenderer against Go's text/template,
// one template string per non-Basic profile type.
type Renderer struct {
	templates map[profile.Type]*template.Template
}

// NewRenderer parses the four built-in templates once at construction, so
// Render never pays parse cost per call.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[profile.Type]*template.Template)}
	sources := map[profile.Type]string{
		profile.TypeEventInvestigation: eventInvestigationTemplate,
		profile.TypePersonnelInterview: personnelInterviewTemplate,
		profile.TypeCorrectiveMeasures: correctiveMeasuresTemplate,
		profile.TypeAssessmentNotice:   assessmentNoticeTemplate,
	}
	for t, src := range sources {
		tmpl, err := template.New(string(t)).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("docgen: parse template %s: %w", t, err)
		}
		r.templates[t] = tmpl
	}
	return r, nil
}

// Render populates the template for subForm's type with profile and
// sub-form fields, embeds a Code128 barcode, and returns the document
// bytes plus a deterministic file name. Pure: identical (p, subForm) always
// yields identical bytes (spec §4.12 "same inputs -> same output bytes").
func (r *Renderer) Render(ctx context.Context, p profile.Profile, subForm profile.SubForm) (data []byte, fileName string, err error) {
	tmpl, ok := r.templates[p.ProfileType]
	if !ok {
		return nil, "", fmt.Errorf("docgen: no template for profile type %q", p.ProfileType)
	}
	if subForm.Type() != p.ProfileType {
		return nil, "", fmt.Errorf("docgen: sub-form type %q does not match profile type %q", subForm.Type(), p.ProfileType)
	}

	body, err := renderBody(tmpl, p, subForm)
	if err != nil {
		return nil, "", err
	}

	code, ok := typeCode[p.ProfileType]
	if !ok {
		return nil, "", fmt.Errorf("docgen: no type code for profile type %q", p.ProfileType)
	}
	payload := fmt.Sprintf("%s|%s|%04d|%02d", p.ID, code, p.EventDate.Year(), int(p.EventDate.Month()))
	barcodePNG, err := renderBarcode(payload)
	if err != nil {
		return nil, "", err
	}

	var out bytes.Buffer
	out.WriteString(body)
	out.WriteString("\n--barcode--\n")
	out.Write(barcodePNG)

	fileName = fmt.Sprintf("%s_%s_%04d%02d.doc", code, p.ID, p.EventDate.Year(), int(p.EventDate.Month()))
	return out.Bytes(), fileName, nil
}

func renderBarcode(payload string) ([]byte, error) {
	bc, err := code128.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("docgen: encode barcode: %w", err)
	}
	scaled, err := barcode.Scale(bc, 300, 80)
	if err != nil {
		return nil, fmt.Errorf("docgen: scale barcode: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("docgen: encode barcode png: %w", err)
	}
	return buf.Bytes(), nil
}

// templateData is the uniform shape every template executes against. Only
// the fields relevant to a given profile type are populated; the rest are
// zero values that never appear because each template only references its
// own type's fields.
type templateData struct {
	Profile profile.Profile

	// EventInvestigationForm fields
	Summary          string
	RootCause        string
	ChecklistGlyphs  string

	// PersonnelInterviewForm fields
	IntervieweeName  string
	IntervieweeRole  string
	Transcript       string
	FollowUpRequired bool

	// CorrectiveMeasuresForm fields
	MeasuresDescription string
	ResponsibleParty    string
	DueDate             string
	VerifiedAt          string

	// AssessmentNoticeForm fields
	StandardCode   string
	NoticeText     string
	AcknowledgedAt string
}

func renderBody(tmpl *template.Template, p profile.Profile, subForm profile.SubForm) (string, error) {
	data := templateData{Profile: p}

	switch form := subForm.(type) {
	case profile.EventInvestigationForm:
		data.Summary = form.Summary
		data.RootCause = form.RootCause
		data.ChecklistGlyphs = checklistGlyphs(form)
	case profile.PersonnelInterviewForm:
		data.IntervieweeName = form.IntervieweeName
		data.IntervieweeRole = form.IntervieweeRole
		data.Transcript = form.Transcript
		data.FollowUpRequired = form.FollowUpRequired
	case profile.CorrectiveMeasuresForm:
		data.MeasuresDescription = form.MeasuresDescription
		data.ResponsibleParty = form.ResponsibleParty
		data.DueDate = formatDate(form.DueDate)
		data.VerifiedAt = formatDate(form.VerifiedAt)
	case profile.AssessmentNoticeForm:
		data.StandardCode = form.StandardCode
		data.NoticeText = form.NoticeText
		data.AcknowledgedAt = formatDate(form.AcknowledgedAt)
	default:
		return "", fmt.Errorf("docgen: unsupported sub-form type %T", subForm)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("docgen: execute template: %w", err)
	}
	return buf.String(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func checklistGlyphs(form profile.EventInvestigationForm) string {
	if form.Checklist == nil {
		return strings.Repeat(uncheckedGlyph, 9)
	}
	var sb strings.Builder
	for _, f := range form.Checklist.Flags {
		sb.WriteString(glyph(f))
	}
	return sb.String()
}

func glyph(set bool) string {
	if set {
		return checkedGlyph
	}
	return uncheckedGlyph
}
