// Package report renders clinical genomics reports from classified
// variants and patient/test metadata.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"
	"time"
)

// Patient holds patient demographics for the report header.
type Patient struct {
	ID                string `json:"id"`
	FirstName         string `json:"first_name,omitempty"`
	LastName          string `json:"last_name,omitempty"`
	DateOfBirth       string `json:"dob,omitempty"`
	Sex               string `json:"sex,omitempty"`
	MRN               string `json:"mrn,omitempty"`
	OrderingPhysician string `json:"ordering_physician,omitempty"`
	Indication        string `json:"indication,omitempty"`
}

// FullName returns the patient's display name.
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Test describes the genomic test performed.
type Test struct {
	Name            string `json:"name"`
	Code            string `json:"code,omitempty"`
	AccessionNumber string `json:"accession,omitempty"`
	SampleType      string `json:"sample_type,omitempty"`
	CollectionDate  string `json:"collection_date,omitempty"`
	ReceivedDate    string `json:"received_date,omitempty"`
	ReportDate      string `json:"report_date"`
	LabName         string `json:"lab"`
	LabDirector     string `json:"lab_director,omitempty"`
	CLIANumber      string `json:"clia_number,omitempty"`
}

// DefaultTest returns test metadata with the standard defaults filled in.
func DefaultTest() Test {
	return Test{
		Name:       "Whole Exome Sequencing",
		SampleType: "Blood",
		ReportDate: time.Now().Format("2006-01-02"),
		LabName:    "Clinical Genomics Laboratory",
	}
}

// ReportedVariant is a classified variant considered for reporting.
type ReportedVariant struct {
	Gene           string   `json:"gene"`
	Variant        string   `json:"variant"` // HGVS notation
	ProteinChange  string   `json:"protein_change,omitempty"`
	Zygosity       string   `json:"zygosity,omitempty"`
	Classification string   `json:"classification"`
	Condition      string   `json:"condition,omitempty"`
	Inheritance    string   `json:"inheritance,omitempty"`
	Evidence       []string `json:"evidence,omitempty"`
	ACMGCriteria   []string `json:"acmg_criteria,omitempty"`
}

// Reportable returns true when the classification warrants inclusion
// in the clinical report.
func (v ReportedVariant) Reportable() bool {
	c := strings.ToLower(v.Classification)
	return strings.Contains(c, "pathogenic") || strings.Contains(c, "uncertain significance")
}

// Report is a complete clinical genomics report.
type Report struct {
	Patient          Patient           `json:"patient"`
	Test             Test              `json:"test"`
	Pathogenic       []ReportedVariant `json:"pathogenic"`
	LikelyPathogenic []ReportedVariant `json:"likely_pathogenic"`
	VUS              []ReportedVariant `json:"vus"`
	Interpretation   string            `json:"interpretation"`
	Recommendations  []string          `json:"recommendations"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// HasSignificantFindings returns true when the report contains
// pathogenic or likely pathogenic variants.
func (r *Report) HasSignificantFindings() bool {
	return len(r.Pathogenic) > 0 || len(r.LikelyPathogenic) > 0
}

// TotalVariants returns the number of reported variants.
func (r *Report) TotalVariants() int {
	return len(r.Pathogenic) + len(r.LikelyPathogenic) + len(r.VUS)
}

// Section groups one classification tier for HTML rendering.
type Section struct {
	Title    string
	Class    string
	Variants []ReportedVariant
}

// Sections returns the non-empty classification tiers in reporting order.
func (r *Report) Sections() []Section {
	all := []Section{
		{"Pathogenic Variants", "pathogenic", r.Pathogenic},
		{"Likely Pathogenic Variants", "likely-pathogenic", r.LikelyPathogenic},
		{"Variants of Uncertain Significance", "vus", r.VUS},
	}
	var sections []Section
	for _, s := range all {
		if len(s.Variants) > 0 {
			sections = append(sections, s)
		}
	}
	return sections
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// SaveJSON writes the report to a JSON file.
func (r *Report) SaveJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := r.WriteJSON(f); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteHTML renders the report as a standalone HTML document.
func (r *Report) WriteHTML(w io.Writer) error {
	return reportTemplate.Execute(w, r)
}

// SaveHTML writes the report to an HTML file.
func (r *Report) SaveHTML(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := r.WriteHTML(f); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Clinical Genomics Report - {{.Patient.ID}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; line-height: 1.6; }
        .header { border-bottom: 2px solid #333; padding-bottom: 20px; margin-bottom: 20px; }
        .section { margin-bottom: 30px; }
        .section-title { color: #333; border-bottom: 1px solid #ccc; padding-bottom: 5px; }
        table { width: 100%; border-collapse: collapse; margin: 15px 0; }
        th, td { border: 1px solid #ddd; padding: 10px; text-align: left; }
        th { background-color: #f5f5f5; }
        .pathogenic { background-color: #ffebee; }
        .likely-pathogenic { background-color: #fff3e0; }
        .vus { background-color: #e3f2fd; }
        .footer { margin-top: 40px; font-size: 0.9em; color: #666; }
        .disclaimer { background-color: #f5f5f5; padding: 15px; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Clinical Genomics Report</h1>
        <p><strong>Patient:</strong> {{.Patient.FullName}} |
           <strong>DOB:</strong> {{.Patient.DateOfBirth}} |
           <strong>MRN:</strong> {{.Patient.MRN}}</p>
        <p><strong>Test:</strong> {{.Test.Name}} |
           <strong>Accession:</strong> {{.Test.AccessionNumber}} |
           <strong>Report Date:</strong> {{.Test.ReportDate}}</p>
    </div>

    <div class="section">
        <h2 class="section-title">Results Summary</h2>
        <p><strong>Pathogenic Variants:</strong> {{len .Pathogenic}}</p>
        <p><strong>Likely Pathogenic Variants:</strong> {{len .LikelyPathogenic}}</p>
        <p><strong>Variants of Uncertain Significance:</strong> {{len .VUS}}</p>
    </div>

    {{range .Sections}}
    <div class="section">
        <h2 class="section-title">{{.Title}}</h2>
        <table>
            <tr>
                <th>Gene</th>
                <th>Variant</th>
                <th>Protein Change</th>
                <th>Zygosity</th>
                <th>Classification</th>
                <th>Associated Condition</th>
            </tr>
            {{$class := .Class}}{{range .Variants}}
            <tr class="{{$class}}">
                <td>{{.Gene}}</td>
                <td>{{.Variant}}</td>
                <td>{{.ProteinChange}}</td>
                <td>{{.Zygosity}}</td>
                <td>{{.Classification}}</td>
                <td>{{.Condition}}</td>
            </tr>
            {{end}}
        </table>
    </div>
    {{end}}

    <div class="section">
        <h2 class="section-title">Interpretation</h2>
        <p>{{.Interpretation}}</p>
    </div>

    <div class="section">
        <h2 class="section-title">Recommendations</h2>
        <ul>
        {{range .Recommendations}}<li>{{.}}</li>
        {{end}}</ul>
    </div>

    <div class="disclaimer">
        <h3>Disclaimer</h3>
        <p>This test was developed and its performance characteristics determined by
        {{.Test.LabName}}. It has not been cleared or approved by the U.S. Food
        and Drug Administration. This report is intended for use by qualified healthcare
        professionals and should be interpreted in the context of the patient's clinical
        presentation and family history.</p>
    </div>

    <div class="footer">
        <p>Report generated: {{.GeneratedAt.Format "2006-01-02 15:04:05"}}</p>
        <p>{{.Test.LabName}} | CLIA: {{.Test.CLIANumber}}</p>
    </div>
</body>
</html>
`))
