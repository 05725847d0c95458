package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Generator builds clinical reports from classified variants.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a report generator.
func NewGenerator() *Generator {
	return &Generator{logger: zap.NewNop()}
}

// SetLogger sets the logger for summary messages.
func (g *Generator) SetLogger(l *zap.Logger) {
	g.logger = l
}

// Generate assembles a report from classified variants. Only
// reportable variants (pathogenic, likely pathogenic, VUS) are
// included; VUS can be excluded entirely with includeVUS=false.
func (g *Generator) Generate(variants []ReportedVariant, patient Patient, test Test, includeVUS bool) *Report {
	r := &Report{
		Patient:     patient,
		Test:        test,
		GeneratedAt: time.Now(),
	}

	for _, v := range variants {
		if !v.Reportable() {
			continue
		}
		c := strings.ToLower(v.Classification)
		switch {
		case strings.Contains(c, "likely pathogenic"):
			r.LikelyPathogenic = append(r.LikelyPathogenic, v)
		case strings.Contains(c, "pathogenic"):
			r.Pathogenic = append(r.Pathogenic, v)
		case strings.Contains(c, "uncertain"):
			if includeVUS {
				r.VUS = append(r.VUS, v)
			}
		}
	}

	r.Interpretation = interpretation(r.Pathogenic, r.LikelyPathogenic, r.VUS)
	r.Recommendations = recommendations(r.Pathogenic, r.LikelyPathogenic, r.VUS)

	g.logger.Info("report generated",
		zap.String("patient", patient.ID),
		zap.Int("pathogenic", len(r.Pathogenic)),
		zap.Int("likely_pathogenic", len(r.LikelyPathogenic)),
		zap.Int("vus", len(r.VUS)))

	return r
}

func interpretation(pathogenic, likelyPathogenic, vus []ReportedVariant) string {
	significant := append(append([]ReportedVariant{}, pathogenic...), likelyPathogenic...)

	if len(significant) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "This analysis identified %d clinically significant variant(s) "+
			"in the following gene(s): %s. ",
			len(significant), joinUnique(significant, func(v ReportedVariant) string { return v.Gene }))

		if conditions := joinUnique(significant, func(v ReportedVariant) string { return v.Condition }); conditions != "" {
			fmt.Fprintf(&b, "These variants are associated with: %s. ", conditions)
		}

		b.WriteString("Clinical correlation is recommended. Genetic counseling is advised " +
			"to discuss the implications of these findings.")
		return b.String()
	}

	s := "No pathogenic or likely pathogenic variants were identified in the genes analyzed. "
	if len(vus) > 0 {
		s += fmt.Sprintf("However, %d variant(s) of uncertain significance (VUS) were "+
			"identified. VUS should not be used for clinical decision-making but may be "+
			"reclassified as more information becomes available.", len(vus))
	} else {
		s += "This negative result does not exclude a genetic etiology for the patient's " +
			"condition, as this test has limitations."
	}
	return s
}

func recommendations(pathogenic, likelyPathogenic, vus []ReportedVariant) []string {
	var recs []string

	significant := append(append([]ReportedVariant{}, pathogenic...), likelyPathogenic...)
	if len(significant) > 0 {
		recs = append(recs,
			"Genetic counseling is recommended to discuss the clinical implications of these findings.",
			"Consider cascade testing of at-risk family members.")

		for _, v := range significant {
			if strings.Contains(v.Gene, "BRCA") {
				recs = append(recs, fmt.Sprintf(
					"For %s: Consider referral to oncology for cancer risk assessment and management.",
					v.Gene))
			}
		}
	}

	if len(vus) > 0 {
		recs = append(recs,
			"Variants of uncertain significance should be periodically re-evaluated as new evidence becomes available.")
	}

	recs = append(recs,
		"This report should be interpreted in the context of the patient's clinical presentation and family history.")

	return recs
}

// joinUnique joins the distinct non-empty values of field over
// variants, in sorted order for deterministic output.
func joinUnique(variants []ReportedVariant, field func(ReportedVariant) string) string {
	seen := make(map[string]bool)
	var values []string
	for _, v := range variants {
		s := field(v)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		values = append(values, s)
	}
	sort.Strings(values)
	return strings.Join(values, ", ")
}
