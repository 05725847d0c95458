// Package clinvar looks up clinical significance in the NCBI ClinVar
// archive via the E-utilities API.
package clinvar

import "strings"

// Record represents a ClinVar record for a variant.
type Record struct {
	VariationID          string
	ClinicalSignificance string
	ReviewStatus         string
	Condition            string
	LastEvaluated        string
	SubmitterCount       int
	StarRating           int
}

// IsPathogenic returns true if the variant is classified as
// pathogenic or likely pathogenic.
func (r *Record) IsPathogenic() bool {
	return strings.Contains(strings.ToLower(r.ClinicalSignificance), "pathogenic")
}

// IsBenign returns true if the variant is classified as benign or
// likely benign.
func (r *Record) IsBenign() bool {
	return strings.Contains(strings.ToLower(r.ClinicalSignificance), "benign")
}

// IsVUS returns true if the variant is of uncertain significance.
func (r *Record) IsVUS() bool {
	return strings.Contains(strings.ToLower(r.ClinicalSignificance), "uncertain")
}

// reviewStatusStars maps ClinVar review status phrases to the star
// rating displayed on the ClinVar website.
var reviewStatusStars = []struct {
	status string
	stars  int
}{
	{"practice guideline", 4},
	{"reviewed by expert panel", 3},
	{"criteria provided, multiple submitters, no conflicts", 2},
	{"criteria provided, conflicting interpretations", 1},
	{"criteria provided, single submitter", 1},
	{"no assertion criteria provided", 0},
	{"no assertion provided", 0},
}

// StarRatingFor converts a review status string to its star rating.
func StarRatingFor(reviewStatus string) int {
	lower := strings.ToLower(reviewStatus)
	for _, rs := range reviewStatusStars {
		if strings.Contains(lower, rs.status) {
			return rs.stars
		}
	}
	return 0
}
