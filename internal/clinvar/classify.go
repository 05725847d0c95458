package clinvar

// lofConsequences are consequence terms treated as potential
// loss-of-function evidence when no ClinVar assertion exists.
var lofConsequences = map[string]bool{
	"stop_gained":             true,
	"frameshift_variant":      true,
	"splice_acceptor_variant": true,
	"splice_donor_variant":    true,
}

// Classify assigns a classification from the available evidence.
// A ClinVar assertion wins outright; otherwise simple frequency and
// consequence rules apply. This is a triage heuristic, not a full ACMG
// implementation.
func Classify(rec *Record, gnomadAF *float64, consequence string) string {
	if rec != nil && rec.ClinicalSignificance != "" {
		return rec.ClinicalSignificance
	}

	// BA1: allele frequency >5% is stand-alone benign evidence.
	if gnomadAF != nil && *gnomadAF > 0.05 {
		return "Likely Benign (BA1: AF > 5%)"
	}

	// BS1: allele frequency >1% is strong benign evidence for rare disease.
	if gnomadAF != nil && *gnomadAF > 0.01 {
		return "Likely Benign (BS1: AF > 1%)"
	}

	if lofConsequences[consequence] {
		return "Uncertain Significance (potential LOF)"
	}

	return "Uncertain Significance"
}
