// Package annotate enriches variants with effect predictions from the
// Ensembl VEP REST API.
package annotate

// Annotation holds the predicted effect of a variant on one transcript.
type Annotation struct {
	GeneSymbol         string
	GeneID             string
	TranscriptID       string
	Consequence        string
	Impact             string // HIGH, MODERATE, LOW, MODIFIER
	ProteinChange      string
	CodonChange        string
	SIFTPrediction     string
	SIFTScore          *float64
	PolyPhenPrediction string
	PolyPhenScore      *float64
	GnomadAF           *float64
	Canonical          bool
}

// consequenceSeverity ranks Sequence Ontology consequence terms;
// higher means more severe.
var consequenceSeverity = map[string]int{
	"transcript_ablation":                100,
	"splice_acceptor_variant":            95,
	"splice_donor_variant":               95,
	"stop_gained":                        90,
	"frameshift_variant":                 85,
	"stop_lost":                          80,
	"start_lost":                         80,
	"transcript_amplification":           75,
	"inframe_insertion":                  70,
	"inframe_deletion":                   70,
	"missense_variant":                   65,
	"protein_altering_variant":           60,
	"splice_region_variant":              55,
	"incomplete_terminal_codon_variant":  50,
	"start_retained_variant":             45,
	"stop_retained_variant":              45,
	"synonymous_variant":                 40,
	"coding_sequence_variant":            35,
	"mature_miRNA_variant":               30,
	"5_prime_UTR_variant":                25,
	"3_prime_UTR_variant":                25,
	"non_coding_transcript_exon_variant": 20,
	"intron_variant":                     15,
	"NMD_transcript_variant":             10,
	"non_coding_transcript_variant":      10,
	"upstream_gene_variant":              5,
	"downstream_gene_variant":            5,
	"TFBS_ablation":                      5,
	"TFBS_amplification":                 5,
	"TF_binding_site_variant":            5,
	"regulatory_region_ablation":         5,
	"regulatory_region_amplification":    5,
	"feature_elongation":                 5,
	"regulatory_region_variant":          5,
	"feature_truncation":                 5,
	"intergenic_variant":                 1,
}

// MostSevere returns the most severe consequence term from a list, or
// "" for an empty list. Unknown terms rank below every known term.
func MostSevere(consequences []string) string {
	best := ""
	bestRank := -1
	for _, c := range consequences {
		if rank := consequenceSeverity[c]; rank > bestRank {
			best = c
			bestRank = rank
		}
	}
	return best
}

// Severity returns the severity rank of a consequence term, 0 for
// unknown terms.
func Severity(consequence string) int {
	return consequenceSeverity[consequence]
}
