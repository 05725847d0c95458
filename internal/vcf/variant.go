// Package vcf provides streaming VCF file parsing.
package vcf

import "fmt"

// Variant represents a single genomic variant from a VCF file.
// Multi-allelic records are decomposed before emission, so Alt always
// holds exactly one allele.
type Variant struct {
	Chrom   string              // Chromosome name (e.g., "12", "chr12")
	Pos     int64               // 1-based genomic position
	ID      string              // Variant identifier (e.g., rs ID)
	Ref     string              // Reference allele
	Alt     string              // Alternate allele (single allele after splitting)
	Qual    *float64            // Quality score, nil when QUAL is "." or unparseable
	Filter  string              // Filter status as written ("." means not evaluated)
	Info    map[string]any      // INFO field key-value pairs, flags map to true
	Format  string              // Raw FORMAT column, empty when no sample data
	Samples map[string]Genotype // Per-sample genotype fields, keyed by sample name

	// Annotation fields, filled in downstream by the annotate, clinvar
	// and filter packages. The parser never populates these.
	Gene                 string
	Consequence          string
	ProteinChange        string
	ClinicalSignificance string
	AlleleFrequency      *float64
}

// VariantID returns the chrom-pos-ref-alt identifier for the variant.
// The identifier is unique per allele: siblings split from one
// multi-allelic record differ only in the alt component.
func (v *Variant) VariantID() string {
	return fmt.Sprintf("%s-%d-%s-%s", v.Chrom, v.Pos, v.Ref, v.Alt)
}

// IsSNP returns true if the variant is a single nucleotide polymorphism.
func (v *Variant) IsSNP() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1
}

// IsIndel returns true if the variant is an insertion or deletion.
func (v *Variant) IsIndel() bool {
	return len(v.Ref) != len(v.Alt)
}

// IsInsertion returns true if the variant is an insertion.
func (v *Variant) IsInsertion() bool {
	return len(v.Alt) > len(v.Ref)
}

// IsDeletion returns true if the variant is a deletion.
func (v *Variant) IsDeletion() bool {
	return len(v.Ref) > len(v.Alt)
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (v *Variant) NormalizeChrom() string {
	if len(v.Chrom) > 3 && v.Chrom[:3] == "chr" {
		return v.Chrom[3:]
	}
	return v.Chrom
}
