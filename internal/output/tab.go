// Package output provides variant output formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/varpipe/varpipe/internal/vcf"
)

// TabWriter writes variants in tab-delimited format, one row per
// variant, annotation fields included when populated.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Variant_id",
			"Location",
			"Ref",
			"Alt",
			"Qual",
			"Filter",
			"Gene",
			"Consequence",
			"Protein_change",
			"Clinical_significance",
			"Allele_frequency",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single variant row.
func (tw *TabWriter) Write(v *vcf.Variant) error {
	qual := "-"
	if v.Qual != nil {
		qual = fmt.Sprintf("%g", *v.Qual)
	}

	af := "-"
	if v.AlleleFrequency != nil {
		af = fmt.Sprintf("%g", *v.AlleleFrequency)
	}

	fields := []string{
		v.VariantID(),
		fmt.Sprintf("%s:%d", v.Chrom, v.Pos),
		v.Ref,
		v.Alt,
		qual,
		orDash(v.Filter),
		orDash(v.Gene),
		orDash(v.Consequence),
		orDash(v.ProteinChange),
		orDash(v.ClinicalSignificance),
		af,
	}

	_, err := tw.w.WriteString(strings.Join(fields, "\t") + "\n")
	return err
}

// Flush flushes buffered output.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
