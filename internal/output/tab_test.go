package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varpipe/varpipe/internal/vcf"
)

func floatPtr(f float64) *float64 { return &f }

func TestTabWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Write(&vcf.Variant{
		Chrom: "7", Pos: 140453136, Ref: "A", Alt: "T",
		Qual: floatPtr(228), Filter: "PASS",
		Gene: "BRAF", Consequence: "missense_variant", ProteinChange: "p.V600E",
		ClinicalSignificance: "Pathogenic", AlleleFrequency: floatPtr(0.00001),
	}))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, "#Variant_id", strings.Split(lines[0], "\t")[0])

	fields := strings.Split(lines[1], "\t")
	require.Len(t, fields, 11)
	assert.Equal(t, "7-140453136-A-T", fields[0])
	assert.Equal(t, "7:140453136", fields[1])
	assert.Equal(t, "228", fields[4])
	assert.Equal(t, "BRAF", fields[6])
	assert.Equal(t, "p.V600E", fields[8])
	assert.Equal(t, "1e-05", fields[10])
}

func TestTabWriter_EmptyFieldsAsDash(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	require.NoError(t, w.Write(&vcf.Variant{Chrom: "1", Pos: 100, Ref: "A", Alt: "T"}))
	require.NoError(t, w.Flush())

	fields := strings.Split(strings.TrimRight(buf.String(), "\n"), "\t")
	require.Len(t, fields, 11)
	// Qual, Filter and every annotation column come out as "-".
	for _, f := range fields[4:] {
		assert.Equal(t, "-", f)
	}
}
