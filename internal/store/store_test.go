package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varpipe/varpipe/internal/vcf"
)

func floatPtr(f float64) *float64 { return &f }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testResults() []*vcf.Variant {
	return []*vcf.Variant{
		{Chrom: "1", Pos: 100, Ref: "A", Alt: "T", Gene: "GENE1",
			Consequence: "missense_variant", ClinicalSignificance: "Uncertain Significance",
			AlleleFrequency: floatPtr(0.0001), Qual: floatPtr(50), Filter: "PASS"},
		{Chrom: "17", Pos: 43044295, Ref: "AG", Alt: "A", Gene: "BRCA1",
			Consequence: "frameshift_variant", ProteinChange: "p.Gln1756fs",
			ClinicalSignificance: "Pathogenic", Qual: floatPtr(99), Filter: "PASS"},
	}
}

func TestStore_SaveAndLoadResults(t *testing.T) {
	s := openTestStore(t)

	n, err := s.SaveResults(testResults())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	variants, err := s.Results()
	require.NoError(t, err)
	require.Len(t, variants, 2)

	// Ordered by chrom, pos.
	assert.Equal(t, "GENE1", variants[0].Gene)
	assert.Equal(t, "BRCA1", variants[1].Gene)
	assert.Equal(t, "p.Gln1756fs", variants[1].ProteinChange)

	require.NotNil(t, variants[0].AlleleFrequency)
	assert.InDelta(t, 0.0001, *variants[0].AlleleFrequency, 1e-12)
	assert.Nil(t, variants[1].AlleleFrequency)

	require.NotNil(t, variants[1].Qual)
	assert.InDelta(t, 99, *variants[1].Qual, 1e-9)
}

func TestStore_SaveReplacesByIdentity(t *testing.T) {
	s := openTestStore(t)

	_, err := s.SaveResults(testResults())
	require.NoError(t, err)

	updated := []*vcf.Variant{
		{Chrom: "17", Pos: 43044295, Ref: "AG", Alt: "A", Gene: "BRCA1",
			ClinicalSignificance: "Likely pathogenic"},
	}
	_, err = s.SaveResults(updated)
	require.NoError(t, err)

	count, err := s.ResultCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count, "replace, not duplicate")

	variants, err := s.Results()
	require.NoError(t, err)
	assert.Equal(t, "Likely pathogenic", variants[1].ClinicalSignificance)
}

func TestStore_OpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "results.duckdb")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.SaveResults(testResults())
	require.NoError(t, err)
}

func TestStore_AuditLog(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AppendAudit(AuditEntry{
		Actor:        "analyst1",
		Action:       "create",
		ResourceType: "variant_results",
		ResourceID:   "sample.vcf",
		Detail:       "saved 2 annotated variants",
	}))
	require.NoError(t, s.AppendAudit(AuditEntry{
		Actor:        "analyst1",
		Action:       "export",
		ResourceType: "clinical_report",
		ResourceID:   "abc123",
	}))

	entries, err := s.RecentAudit(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "export", entries[0].Action)
	assert.Equal(t, "create", entries[1].Action)

	for _, e := range entries {
		assert.False(t, e.Timestamp.IsZero(), "timestamp filled in on append")
		assert.Equal(t, "success", e.Outcome, "default outcome")
	}
}

func TestStore_RecentAuditLimit(t *testing.T) {
	s := openTestStore(t)

	for range 5 {
		require.NoError(t, s.AppendAudit(AuditEntry{Actor: "a", Action: "view",
			ResourceType: "phi", ResourceID: "x"}))
	}

	entries, err := s.RecentAudit(3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestHashIdentifier(t *testing.T) {
	h1 := HashIdentifier("patient-001", "salt")
	h2 := HashIdentifier("patient-001", "salt")
	h3 := HashIdentifier("patient-002", "salt")
	h4 := HashIdentifier("patient-001", "other-salt")

	assert.Equal(t, h1, h2, "stable for same identifier and salt")
	assert.NotEqual(t, h1, h3)
	assert.NotEqual(t, h1, h4)
	assert.Len(t, h1, 64)
	assert.NotContains(t, h1, "patient", "identifier never appears in the hash")
}
