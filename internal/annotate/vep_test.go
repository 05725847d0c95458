package annotate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varpipe/varpipe/internal/vcf"
)

func TestBuildRegion(t *testing.T) {
	tests := []struct {
		name  string
		chrom string
		pos   int64
		ref   string
		alt   string
		want  string
	}{
		{"snp", "7", 140453136, "A", "T", "7:140453136:140453136:1/T"},
		{"snp chr prefix stripped", "chr7", 140453136, "A", "T", "7:140453136:140453136:1/T"},
		{"insertion", "1", 100, "A", "ATG", "1:100:100:1/ATG"},
		{"deletion", "1", 100, "ATG", "A", "1:100:102:1/-"},
		{"complex", "1", 100, "AT", "GC", "1:100:101:1/GC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildRegion(tt.chrom, tt.pos, tt.ref, tt.alt))
		})
	}
}

func TestMostSevere(t *testing.T) {
	tests := []struct {
		name         string
		consequences []string
		want         string
	}{
		{"empty", nil, ""},
		{"single", []string{"missense_variant"}, "missense_variant"},
		{"picks most severe", []string{"intron_variant", "stop_gained", "synonymous_variant"}, "stop_gained"},
		{"unknown term loses", []string{"made_up_term", "intergenic_variant"}, "intergenic_variant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MostSevere(tt.consequences))
		})
	}
}

func TestSeverity(t *testing.T) {
	assert.Greater(t, Severity("stop_gained"), Severity("missense_variant"))
	assert.Greater(t, Severity("missense_variant"), Severity("synonymous_variant"))
	assert.Equal(t, 0, Severity("not_a_term"))
}

func vepTestServer(t *testing.T, results []vepResult, hits *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			*hits++
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(results))
	}))
}

func TestVEPClient_Annotate(t *testing.T) {
	start := int64(600)
	af := 0.0001
	srv := vepTestServer(t, []vepResult{{
		TranscriptConsequences: []vepTranscriptConsequence{{
			GeneSymbol:       "BRAF",
			TranscriptID:     "ENST00000288602",
			ConsequenceTerms: []string{"missense_variant"},
			Impact:           "MODERATE",
			AminoAcids:       "V/E",
			ProteinStart:     &start,
			GnomadAF:         &af,
			Canonical:        1,
		}},
	}}, nil)
	defer srv.Close()

	c := NewVEPClient("GRCh38")
	c.SetBaseURL(srv.URL)

	anns, err := c.Annotate(context.Background(), "7", 140453136, "A", "T")
	require.NoError(t, err)
	require.Len(t, anns, 1)

	assert.Equal(t, "BRAF", anns[0].GeneSymbol)
	assert.Equal(t, "missense_variant", anns[0].Consequence)
	assert.Equal(t, "p.V600E", anns[0].ProteinChange)
	assert.True(t, anns[0].Canonical)
	require.NotNil(t, anns[0].GnomadAF)
	assert.InDelta(t, 0.0001, *anns[0].GnomadAF, 1e-9)
}

func TestVEPClient_AnnotateCaches(t *testing.T) {
	hits := 0
	srv := vepTestServer(t, []vepResult{{
		TranscriptConsequences: []vepTranscriptConsequence{{
			GeneSymbol:       "TP53",
			ConsequenceTerms: []string{"stop_gained"},
		}},
	}}, &hits)
	defer srv.Close()

	c := NewVEPClient("GRCh38")
	c.SetBaseURL(srv.URL)

	ctx := context.Background()
	for range 3 {
		anns, err := c.Annotate(ctx, "17", 7577120, "C", "T")
		require.NoError(t, err)
		require.Len(t, anns, 1)
	}

	assert.Equal(t, 1, hits, "repeat lookups should be served from cache")
}

func TestVEPClient_AnnotateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewVEPClient("GRCh38")
	c.SetBaseURL(srv.URL)

	_, err := c.Annotate(context.Background(), "1", 100, "A", "T")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestVEPClient_AnnotateBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var req map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req["variants"], 2)

		// One result per requested region, aligned by index.
		resp := []vepResult{
			{TranscriptConsequences: []vepTranscriptConsequence{{
				GeneSymbol: "BRCA1", ConsequenceTerms: []string{"frameshift_variant"},
			}}},
			{TranscriptConsequences: []vepTranscriptConsequence{{
				GeneSymbol: "BRCA2", ConsequenceTerms: []string{"missense_variant"},
			}}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := NewVEPClient("GRCh38")
	c.SetBaseURL(srv.URL)

	variants := []*vcf.Variant{
		{Chrom: "17", Pos: 43044295, Ref: "AG", Alt: "A"},
		{Chrom: "13", Pos: 32316461, Ref: "G", Alt: "T"},
	}

	results, err := c.AnnotateBatch(context.Background(), variants)
	require.NoError(t, err)
	require.Len(t, results, 2)

	first := results["17:43044295:AG:A"]
	require.Len(t, first, 1)
	assert.Equal(t, "BRCA1", first[0].GeneSymbol)

	second := results["13:32316461:G:T"]
	require.Len(t, second, 1)
	assert.Equal(t, "BRCA2", second[0].GeneSymbol)
}

func TestProteinChange(t *testing.T) {
	pos := int64(600)
	tests := []struct {
		name string
		tc   vepTranscriptConsequence
		want string
	}{
		{
			"amino acid pair",
			vepTranscriptConsequence{AminoAcids: "V/E", ProteinStart: &pos},
			"p.V600E",
		},
		{
			"falls back to hgvsp",
			vepTranscriptConsequence{HGVSp: "ENSP00000288602.6:p.Val600Glu"},
			"ENSP00000288602.6:p.Val600Glu",
		},
		{
			"synonymous single amino acid uses hgvsp",
			vepTranscriptConsequence{AminoAcids: "V", ProteinStart: &pos, HGVSp: "p.Val600="},
			"p.Val600=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, proteinChange(tt.tc))
		})
	}
}

func TestNewVEPClient_AssemblyEndpoints(t *testing.T) {
	assert.Contains(t, NewVEPClient("GRCh37").baseURL, "grch37")
	assert.NotContains(t, NewVEPClient("GRCh38").baseURL, "grch37")
}
