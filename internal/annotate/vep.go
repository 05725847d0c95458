package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/varpipe/varpipe/internal/vcf"
)

// vepBatchSize is the maximum number of variants per VEP POST request.
const vepBatchSize = 200

// VEPClient queries the Ensembl VEP REST API for variant effect
// predictions. Requests are rate limited to the 15 req/s the public
// endpoint allows, and results are cached per variant.
type VEPClient struct {
	baseURL    string
	assembly   string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu    sync.Mutex
	cache map[string][]*Annotation
}

// NewVEPClient creates a VEP client for the given assembly
// ("GRCh37" or "GRCh38").
func NewVEPClient(assembly string) *VEPClient {
	baseURL := "https://rest.ensembl.org/vep/human/region"
	if assembly == "GRCh37" {
		baseURL = "https://grch37.rest.ensembl.org/vep/human/region"
	}

	return &VEPClient{
		baseURL:  baseURL,
		assembly: assembly,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(15), 1),
		cache:   make(map[string][]*Annotation),
	}
}

// SetBaseURL overrides the API endpoint. Used in tests.
func (c *VEPClient) SetBaseURL(u string) {
	c.baseURL = u
}

// Annotate returns the VEP annotations for a single variant, one per
// overlapping transcript.
func (c *VEPClient) Annotate(ctx context.Context, chrom string, pos int64, ref, alt string) ([]*Annotation, error) {
	cacheKey := fmt.Sprintf("%s:%d:%s:%s", chrom, pos, ref, alt)
	c.mu.Lock()
	if anns, ok := c.cache[cacheKey]; ok {
		c.mu.Unlock()
		return anns, nil
	}
	c.mu.Unlock()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("canonical", "1")
	params.Set("hgvs", "1")
	params.Set("protein", "1")
	params.Set("sift", "b")
	params.Set("polyphen", "b")
	params.Set("af", "1")
	params.Set("af_gnomad", "1")

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, buildRegion(chrom, pos, ref, alt), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build vep request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vep request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vep api error %d: %s", resp.StatusCode, string(body))
	}

	var data []vepResult
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode vep response: %w", err)
	}

	anns := parseVEPResults(data)

	c.mu.Lock()
	c.cache[cacheKey] = anns
	c.mu.Unlock()

	return anns, nil
}

// AnnotateBatch annotates variants using the VEP POST endpoint in
// chunks of vepBatchSize. The result maps "chrom:pos:ref:alt" to the
// annotations for that variant.
func (c *VEPClient) AnnotateBatch(ctx context.Context, variants []*vcf.Variant) (map[string][]*Annotation, error) {
	results := make(map[string][]*Annotation, len(variants))

	for start := 0; start < len(variants); start += vepBatchSize {
		end := start + vepBatchSize
		if end > len(variants) {
			end = len(variants)
		}
		batch := variants[start:end]

		regions := make([]string, len(batch))
		for i, v := range batch {
			regions[i] = buildRegion(v.Chrom, v.Pos, v.Ref, v.Alt)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return results, err
		}

		body, err := json.Marshal(map[string][]string{"variants": regions})
		if err != nil {
			return results, fmt.Errorf("encode vep batch: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return results, fmt.Errorf("build vep batch request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return results, fmt.Errorf("vep batch request failed: %w", err)
		}

		var data []vepResult
		decodeErr := json.NewDecoder(resp.Body).Decode(&data)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return results, fmt.Errorf("vep api error %d", resp.StatusCode)
		}
		if decodeErr != nil {
			return results, fmt.Errorf("decode vep batch response: %w", decodeErr)
		}

		// The response array is aligned with the request order.
		for i, r := range data {
			if i >= len(batch) {
				break
			}
			v := batch[i]
			key := fmt.Sprintf("%s:%d:%s:%s", v.Chrom, v.Pos, v.Ref, v.Alt)
			results[key] = parseVEPResults([]vepResult{r})
		}
	}

	return results, nil
}

// buildRegion builds the region/allele path segment VEP expects.
func buildRegion(chrom string, pos int64, ref, alt string) string {
	chrom = strings.TrimPrefix(chrom, "chr")

	switch {
	case len(ref) == 1 && len(alt) == 1: // SNP
		return fmt.Sprintf("%s:%d:%d:1/%s", chrom, pos, pos, alt)
	case len(ref) == 1 && len(alt) > 1: // insertion
		return fmt.Sprintf("%s:%d:%d:1/%s", chrom, pos, pos, alt)
	case len(ref) > 1 && len(alt) == 1: // deletion
		return fmt.Sprintf("%s:%d:%d:1/-", chrom, pos, pos+int64(len(ref))-1)
	default:
		return fmt.Sprintf("%s:%d:%d:1/%s", chrom, pos, pos+int64(len(ref))-1, alt)
	}
}

// vepResult mirrors the subset of the VEP response we consume.
type vepResult struct {
	TranscriptConsequences []vepTranscriptConsequence `json:"transcript_consequences"`
}

type vepTranscriptConsequence struct {
	GeneSymbol         string   `json:"gene_symbol"`
	GeneID             string   `json:"gene_id"`
	TranscriptID       string   `json:"transcript_id"`
	ConsequenceTerms   []string `json:"consequence_terms"`
	Impact             string   `json:"impact"`
	AminoAcids         string   `json:"amino_acids"`
	ProteinStart       *int64   `json:"protein_start"`
	Codons             string   `json:"codons"`
	HGVSp              string   `json:"hgvsp"`
	SIFTPrediction     string   `json:"sift_prediction"`
	SIFTScore          *float64 `json:"sift_score"`
	PolyPhenPrediction string   `json:"polyphen_prediction"`
	PolyPhenScore      *float64 `json:"polyphen_score"`
	GnomadAF           *float64 `json:"gnomad_af"`
	Canonical          int      `json:"canonical"`
}

func parseVEPResults(data []vepResult) []*Annotation {
	var anns []*Annotation
	for _, r := range data {
		for _, tc := range r.TranscriptConsequences {
			anns = append(anns, &Annotation{
				GeneSymbol:         tc.GeneSymbol,
				GeneID:             tc.GeneID,
				TranscriptID:       tc.TranscriptID,
				Consequence:        MostSevere(tc.ConsequenceTerms),
				Impact:             tc.Impact,
				ProteinChange:      proteinChange(tc),
				CodonChange:        tc.Codons,
				SIFTPrediction:     tc.SIFTPrediction,
				SIFTScore:          tc.SIFTScore,
				PolyPhenPrediction: tc.PolyPhenPrediction,
				PolyPhenScore:      tc.PolyPhenScore,
				GnomadAF:           tc.GnomadAF,
				Canonical:          tc.Canonical == 1,
			})
		}
	}
	return anns
}

// proteinChange builds a p.Ref123Alt style change from the amino acid
// pair, falling back to the HGVSp notation VEP supplies.
func proteinChange(tc vepTranscriptConsequence) string {
	if tc.AminoAcids != "" && tc.ProteinStart != nil {
		if refAA, altAA, ok := strings.Cut(tc.AminoAcids, "/"); ok {
			return fmt.Sprintf("p.%s%d%s", refAA, *tc.ProteinStart, altAA)
		}
	}
	return tc.HGVSp
}
