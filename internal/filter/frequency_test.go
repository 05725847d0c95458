package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/varpipe/varpipe/internal/vcf"
)

func floatPtr(f float64) *float64 { return &f }

func variantAt(pos int64, af *float64) *vcf.Variant {
	return &vcf.Variant{Chrom: "1", Pos: pos, Ref: "A", Alt: "T", AlleleFrequency: af}
}

func TestFrequencyFilter_Apply(t *testing.T) {
	f := NewFrequencyFilter(DefaultThresholds())

	variants := []*vcf.Variant{
		variantAt(100, nil),              // novel, always passes
		variantAt(200, floatPtr(0.005)),  // passes general, fails dominant
		variantAt(300, floatPtr(0.05)),   // fails general and dominant
		variantAt(400, floatPtr(0.0001)), // exactly at the dominant cutoff
	}

	general := f.Apply(variants, InheritanceGeneral)
	assert.Equal(t, []int64{100, 200, 400}, positions(general))

	dominant := f.Apply(variants, InheritanceDominant)
	assert.Equal(t, []int64{100, 400}, positions(dominant))

	recessive := f.Apply(variants, InheritanceRecessive)
	assert.Equal(t, []int64{100, 200, 400}, positions(recessive))
}

func positions(variants []*vcf.Variant) []int64 {
	out := make([]int64, len(variants))
	for i, v := range variants {
		out[i] = v.Pos
	}
	return out
}

func TestFrequencyFilter_Threshold(t *testing.T) {
	f := NewFrequencyFilter(DefaultThresholds())

	assert.InDelta(t, 0.0001, f.Threshold(InheritanceDominant), 1e-12)
	assert.InDelta(t, 0.01, f.Threshold(InheritanceRecessive), 1e-12)
	assert.InDelta(t, 0.01, f.Threshold(InheritanceGeneral), 1e-12)
	assert.InDelta(t, 0.01, f.Threshold("unknown mode"), 1e-12, "unknown modes fall back to general")
}

func TestCarrierFrequency(t *testing.T) {
	assert.InDelta(t, 0.02, CarrierFrequency(0.01), 1e-12)
}

func TestTooCommonForDisease(t *testing.T) {
	// Dominant disease with 1/10000 prevalence: max credible AF is 0.0002.
	assert.True(t, TooCommonForDisease(0.001, 0.0001, InheritanceDominant))
	assert.False(t, TooCommonForDisease(0.0001, 0.0001, InheritanceDominant))

	// Recessive disease with 1/10000 prevalence: max credible AF is 0.01.
	assert.True(t, TooCommonForDisease(0.02, 0.0001, InheritanceRecessive))
	assert.False(t, TooCommonForDisease(0.005, 0.0001, InheritanceRecessive))
}
