package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/varpipe/varpipe/internal/vcf"
)

func TestQualityFilter_Apply(t *testing.T) {
	f := NewQualityFilter()

	variants := []*vcf.Variant{
		{Chrom: "1", Pos: 100, Ref: "A", Alt: "T", Qual: floatPtr(50), Info: map[string]any{"DP": "40"}},
		{Chrom: "1", Pos: 200, Ref: "C", Alt: "G", Qual: floatPtr(10), Info: map[string]any{"DP": "40"}},
		{Chrom: "1", Pos: 300, Ref: "G", Alt: "A", Qual: floatPtr(50), Info: map[string]any{"DP": "5"}},
		{Chrom: "1", Pos: 400, Ref: "T", Alt: "C", Qual: nil, Info: map[string]any{}},
		{Chrom: "1", Pos: 500, Ref: "A", Alt: "G", Qual: floatPtr(30), Info: map[string]any{"DP": "10"}},
	}

	passed := f.Apply(variants)
	assert.Equal(t, []int64{100, 400, 500}, positions(passed))
}

func TestQualityFilter_AbsentMetricsPass(t *testing.T) {
	f := NewQualityFilter()

	variants := []*vcf.Variant{
		{Chrom: "1", Pos: 100, Ref: "A", Alt: "T"},
		{Chrom: "1", Pos: 200, Ref: "C", Alt: "G", Info: map[string]any{"DP": "not a number"}},
		{Chrom: "1", Pos: 300, Ref: "G", Alt: "A", Info: map[string]any{"DB": true}},
	}

	passed := f.Apply(variants)
	assert.Len(t, passed, 3)
}

func TestQualityFilter_CustomMinimums(t *testing.T) {
	f := NewQualityFilter()
	f.MinQual = 100
	f.MinDepth = 50

	variants := []*vcf.Variant{
		{Chrom: "1", Pos: 100, Ref: "A", Alt: "T", Qual: floatPtr(99), Info: map[string]any{"DP": "60"}},
		{Chrom: "1", Pos: 200, Ref: "C", Alt: "G", Qual: floatPtr(150), Info: map[string]any{"DP": "60"}},
		{Chrom: "1", Pos: 300, Ref: "G", Alt: "A", Qual: floatPtr(150), Info: map[string]any{"DP": "49"}},
	}

	passed := f.Apply(variants)
	assert.Equal(t, []int64{200}, positions(passed))
}

func TestInfoDepth(t *testing.T) {
	depth, ok := infoDepth(&vcf.Variant{Info: map[string]any{"DP": "42"}})
	assert.True(t, ok)
	assert.Equal(t, 42, depth)

	_, ok = infoDepth(&vcf.Variant{Info: map[string]any{}})
	assert.False(t, ok)

	_, ok = infoDepth(&vcf.Variant{Info: map[string]any{"DP": true}})
	assert.False(t, ok)
}
