// Package filter applies population-frequency and quality filters to
// variants ahead of clinical review.
package filter

import (
	"math"

	"go.uber.org/zap"

	"github.com/varpipe/varpipe/internal/vcf"
)

// Inheritance modes recognized by the frequency filter.
const (
	InheritanceDominant  = "dominant"
	InheritanceRecessive = "recessive"
	InheritanceGeneral   = "general"
)

// Thresholds holds the configurable allele-frequency cutoffs.
// Common variants are filtered out because they are unlikely to cause
// rare Mendelian disease; dominant conditions tolerate far lower
// frequencies than recessive ones.
type Thresholds struct {
	MaxAFDominant     float64 `mapstructure:"max_af_dominant"`
	MaxAFRecessive    float64 `mapstructure:"max_af_recessive"`
	MaxAFGeneral      float64 `mapstructure:"max_af_general"`
	MaxAFGnomad       float64 `mapstructure:"max_af_gnomad"`
	MaxAFGnomadPopmax float64 `mapstructure:"max_af_gnomad_popmax"`
}

// DefaultThresholds returns the standard clinical cutoffs: 0.01% for
// dominant conditions, 1% for recessive and general filtering.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxAFDominant:     0.0001,
		MaxAFRecessive:    0.01,
		MaxAFGeneral:      0.01,
		MaxAFGnomad:       0.01,
		MaxAFGnomadPopmax: 0.01,
	}
}

// FrequencyFilter keeps variants whose known allele frequency is
// absent (novel) or at most the threshold for the inheritance mode.
type FrequencyFilter struct {
	thresholds Thresholds
	logger     *zap.Logger
}

// NewFrequencyFilter creates a frequency filter with the given
// thresholds.
func NewFrequencyFilter(t Thresholds) *FrequencyFilter {
	return &FrequencyFilter{
		thresholds: t,
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger for per-variant and summary messages.
func (f *FrequencyFilter) SetLogger(l *zap.Logger) {
	f.logger = l
}

// Threshold returns the cutoff used for an inheritance mode.
func (f *FrequencyFilter) Threshold(inheritanceMode string) float64 {
	switch inheritanceMode {
	case InheritanceDominant:
		return f.thresholds.MaxAFDominant
	case InheritanceRecessive:
		return f.thresholds.MaxAFRecessive
	default:
		return f.thresholds.MaxAFGeneral
	}
}

// Apply returns the subset of variants passing the frequency filter
// for the given inheritance mode, preserving input order.
func (f *FrequencyFilter) Apply(variants []*vcf.Variant, inheritanceMode string) []*vcf.Variant {
	threshold := f.Threshold(inheritanceMode)

	passed := make([]*vcf.Variant, 0, len(variants))
	for _, v := range variants {
		af := v.AlleleFrequency
		if af == nil || *af <= threshold {
			passed = append(passed, v)
			continue
		}
		f.logger.Debug("filtered by frequency",
			zap.String("variant", v.VariantID()),
			zap.Float64("af", *af),
			zap.Float64("threshold", threshold))
	}

	f.logger.Info("frequency filter applied",
		zap.Int("input", len(variants)),
		zap.Int("passed", len(passed)),
		zap.Float64("threshold", threshold))

	return passed
}

// CarrierFrequency estimates the carrier frequency of a recessive
// allele from its population frequency (2pq under Hardy-Weinberg,
// with q close to 1 for rare alleles).
func CarrierFrequency(alleleFrequency float64) float64 {
	return 2 * alleleFrequency
}

// TooCommonForDisease reports whether an observed allele frequency
// exceeds the maximum credible frequency for a disease of the given
// prevalence. Dominant inheritance assumes 50% penetrance; recessive
// uses the square root of the prevalence.
func TooCommonForDisease(alleleFrequency, diseasePrevalence float64, inheritance string) bool {
	var maxCredible float64
	if inheritance == InheritanceDominant {
		maxCredible = diseasePrevalence / 0.5
	} else {
		maxCredible = math.Sqrt(diseasePrevalence)
	}
	return alleleFrequency > maxCredible
}
