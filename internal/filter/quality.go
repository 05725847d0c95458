package filter

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/varpipe/varpipe/internal/vcf"
)

// QualityFilter drops variants below minimum call-quality metrics.
// An absent QUAL or DP passes: missing evidence is not evidence of a
// bad call.
type QualityFilter struct {
	MinQual  float64
	MinDepth int

	logger *zap.Logger
}

// NewQualityFilter creates a quality filter with the standard
// minimums (QUAL 30, depth 10).
func NewQualityFilter() *QualityFilter {
	return &QualityFilter{
		MinQual:  30,
		MinDepth: 10,
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for summary messages.
func (f *QualityFilter) SetLogger(l *zap.Logger) {
	f.logger = l
}

// Apply returns the subset of variants passing the quality filter,
// preserving input order.
func (f *QualityFilter) Apply(variants []*vcf.Variant) []*vcf.Variant {
	passed := make([]*vcf.Variant, 0, len(variants))

	for _, v := range variants {
		if v.Qual != nil && *v.Qual < f.MinQual {
			f.logger.Debug("filtered by qual",
				zap.String("variant", v.VariantID()),
				zap.Float64("qual", *v.Qual))
			continue
		}

		if depth, ok := infoDepth(v); ok && depth < f.MinDepth {
			f.logger.Debug("filtered by depth",
				zap.String("variant", v.VariantID()),
				zap.Int("depth", depth))
			continue
		}

		passed = append(passed, v)
	}

	f.logger.Info("quality filter applied",
		zap.Int("input", len(variants)),
		zap.Int("passed", len(passed)))

	return passed
}

// infoDepth reads the DP entry from INFO, if present and numeric.
func infoDepth(v *vcf.Variant) (int, bool) {
	raw, ok := v.Info["DP"]
	if !ok {
		return 0, false
	}
	s, ok := raw.(string)
	if !ok {
		return 0, false
	}
	depth, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return depth, true
}
