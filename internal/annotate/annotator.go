package annotate

import (
	"context"

	"go.uber.org/zap"

	"github.com/varpipe/varpipe/internal/clinvar"
	"github.com/varpipe/varpipe/internal/vcf"
)

// EffectSource provides effect predictions for a variant.
// *VEPClient is the production implementation.
type EffectSource interface {
	Annotate(ctx context.Context, chrom string, pos int64, ref, alt string) ([]*Annotation, error)
}

// ClinicalLookup resolves the clinical significance of a variant.
// *clinvar.Client is the production implementation.
type ClinicalLookup interface {
	Lookup(ctx context.Context, chrom string, pos int64, ref, alt string) (*clinvar.Record, error)
}

// Annotator fills in the annotation fields of parsed variants.
type Annotator struct {
	source  EffectSource
	lookup  ClinicalLookup
	logger  *zap.Logger
	classed bool
}

// NewAnnotator creates an annotator backed by the given effect source.
func NewAnnotator(source EffectSource) *Annotator {
	return &Annotator{
		source: source,
		logger: zap.NewNop(),
	}
}

// SetClinicalLookup enables clinical-significance classification via
// the given lookup.
func (a *Annotator) SetClinicalLookup(l ClinicalLookup) {
	a.lookup = l
	a.classed = true
}

// SetLogger sets the logger for warning and info messages.
func (a *Annotator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Annotate annotates a single variant in place and returns the full
// per-transcript annotation list. The canonical transcript annotation
// is preferred for the variant-level fields; when none is flagged
// canonical, the most severe one wins.
func (a *Annotator) Annotate(ctx context.Context, v *vcf.Variant) ([]*Annotation, error) {
	anns, err := a.source.Annotate(ctx, v.Chrom, v.Pos, v.Ref, v.Alt)
	if err != nil {
		return nil, err
	}

	best := pickRepresentative(anns)
	if best != nil {
		v.Gene = best.GeneSymbol
		v.Consequence = best.Consequence
		v.ProteinChange = best.ProteinChange
		v.AlleleFrequency = best.GnomadAF
	}

	if a.classed {
		var rec *clinvar.Record
		rec, err = a.lookup.Lookup(ctx, v.Chrom, v.Pos, v.Ref, v.Alt)
		if err != nil {
			a.logger.Warn("clinvar lookup failed",
				zap.String("variant", v.VariantID()),
				zap.Error(err))
			rec = nil
		}

		var af *float64
		consequence := ""
		if best != nil {
			af = best.GnomadAF
			consequence = best.Consequence
		}
		v.ClinicalSignificance = clinvar.Classify(rec, af, consequence)
	}

	return anns, nil
}

// AnnotateVariants annotates a slice of variants in place using a
// worker pool, preserving slice order. Per-variant failures are logged
// and skipped; the variant keeps its unannotated fields.
func (a *Annotator) AnnotateVariants(ctx context.Context, variants []*vcf.Variant, workers int) error {
	items := make(chan WorkItem)
	go func() {
		defer close(items)
		for i, v := range variants {
			select {
			case items <- WorkItem{Seq: i, Variant: v}:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := a.ParallelAnnotate(ctx, items, workers)

	failed := 0
	if err := OrderedCollect(results, func(r WorkResult) error {
		if r.Err != nil {
			failed++
			a.logger.Warn("failed to annotate variant",
				zap.String("chrom", r.Variant.Chrom),
				zap.Int64("pos", r.Variant.Pos),
				zap.Error(r.Err))
		}
		return nil
	}); err != nil {
		return err
	}

	a.logger.Info("annotation complete",
		zap.Int("variants", len(variants)),
		zap.Int("failed", failed))

	return ctx.Err()
}

// pickRepresentative selects the annotation used for variant-level
// fields: the first canonical one, else the most severe.
func pickRepresentative(anns []*Annotation) *Annotation {
	if len(anns) == 0 {
		return nil
	}

	for _, ann := range anns {
		if ann.Canonical {
			return ann
		}
	}

	best := anns[0]
	for _, ann := range anns[1:] {
		if Severity(ann.Consequence) > Severity(best.Consequence) {
			best = ann
		}
	}
	return best
}
