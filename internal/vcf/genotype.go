package vcf

import "strings"

// GenotypePolicy controls how FORMAT keys and a sample's values are
// combined when the two lists differ in length.
type GenotypePolicy int

const (
	// GenotypeTruncate pairs keys with values up to the shorter of the
	// two lists. Trailing keys or values are dropped.
	GenotypeTruncate GenotypePolicy = iota

	// GenotypeStrict treats a length mismatch as a malformed record:
	// the whole line is skipped and reported through diagnostics.
	GenotypeStrict
)

// Genotype holds one sample's FORMAT values in FORMAT-key order.
// Key order is meaningful in VCF and is preserved for round-tripping.
type Genotype struct {
	keys   []string
	values map[string]string
}

// Len returns the number of FORMAT keys with a value for this sample.
func (g Genotype) Len() int {
	return len(g.keys)
}

// Keys returns the FORMAT keys in the order they appeared.
func (g Genotype) Keys() []string {
	return g.keys
}

// Get returns the value for a FORMAT key.
func (g Genotype) Get(key string) (string, bool) {
	v, ok := g.values[key]
	return v, ok
}

// parseGenotype zips a FORMAT string with one sample's colon-delimited
// values. A "." FORMAT or sample value means genotype data is absent and
// yields an empty Genotype. Under GenotypeStrict, ok is false when the
// key and value counts differ.
func parseGenotype(format, sample string, policy GenotypePolicy) (Genotype, bool) {
	if format == "." || sample == "." {
		return Genotype{}, true
	}

	keys := strings.Split(format, ":")
	values := strings.Split(sample, ":")

	if policy == GenotypeStrict && len(keys) != len(values) {
		return Genotype{}, false
	}

	n := len(keys)
	if len(values) < n {
		n = len(values)
	}

	g := Genotype{
		keys:   keys[:n],
		values: make(map[string]string, n),
	}
	for i := 0; i < n; i++ {
		g.values[keys[i]] = values[i]
	}
	return g, true
}
