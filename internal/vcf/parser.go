package vcf

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// parserState tracks progress through the leading header section.
type parserState int

const (
	stateAwaitingMeta parserState = iota
	stateAwaitingColumns
	stateInRecords
)

const (
	plainSuffix      = ".vcf"
	compressedSuffix = ".vcf.gz"
)

// Parser reads variants from a VCF file as a lazy, file-ordered stream.
// Multi-allelic records are decomposed into one variant per alternate
// allele, in ALT-field order. The stream is not restartable: a second
// pass requires a new Parser.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader

	state       parserState
	lineNumber  int
	meta        []string
	sampleNames []string
	pending     []*Variant

	policy      GenotypePolicy
	diagnostics func(*MalformedRecordError)
	skipped     int
}

// NewParser opens path and returns a parser over its variant records.
// A .vcf.gz suffix selects transparent gzip decompression, .vcf is read
// directly, any other suffix is rejected with *UnsupportedFormatError.
// A missing file yields *NotFoundError.
func NewParser(path string) (*Parser, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("stat vcf file: %w", err)
	}

	compressed := false
	switch {
	case strings.HasSuffix(path, compressedSuffix):
		compressed = true
	case strings.HasSuffix(path, plainSuffix):
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := &Parser{file: file}
	if compressed {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g. stdin).
// The caller retains ownership of the reader.
func NewParserFromReader(r io.Reader) *Parser {
	return &Parser{reader: bufio.NewReader(r)}
}

// SetDiagnostics installs a callback invoked synchronously whenever a
// malformed data line is skipped. By default skipped lines are only
// counted.
func (p *Parser) SetDiagnostics(fn func(*MalformedRecordError)) {
	p.diagnostics = fn
}

// SetGenotypePolicy configures handling of FORMAT/sample length
// mismatches. The default is GenotypeTruncate.
func (p *Parser) SetGenotypePolicy(policy GenotypePolicy) {
	p.policy = policy
}

// Next returns the next variant in file order, or nil, nil when the
// stream is exhausted. Malformed data lines are skipped, reported via
// the diagnostic callback, and never abort the stream.
func (p *Parser) Next() (*Variant, error) {
	if len(p.pending) > 0 {
		v := p.pending[0]
		p.pending = p.pending[1:]
		return v, nil
	}

	for {
		line, err := p.reader.ReadString('\n')
		if line == "" && err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read vcf line: %w", err)
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read vcf line: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		if p.state != stateInRecords && p.consumeHeaderLine(line) {
			continue
		}

		variants, ok := p.parseRecord(line)
		if !ok {
			continue
		}

		v := variants[0]
		p.pending = variants[1:]
		return v, nil
	}
}

// consumeHeaderLine handles a line while still in the header section.
// It reports whether the line was consumed as header; a false return
// means records have begun and the line must be tokenized as data.
// Header-like lines seen after this transition are treated as malformed
// data, never re-parsed as header.
func (p *Parser) consumeHeaderLine(line string) bool {
	if strings.HasPrefix(line, "##") {
		p.meta = append(p.meta, line)
		if p.state == stateAwaitingMeta {
			p.state = stateAwaitingColumns
		}
		return true
	}

	if strings.HasPrefix(line, "#CHROM") {
		fields := strings.Split(line, "\t")
		if len(fields) > 9 {
			p.sampleNames = fields[9:]
		}
		p.state = stateAwaitingColumns
		return true
	}

	// A file without a #CHROM line is not fatal; it simply has no
	// sample columns.
	p.state = stateInRecords
	return false
}

// parseRecord tokenizes a data line and fans it out into one variant
// per alternate allele. ok is false when the line was skipped.
func (p *Parser) parseRecord(line string) ([]*Variant, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		p.skip(fmt.Sprintf("expected at least 8 columns, found %d", len(fields)))
		return nil, false
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || pos < 1 {
		p.skip(fmt.Sprintf("invalid position: %s", fields[1]))
		return nil, false
	}

	if fields[3] == "" {
		p.skip("empty reference allele")
		return nil, false
	}

	var qual *float64
	if fields[5] != "." {
		if q, err := strconv.ParseFloat(fields[5], 64); err == nil {
			qual = &q
		}
	}

	info := parseInfo(fields[7])

	format := ""
	var samples map[string]Genotype
	if len(fields) > 9 {
		format = fields[8]
		samples = make(map[string]Genotype, len(p.sampleNames))
		for i, name := range p.sampleNames {
			idx := i + 9
			if idx >= len(fields) {
				break
			}
			g, ok := parseGenotype(format, fields[idx], p.policy)
			if !ok {
				p.skip(fmt.Sprintf("sample %s: FORMAT has %d keys but %d values given",
					name, len(strings.Split(format, ":")), len(strings.Split(fields[idx], ":"))))
				return nil, false
			}
			samples[name] = g
		}
	}

	alts := strings.Split(fields[4], ",")
	variants := make([]*Variant, 0, len(alts))
	for _, alt := range alts {
		if alt == "" {
			p.skip("empty alternate allele")
			continue
		}
		variants = append(variants, &Variant{
			Chrom:  fields[0],
			Pos:    pos,
			ID:     fields[2],
			Ref:    fields[3],
			Alt:    alt,
			Qual:   qual,
			Filter: fields[6],
			// Info and Samples are shared across sibling alleles.
			Info:    info,
			Format:  format,
			Samples: samples,
		})
	}
	if len(variants) == 0 {
		return nil, false
	}

	return variants, true
}

// parseInfo parses the INFO field into a map. Flag-type entries map to
// true; a bare "." yields an empty map.
func parseInfo(info string) map[string]any {
	result := make(map[string]any)
	if info == "." {
		return result
	}

	for _, kv := range strings.Split(info, ";") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		} else {
			result[parts[0]] = true
		}
	}

	return result
}

func (p *Parser) skip(message string) {
	p.skipped++
	if p.diagnostics != nil {
		p.diagnostics(&MalformedRecordError{Line: p.lineNumber, Message: message})
	}
}

// Header returns the meta lines ("##"-prefixed) in arrival order.
func (p *Parser) Header() []string {
	return p.meta
}

// SampleNames returns sample names from the #CHROM header line, in
// column order. Returns nil if no sample columns are present.
func (p *Parser) SampleNames() []string {
	return p.sampleNames
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Skipped returns the number of malformed lines skipped so far.
func (p *Parser) Skipped() int {
	return p.skipped
}

// Close closes the parser and the underlying file. It is safe to call
// more than once and after partial iteration.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
		p.gzipReader = nil
	}
	if p.file != nil {
		err := p.file.Close()
		p.file = nil
		return err
	}
	return nil
}

// Count returns the total number of variants in the file by running a
// full, fresh iteration. It does not cache: callers that need both the
// count and the records should use ReadAll instead.
func Count(path string) (int, error) {
	p, err := NewParser(path)
	if err != nil {
		return 0, err
	}
	defer p.Close()

	n := 0
	for {
		v, err := p.Next()
		if err != nil {
			return n, err
		}
		if v == nil {
			return n, nil
		}
		n++
	}
}

// ReadAll materializes the whole stream into a slice, in file order.
func ReadAll(path string) ([]*Variant, error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	var variants []*Variant
	for {
		v, err := p.Next()
		if err != nil {
			return variants, err
		}
		if v == nil {
			return variants, nil
		}
		variants = append(variants, v)
	}
}
