package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/varpipe/varpipe/internal/annotate"
	"github.com/varpipe/varpipe/internal/clinvar"
	"github.com/varpipe/varpipe/internal/filter"
	"github.com/varpipe/varpipe/internal/output"
	"github.com/varpipe/varpipe/internal/store"
	"github.com/varpipe/varpipe/internal/vcf"
)

func newAnnotateCmd() *cobra.Command {
	var (
		assembly    string
		useClinVar  bool
		apiKey      string
		inheritance string
		minQual     float64
		outputFile  string
		saveDB      string
		actor       string
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "annotate <vcf-file>",
		Short: "Annotate and filter variants from a VCF file",
		Long: "Annotate variants with Ensembl VEP effect predictions, optionally " +
			"classify them against ClinVar, then apply frequency and quality filters.",
		Example: `  varpipe annotate sample.vcf
  varpipe annotate --clinvar --inheritance dominant sample.vcf.gz
  varpipe annotate --save results.duckdb -o annotated.tsv sample.vcf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(cmd, args[0], annotateOptions{
				assembly:    assembly,
				useClinVar:  useClinVar,
				apiKey:      apiKey,
				inheritance: inheritance,
				minQual:     minQual,
				outputFile:  outputFile,
				saveDB:      saveDB,
				actor:       actor,
				workers:     workers,
			})
		},
	}

	cmd.Flags().StringVar(&assembly, "assembly", "", "Genome assembly: GRCh37 or GRCh38 (default from config)")
	cmd.Flags().BoolVar(&useClinVar, "clinvar", false, "Classify variants against ClinVar")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "NCBI API key for higher ClinVar rate limits")
	cmd.Flags().StringVar(&inheritance, "inheritance", filter.InheritanceGeneral, "Inheritance mode: dominant, recessive or general")
	cmd.Flags().Float64Var(&minQual, "min-qual", 30, "Minimum variant quality score")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&saveDB, "save", "", "Persist results to a DuckDB database at this path")
	cmd.Flags().StringVar(&actor, "user", "", "Actor recorded in the audit log when saving")
	cmd.Flags().IntVar(&workers, "workers", 0, "Annotation workers (default: number of CPUs)")

	return cmd
}

// resolveAssembly falls back to the configured assembly when the flag
// was not given. Config is loaded in PersistentPreRunE, after flag
// construction, so the flag default cannot capture it.
func resolveAssembly(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString("assembly")
}

type annotateOptions struct {
	assembly    string
	useClinVar  bool
	apiKey      string
	inheritance string
	minQual     float64
	outputFile  string
	saveDB      string
	actor       string
	workers     int
}

func runAnnotate(cmd *cobra.Command, inputPath string, opts annotateOptions) error {
	logger, err := loggerFor(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()

	parser, err := vcf.NewParser(inputPath)
	if err != nil {
		return err
	}
	defer parser.Close()

	parser.SetDiagnostics(func(e *vcf.MalformedRecordError) {
		logger.Warn("skipping malformed line",
			zap.Int("line", e.Line),
			zap.String("reason", e.Message))
	})

	var variants []*vcf.Variant
	for {
		v, err := parser.Next()
		if err != nil {
			return fmt.Errorf("read variant: %w", err)
		}
		if v == nil {
			break
		}
		variants = append(variants, v)
	}
	logger.Info("parsed input",
		zap.String("file", inputPath),
		zap.Int("variants", len(variants)),
		zap.Int("skipped", parser.Skipped()))

	vep := annotate.NewVEPClient(resolveAssembly(opts.assembly))
	ann := annotate.NewAnnotator(vep)
	ann.SetLogger(logger)
	if opts.useClinVar {
		ann.SetClinicalLookup(clinvar.NewClient(opts.apiKey))
	}

	if err := ann.AnnotateVariants(ctx, variants, opts.workers); err != nil {
		return fmt.Errorf("annotate variants: %w", err)
	}

	thresholds := filter.DefaultThresholds()
	if err := viper.UnmarshalKey("thresholds", &thresholds); err != nil {
		return fmt.Errorf("load thresholds: %w", err)
	}

	freq := filter.NewFrequencyFilter(thresholds)
	freq.SetLogger(logger)
	variants = freq.Apply(variants, opts.inheritance)

	qual := filter.NewQualityFilter()
	qual.MinQual = opts.minQual
	qual.SetLogger(logger)
	variants = qual.Apply(variants)

	out := os.Stdout
	if opts.outputFile != "" {
		out, err = os.Create(opts.outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer out.Close()
	}

	writer := output.NewTabWriter(out)
	if err := writer.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, v := range variants {
		if err := writer.Write(v); err != nil {
			return fmt.Errorf("write variant: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	if opts.saveDB != "" {
		if err := saveResults(opts.saveDB, opts.actor, inputPath, variants, logger); err != nil {
			return err
		}
	}

	return nil
}

func saveResults(dbPath, actor, inputPath string, variants []*vcf.Variant, logger *zap.Logger) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()
	s.SetLogger(logger)

	n, err := s.SaveResults(variants)
	if err != nil {
		return fmt.Errorf("save results: %w", err)
	}

	if actor == "" {
		actor = "unknown"
	}
	if err := s.AppendAudit(store.AuditEntry{
		Actor:        actor,
		Action:       "create",
		ResourceType: "variant_results",
		ResourceID:   filepath.Base(inputPath),
		Detail:       fmt.Sprintf("saved %d annotated variants", n),
	}); err != nil {
		return fmt.Errorf("audit save: %w", err)
	}

	return nil
}
