package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/varpipe/varpipe/internal/report"
	"github.com/varpipe/varpipe/internal/store"
	"github.com/varpipe/varpipe/internal/vcf"
)

func newReportCmd() *cobra.Command {
	var (
		dbPath     string
		format     string
		outputFile string
		includeVUS bool
		actor      string

		patientID  string
		firstName  string
		lastName   string
		mrn        string
		indication string
		testName   string
		accession  string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a clinical report from stored results",
		Long: "Generate a clinical genomics report (JSON or HTML) from variant " +
			"results previously saved with 'annotate --save'.",
		Example: `  varpipe report --db results.duckdb --patient-id P001 -o report.json
  varpipe report --db results.duckdb --patient-id P001 --format html -o report.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, reportOptions{
				dbPath:     dbPath,
				format:     format,
				outputFile: outputFile,
				includeVUS: includeVUS,
				actor:      actor,
				patient: report.Patient{
					ID:         patientID,
					FirstName:  firstName,
					LastName:   lastName,
					MRN:        mrn,
					Indication: indication,
				},
				testName:  testName,
				accession: accession,
			})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "DuckDB database with saved results (required)")
	cmd.Flags().StringVar(&format, "format", "json", "Report format: json or html")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&includeVUS, "include-vus", true, "Include variants of uncertain significance")
	cmd.Flags().StringVar(&actor, "user", "", "Actor recorded in the audit log")

	cmd.Flags().StringVar(&patientID, "patient-id", "", "Patient identifier (required)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "Patient first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Patient last name")
	cmd.Flags().StringVar(&mrn, "mrn", "", "Medical record number")
	cmd.Flags().StringVar(&indication, "indication", "", "Clinical indication for testing")
	cmd.Flags().StringVar(&testName, "test-name", "", "Test name (default: Whole Exome Sequencing)")
	cmd.Flags().StringVar(&accession, "accession", "", "Accession number")

	cmd.MarkFlagRequired("db")
	cmd.MarkFlagRequired("patient-id")

	return cmd
}

type reportOptions struct {
	dbPath     string
	format     string
	outputFile string
	includeVUS bool
	actor      string
	patient    report.Patient
	testName   string
	accession  string
}

func runReport(cmd *cobra.Command, opts reportOptions) error {
	logger, err := loggerFor(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if opts.format != "json" && opts.format != "html" {
		return fmt.Errorf("unsupported report format %q (expected json or html)", opts.format)
	}

	s, err := store.Open(opts.dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()
	s.SetLogger(logger)

	variants, err := s.Results()
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}
	logger.Info("loaded stored results", zap.Int("variants", len(variants)))

	test := report.DefaultTest()
	if opts.testName != "" {
		test.Name = opts.testName
	}
	test.AccessionNumber = opts.accession

	gen := report.NewGenerator()
	gen.SetLogger(logger)
	rep := gen.Generate(toReported(variants), opts.patient, test, opts.includeVUS)

	out := os.Stdout
	if opts.outputFile != "" {
		out, err = os.Create(opts.outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer out.Close()
	}

	switch opts.format {
	case "html":
		err = rep.WriteHTML(out)
	default:
		err = rep.WriteJSON(out)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	actor := opts.actor
	if actor == "" {
		actor = "unknown"
	}
	// The audit log carries a salted hash of the patient identifier,
	// never the identifier itself.
	if err := s.AppendAudit(store.AuditEntry{
		Actor:        actor,
		Action:       "export",
		ResourceType: "clinical_report",
		ResourceID:   store.HashIdentifier(opts.patient.ID, ""),
		Detail:       fmt.Sprintf("report with %d variant(s), format %s", rep.TotalVariants(), opts.format),
	}); err != nil {
		return fmt.Errorf("audit report: %w", err)
	}

	return nil
}

// toReported maps stored variant results into report rows.
func toReported(variants []*vcf.Variant) []report.ReportedVariant {
	reported := make([]report.ReportedVariant, 0, len(variants))
	for _, v := range variants {
		rv := report.ReportedVariant{
			Gene:           v.Gene,
			Variant:        v.VariantID(),
			ProteinChange:  v.ProteinChange,
			Classification: v.ClinicalSignificance,
		}
		if v.Consequence != "" {
			rv.Evidence = append(rv.Evidence, "Consequence: "+v.Consequence)
		}
		if v.AlleleFrequency != nil {
			rv.Evidence = append(rv.Evidence,
				fmt.Sprintf("Population allele frequency: %g", *v.AlleleFrequency))
		}
		reported = append(reported, rv)
	}
	return reported
}
