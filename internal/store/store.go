// Package store persists annotated variant results and the audit
// trail in DuckDB. Results are append-or-replace by variant identity;
// the audit log is append-only.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/varpipe/varpipe/internal/vcf"
)

// Store manages a DuckDB connection for variant results and auditing.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, logger: zap.NewNop()}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// SetLogger sets the logger for summary messages.
func (s *Store) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS variant_results (
		chrom VARCHAR,
		pos BIGINT,
		ref VARCHAR,
		alt VARCHAR,
		variant_id VARCHAR,
		gene VARCHAR,
		consequence VARCHAR,
		protein_change VARCHAR,
		clinical_significance VARCHAR,
		allele_frequency DOUBLE,
		qual DOUBLE,
		filter VARCHAR,
		PRIMARY KEY (chrom, pos, ref, alt)
	)`); err != nil {
		return err
	}

	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS audit_log (
		ts TIMESTAMP,
		actor VARCHAR,
		action VARCHAR,
		resource_type VARCHAR,
		resource_id VARCHAR,
		outcome VARCHAR,
		detail VARCHAR
	)`)
	return err
}

// SaveResults upserts annotated variants by identity and returns the
// number written.
func (s *Store) SaveResults(variants []*vcf.Variant) (int, error) {
	stmt, err := s.db.Prepare(`INSERT OR REPLACE INTO variant_results
		(chrom, pos, ref, alt, variant_id, gene, consequence, protein_change,
		 clinical_significance, allele_frequency, qual, filter)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, v := range variants {
		var af, qual sql.NullFloat64
		if v.AlleleFrequency != nil {
			af = sql.NullFloat64{Float64: *v.AlleleFrequency, Valid: true}
		}
		if v.Qual != nil {
			qual = sql.NullFloat64{Float64: *v.Qual, Valid: true}
		}

		if _, err := stmt.Exec(v.Chrom, v.Pos, v.Ref, v.Alt, v.VariantID(),
			v.Gene, v.Consequence, v.ProteinChange, v.ClinicalSignificance,
			af, qual, v.Filter); err != nil {
			return n, fmt.Errorf("insert variant %s: %w", v.VariantID(), err)
		}
		n++
	}

	s.logger.Info("saved variant results", zap.Int("count", n))
	return n, nil
}

// Results returns all stored variants ordered by chromosome and
// position. Sample-level data is not persisted and comes back empty.
func (s *Store) Results() ([]*vcf.Variant, error) {
	rows, err := s.db.Query(`SELECT chrom, pos, ref, alt, gene, consequence,
		protein_change, clinical_significance, allele_frequency, qual, filter
		FROM variant_results ORDER BY chrom, pos, ref, alt`)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var variants []*vcf.Variant
	for rows.Next() {
		v := &vcf.Variant{}
		var af, qual sql.NullFloat64
		if err := rows.Scan(&v.Chrom, &v.Pos, &v.Ref, &v.Alt, &v.Gene,
			&v.Consequence, &v.ProteinChange, &v.ClinicalSignificance,
			&af, &qual, &v.Filter); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if af.Valid {
			f := af.Float64
			v.AlleleFrequency = &f
		}
		if qual.Valid {
			q := qual.Float64
			v.Qual = &q
		}
		variants = append(variants, v)
	}

	return variants, rows.Err()
}

// ResultCount returns the number of stored variant results.
func (s *Store) ResultCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM variant_results`).Scan(&n)
	return n, err
}
