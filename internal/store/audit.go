package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// AuditEntry is one immutable record of access to identified data.
type AuditEntry struct {
	Timestamp    time.Time
	Actor        string
	Action       string // view, create, update, delete, export
	ResourceType string // e.g. "phi", "clinical_report", "variant_results"
	ResourceID   string
	Outcome      string // "success" or "failure"
	Detail       string
}

// AppendAudit appends an entry to the audit log. The timestamp is
// filled in when zero. Entries are never updated or deleted.
func (s *Store) AppendAudit(e AuditEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Outcome == "" {
		e.Outcome = "success"
	}

	if _, err := s.db.Exec(`INSERT INTO audit_log
		(ts, actor, action, resource_type, resource_id, outcome, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Timestamp, e.Actor, e.Action, e.ResourceType, e.ResourceID,
		e.Outcome, e.Detail); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	s.logger.Info("audit",
		zap.String("actor", e.Actor),
		zap.String("action", e.Action),
		zap.String("resource", e.ResourceType+"/"+e.ResourceID))
	return nil
}

// RecentAudit returns the most recent audit entries, newest first.
func (s *Store) RecentAudit(limit int) ([]AuditEntry, error) {
	rows, err := s.db.Query(`SELECT ts, actor, action, resource_type,
		resource_id, outcome, detail
		FROM audit_log ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.Timestamp, &e.Actor, &e.Action,
			&e.ResourceType, &e.ResourceID, &e.Outcome, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// HashIdentifier returns a salted one-way hash of an identifier, for
// de-identified references to patients in the audit log. The salt
// falls back to the HASH_SALT environment variable when empty.
func HashIdentifier(identifier, salt string) string {
	if salt == "" {
		salt = os.Getenv("HASH_SALT")
	}
	sum := sha256.Sum256([]byte(salt + identifier))
	return hex.EncodeToString(sum[:])
}
