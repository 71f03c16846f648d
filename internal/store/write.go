package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Revision is one applied patch batch. ParentHash and ResultHash are the
// canonical document hashes before and after application; Ops is the
// batch's canonical JSON.
type Revision struct {
	ID         string
	CaseID     string
	Seq        int64
	ParentHash string
	ResultHash string
	Ops        string
	Summary    string
	CreatedAt  string
}

// NewRevisionID allocates a fresh revision identifier.
func NewRevisionID() string {
	return "rev_" + uuid.NewString()
}

// RecordRevision inserts one revision row.
// Uses ON CONFLICT(id) DO NOTHING for idempotency; duplicate IDs are
// silently ignored. Other constraint violations (duplicate case/seq,
// NOT NULL) still return errors.
func (s *Store) RecordRevision(ctx context.Context, rev Revision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revisions
		(id, case_id, seq, parent_hash, result_hash, ops, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rev.ID,
		rev.CaseID,
		rev.Seq,
		rev.ParentHash,
		rev.ResultHash,
		rev.Ops,
		rev.Summary,
	)
	if err != nil {
		return fmt.Errorf("record revision: %w", err)
	}
	return nil
}

// NextSeq returns the next sequence number for a case's revision chain,
// starting at 1 for an unseen case.
func (s *Store) NextSeq(ctx context.Context, caseID string) (int64, error) {
	var max int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM revisions WHERE case_id = ?
	`, caseID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return max + 1, nil
}
