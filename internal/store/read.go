package store

import (
	"context"
	"fmt"
)

// ListRevisions returns every revision for a case, ordered
// deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no records exist for the case.
func (s *Store) ListRevisions(ctx context.Context, caseID string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, seq, parent_hash, result_hash, ops, summary, created_at
		FROM revisions
		WHERE case_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	revisions := []Revision{}
	for rows.Next() {
		var rev Revision
		if err := rows.Scan(
			&rev.ID, &rev.CaseID, &rev.Seq,
			&rev.ParentHash, &rev.ResultHash,
			&rev.Ops, &rev.Summary, &rev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return revisions, nil
}

// LatestRevision returns the newest revision for a case, or nil when the
// case has none.
func (s *Store) LatestRevision(ctx context.Context, caseID string) (*Revision, error) {
	revisions, err := s.ListRevisions(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if len(revisions) == 0 {
		return nil, nil
	}
	rev := revisions[len(revisions)-1]
	return &rev, nil
}
