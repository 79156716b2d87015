package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tjtransit/rutas/internal/core/domain"
)

// ProposalRepo implements ports.ProposalRepository. The embedded route is
// stored whole as jsonb; review fields are columns so the pending queue can
// be indexed.
type ProposalRepo struct {
	db *DB
}

func NewProposalRepo(db *DB) *ProposalRepo { return &ProposalRepo{db: db} }

func (r *ProposalRepo) Create(ctx context.Context, p *domain.Proposal) error {
	route, err := json.Marshal(p.Route)
	if err != nil {
		return fmt.Errorf("encode route: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO proposals (id, route, proposed_by, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, route, p.ProposedBy, p.Status, p.CreatedAt)
	return err
}

const proposalColumns = `id, route, proposed_by, status, approved_by,
	rejected_by, reason, reviewed_at, created_at`

func (r *ProposalRepo) GetByID(ctx context.Context, id string) (*domain.Proposal, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+proposalColumns+` FROM proposals WHERE id = $1`, id)
	p, err := scanProposal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *ProposalRepo) ListPending(ctx context.Context) ([]domain.Proposal, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+proposalColumns+` FROM proposals WHERE status = 'pending' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []domain.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, *p)
	}
	return proposals, rows.Err()
}

func (r *ProposalRepo) Update(ctx context.Context, p *domain.Proposal) error {
	route, err := json.Marshal(p.Route)
	if err != nil {
		return fmt.Errorf("encode route: %w", err)
	}
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE proposals SET route = $2 WHERE id = $1 AND status = 'pending'
	`, p.ID, route)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Approve flips a pending proposal to approved. The status guard in the
// WHERE clause makes concurrent reviews race-safe: the second one finds no
// pending row.
func (r *ProposalRepo) Approve(ctx context.Context, id, approvedBy string, reviewedAt time.Time) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE proposals
		SET status = 'approved', approved_by = $2, reviewed_at = $3
		WHERE id = $1 AND status = 'pending'
	`, id, approvedBy, reviewedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProposalRepo) Reject(ctx context.Context, id, rejectedBy, reason string, reviewedAt time.Time) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE proposals
		SET status = 'rejected', rejected_by = $2, reason = $3, reviewed_at = $4
		WHERE id = $1 AND status = 'pending'
	`, id, rejectedBy, reason, reviewedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProposal(row rowScanner) (*domain.Proposal, error) {
	var (
		p          domain.Proposal
		route      []byte
		approvedBy *string
		rejectedBy *string
		reason     *string
	)
	err := row.Scan(&p.ID, &route, &p.ProposedBy, &p.Status, &approvedBy,
		&rejectedBy, &reason, &p.ReviewedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(route, &p.Route); err != nil {
		return nil, fmt.Errorf("decode route: %w", err)
	}
	if approvedBy != nil {
		p.ApprovedBy = *approvedBy
	}
	if rejectedBy != nil {
		p.RejectedBy = *rejectedBy
	}
	if reason != nil {
		p.Reason = *reason
	}
	return &p, nil
}
