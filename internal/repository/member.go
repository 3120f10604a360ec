package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmapos/pos-api/internal/domain/loyalty"
)

const (
	getMemberSQL = `SELECT card_id, name, points, joined_at FROM members WHERE card_id = $1`

	addPointsSQL = `UPDATE members SET points = points + $2 WHERE card_id = $1`

	listCardIDsSQL = `SELECT card_id FROM members`

	upsertMemberSQL = `INSERT INTO members (card_id, name) VALUES ($1, $2)
		ON CONFLICT (card_id) DO NOTHING`
)

var _ loyalty.Repository = (*MemberRepository)(nil)

// MemberRepository implements loyalty.Repository backed by PostgreSQL.
type MemberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository returns a MemberRepository that uses the given pool.
func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// FindByCardID returns the member for a card ID.
func (r *MemberRepository) FindByCardID(ctx context.Context, cardID string) (*loyalty.Member, error) {
	var m loyalty.Member
	err := r.pool.QueryRow(ctx, getMemberSQL, cardID).
		Scan(&m.CardID, &m.Name, &m.Points, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loyalty.ErrMemberNotFound
		}
		return nil, fmt.Errorf("finding member %q: %w", cardID, err)
	}
	return &m, nil
}

// AddPoints increments a member's point balance.
func (r *MemberRepository) AddPoints(ctx context.Context, cardID string, points int64) error {
	tag, err := r.pool.Exec(ctx, addPointsSQL, cardID, points)
	if err != nil {
		return fmt.Errorf("adding points for %q: %w", cardID, err)
	}
	if tag.RowsAffected() == 0 {
		return loyalty.ErrMemberNotFound
	}
	return nil
}

// ListCardIDs returns every registered card ID.
func (r *MemberRepository) ListCardIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listCardIDsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing card ids: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var id string
		err := row.Scan(&id)
		return id, err
	})
}

// Upsert registers a member if the card ID is not already present. Used by
// the bulk ingest tool.
func (r *MemberRepository) Upsert(ctx context.Context, cardID, name string) error {
	if _, err := r.pool.Exec(ctx, upsertMemberSQL, cardID, name); err != nil {
		return fmt.Errorf("upserting member %q: %w", cardID, err)
	}
	return nil
}
