// Package loyalty tracks StarPoints members and their point balances.
package loyalty

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrMemberNotFound is returned when a card ID is not registered.
var ErrMemberNotFound = errors.New("loyalty member not found")

// Member is one StarPoints cardholder.
type Member struct {
	CardID   string    `json:"card_id"`
	Name     string    `json:"name"`
	Points   int64     `json:"points"`
	JoinedAt time.Time `json:"joined_at"`
}

// Repository persists loyalty members.
type Repository interface {
	FindByCardID(ctx context.Context, cardID string) (*Member, error)
	AddPoints(ctx context.Context, cardID string, points int64) error

	// ListCardIDs returns every registered card ID, used to warm the
	// prefilter at startup.
	ListCardIDs(ctx context.Context) ([]string, error)
}

// Service answers member lookups and accrues points. A bloom prefilter over
// registered card IDs short-circuits lookups for cards that are definitely
// unknown, so mistyped card numbers never reach the database.
type Service struct {
	repo Repository
	pre  *Prefilter
}

// NewService creates a loyalty Service. pre may be nil, in which case every
// lookup goes to the repository.
func NewService(repo Repository, pre *Prefilter) *Service {
	return &Service{repo: repo, pre: pre}
}

// Lookup returns the member for cardID.
func (s *Service) Lookup(ctx context.Context, cardID string) (*Member, error) {
	if s.pre != nil && !s.pre.MayContain(cardID) {
		return nil, ErrMemberNotFound
	}
	return s.repo.FindByCardID(ctx, cardID)
}

// Accrue adds points to a member's balance and returns the updated member.
func (s *Service) Accrue(ctx context.Context, cardID string, points int64) (*Member, error) {
	if s.pre != nil && !s.pre.MayContain(cardID) {
		return nil, ErrMemberNotFound
	}

	m, err := s.repo.FindByCardID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	if points > 0 {
		if err := s.repo.AddPoints(ctx, cardID, points); err != nil {
			return nil, errors.Wrap(err, "add points")
		}
		m.Points += points
	}
	return m, nil
}
