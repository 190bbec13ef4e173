package payout

import (
	"context"

	"rumble/internal/repository"
)

// Selector enumerates the bounded window of rumbles plausibly relevant to a
// wallet, most-recent-first. A wallet with no bets yields an empty window,
// not an error; only an unreachable store is systemic.
type Selector struct {
	Repo repository.Repository
}

func (s *Selector) Candidates(ctx context.Context, wallet string, limit int) ([]repository.WalletRumbleRef, error) {
	if s == nil || s.Repo == nil {
		return nil, &SystemicError{Op: "candidate selection", Err: errNoRepository}
	}
	if limit <= 0 {
		return nil, nil
	}
	refs, err := s.Repo.ListWalletRumbleRefs(ctx, wallet, limit)
	if err != nil {
		return nil, &SystemicError{Op: "candidate selection", Err: err}
	}
	if len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}
