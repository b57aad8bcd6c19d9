package accounts

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/Palpa-inc/smartcal/internal/database"
	"github.com/Palpa-inc/smartcal/internal/model"
)

// GetAccounts returns the full per-email snapshot for a user. The map is
// empty when the user has no linked accounts yet.
func (*Repository) GetAccounts(ctx context.Context, q database.Queryable, userID string) (map[string]*model.AccountCache, error) {
	qb := baseQuery.
		Where(sq.Eq{"user_id": userID})

	var dtos []*accountDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	res := make(map[string]*model.AccountCache, len(dtos))
	for _, d := range dtos {
		cache, err := mapToAccountCache(d)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", d.Email, err)
		}
		res[d.Email] = cache
	}

	return res, nil
}

// GetAccount returns a single account document or model.ErrNoRecord.
func (*Repository) GetAccount(ctx context.Context, q database.Queryable, userID, email string) (*model.AccountCache, error) {
	qb := baseQuery.
		Where(sq.Eq{"user_id": userID, "email": email})

	var dtos []*accountDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	if len(dtos) == 0 {
		return nil, model.ErrNoRecord
	}

	return mapToAccountCache(dtos[0])
}
