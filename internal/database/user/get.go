package user

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/Palpa-inc/smartcal/internal/database"
	"github.com/Palpa-inc/smartcal/internal/model"
)

func (*Repository) GetUserByUID(ctx context.Context, q database.Queryable, uid string) (*model.User, error) {
	return getUser(ctx, q, sq.Eq{"uid": uid})
}

func (*Repository) GetUserByEmail(ctx context.Context, q database.Queryable, email string) (*model.User, error) {
	return getUser(ctx, q, sq.Eq{"email": email})
}

func getUser(ctx context.Context, q database.Queryable, predicate interface{}) (*model.User, error) {
	qb := baseQuery.
		Where(predicate)

	var dtos []*userDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	if len(dtos) == 0 {
		return nil, model.ErrNoRecord
	}

	return mapToUser(dtos[0]), nil
}
