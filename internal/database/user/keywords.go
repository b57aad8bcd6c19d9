package user

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/Palpa-inc/smartcal/internal/database"
	"github.com/Palpa-inc/smartcal/internal/model"
)

// AddHideKeyword adds a keyword to the user's hide set. Adding an already
// present keyword is a no-op.
func (*Repository) AddHideKeyword(ctx context.Context, q database.Queryable, uid, keyword string) error {
	qb := database.PSQL.
		Update(database.UsersTable).
		Set("hide_keywords", sq.Expr("array_append(hide_keywords, ?)", keyword)).
		Where(sq.Eq{"uid": uid}).
		Where(sq.Expr("not (hide_keywords @> array[?])", keyword))

	if _, err := q.Exec(ctx, qb); err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	return nil
}

// RemoveHideKeyword removes all occurrences of a keyword from the hide set.
func (*Repository) RemoveHideKeyword(ctx context.Context, q database.Queryable, uid, keyword string) error {
	qb := database.PSQL.
		Update(database.UsersTable).
		Set("hide_keywords", sq.Expr("array_remove(hide_keywords, ?)", keyword)).
		Where(sq.Eq{"uid": uid})

	tag, err := q.Exec(ctx, qb)
	if err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrNoRecord
	}

	return nil
}
