package accounts

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/Palpa-inc/smartcal/internal/database"
	"github.com/Palpa-inc/smartcal/internal/model"
)

// UpdateCalendarInfo replaces only the calendar_info part of the document.
// Events and last_updated are left untouched.
func (*Repository) UpdateCalendarInfo(ctx context.Context, q database.Queryable, userID, email string, info model.CalendarInfo) error {
	qb := database.PSQL.
		Update(database.AccountsTable).
		Set("calendar_info", mapFromCalendarInfo(info)).
		Where(sq.Eq{"user_id": userID, "email": email})

	tag, err := q.Exec(ctx, qb)
	if err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrNoRecord
	}

	return nil
}
