package accounts

import (
	"context"
	"fmt"

	"github.com/Palpa-inc/smartcal/internal/database"
	"github.com/Palpa-inc/smartcal/internal/model"
)

// WriteAccount fully replaces the account document, creating it when absent.
// lastUpdated is supplied by the caller.
func (*Repository) WriteAccount(ctx context.Context, q database.Queryable, userID, email string, cache *model.AccountCache) error {
	qb := database.PSQL.
		Insert(database.AccountsTable).
		Columns(
			"user_id",
			"email",
			"events",
			"calendar_info",
			"last_updated",
		).
		Values(
			userID,
			email,
			mapFromEvents(cache.Events),
			mapFromCalendarInfo(cache.CalendarInfo),
			cache.LastUpdated,
		).
		Suffix(`on conflict (user_id, email) do update set
			events = excluded.events,
			calendar_info = excluded.calendar_info,
			last_updated = excluded.last_updated`)

	if _, err := q.Exec(ctx, qb); err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}

	return nil
}
