package user

import (
	"context"
	"fmt"

	"github.com/Palpa-inc/smartcal/internal/database"
	"github.com/Palpa-inc/smartcal/internal/model"
)

// UpsertUser creates a profile on first sign-in or refreshes the mutable
// profile fields on subsequent ones. Returns the stored uid, which is the
// pre-existing one when the email was already registered.
func (*Repository) UpsertUser(ctx context.Context, q database.Queryable, uid string, user *model.UserCreate) (string, error) {
	qb := database.PSQL.
		Insert(database.UsersTable).
		Columns(
			"uid",
			"email",
			"display_name",
			"photo_url",
			"is_anonymous",
			"last_sign_in_time",
		).
		Values(
			uid,
			user.Email,
			user.DisplayName,
			user.PhotoURL,
			user.IsAnonymous,
			user.LastSignInTime,
		).
		Suffix(`on conflict (email) do update set
			display_name = excluded.display_name,
			photo_url = excluded.photo_url,
			last_sign_in_time = excluded.last_sign_in_time
			returning uid`)

	var storedUID string
	if err := q.Get(ctx, &storedUID, qb); err != nil {
		return "", fmt.Errorf("SQL request: %w", err)
	}

	return storedUID, nil
}
