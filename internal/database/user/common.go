package user

import (
	"github.com/Palpa-inc/smartcal/internal/database"
)

// Repository persists user profiles and their hide-keyword set.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

var baseQuery = database.PSQL.
	Select(
		"uid",
		"email",
		"display_name",
		"photo_url",
		"is_anonymous",
		"last_sign_in_time",
		"hide_keywords",
	).
	From(database.UsersTable)
