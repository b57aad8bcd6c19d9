package accounts

import (
	"github.com/Palpa-inc/smartcal/internal/database"
)

// Repository persists per-(user, email) calendar account documents.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

var baseQuery = database.PSQL.
	Select(
		"user_id",
		"email",
		"events",
		"calendar_info",
		"last_updated",
	).
	From(database.AccountsTable)
