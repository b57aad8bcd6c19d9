package user

import (
	"time"

	"github.com/Palpa-inc/smartcal/internal/model"
)

type userDTO struct {
	UID            string
	Email          string
	DisplayName    string
	PhotoURL       string
	IsAnonymous    bool
	LastSignInTime time.Time
	HideKeywords   []string
}

func mapToUser(dto *userDTO) *model.User {
	return &model.User{
		UID:          dto.UID,
		HideKeywords: dto.HideKeywords,
		UserCreate: model.UserCreate{
			Email:          dto.Email,
			DisplayName:    dto.DisplayName,
			PhotoURL:       dto.PhotoURL,
			IsAnonymous:    dto.IsAnonymous,
			LastSignInTime: dto.LastSignInTime,
		},
	}
}
