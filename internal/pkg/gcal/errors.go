package gcal

import (
	"errors"
	"net/http"

	"github.com/Palpa-inc/smartcal/internal/model"
	"google.golang.org/api/googleapi"
)

// mapError translates upstream transport failures into the domain error
// taxonomy. Anything that is not an explicit 401 or 404 counts as the
// upstream being unavailable.
func mapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized:
			return model.ErrUnauthorized
		case apiErr.Code == http.StatusNotFound:
			return model.ErrInvalidCalendar
		case apiErr.Code >= http.StatusInternalServerError:
			return model.ErrUpstreamUnavailable
		default:
			return err
		}
	}

	// Network-level failure.
	return model.ErrUpstreamUnavailable
}
