package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/apierr"
)

const CodeDuplicateTrackingID = "duplicate_tracking_id"

// ErrExhaustedRetries is returned when every generated tracking code collided.
var ErrExhaustedRetries = errors.New("tracking code generation exhausted retries")

type TrackingCodeExhaustedError struct {
	Prefix   string
	Length   int
	Attempts int
}

func (e *TrackingCodeExhaustedError) Error() string {
	return fmt.Sprintf(
		"failed to generate a unique tracking ID with prefix %q and length %d after %d attempts; increase the code length or change the prefix",
		e.Prefix, e.Length, e.Attempts,
	)
}

func (e *TrackingCodeExhaustedError) Unwrap() error { return ErrExhaustedRetries }

// toAPIError maps workflow errors that are not already *apierr.Error.
func toAPIError(err error) error {
	if err == nil {
		return nil
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, ErrExhaustedRetries) {
		return apierr.Internal(apierr.CodeTrackingCodeExhausted, err)
	}
	if errors.Is(err, repos.ErrDuplicateTrackingID) {
		return apierr.New(http.StatusConflict, CodeDuplicateTrackingID, err)
	}
	return err
}
