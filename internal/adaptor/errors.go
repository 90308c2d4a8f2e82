package adaptor

import (
	"errors"
	"net/http"
	"time"

	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/utils"

	"go.uber.org/zap"
)

// retryAfter is the hint sent with 503 responses.
const retryAfter = 5 * time.Second

// handleServiceError maps core errors onto HTTP responses.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var transition *usecase.TransitionError

	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		utils.ResponseUnauthorized(w, "Authentication required")

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" forbidden", zap.Error(err))
		utils.ResponseForbidden(w, "You are not allowed to perform this action")

	case errors.Is(err, usecase.ErrNotFound), errors.Is(err, usecase.ErrDoctorNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrInvalidSlot), errors.Is(err, usecase.ErrInvalidInput):
		log.Warn("Invalid input for "+operation, zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrSlotTaken):
		utils.ResponseConflict(w, "This slot is already booked", nil)

	case errors.As(err, &transition):
		utils.ResponseConflict(w, err.Error(), map[string]string{
			"current_status": string(transition.From),
			"requested":      transition.To,
		})

	case errors.Is(err, usecase.ErrStoreUnavailable):
		log.Error(operation+" failed - store unavailable", zap.Error(err))
		utils.ResponseUnavailable(w, "Service temporarily unavailable, please retry", retryAfter)

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
