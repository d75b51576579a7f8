package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/rxauth/internal/common"
	"github.com/gin-gonic/gin"
)

// statusFor maps a core error to its HTTP status and stable message.
// Anything unrecognised is reported as an internal error so that wrapped
// details never reach the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrMissingCredentials):
		return http.StatusBadRequest, common.MessageMissingCredentials
	case errors.Is(err, common.ErrPasswordTooLong):
		return http.StatusBadRequest, common.MessagePasswordTooLong
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest, common.MessageFieldsRequired
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, common.MessageInvalidCredentials
	case errors.Is(err, common.ErrDuplicateAccount):
		return http.StatusConflict, common.MessageDoctorExists
	default:
		return http.StatusInternalServerError, common.MessageInternal
	}
}

func respondError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	c.JSON(status, gin.H{"message": msg})
}
