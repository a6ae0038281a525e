package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/hrdesk/generic"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{generic.NewValidationError("name", "is required"), http.StatusBadRequest},
		{&generic.InsufficientBalanceError{LeaveType: "annual"}, http.StatusBadRequest},
		{generic.ErrUnauthorized, http.StatusUnauthorized},
		{generic.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("employee e1: %w", generic.ErrNotFound), http.StatusNotFound},
		{generic.ErrConflict, http.StatusConflict},
		{&generic.TransitionError{Kind: "leave request", From: "approved", To: "rejected"}, http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
