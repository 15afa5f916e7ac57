package apperror

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	LeaveType string `json:"leave_type" binding:"required"`
	StartDate string `json:"start_date" binding:"omitempty,isodate"`
	Decision  string `json:"decision" binding:"omitempty,oneof=approve reject"`
	AssignTo  string `json:"assign_to" binding:"omitempty,uuid"`
}

func TestMapValidationError(t *testing.T) {
	require.NoError(t, Init())

	cases := []struct {
		name string
		req  sampleRequest
		want string
	}{
		{"required", sampleRequest{}, "Leave Type is required"},
		{"isodate", sampleRequest{LeaveType: "annual", StartDate: "03/03/2025"}, "Start Date must be a date in YYYY-MM-DD format"},
		{"oneof", sampleRequest{LeaveType: "annual", Decision: "defer"}, "Decision must be one of: approve, reject"},
		{"uuid", sampleRequest{LeaveType: "annual", AssignTo: "bob"}, "Assign To must be an actor or record id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tc.req)
			require.Error(t, err)

			mapped := MapValidationError(err)
			var appErr *AppError
			require.True(t, errors.As(mapped, &appErr))
			assert.Equal(t, CodeInvalidInput, appErr.Code)
			assert.Equal(t, tc.want, appErr.Message)
		})
	}

	t.Run("valid date passes", func(t *testing.T) {
		assert.NoError(t, binding.Validator.ValidateStruct(sampleRequest{LeaveType: "annual", StartDate: "2025-03-03"}))
	})

	t.Run("non validator error", func(t *testing.T) {
		assert.True(t, IsCode(MapValidationError(errors.New("EOF")), CodeInvalidInput))
	})
}
