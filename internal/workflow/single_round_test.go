package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSingleRound(t *testing.T) {
	approvers := []string{manager.ID, head.ID}

	t.Run("listed approver decides", func(t *testing.T) {
		history, err := ResolveSingleRound(nil, approvers, head, Approve, "ok", now)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, head.ID, history[0].ApproverRef)
		assert.Equal(t, StepApproved, history[0].Status)
		assert.Equal(t, StatusApproved, SingleRoundStatus(true, history))

		_, err = ResolveSingleRound(history, approvers, manager, Reject, "", now)
		assert.ErrorIs(t, err, ErrAlreadyTerminal)
	})

	t.Run("rejection is terminal", func(t *testing.T) {
		history, err := ResolveSingleRound(nil, approvers, manager, Reject, "no", now)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, SingleRoundStatus(true, history))
	})

	t.Run("unlisted actor", func(t *testing.T) {
		_, err := ResolveSingleRound(nil, approvers, staff, Approve, "", now)
		assert.ErrorIs(t, err, ErrInvalidActor)
	})

	t.Run("admin not listed", func(t *testing.T) {
		history, err := ResolveSingleRound(nil, approvers, admin, Approve, "", now)
		require.NoError(t, err)
		assert.Equal(t, admin.ID, history[0].ApproverRef)
	})

	t.Run("inactive listed approver", func(t *testing.T) {
		_, err := ResolveSingleRound(nil, []string{inactive.ID}, inactive, Approve, "", now)
		assert.ErrorIs(t, err, ErrInvalidActor)
	})
}

func TestSingleRoundStatus(t *testing.T) {
	assert.Equal(t, StatusApproved, SingleRoundStatus(false, nil))
	assert.Equal(t, StatusPending, SingleRoundStatus(true, nil))
	assert.Equal(t, StatusRejected, SingleRoundStatus(true, []HistoryEntry{
		{Status: StepRejected},
		{Status: StepApproved},
	}))
}
