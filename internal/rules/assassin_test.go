package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveAssassinAttempt(t *testing.T) {
	assignment := map[string]string{
		"alice": RoleMerlin,
		"bob":   RolePercival,
		"carol": RoleServant,
		"dave":  RoleAssassin,
		"erin":  RoleMorgana,
	}

	t.Run("correct_target_hands_game_to_evil", func(t *testing.T) {
		attempt, winner, err := ResolveAssassinAttempt("dave", "alice", assignment)
		require.NoError(t, err)
		require.True(t, attempt.WasCorrect)
		require.Equal(t, TeamEvil, winner)
		require.Equal(t, "dave", attempt.AssassinID)
		require.Equal(t, "alice", attempt.TargetID)
	})

	t.Run("wrong_target_confirms_good_win", func(t *testing.T) {
		attempt, winner, err := ResolveAssassinAttempt("dave", "bob", assignment)
		require.NoError(t, err)
		require.False(t, attempt.WasCorrect)
		require.Equal(t, TeamGood, winner)
	})

	t.Run("non_assassin_rejected", func(t *testing.T) {
		_, _, err := ResolveAssassinAttempt("erin", "alice", assignment)
		require.Error(t, err)
		require.Equal(t, KindAuthorization, KindOf(err))
	})

	t.Run("unknown_target_rejected", func(t *testing.T) {
		_, _, err := ResolveAssassinAttempt("dave", "zoe", assignment)
		require.Error(t, err)
		require.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("self_target_rejected", func(t *testing.T) {
		_, _, err := ResolveAssassinAttempt("dave", "dave", assignment)
		require.Error(t, err)
		require.Equal(t, KindValidation, KindOf(err))
	})
}
