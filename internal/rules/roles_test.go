package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRoleConfiguration(t *testing.T) {
	scenarios := []struct {
		description string
		playerCount int
		roleIDs     []string
		wantKind    ErrorKind // "" means valid
	}{
		{
			description: "classic_five_player_setup",
			playerCount: 5,
			roleIDs:     []string{RoleMerlin, RolePercival, RoleServant, RoleAssassin, RoleMorgana},
		},
		{
			description: "swapping_morgana_for_servant_breaks_distribution",
			playerCount: 5,
			roleIDs:     []string{RoleMerlin, RolePercival, RoleServant, RoleAssassin, RoleServant},
			wantKind:    KindConfig,
		},
		{
			description: "seven_players_four_good_three_evil",
			playerCount: 7,
			roleIDs:     []string{RoleMerlin, RolePercival, RoleServant, RoleServant, RoleAssassin, RoleMorgana, RoleMordred},
		},
		{
			description: "ten_players_six_good_four_evil",
			playerCount: 10,
			roleIDs: []string{
				RoleMerlin, RolePercival, RoleServant, RoleServant, RoleServant, RoleServant,
				RoleAssassin, RoleMorgana, RoleMordred, RoleOberon,
			},
		},
		{
			description: "role_count_mismatch",
			playerCount: 5,
			roleIDs:     []string{RoleMerlin, RoleServant, RoleAssassin, RoleMinion},
			wantKind:    KindConfig,
		},
		{
			description: "unknown_role",
			playerCount: 5,
			roleIDs:     []string{RoleMerlin, RolePercival, "gandalf", RoleAssassin, RoleMorgana},
			wantKind:    KindConfig,
		},
		{
			description: "duplicate_unique_role",
			playerCount: 5,
			roleIDs:     []string{RoleMerlin, RoleMerlin, RoleServant, RoleAssassin, RoleMorgana},
			wantKind:    KindConfig,
		},
		{
			description: "too_few_players",
			playerCount: 4,
			roleIDs:     []string{RoleMerlin, RoleServant, RoleAssassin, RoleMinion},
			wantKind:    KindConfig,
		},
		{
			description: "stackable_roles_may_repeat",
			playerCount: 6,
			roleIDs:     []string{RoleMerlin, RoleServant, RoleServant, RoleServant, RoleAssassin, RoleMinion},
		},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.description, func(t *testing.T) {
			err := ValidateRoleConfiguration(scenario.playerCount, scenario.roleIDs)
			if scenario.wantKind == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Equal(t, scenario.wantKind, KindOf(err))
		})
	}
}

func TestDefaultRoleConfiguration(t *testing.T) {
	for n := MinPlayers; n <= MaxPlayers; n++ {
		roles, err := DefaultRoleConfiguration(n)
		require.NoError(t, err, "player count %d", n)
		require.Len(t, roles, n)
		require.NoError(t, ValidateRoleConfiguration(n, roles), "player count %d", n)
	}

	_, err := DefaultRoleConfiguration(11)
	require.Error(t, err)
}

func TestRoleCatalogCapabilities(t *testing.T) {
	merlin, ok := RoleByID(RoleMerlin)
	require.True(t, ok)
	require.True(t, merlin.SeesEvil)
	require.True(t, merlin.AppearsAmbiguous)
	require.False(t, merlin.CanVoteFail)

	for _, id := range AllRoleIDs() {
		role, ok := RoleByID(id)
		require.True(t, ok)
		if role.Team == TeamEvil {
			require.True(t, role.CanVoteFail, "evil role %s must be able to sabotage", id)
		} else {
			require.False(t, role.CanVoteFail, "good role %s must not be able to sabotage", id)
		}
	}
}
