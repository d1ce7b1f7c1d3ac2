package rules

import (
	"testing"

	"github.com/fantaleague/league-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRoles(t *testing.T, raw string) models.RoleSet {
	t.Helper()
	set, err := models.ParseRoleSet(raw)
	require.NoError(t, err)
	return set
}

func classicConfig() models.LeagueConfig {
	return models.LeagueConfig{
		LeagueID: 1,
		Mode:     models.ModeClassic,
		RoleLimits: models.RoleLimits{
			Min: map[models.Role]int{},
			Max: map[models.Role]int{
				models.RolePortiere:    3,
				models.RoleDifensore:   8,
				models.RoleCentrocampo: 8,
				models.RoleAttaccante:  6,
			},
		},
		MaxPlayers: 25,
	}
}

func squadOf(t *testing.T, roles ...string) []*models.Player {
	t.Helper()
	squad := make([]*models.Player, 0, len(roles))
	for i, raw := range roles {
		squad = append(squad, &models.Player{
			ID:    i + 1,
			Roles: mustRoles(t, raw),
		})
	}
	return squad
}

func TestValidateRoleLimits_WithinLimits(t *testing.T) {
	cfg := classicConfig()
	squad := squadOf(t, "P", "P", "D", "D", "C", "A")

	incoming := &models.Player{ID: 100, Roles: mustRoles(t, "D")}

	result := ValidateRoleLimits(cfg, squad, incoming, nil)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Violations)
	assert.Equal(t, 3, result.Counts[models.RoleDifensore])
}

func TestValidateRoleLimits_MaxExceeded(t *testing.T) {
	cfg := classicConfig()
	squad := squadOf(t, "P", "P", "P")

	incoming := &models.Player{ID: 100, Roles: mustRoles(t, "P")}

	result := ValidateRoleLimits(cfg, squad, incoming, nil)

	assert.False(t, result.Valid)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "P: 4/3", result.Violations[0])
}

func TestValidateRoleLimits_OutgoingFreesSlot(t *testing.T) {
	cfg := classicConfig()
	squad := squadOf(t, "P", "P", "P")

	incoming := &models.Player{ID: 100, Roles: mustRoles(t, "P")}
	outgoing := squad[0]

	result := ValidateRoleLimits(cfg, squad, incoming, outgoing)

	assert.True(t, result.Valid)
	assert.Equal(t, 3, result.Counts[models.RolePortiere])
}

func TestValidateRoleLimits_MultiRoleCountsEveryRole(t *testing.T) {
	cfg := classicConfig()
	cfg.RoleLimits.Max[models.RoleCentrocampo] = 2

	// Игрок "D;C" занимает слот и защитника, и полузащитника.
	squad := squadOf(t, "C", "C")

	incoming := &models.Player{ID: 100, Roles: mustRoles(t, "D;C")}

	result := ValidateRoleLimits(cfg, squad, incoming, nil)

	assert.False(t, result.Valid)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "C: 3/2", result.Violations[0])
	assert.Equal(t, 1, result.Counts[models.RoleDifensore])
}

func TestValidateRoleLimits_MinViolated(t *testing.T) {
	cfg := classicConfig()
	cfg.RoleLimits.Min[models.RolePortiere] = 1

	squad := squadOf(t, "P", "D")
	outgoing := squad[0]

	result := ValidateRoleLimits(cfg, squad, nil, outgoing)

	assert.False(t, result.Valid)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "P: 0/1", result.Violations[0])
}

func TestValidateRoleLimits_MantraSkipsValidation(t *testing.T) {
	cfg := classicConfig()
	cfg.Mode = models.ModeMantra

	squad := squadOf(t, "P", "P", "P", "P", "P")
	incoming := &models.Player{ID: 100, Roles: mustRoles(t, "P")}

	result := ValidateRoleLimits(cfg, squad, incoming, nil)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Violations)
}
