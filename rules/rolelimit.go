package rules

import (
	"fmt"

	"github.com/fantaleague/league-system/models"
)

// RoleLimitResult - итог проверки состава на лимиты ролей.
type RoleLimitResult struct {
	Valid      bool                `json:"valid"`
	Violations []string            `json:"violations,omitempty"`
	Counts     map[models.Role]int `json:"counts"`
}

// ValidateRoleLimits проверяет, остаётся ли состав в пределах min/max
// по каждой позиции после гипотетического добавления incoming
// и удаления outgoing (оба опциональны).
//
// Для не-Classic лиг проверка всегда проходит.
//
// Игрок с несколькими ролями ("D;C") увеличивает счётчик каждой своей роли.
// Это намеренное соответствие наблюдаемому поведению платформы,
// а не ошибка подсчёта.
func ValidateRoleLimits(cfg models.LeagueConfig, squad []*models.Player, incoming, outgoing *models.Player) RoleLimitResult {
	result := RoleLimitResult{
		Valid:  true,
		Counts: make(map[models.Role]int),
	}

	if cfg.Mode != models.ModeClassic {
		return result
	}

	for _, player := range squad {
		if outgoing != nil && player.ID == outgoing.ID {
			continue
		}
		for role := range player.Roles {
			result.Counts[role]++
		}
	}
	if incoming != nil {
		for role := range incoming.Roles {
			result.Counts[role]++
		}
	}

	for _, role := range models.AllRoles {
		count := result.Counts[role]
		if max, ok := cfg.RoleLimits.Max[role]; ok && count > max {
			result.Violations = append(result.Violations, fmt.Sprintf("%s: %d/%d", role, count, max))
		}
		if min, ok := cfg.RoleLimits.Min[role]; ok && count < min {
			result.Violations = append(result.Violations, fmt.Sprintf("%s: %d/%d", role, count, min))
		}
	}

	result.Valid = len(result.Violations) == 0
	return result
}
