package rules

import "github.com/fantaleague/league-system/models"

// SlotAssignment - решение аллокатора Rosa A/B для прибывающего игрока.
type SlotAssignment struct {
	Slot models.RosterSlot
	// RequiresAction выставляется при возврате из аренды, когда Rosa A
	// переполнена: игрок попадает в Rosa B и ждёт ручного решения админа,
	// автоматического исключения не происходит.
	RequiresAction bool
}

// AssignArrivalSlot решает, в какую часть состава попадает игрок,
// прибывающий в команду. Если механизм Rosa A/B в лиге выключен,
// все игроки числятся в Rosa A.
func AssignArrivalSlot(cfg models.LeagueConfig, rosterACount, maxPlayers int) SlotAssignment {
	if !cfg.RosterABEnabled {
		return SlotAssignment{Slot: models.RosterSlotA}
	}
	if rosterACount < maxPlayers {
		return SlotAssignment{Slot: models.RosterSlotA}
	}
	return SlotAssignment{Slot: models.RosterSlotB}
}

// AssignReturnSlot решает размещение игрока, вернувшегося из аренды
// в свою команду. При переполненной Rosa A игрок принудительно попадает
// в Rosa B с флагом RequiresAction.
func AssignReturnSlot(cfg models.LeagueConfig, rosterACount, maxPlayers int) SlotAssignment {
	if !cfg.RosterABEnabled {
		return SlotAssignment{Slot: models.RosterSlotA}
	}
	if rosterACount < maxPlayers {
		return SlotAssignment{Slot: models.RosterSlotA}
	}
	return SlotAssignment{Slot: models.RosterSlotB, RequiresAction: true}
}

// PlayerSalary возвращает зарплатную нагрузку игрока на казну команды.
// Зарплату получают только игроки Rosa A; cantera-игроки при включённой
// опции лиги стоят половину.
func PlayerSalary(cfg models.LeagueConfig, player *models.Player) int64 {
	if player.RosterSlot != models.RosterSlotA {
		return 0
	}
	if cfg.CanteraEnabled && player.Cantera {
		return player.Salary / 2
	}
	return player.Salary
}

// TeamPayroll суммирует зарплатную нагрузку состава.
func TeamPayroll(cfg models.LeagueConfig, squad []*models.Player) int64 {
	var total int64
	for _, player := range squad {
		total += PlayerSalary(cfg, player)
	}
	return total
}
