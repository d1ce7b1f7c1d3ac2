package models

import (
	"fmt"
	"strings"
)

// Role представляет позицию игрока, соответствующую ENUM в БД.
type Role string

const (
	RolePortiere    Role = "P"
	RoleDifensore   Role = "D"
	RoleCentrocampo Role = "C"
	RoleAttaccante  Role = "A"
)

// AllRoles - порядок ролей для детерминированного вывода.
var AllRoles = []Role{RolePortiere, RoleDifensore, RoleCentrocampo, RoleAttaccante}

func (r Role) Valid() bool {
	switch r {
	case RolePortiere, RoleDifensore, RoleCentrocampo, RoleAttaccante:
		return true
	}
	return false
}

// RoleSet - непустой набор позиций игрока. Игрок с несколькими ролями
// (например "D;C") учитывается в лимитах по каждой из них.
type RoleSet map[Role]bool

// ParseRoleSet разбирает строку вида "D;C" или "D,C" из БД.
// Парсим один раз на границе, дальше работаем только с типизированным набором.
func ParseRoleSet(raw string) (RoleSet, error) {
	normalized := strings.NewReplacer(",", ";", " ", "").Replace(raw)
	set := make(RoleSet)
	for _, part := range strings.Split(normalized, ";") {
		if part == "" {
			continue
		}
		role := Role(strings.ToUpper(part))
		if !role.Valid() {
			return nil, fmt.Errorf("unknown player role %q", part)
		}
		set[role] = true
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("player role list %q is empty", raw)
	}
	return set, nil
}

func (s RoleSet) Has(r Role) bool { return s[r] }

// String сериализует набор обратно в формат БД ("D;C").
func (s RoleSet) String() string {
	parts := make([]string, 0, len(s))
	for _, r := range AllRoles {
		if s[r] {
			parts = append(parts, string(r))
		}
	}
	return strings.Join(parts, ";")
}

// LeagueMode - модальность лиги, разрешается один раз при загрузке лиги
// вместо повторного сравнения строк на каждом вызове.
type LeagueMode string

const (
	ModeClassic LeagueMode = "classic"
	ModeMantra  LeagueMode = "mantra"
)

// ResolveLeagueMode сопоставляет свободный текст модальности ("Classic Serie A",
// "Classic Euroleghe", "Mantra" и т.д.) с enum. Лимиты ролей действуют
// только в Classic-режимах.
func ResolveLeagueMode(modality string) LeagueMode {
	if strings.Contains(strings.ToLower(modality), "classic") {
		return ModeClassic
	}
	return ModeMantra
}

// RosterSlot представляет часть состава, в которой числится игрок.
// Rosa A - игроки, которых можно выставлять (и которые получают зарплату),
// Rosa B - переполнение, обычно для игроков, пришедших в аренду.
type RosterSlot string

const (
	RosterSlotA RosterSlot = "A"
	RosterSlotB RosterSlot = "B"
)

// UserRole - роль пользователя в лиге.
type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleSubAdmin UserRole = "subadmin"
	UserRoleManager  UserRole = "manager"
)

// PermissionFlags - разобранные один раз права пользователя,
// вместо сериализованных объектов прав в строковых полях.
type PermissionFlags struct {
	ManageRosters  bool `json:"manage_rosters"`
	ManageTreasury bool `json:"manage_treasury"`
	ManageLeague   bool `json:"manage_league"`
}

// PermissionsFor возвращает набор прав для роли пользователя.
func PermissionsFor(role UserRole) PermissionFlags {
	switch role {
	case UserRoleAdmin:
		return PermissionFlags{ManageRosters: true, ManageTreasury: true, ManageLeague: true}
	case UserRoleSubAdmin:
		return PermissionFlags{ManageRosters: true, ManageTreasury: true}
	default:
		return PermissionFlags{}
	}
}
