package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrInsufficientFunds    = errors.New("team does not have enough funds")
	ErrPlayerAlreadyOnLoan  = errors.New("player is already on loan")
	ErrPlayerAlreadyOwned   = errors.New("player already belongs to the sender team")
	ErrCounterPlayerInvalid = errors.New("counter player does not belong to the sender team")
	ErrPlayerNotOnLoan      = errors.New("player is not on loan")
	ErrRosterCapacityFull   = errors.New("roster A capacity exceeded")
	ErrSameTeamOffer        = errors.New("offer sender and recipient must be different teams")

	// Ошибки конфликтов
	ErrOfferAlreadyResolved = errors.New("offer has already been resolved")
	ErrOfferStaleTarget     = errors.New("player ownership changed since the offer was created")
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrTeamAlreadyClaimed   = errors.New("team is already managed by another user")
	ErrUserAlreadyInLeague  = errors.New("user already manages a team in this league")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrNotOfferRecipient      = errors.New("only the recipient team may respond to the offer")
	ErrNotOfferSender         = errors.New("only the sender team may cancel the offer")
	ErrNotPlayerOwner         = errors.New("only the owning team may recall the player")
	ErrAdminActionForbidden   = errors.New("only a league admin or sub-admin can perform this action")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound   = errors.New("user not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrLeagueNotFound = errors.New("league not found")
	ErrOfferNotFound  = errors.New("offer not found")
	ErrInviteNotFound = errors.New("invite not found")
	ErrInviteExpired  = errors.New("invite has expired")
)

// RoleLimitError - ошибка валидации лимитов ролей с перечнем нарушений
// в формате "<роль>: <счёт>/<лимит>".
type RoleLimitError struct {
	TeamID     int
	Violations []string
}

func (e *RoleLimitError) Error() string {
	msg := "role limits violated"
	for _, v := range e.Violations {
		msg += "; " + v
	}
	return msg
}

// Is позволяет errors.Is(err, ErrValidationFailed) для маппинга в HTTP.
func (e *RoleLimitError) Is(target error) bool {
	return target == ErrValidationFailed
}
