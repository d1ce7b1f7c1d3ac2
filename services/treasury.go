package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fantaleague/league-system/models"
)

// settlementPlan - рассчитанные до записи итоговые балансы обеих команд.
// Сумма балансов не меняется: деньги только перетекают между казнами.
type settlementPlan struct {
	SenderBalance    int64
	RecipientBalance int64
}

// planSettlement вычисляет и валидирует денежный эффект предложения.
// Отправитель платит CashOffered и получает CashRequested, получатель - зеркально.
// Отрицательный итоговый баланс любой из сторон отклоняет расчёт целиком.
func planSettlement(offer *models.Offer, senderCash, recipientCash int64) (settlementPlan, error) {
	plan := settlementPlan{
		SenderBalance:    senderCash - offer.CashOffered + offer.CashRequested,
		RecipientBalance: recipientCash + offer.CashOffered - offer.CashRequested,
	}
	if plan.SenderBalance < 0 || plan.RecipientBalance < 0 {
		return plan, ErrInsufficientFunds
	}
	return plan, nil
}

// settle применяет денежный и владельческий эффект принятого предложения.
// Вызывается только внутри транзакции accept-пайплайна, после всех проверок.
func (s *offerService) settle(ctx context.Context, tx *sql.Tx, offer *models.Offer, sender, recipient *models.Team, target, counter *models.Player) error {
	plan, err := planSettlement(offer, sender.CashBalance, recipient.CashBalance)
	if err != nil {
		return err
	}

	if err := s.teamRepo.UpdateCashBalance(ctx, tx, sender.ID, plan.SenderBalance); err != nil {
		return err
	}
	if err := s.teamRepo.UpdateCashBalance(ctx, tx, recipient.ID, plan.RecipientBalance); err != nil {
		return err
	}
	sender.CashBalance = plan.SenderBalance
	recipient.CashBalance = plan.RecipientBalance

	switch offer.Kind {
	case models.OfferKindTransfer:
		if err := s.playerRepo.UpdateOwnership(ctx, tx, target.ID, sender.ID); err != nil {
			return err
		}
		target.OwningTeamID = sender.ID

	case models.OfferKindLoan:
		if err := s.playerRepo.SetLoan(ctx, tx, target.ID, sender.ID); err != nil {
			return err
		}
		target.OnLoan = true
		loanTeamID := sender.ID
		target.LoanTeamID = &loanTeamID

	case models.OfferKindSwap:
		if err := s.playerRepo.UpdateOwnership(ctx, tx, target.ID, sender.ID); err != nil {
			return err
		}
		if err := s.playerRepo.UpdateOwnership(ctx, tx, counter.ID, recipient.ID); err != nil {
			return err
		}
		target.OwningTeamID = sender.ID
		counter.OwningTeamID = recipient.ID

	default:
		return fmt.Errorf("%w: unknown offer kind %q", ErrValidationFailed, offer.Kind)
	}

	return nil
}
