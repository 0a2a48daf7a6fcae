package handler

import (
	"time"

	"cashvault/internal/adapter/http/dto"
	"cashvault/internal/core/domain"

	"github.com/google/uuid"
)

func toWalletResponse(w *domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		ID:                      w.ID.String(),
		Name:                    w.Name,
		Currency:                w.Currency,
		Type:                    string(w.Type),
		Balance:                 w.Balance,
		FrozenTotal:             w.FrozenTotal,
		Available:               w.Available(),
		ExchangeRateToReference: w.ExchangeRateToReference,
		Theme:                   w.Theme,
		Active:                  w.Active,
		CreatedAt:               w.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:               w.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:            t.ID.String(),
		Seq:           t.Seq,
		WalletID:      t.WalletID.String(),
		Type:          string(t.Type),
		Amount:        t.Amount,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		Sender:        t.Sender,
		Receiver:      t.Receiver,
		Category:      t.Category,
		CategoryID:    t.CategoryID,
		Method:        string(t.Method),
		InvoiceImage:  t.InvoiceImage,
		CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toDebtResponse(d *domain.Debt) dto.DebtResponse {
	related := make([]string, 0, len(d.RelatedTransactionIDs))
	for _, id := range d.RelatedTransactionIDs {
		related = append(related, id.String())
	}
	return dto.DebtResponse{
		ID:                    d.ID.String(),
		WalletID:              d.WalletID.String(),
		Type:                  string(d.Type),
		PersonName:            d.PersonName,
		OriginalAmount:        d.OriginalAmount,
		RemainingAmount:       d.RemainingAmount,
		Status:                string(d.Status),
		WrittenOff:            d.WrittenOff,
		RelatedTransactionIDs: related,
		CreatedAt:             d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:             d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// parseID parses a path or body UUID; the empty uuid.Nil is never valid here.
func parseID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
