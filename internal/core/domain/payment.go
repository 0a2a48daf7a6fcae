package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BusinessPaymentRequest is a merchant-initiated payment request, encoded into
// a QR payload. It is ephemeral: nothing is persisted until a confirmation is
// consumed. Field names are the wire contract and must not change.
//
// The payload carries no cryptographic signature; uniqueness of PaymentID is
// the protocol-level tamper evidence. A party able to inject scanner input can
// spoof payloads — an accepted design limitation, not a defect.
type BusinessPaymentRequest struct {
	MerchantWalletID uuid.UUID `json:"merchantWalletId"`
	MerchantName     string    `json:"merchantName"`
	Amount           int64     `json:"amount"` // minor units
	Currency         string    `json:"currency"`
	PaymentID        string    `json:"paymentId"`

	// Not on the wire: local bookkeeping for request expiry.
	CreatedAt time.Time `json:"-"`
}

// NewPaymentID generates a fresh unique payment identifier.
func NewPaymentID() string {
	return "BP-" + uuid.NewString()
}

// ToJSON serializes the request into the QR payload string.
func (r BusinessPaymentRequest) ToJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// BusinessPaymentConfirm is the customer-presented confirmation payload. It
// echoes the PaymentID plus confirming metadata. PayerWalletID is set when the
// paying side is a wallet tracked on this device; otherwise the payer is
// external and only the merchant leg is recorded.
type BusinessPaymentConfirm struct {
	PaymentID     string     `json:"paymentId"`
	PayerName     string     `json:"payerName,omitempty"`
	PayerWalletID *uuid.UUID `json:"payerWalletId,omitempty"`
}

// ConsumedPayment is the durable replay-protection record: one row per
// consumed PaymentID, written in the same storage transaction as the ledger
// entries it produced.
type ConsumedPayment struct {
	PaymentID     string    `json:"payment_id"`
	TransactionID uuid.UUID `json:"transaction_id"` // the merchant receive leg
	ConsumedAt    time.Time `json:"consumed_at"`
}
