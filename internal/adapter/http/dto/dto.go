package dto

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	Name                    string   `json:"name" binding:"required,min=1,max=100"`
	Currency                string   `json:"currency" binding:"required,min=1,max=8"`
	Type                    string   `json:"type" binding:"required,wallet_type"`
	Theme                   string   `json:"theme" binding:"max=50"`
	ExchangeRateToReference *float64 `json:"exchange_rate_to_reference,omitempty" binding:"omitempty,gt=0"`
}

// UpdateWalletRequest carries partial wallet edits; absent fields are left
// unchanged. Currency and type are fixed at creation and not accepted here.
type UpdateWalletRequest struct {
	Name                    *string  `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	Theme                   *string  `json:"theme,omitempty" binding:"omitempty,max=50"`
	ExchangeRateToReference *float64 `json:"exchange_rate_to_reference,omitempty" binding:"omitempty,gt=0"`
}

// WalletResponse is the response body for a wallet.
type WalletResponse struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name"`
	Currency                string   `json:"currency"`
	Type                    string   `json:"type"`
	Balance                 int64    `json:"balance"`
	FrozenTotal             int64    `json:"frozen_total"`
	Available               int64    `json:"available"`
	ExchangeRateToReference *float64 `json:"exchange_rate_to_reference,omitempty"`
	Theme                   string   `json:"theme,omitempty"`
	Active                  bool     `json:"active"`
	CreatedAt               string   `json:"created_at"`
	UpdatedAt               string   `json:"updated_at"`
}

// BalanceResponse is the response for the balance query.
type BalanceResponse struct {
	Balance     int64  `json:"balance"`
	FrozenTotal int64  `json:"frozen_total"`
	Available   int64  `json:"available"`
	Currency    string `json:"currency"`
}

// AppendTransactionRequest is the request body for a manual ledger append.
// Only plain send/receive entries may be recorded here; freeze movements,
// transfer legs and business-payment legs are written by their own
// operations, which keep the paired bookkeeping consistent.
type AppendTransactionRequest struct {
	Type       string  `json:"type" binding:"required,oneof=send receive"`
	Amount     int64   `json:"amount" binding:"required,gt=0"`
	Sender     string  `json:"sender" binding:"max=100"`
	Receiver   string  `json:"receiver" binding:"max=100"`
	Category   string  `json:"category" binding:"max=100"`
	CategoryID *string `json:"category_id,omitempty" binding:"omitempty,max=100"`
	Method     string  `json:"method" binding:"omitempty,oneof=MANUAL QR"`
}

// TransactionResponse is the response body for a ledger entry.
type TransactionResponse struct {
	ID            string  `json:"id"`
	Seq           int64   `json:"seq"`
	WalletID      string  `json:"wallet_id"`
	Type          string  `json:"type"`
	Amount        int64   `json:"amount"`
	BalanceBefore int64   `json:"balance_before"`
	BalanceAfter  int64   `json:"balance_after"`
	Sender        string  `json:"sender,omitempty"`
	Receiver      string  `json:"receiver,omitempty"`
	Category      string  `json:"category,omitempty"`
	CategoryID    *string `json:"category_id,omitempty"`
	Method        string  `json:"method"`
	InvoiceImage  *string `json:"invoice_image,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// AmountRequest is the request body for freeze, unfreeze and frozen-spend.
type AmountRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// InvoiceImageRequest attaches an invoice image reference to a transaction.
type InvoiceImageRequest struct {
	Image string `json:"image" binding:"required,max=500"`
}

// TransferRequest is the request body for an inter-wallet transfer.
type TransferRequest struct {
	SourceWalletID string   `json:"source_wallet_id" binding:"required,uuid"`
	DestWalletID   string   `json:"dest_wallet_id" binding:"required,uuid"`
	Amount         int64    `json:"amount" binding:"required,gt=0"`
	ExchangeRate   *float64 `json:"exchange_rate,omitempty" binding:"omitempty,gt=0"`
}

// TransferResponse carries both legs of a completed transfer.
type TransferResponse struct {
	SourceTx TransactionResponse `json:"source_tx"`
	DestTx   TransactionResponse `json:"dest_tx"`
}

// CreateDebtRequest is the request body for a new debt record.
type CreateDebtRequest struct {
	WalletID   string `json:"wallet_id" binding:"required,uuid"`
	Type       string `json:"type" binding:"required,debt_type"`
	PersonName string `json:"person_name" binding:"required,min=1,max=100"`
	Amount     int64  `json:"amount" binding:"required,gt=0"`
}

// DebtPaymentRequest links an existing ledger transaction as a debt payment.
type DebtPaymentRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,uuid"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
}

// DebtResponse is the response body for a debt.
type DebtResponse struct {
	ID                    string   `json:"id"`
	WalletID              string   `json:"wallet_id"`
	Type                  string   `json:"type"`
	PersonName            string   `json:"person_name"`
	OriginalAmount        int64    `json:"original_amount"`
	RemainingAmount       int64    `json:"remaining_amount"`
	Status                string   `json:"status"`
	WrittenOff            bool     `json:"written_off"`
	RelatedTransactionIDs []string `json:"related_transaction_ids"`
	CreatedAt             string   `json:"created_at"`
	UpdatedAt             string   `json:"updated_at"`
}

// BuildPaymentRequest asks for a QR payment request on a merchant wallet.
type BuildPaymentRequest struct {
	WalletID string `json:"wallet_id" binding:"required,uuid"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
}

// BuildPaymentResponse returns the pending request plus its QR payload.
type BuildPaymentResponse struct {
	PaymentID        string `json:"payment_id"`
	MerchantWalletID string `json:"merchant_wallet_id"`
	MerchantName     string `json:"merchant_name"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Payload          string `json:"payload"`
}

// ConfirmPaymentRequest carries the scanned confirmation payload verbatim.
type ConfirmPaymentRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// RejectPaymentRequest drops a pending payment request.
type RejectPaymentRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
}

// PaymentCompletionResponse reports the ledger effect of a consumed
// confirmation. SendTx is absent when the payer is not tracked locally.
type PaymentCompletionResponse struct {
	SendTx    *TransactionResponse `json:"send_tx,omitempty"`
	ReceiveTx TransactionResponse  `json:"receive_tx"`
}

// PinSetupRequest sets or changes the device PIN. CurrentPin is required
// once a PIN exists.
type PinSetupRequest struct {
	Pin        string  `json:"pin" binding:"required,min=4,max=32"`
	CurrentPin *string `json:"current_pin,omitempty"`
}

// UnlockRequest exchanges the PIN for a session token.
type UnlockRequest struct {
	Pin string `json:"pin" binding:"required"`
}

// UnlockResponse is the response body for a successful unlock.
type UnlockResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}
