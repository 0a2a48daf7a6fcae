package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"
	"cashvault/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultRequestTTL bounds how long a built payment request stays acceptable.
const DefaultRequestTTL = 15 * time.Minute

// BusinessPaymentServiceImpl implements ports.BusinessPaymentService.
//
// Pending requests live only in memory: nothing about a payment is persisted
// until a confirmation is consumed, at which point the replay-protection row
// and the ledger legs are written in one storage transaction.
type BusinessPaymentServiceImpl struct {
	walletRepo   ports.WalletRepository
	consumedRepo ports.ConsumedPaymentRepository
	transactor   ports.DBTransactor
	ledger       *LedgerServiceImpl
	locks        *WalletLocks
	ttl          time.Duration
	log          zerolog.Logger

	mu          sync.Mutex
	pending     map[string]*domain.BusinessPaymentRequest
	completions map[string]*sync.Mutex
}

// NewBusinessPaymentService creates a new BusinessPaymentServiceImpl. A ttl of
// zero falls back to DefaultRequestTTL.
func NewBusinessPaymentService(
	walletRepo ports.WalletRepository,
	consumedRepo ports.ConsumedPaymentRepository,
	transactor ports.DBTransactor,
	ledger *LedgerServiceImpl,
	locks *WalletLocks,
	ttl time.Duration,
	log zerolog.Logger,
) *BusinessPaymentServiceImpl {
	if ttl <= 0 {
		ttl = DefaultRequestTTL
	}
	return &BusinessPaymentServiceImpl{
		walletRepo:   walletRepo,
		consumedRepo: consumedRepo,
		transactor:   transactor,
		ledger:       ledger,
		locks:        locks,
		ttl:          ttl,
		log:          log,
	}
}

// BuildRequest creates a payment request for the merchant wallet and returns
// it together with the QR payload string. The request is registered as pending
// until confirmed, rejected or expired.
func (s *BusinessPaymentServiceImpl) BuildRequest(ctx context.Context, merchantWalletID uuid.UUID, amount int64) (*domain.BusinessPaymentRequest, string, error) {
	if amount <= 0 {
		return nil, "", apperror.ErrInvalidAmount()
	}

	wallet, err := s.walletRepo.GetByID(ctx, merchantWalletID)
	if err != nil {
		return nil, "", apperror.ErrStorage(fmt.Errorf("load merchant wallet: %w", err))
	}
	if wallet == nil {
		return nil, "", apperror.ErrWalletNotFound()
	}

	req := &domain.BusinessPaymentRequest{
		MerchantWalletID: merchantWalletID,
		MerchantName:     wallet.Name,
		Amount:           amount,
		Currency:         wallet.Currency,
		PaymentID:        domain.NewPaymentID(),
		CreatedAt:        time.Now().UTC(),
	}

	payload, err := req.ToJSON()
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("encode payment request: %w", err))
	}

	s.mu.Lock()
	if s.pending == nil {
		s.pending = make(map[string]*domain.BusinessPaymentRequest)
	}
	s.pending[req.PaymentID] = req
	s.mu.Unlock()

	s.log.Info().
		Str("payment_id", req.PaymentID).
		Str("merchant_wallet_id", merchantWalletID.String()).
		Int64("amount", amount).
		Msg("business payment request built")

	return req, payload, nil
}

// ParseConfirm decodes a scanned confirmation payload. Any shape defect maps
// to the malformed-payload error so callers never see raw JSON errors.
func (s *BusinessPaymentServiceImpl) ParseConfirm(raw string) (*domain.BusinessPaymentConfirm, error) {
	var confirm domain.BusinessPaymentConfirm
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&confirm); err != nil {
		return nil, apperror.ErrMalformedPayload()
	}
	if confirm.PaymentID == "" {
		return nil, apperror.ErrMalformedPayload()
	}
	return &confirm, nil
}

// CompleteAsMerchant consumes a confirmation against its pending request.
// Exactly one completion per payment ID can ever succeed: the consumed-set
// insert shares the storage transaction with the ledger legs, so a duplicate
// confirmation fails atomically with nothing written. Completions for the
// same payment ID are serialized, so a concurrent loser runs only after the
// winner committed and is reported as a duplicate, not an unknown request.
func (s *BusinessPaymentServiceImpl) CompleteAsMerchant(ctx context.Context, confirm *domain.BusinessPaymentConfirm) (*ports.PaymentCompletion, error) {
	if confirm == nil || confirm.PaymentID == "" {
		return nil, apperror.ErrMalformedPayload()
	}

	release := s.lockPayment(confirm.PaymentID)
	defer release()

	req, err := s.takePending(ctx, confirm.PaymentID)
	if err != nil {
		return nil, err
	}

	// Lock the merchant wallet, plus the payer wallet when it is local.
	var unlock func()
	payerLocal := confirm.PayerWalletID != nil
	if payerLocal {
		unlock = s.locks.LockPair(req.MerchantWalletID, *confirm.PayerWalletID)
	} else {
		unlock = s.locks.Lock(req.MerchantWalletID)
	}
	defer unlock()

	merchant, err := s.walletRepo.GetByID(ctx, req.MerchantWalletID)
	if err != nil {
		s.restorePending(req)
		return nil, apperror.ErrStorage(fmt.Errorf("load merchant wallet: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	var payer *domain.Wallet
	if payerLocal {
		payer, err = s.walletRepo.GetByID(ctx, *confirm.PayerWalletID)
		if err != nil {
			s.restorePending(req)
			return nil, apperror.ErrStorage(fmt.Errorf("load payer wallet: %w", err))
		}
		if payer == nil {
			return nil, apperror.ErrWalletNotFound()
		}
		if payer.Currency != req.Currency {
			s.restorePending(req)
			return nil, apperror.Validation(fmt.Sprintf(
				"payer wallet currency %s does not match payment currency %s",
				payer.Currency, req.Currency,
			))
		}
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		s.restorePending(req)
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	completion := &ports.PaymentCompletion{}

	payerName := confirm.PayerName
	if payer != nil {
		payerName = payer.Name
	}

	if payer != nil {
		sendTx, err := s.ledger.appendInTx(ctx, tx, payer, ports.DraftTransaction{
			Type:     domain.TransactionTypeBusinessPaymentSend,
			Amount:   req.Amount,
			Receiver: req.MerchantName,
			Method:   domain.MethodQR,
		})
		if err != nil {
			s.restorePending(req)
			return nil, err
		}
		completion.SendTx = sendTx
	}

	receiveTx, err := s.ledger.appendInTx(ctx, tx, merchant, ports.DraftTransaction{
		Type:   domain.TransactionTypeBusinessPaymentReceive,
		Amount: req.Amount,
		Sender: payerName,
		Method: domain.MethodQR,
	})
	if err != nil {
		s.restorePending(req)
		return nil, err
	}
	completion.ReceiveTx = receiveTx

	consumed := &domain.ConsumedPayment{
		PaymentID:     req.PaymentID,
		TransactionID: receiveTx.ID,
		ConsumedAt:    time.Now().UTC(),
	}
	if err := s.consumedRepo.Create(ctx, tx, consumed); err != nil {
		if errors.Is(err, ports.ErrAlreadyExists) {
			return nil, apperror.ErrDuplicatePayment()
		}
		s.restorePending(req)
		return nil, apperror.ErrStorage(fmt.Errorf("record consumed payment: %w", err))
	}

	if err := tx.Commit(); err != nil {
		s.restorePending(req)
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.mu.Lock()
	delete(s.completions, req.PaymentID)
	s.mu.Unlock()

	s.log.Info().
		Str("payment_id", req.PaymentID).
		Str("merchant_wallet_id", req.MerchantWalletID.String()).
		Bool("payer_local", payer != nil).
		Int64("amount", req.Amount).
		Msg("business payment completed")

	return completion, nil
}

// Reject drops a pending request. Terminal: the payment ID is forgotten and a
// later confirmation for it fails as unknown.
func (s *BusinessPaymentServiceImpl) Reject(paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.pending[paymentID]
	if !ok || s.expired(req) {
		delete(s.pending, paymentID)
		return apperror.ErrUnknownPaymentRequest()
	}
	delete(s.pending, paymentID)

	s.log.Info().Str("payment_id", paymentID).Msg("business payment request rejected")
	return nil
}

// lockPayment serializes completion attempts for one payment ID. The caller
// must not hold s.mu.
func (s *BusinessPaymentServiceImpl) lockPayment(paymentID string) func() {
	s.mu.Lock()
	if s.completions == nil {
		s.completions = make(map[string]*sync.Mutex)
	}
	m, ok := s.completions[paymentID]
	if !ok {
		m = &sync.Mutex{}
		s.completions[paymentID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// takePending removes and returns the pending request for paymentID. When the
// entry is gone the durable consumed set decides the answer: already consumed
// means duplicate, otherwise the request is unknown (rejected or expired).
func (s *BusinessPaymentServiceImpl) takePending(ctx context.Context, paymentID string) (*domain.BusinessPaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.pending[paymentID]
	if !ok {
		cp, err := s.consumedRepo.Get(ctx, paymentID)
		if err != nil {
			return nil, apperror.ErrStorage(fmt.Errorf("check consumed payments: %w", err))
		}
		if cp != nil {
			return nil, apperror.ErrDuplicatePayment()
		}
		return nil, apperror.ErrUnknownPaymentRequest()
	}
	if s.expired(req) {
		delete(s.pending, paymentID)
		return nil, apperror.ErrUnknownPaymentRequest()
	}
	delete(s.pending, paymentID)
	return req, nil
}

// restorePending puts a request back after a retryable infrastructure failure
// so the customer confirmation can be re-scanned.
func (s *BusinessPaymentServiceImpl) restorePending(req *domain.BusinessPaymentRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		s.pending = make(map[string]*domain.BusinessPaymentRequest)
	}
	s.pending[req.PaymentID] = req
}

func (s *BusinessPaymentServiceImpl) expired(req *domain.BusinessPaymentRequest) bool {
	return time.Since(req.CreatedAt) > s.ttl
}
