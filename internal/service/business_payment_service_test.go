package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"
	"cashvault/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type bpTestDeps struct {
	svc          *BusinessPaymentServiceImpl
	walletRepo   *mocks.MockWalletRepository
	txRepo       *mocks.MockTransactionRepository
	consumedRepo *mocks.MockConsumedPaymentRepository
	transactor   *mocks.MockDBTransactor
	ctrl         *gomock.Controller
}

func setupBusinessPaymentService(t *testing.T) *bpTestDeps {
	ctrl := gomock.NewController(t)
	d := &bpTestDeps{
		walletRepo:   mocks.NewMockWalletRepository(ctrl),
		txRepo:       mocks.NewMockTransactionRepository(ctrl),
		consumedRepo: mocks.NewMockConsumedPaymentRepository(ctrl),
		transactor:   mocks.NewMockDBTransactor(ctrl),
		ctrl:         ctrl,
	}
	locks := NewWalletLocks()
	ledger := NewLedgerService(d.walletRepo, d.txRepo, d.transactor, locks, zerolog.Nop())
	d.svc = NewBusinessPaymentService(
		d.walletRepo, d.consumedRepo, d.transactor, ledger, locks, time.Minute, zerolog.Nop(),
	)
	return d
}

func merchantWallet() *domain.Wallet {
	return &domain.Wallet{
		ID:       uuid.New(),
		Name:     "Corner Bakery",
		Currency: "DZD",
		Type:     domain.WalletTypeBusiness,
	}
}

// ==================== BuildRequest Tests ====================

func TestBusinessPayment_BuildRequest_WireFormat(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchant := merchantWallet()

	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)

	req, payload, err := d.svc.BuildRequest(ctx, merchant.ID, 2500)
	require.NoError(t, err)
	assert.True(t, len(req.PaymentID) > 3 && req.PaymentID[:3] == "BP-")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, merchant.ID.String(), decoded["merchantWalletId"])
	assert.Equal(t, "Corner Bakery", decoded["merchantName"])
	assert.Equal(t, float64(2500), decoded["amount"])
	assert.Equal(t, "DZD", decoded["currency"])
	assert.Equal(t, req.PaymentID, decoded["paymentId"])
	// CreatedAt is local bookkeeping, never on the wire.
	assert.NotContains(t, decoded, "CreatedAt")
	assert.Len(t, decoded, 5)
}

func TestBusinessPayment_BuildRequest_InvalidAmount(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	_, _, err := d.svc.BuildRequest(context.Background(), uuid.New(), 0)
	assertAppError(t, err, "VAL_001")
}

func TestBusinessPayment_BuildRequest_WalletNotFound(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	d.walletRepo.EXPECT().GetByID(ctx, walletID).Return(nil, nil)

	_, _, err := d.svc.BuildRequest(ctx, walletID, 100)
	assertAppError(t, err, "WAL_001")
}

// ==================== ParseConfirm Tests ====================

func TestBusinessPayment_ParseConfirm(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	payerID := uuid.New()
	confirm, err := d.svc.ParseConfirm(`{"paymentId":"BP-abc","payerName":"Sami","payerWalletId":"` + payerID.String() + `"}`)
	require.NoError(t, err)
	assert.Equal(t, "BP-abc", confirm.PaymentID)
	assert.Equal(t, "Sami", confirm.PayerName)
	require.NotNil(t, confirm.PayerWalletID)
	assert.Equal(t, payerID, *confirm.PayerWalletID)
}

func TestBusinessPayment_ParseConfirm_Malformed(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	for _, raw := range []string{
		"",
		"not json",
		`{"payerName":"Sami"}`,            // missing paymentId
		`{"paymentId":"BP-x","extra":1}`,  // unknown field
		`{"paymentId":""}`,                // empty paymentId
	} {
		_, err := d.svc.ParseConfirm(raw)
		assertAppError(t, err, "QRP_001")
	}
}

// ==================== CompleteAsMerchant Tests ====================

func TestBusinessPayment_Complete_ExternalPayer(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchant := merchantWallet()
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	req, _, err := d.svc.BuildRequest(ctx, merchant.ID, 2500)
	require.NoError(t, err)

	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, merchant.ID, int64(2500), int64(0)).Return(nil)
	d.consumedRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	completion, err := d.svc.CompleteAsMerchant(ctx, &domain.BusinessPaymentConfirm{
		PaymentID: req.PaymentID,
		PayerName: "Walk-in customer",
	})
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.Nil(t, completion.SendTx)
	require.NotNil(t, completion.ReceiveTx)
	assert.Equal(t, domain.TransactionTypeBusinessPaymentReceive, completion.ReceiveTx.Type)
	assert.Equal(t, domain.MethodQR, completion.ReceiveTx.Method)
	assert.Equal(t, "Walk-in customer", completion.ReceiveTx.Sender)
}

func TestBusinessPayment_Complete_LocalPayer(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchant := merchantWallet()
	payer := testWallet(10000, 0)
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	req, _, err := d.svc.BuildRequest(ctx, merchant.ID, 2500)
	require.NoError(t, err)

	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	d.walletRepo.EXPECT().GetByID(ctx, payer.ID).Return(payer, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil).Times(2)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, payer.ID, int64(7500), int64(0)).Return(nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, merchant.ID, int64(2500), int64(0)).Return(nil)
	d.consumedRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	completion, err := d.svc.CompleteAsMerchant(ctx, &domain.BusinessPaymentConfirm{
		PaymentID:     req.PaymentID,
		PayerWalletID: &payer.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, completion.SendTx)
	assert.Equal(t, domain.TransactionTypeBusinessPaymentSend, completion.SendTx.Type)
	assert.Equal(t, "Corner Bakery", completion.SendTx.Receiver)
	assert.Equal(t, payer.Name, completion.ReceiveTx.Sender)
}

func TestBusinessPayment_Complete_UnknownRequest(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	d.consumedRepo.EXPECT().Get(gomock.Any(), "BP-ghost").Return(nil, nil)

	_, err := d.svc.CompleteAsMerchant(context.Background(), &domain.BusinessPaymentConfirm{
		PaymentID: "BP-ghost",
	})
	assertAppError(t, err, "QRP_003")
}

func TestBusinessPayment_Complete_DuplicateAfterConsumption(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	// Already in the durable consumed set: a replayed confirmation after the
	// pending entry is gone.
	d.consumedRepo.EXPECT().Get(gomock.Any(), "BP-used").Return(&domain.ConsumedPayment{
		PaymentID: "BP-used",
	}, nil)

	_, err := d.svc.CompleteAsMerchant(context.Background(), &domain.BusinessPaymentConfirm{
		PaymentID: "BP-used",
	})
	assertAppError(t, err, "QRP_002")
}

func TestBusinessPayment_Complete_PayerCurrencyMismatch(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchant := merchantWallet()
	payer := testWallet(10000, 0)
	payer.Currency = "EUR"

	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	req, _, err := d.svc.BuildRequest(ctx, merchant.ID, 2500)
	require.NoError(t, err)

	// The payer wallet holds a different currency than the request; no
	// transaction may even begin.
	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	d.walletRepo.EXPECT().GetByID(ctx, payer.ID).Return(payer, nil)

	_, err = d.svc.CompleteAsMerchant(ctx, &domain.BusinessPaymentConfirm{
		PaymentID:     req.PaymentID,
		PayerWalletID: &payer.ID,
	})
	assertAppError(t, err, "VAL_001")

	// The request stays pending for a corrected retry.
	require.NoError(t, d.svc.Reject(req.PaymentID))
}

func TestBusinessPayment_Complete_ConsumedLookupFailure(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	type traceKey struct{}
	ctx := context.WithValue(context.Background(), traceKey{}, "t1")

	// A storage failure while checking the consumed set must surface as a
	// storage error, not as an unknown request. The lookup sees the caller's
	// context.
	d.consumedRepo.EXPECT().Get(ctx, "BP-lost").Return(nil, errors.New("disk I/O error"))

	_, err := d.svc.CompleteAsMerchant(ctx, &domain.BusinessPaymentConfirm{
		PaymentID: "BP-lost",
	})
	assertAppError(t, err, "SYS_001")
}

func TestBusinessPayment_Complete_ConcurrentLoserSeesDuplicate(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchant := merchantWallet()
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	req, _, err := d.svc.BuildRequest(ctx, merchant.ID, 2500)
	require.NoError(t, err)

	// The winner pauses mid-completion while a second confirmation arrives.
	winnerEntered := make(chan struct{})
	winnerProceed := make(chan struct{})
	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).DoAndReturn(
		func(context.Context, uuid.UUID) (*domain.Wallet, error) {
			close(winnerEntered)
			<-winnerProceed
			return merchant, nil
		})
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, merchant.ID, int64(2500), int64(0)).Return(nil)
	d.consumedRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	// The loser is held back until the winner committed, so it reads the
	// durable consumed row instead of missing the pending entry.
	d.consumedRepo.EXPECT().Get(ctx, req.PaymentID).Return(&domain.ConsumedPayment{
		PaymentID: req.PaymentID,
	}, nil)

	confirm := &domain.BusinessPaymentConfirm{PaymentID: req.PaymentID, PayerName: "Walk-in"}

	var wg sync.WaitGroup
	var winnerErr, loserErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, winnerErr = d.svc.CompleteAsMerchant(ctx, confirm)
	}()
	<-winnerEntered

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, loserErr = d.svc.CompleteAsMerchant(ctx, confirm)
	}()
	close(winnerProceed)
	wg.Wait()

	require.NoError(t, winnerErr)
	assertAppError(t, loserErr, "QRP_002")
	assert.True(t, tx.committed)
}

func TestBusinessPayment_Complete_DuplicateRace(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchant := merchantWallet()
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	req, _, err := d.svc.BuildRequest(ctx, merchant.ID, 2500)
	require.NoError(t, err)

	// The consumed-set insert hits the uniqueness constraint: another
	// completion won the race. Nothing may commit.
	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, merchant.ID, int64(2500), int64(0)).Return(nil)
	d.consumedRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(ports.ErrAlreadyExists)

	_, err = d.svc.CompleteAsMerchant(ctx, &domain.BusinessPaymentConfirm{
		PaymentID: req.PaymentID,
	})
	assertAppError(t, err, "QRP_002")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestBusinessPayment_Complete_PayerInsufficientFunds(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchant := merchantWallet()
	payer := testWallet(100, 0)
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	req, _, err := d.svc.BuildRequest(ctx, merchant.ID, 2500)
	require.NoError(t, err)

	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	d.walletRepo.EXPECT().GetByID(ctx, payer.ID).Return(payer, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)

	_, err = d.svc.CompleteAsMerchant(ctx, &domain.BusinessPaymentConfirm{
		PaymentID:     req.PaymentID,
		PayerWalletID: &payer.ID,
	})
	assertAppError(t, err, "LED_001")
	assert.False(t, tx.committed)
}

func TestBusinessPayment_Complete_ExpiredRequest(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchant := merchantWallet()

	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	req, _, err := d.svc.BuildRequest(ctx, merchant.ID, 2500)
	require.NoError(t, err)

	// Age the pending entry past the TTL.
	d.svc.mu.Lock()
	d.svc.pending[req.PaymentID].CreatedAt = time.Now().Add(-2 * time.Minute)
	d.svc.mu.Unlock()

	_, err = d.svc.CompleteAsMerchant(ctx, &domain.BusinessPaymentConfirm{
		PaymentID: req.PaymentID,
	})
	assertAppError(t, err, "QRP_003")
}

// ==================== Reject Tests ====================

func TestBusinessPayment_Reject(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchant := merchantWallet()

	d.walletRepo.EXPECT().GetByID(ctx, merchant.ID).Return(merchant, nil)
	req, _, err := d.svc.BuildRequest(ctx, merchant.ID, 2500)
	require.NoError(t, err)

	require.NoError(t, d.svc.Reject(req.PaymentID))

	// A confirmation after rejection is an unknown request.
	d.consumedRepo.EXPECT().Get(gomock.Any(), req.PaymentID).Return(nil, nil)
	_, err = d.svc.CompleteAsMerchant(ctx, &domain.BusinessPaymentConfirm{
		PaymentID: req.PaymentID,
	})
	assertAppError(t, err, "QRP_003")
}

func TestBusinessPayment_Reject_Unknown(t *testing.T) {
	d := setupBusinessPaymentService(t)
	defer d.ctrl.Finish()

	err := d.svc.Reject("BP-never-built")
	assertAppError(t, err, "QRP_003")
}
