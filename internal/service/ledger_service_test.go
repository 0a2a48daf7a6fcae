package service

import (
	"context"
	"errors"
	"testing"

	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"
	"cashvault/internal/core/ports/mocks"
	"cashvault/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// stubTx records commit/rollback for atomicity assertions.
type stubTx struct {
	committed  bool
	rolledBack bool
}

func (t *stubTx) Commit() error   { t.committed = true; return nil }
func (t *stubTx) Rollback() error { t.rolledBack = true; return nil }

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

type ledgerTestDeps struct {
	svc        *LedgerServiceImpl
	walletRepo *mocks.MockWalletRepository
	txRepo     *mocks.MockTransactionRepository
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
}

func setupLedgerService(t *testing.T) *ledgerTestDeps {
	ctrl := gomock.NewController(t)
	d := &ledgerTestDeps{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewLedgerService(d.walletRepo, d.txRepo, d.transactor, NewWalletLocks(), zerolog.Nop())
	return d
}

func testWallet(balance, frozen int64) *domain.Wallet {
	return &domain.Wallet{
		ID:          uuid.New(),
		Name:        "Cash",
		Currency:    "DZD",
		Type:        domain.WalletTypePersonal,
		Balance:     balance,
		FrozenTotal: frozen,
	}
}

// ==================== Append Tests ====================

func TestLedgerService_Append_Receive(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(10000, 0)
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, wallet.ID, int64(15000), int64(0)).Return(nil)

	txn, err := d.svc.Append(ctx, wallet.ID, ports.DraftTransaction{
		Type:   domain.TransactionTypeReceive,
		Amount: 5000,
		Sender: "Employer",
	})
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.True(t, tx.committed)
	assert.Equal(t, int64(10000), txn.BalanceBefore)
	assert.Equal(t, int64(15000), txn.BalanceAfter)
	assert.Equal(t, domain.MethodManual, txn.Method)
	assert.NotEqual(t, uuid.Nil, txn.ID)
}

func TestLedgerService_Append_SendInsufficientFunds(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	// 3000 available: balance 5000 with 2000 frozen.
	wallet := testWallet(5000, 2000)
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)

	_, err := d.svc.Append(ctx, wallet.ID, ports.DraftTransaction{
		Type:   domain.TransactionTypeSend,
		Amount: 3001,
	})
	assertAppError(t, err, "LED_001")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestLedgerService_Append_SendExactAvailable(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(5000, 2000)
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, wallet.ID, int64(2000), int64(2000)).Return(nil)

	txn, err := d.svc.Append(ctx, wallet.ID, ports.DraftTransaction{
		Type:   domain.TransactionTypeSend,
		Amount: 3000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), txn.BalanceAfter)
}

func TestLedgerService_Append_FreezeIsBalanceNeutral(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(10000, 0)
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	// Balance unchanged, frozen raised.
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, wallet.ID, int64(10000), int64(4000)).Return(nil)

	txn, err := d.svc.Append(ctx, wallet.ID, ports.DraftTransaction{
		Type:   domain.TransactionTypeFreeze,
		Amount: 4000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), txn.BalanceBefore)
	assert.Equal(t, int64(10000), txn.BalanceAfter)
}

func TestLedgerService_Append_FreezeCappedByAvailable(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(10000, 8000)
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)

	_, err := d.svc.Append(ctx, wallet.ID, ports.DraftTransaction{
		Type:   domain.TransactionTypeFreeze,
		Amount: 2001,
	})
	assertAppError(t, err, "LED_001")
}

func TestLedgerService_Append_UnfreezeInsufficientFrozen(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(10000, 1000)
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)

	_, err := d.svc.Append(ctx, wallet.ID, ports.DraftTransaction{
		Type:   domain.TransactionTypeUnfreeze,
		Amount: 1500,
	})
	assertAppError(t, err, "LED_002")
}

func TestLedgerService_Append_FreezeSpendDebitsBoth(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(10000, 4000)
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, wallet.ID, int64(7000), int64(1000)).Return(nil)

	txn, err := d.svc.Append(ctx, wallet.ID, ports.DraftTransaction{
		Type:   domain.TransactionTypeFreezeSpend,
		Amount: 3000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7000), txn.BalanceAfter)
}

func TestLedgerService_Append_WalletNotFound(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()

	d.walletRepo.EXPECT().GetByID(ctx, walletID).Return(nil, nil)

	_, err := d.svc.Append(ctx, walletID, ports.DraftTransaction{
		Type:   domain.TransactionTypeReceive,
		Amount: 100,
	})
	assertAppError(t, err, "WAL_001")
}

func TestLedgerService_Append_InvalidDraft(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	_, err := d.svc.Append(ctx, uuid.New(), ports.DraftTransaction{
		Type:   domain.TransactionTypeReceive,
		Amount: 0,
	})
	assertAppError(t, err, "VAL_001")

	_, err = d.svc.Append(ctx, uuid.New(), ports.DraftTransaction{
		Type:   "teleport",
		Amount: 100,
	})
	assertAppError(t, err, "VAL_001")
}

func TestLedgerService_Append_StorageFailureRollsBack(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(10000, 0)
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(errors.New("disk full"))

	_, err := d.svc.Append(ctx, wallet.ID, ports.DraftTransaction{
		Type:   domain.TransactionTypeReceive,
		Amount: 100,
	})
	assertAppError(t, err, "SYS_001")
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

// ==================== CanDebit Tests ====================

func TestLedgerService_CanDebit(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(5000, 2000)

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil).AnyTimes()

	ok, err := d.svc.CanDebit(ctx, wallet.ID, 3000, domain.TransactionTypeSend)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.svc.CanDebit(ctx, wallet.ID, 3001, domain.TransactionTypeSend)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = d.svc.CanDebit(ctx, wallet.ID, 2000, domain.TransactionTypeFreezeSpend)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.svc.CanDebit(ctx, wallet.ID, 0, domain.TransactionTypeSend)
	require.NoError(t, err)
	assert.False(t, ok)
}

// ==================== Reconcile Tests ====================

func TestLedgerService_Reconcile_NoDrift(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(5000, 2000)

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.txRepo.EXPECT().SumsByWallet(ctx, wallet.ID).Return(int64(5000), int64(2000), nil)

	result, err := d.svc.Reconcile(ctx, wallet.ID)
	require.NoError(t, err)
	assert.False(t, result.Drifted)
	assert.Equal(t, int64(5000), result.Balance)
}

func TestLedgerService_Reconcile_RepairsDrift(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(9999, 2000)
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.txRepo.EXPECT().SumsByWallet(ctx, wallet.ID).Return(int64(5000), int64(2000), nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, wallet.ID, int64(5000), int64(2000)).Return(nil)

	result, err := d.svc.Reconcile(ctx, wallet.ID)
	require.NoError(t, err)
	assert.True(t, result.Drifted)
	assert.Equal(t, int64(5000), result.Balance)
	assert.True(t, tx.committed)
}

// ==================== Invoice Image Tests ====================

func TestLedgerService_AttachInvoiceImage(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txnID := uuid.New()
	image := "invoices/2026-08-27.jpg"

	d.txRepo.EXPECT().GetByID(ctx, txnID).Return(&domain.Transaction{ID: txnID}, nil)
	d.txRepo.EXPECT().UpdateInvoiceImage(ctx, txnID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, img *string) error {
			require.NotNil(t, img)
			assert.Equal(t, image, *img)
			return nil
		})

	err := d.svc.AttachInvoiceImage(ctx, txnID, image)
	require.NoError(t, err)
}

func TestLedgerService_AttachInvoiceImage_TransactionNotFound(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txnID := uuid.New()

	d.txRepo.EXPECT().GetByID(ctx, txnID).Return(nil, nil)

	err := d.svc.AttachInvoiceImage(ctx, txnID, "x.jpg")
	assertAppError(t, err, "LED_003")
}

func TestLedgerService_RemoveInvoiceImage(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txnID := uuid.New()

	d.txRepo.EXPECT().GetByID(ctx, txnID).Return(&domain.Transaction{ID: txnID}, nil)
	d.txRepo.EXPECT().UpdateInvoiceImage(ctx, txnID, nil).Return(nil)

	err := d.svc.RemoveInvoiceImage(ctx, txnID)
	require.NoError(t, err)
}
