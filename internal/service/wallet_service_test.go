package service

import (
	"context"
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

type walletTestDeps struct {
	svc        *WalletServiceImpl
	walletRepo *mocks.MockWalletRepository
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
}

func setupWalletService(t *testing.T) *walletTestDeps {
	ctrl := gomock.NewController(t)
	d := &walletTestDeps{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewWalletService(d.walletRepo, d.transactor, zerolog.Nop())
	return d
}

func TestWalletService_Create_FirstWalletBecomesActive(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.walletRepo.EXPECT().List(ctx).Return(nil, nil)
	d.walletRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	wallet, err := d.svc.Create(ctx, ports.CreateWalletRequest{
		Name:     "Cash",
		Currency: "DZD",
		Type:     domain.WalletTypePersonal,
	})
	require.NoError(t, err)
	assert.True(t, wallet.Active)
	assert.Equal(t, int64(0), wallet.Balance)
	assert.Equal(t, int64(0), wallet.FrozenTotal)
}

func TestWalletService_Create_SecondWalletNotActive(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.walletRepo.EXPECT().List(ctx).Return([]domain.Wallet{{ID: uuid.New(), Active: true}}, nil)
	d.walletRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	wallet, err := d.svc.Create(ctx, ports.CreateWalletRequest{
		Name:     "Savings",
		Currency: "EUR",
		Type:     domain.WalletTypePersonal,
	})
	require.NoError(t, err)
	assert.False(t, wallet.Active)
}

func TestWalletService_Create_Validation(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	badRate := -0.5

	cases := []ports.CreateWalletRequest{
		{Name: "", Currency: "DZD", Type: domain.WalletTypePersonal},
		{Name: "Cash", Currency: "", Type: domain.WalletTypePersonal},
		{Name: "Cash", Currency: "DZD", Type: "corporate"},
		{Name: "Cash", Currency: "DZD", Type: domain.WalletTypePersonal, ExchangeRateToReference: &badRate},
	}
	for _, req := range cases {
		_, err := d.svc.Create(ctx, req)
		assertAppError(t, err, "VAL_001")
	}
}

func TestWalletService_Update_PartialEdits(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(1000, 0)
	wallet.Theme = "green"

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.walletRepo.EXPECT().Update(ctx, wallet).Return(nil)

	name := "Daily spending"
	updated, err := d.svc.Update(ctx, wallet.ID, ports.UpdateWalletRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Daily spending", updated.Name)
	// Unspecified fields untouched.
	assert.Equal(t, "green", updated.Theme)
}

func TestWalletService_Delete_LastWalletRefused(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(0, 0)

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.walletRepo.EXPECT().List(ctx).Return([]domain.Wallet{*wallet}, nil)

	err := d.svc.Delete(ctx, wallet.ID)
	assertAppError(t, err, "WAL_002")
}

func TestWalletService_Delete_ActiveReassignsOldestSurvivor(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	active := testWallet(0, 0)
	active.Active = true
	older := *testWallet(0, 0)
	older.CreatedAt = time.Now().Add(-48 * time.Hour)
	newer := *testWallet(0, 0)
	newer.CreatedAt = time.Now().Add(-1 * time.Hour)
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, active.ID).Return(active, nil)
	d.walletRepo.EXPECT().List(ctx).Return([]domain.Wallet{*active, newer, older}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().Delete(ctx, tx, active.ID).Return(nil)
	d.walletRepo.EXPECT().SetActive(ctx, tx, older.ID).Return(nil)

	require.NoError(t, d.svc.Delete(ctx, active.ID))
	assert.True(t, tx.committed)
}

func TestWalletService_Delete_InactiveNoReassignment(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	wallet := testWallet(0, 0)
	other := *testWallet(0, 0)
	other.Active = true
	tx := &stubTx{}

	d.walletRepo.EXPECT().GetByID(ctx, wallet.ID).Return(wallet, nil)
	d.walletRepo.EXPECT().List(ctx).Return([]domain.Wallet{*wallet, other}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().Delete(ctx, tx, wallet.ID).Return(nil)

	require.NoError(t, d.svc.Delete(ctx, wallet.ID))
}

func TestWalletService_Get_NotFound(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()

	d.walletRepo.EXPECT().GetByID(ctx, walletID).Return(nil, nil)

	_, err := d.svc.Get(ctx, walletID)
	assertAppError(t, err, "WAL_001")
}
