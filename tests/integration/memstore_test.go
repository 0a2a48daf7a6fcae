package integration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"cashvault/internal/core/domain"
	"cashvault/internal/core/ports"

	"github.com/google/uuid"
)

// errInjected simulates a storage failure mid-transaction.
var errInjected = errors.New("injected storage failure")

// memStore is an in-memory implementation of the storage ports with
// rollback-capable transactions. It exists to drive the services through
// whole scenarios (crash simulation, atomicity, concurrency) without SQLite.
type memStore struct {
	mu       sync.Mutex
	wallets  map[uuid.UUID]domain.Wallet
	txns     []domain.Transaction
	nextSeq  int64
	consumed map[string]domain.ConsumedPayment

	// failCreateType makes the next transaction Create of this type fail.
	failCreateType domain.TransactionType
}

func newMemStore() *memStore {
	return &memStore{
		wallets:  make(map[uuid.UUID]domain.Wallet),
		consumed: make(map[string]domain.ConsumedPayment),
	}
}

// Begin implements ports.DBTransactor.
func (s *memStore) Begin(ctx context.Context) (ports.Tx, error) {
	return &memTx{store: s}, nil
}

// memTx collects undo closures; Rollback runs them in reverse order.
type memTx struct {
	store *memStore
	undo  []func()
	done  bool
}

func (t *memTx) Commit() error {
	t.done = true
	t.undo = nil
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.done = true
	return nil
}

func asMemTx(tx ports.Tx) *memTx {
	mt, ok := tx.(*memTx)
	if !ok {
		panic(fmt.Sprintf("unexpected tx type %T", tx))
	}
	return mt
}

// --- WalletRepository ---

type memWalletRepo struct{ s *memStore }

func (r *memWalletRepo) Create(ctx context.Context, wallet *domain.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.wallets[wallet.ID]; ok {
		return ports.ErrAlreadyExists
	}
	r.s.wallets[wallet.ID] = *wallet
	return nil
}

func (r *memWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := w
	return &cp, nil
}

func (r *memWalletRepo) List(ctx context.Context) ([]domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Wallet, 0, len(r.s.wallets))
	for _, w := range r.s.wallets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memWalletRepo) Update(ctx context.Context, wallet *domain.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.wallets[wallet.ID]
	if !ok {
		return errors.New("wallet not found")
	}
	updated := *wallet
	updated.Balance = existing.Balance
	updated.FrozenTotal = existing.FrozenTotal
	r.s.wallets[wallet.ID] = updated
	return nil
}

func (r *memWalletRepo) UpdateBalances(ctx context.Context, tx ports.Tx, walletID uuid.UUID, balance, frozen int64) error {
	mt := asMemTx(tx)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[walletID]
	if !ok {
		return errors.New("wallet not found")
	}
	prevBalance, prevFrozen := w.Balance, w.FrozenTotal
	mt.undo = append(mt.undo, func() {
		if cur, ok := r.s.wallets[walletID]; ok {
			cur.Balance = prevBalance
			cur.FrozenTotal = prevFrozen
			r.s.wallets[walletID] = cur
		}
	})
	w.Balance = balance
	w.FrozenTotal = frozen
	r.s.wallets[walletID] = w
	return nil
}

func (r *memWalletRepo) SetActive(ctx context.Context, tx ports.Tx, walletID uuid.UUID) error {
	mt := asMemTx(tx)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev := make(map[uuid.UUID]bool, len(r.s.wallets))
	for id, w := range r.s.wallets {
		prev[id] = w.Active
	}
	mt.undo = append(mt.undo, func() {
		for id, active := range prev {
			if w, ok := r.s.wallets[id]; ok {
				w.Active = active
				r.s.wallets[id] = w
			}
		}
	})
	for id, w := range r.s.wallets {
		w.Active = id == walletID
		r.s.wallets[id] = w
	}
	return nil
}

func (r *memWalletRepo) Delete(ctx context.Context, tx ports.Tx, walletID uuid.UUID) error {
	mt := asMemTx(tx)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.wallets[walletID]
	if !ok {
		return errors.New("wallet not found")
	}
	prevTxns := r.s.txns
	mt.undo = append(mt.undo, func() {
		r.s.wallets[walletID] = w
		r.s.txns = prevTxns
	})
	delete(r.s.wallets, walletID)
	kept := r.s.txns[:0:0]
	for _, t := range r.s.txns {
		if t.WalletID != walletID {
			kept = append(kept, t)
		}
	}
	r.s.txns = kept
	return nil
}

// --- TransactionRepository ---

type memTxnRepo struct{ s *memStore }

func (r *memTxnRepo) Create(ctx context.Context, tx ports.Tx, t *domain.Transaction) error {
	mt := asMemTx(tx)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failCreateType != "" && t.Type == r.s.failCreateType {
		return errInjected
	}
	r.s.nextSeq++
	t.Seq = r.s.nextSeq
	r.s.txns = append(r.s.txns, *t)
	mt.undo = append(mt.undo, func() {
		r.s.txns = r.s.txns[:len(r.s.txns)-1]
		r.s.nextSeq--
	})
	return nil
}

func (r *memTxnRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.txns {
		if r.s.txns[i].ID == id {
			cp := r.s.txns[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memTxnRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, filter ports.TransactionFilter) ([]domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Transaction
	for _, t := range r.s.txns {
		if t.WalletID != walletID {
			continue
		}
		if len(filter.Types) > 0 {
			match := false
			for _, kind := range filter.Types {
				if t.Type == kind {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if filter.Method != nil && t.Method != *filter.Method {
			continue
		}
		if filter.From != nil && t.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !t.CreatedAt.Before(*filter.To) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.Ascending {
			return out[i].Seq < out[j].Seq
		}
		return out[i].Seq > out[j].Seq
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memTxnRepo) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Transaction, len(r.s.txns))
	copy(out, r.s.txns)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *memTxnRepo) SumsByWallet(ctx context.Context, walletID uuid.UUID) (int64, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var balance, frozen int64
	for _, t := range r.s.txns {
		if t.WalletID != walletID {
			continue
		}
		balance += t.Type.BalanceDelta(t.Amount)
		frozen += t.Type.FrozenDelta(t.Amount)
	}
	return balance, frozen, nil
}

func (r *memTxnRepo) UpdateInvoiceImage(ctx context.Context, id uuid.UUID, image *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.txns {
		if r.s.txns[i].ID == id {
			r.s.txns[i].InvoiceImage = image
			return nil
		}
	}
	return errors.New("transaction not found")
}

// --- ConsumedPaymentRepository ---

type memConsumedRepo struct{ s *memStore }

func (r *memConsumedRepo) Create(ctx context.Context, tx ports.Tx, cp *domain.ConsumedPayment) error {
	mt := asMemTx(tx)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.consumed[cp.PaymentID]; ok {
		return ports.ErrAlreadyExists
	}
	r.s.consumed[cp.PaymentID] = *cp
	id := cp.PaymentID
	mt.undo = append(mt.undo, func() { delete(r.s.consumed, id) })
	return nil
}

func (r *memConsumedRepo) Get(ctx context.Context, paymentID string) (*domain.ConsumedPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp, ok := r.s.consumed[paymentID]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}
