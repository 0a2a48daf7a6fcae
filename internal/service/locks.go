package service

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// WalletLocks serializes balance mutations per wallet. Every operation that
// mutates a wallet's balance takes its lock, re-reads the latest derived
// state, validates, and only then appends.
type WalletLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewWalletLocks creates an empty lock table.
func NewWalletLocks() *WalletLocks {
	return &WalletLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *WalletLocks) get(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// Lock acquires the wallet's mutex and returns its unlock function.
func (l *WalletLocks) Lock(id uuid.UUID) func() {
	m := l.get(id)
	m.Lock()
	return m.Unlock
}

// LockPair acquires both wallets' mutexes in lexicographic ID order so that
// concurrent transfers between the same pair cannot deadlock.
func (l *WalletLocks) LockPair(a, b uuid.UUID) func() {
	if a == b {
		return l.Lock(a)
	}
	first, second := a, b
	if strings.Compare(a.String(), b.String()) > 0 {
		first, second = b, a
	}
	fm, sm := l.get(first), l.get(second)
	fm.Lock()
	sm.Lock()
	return func() {
		sm.Unlock()
		fm.Unlock()
	}
}
