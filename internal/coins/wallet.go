package coins

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrInvalidAmount     = errors.New("invalid coin amount")
)

// Wallet is an in-memory coin balance.
type Wallet struct {
	mu      sync.Mutex
	balance int
}

func NewWallet(balance int) *Wallet {
	if balance < 0 {
		balance = 0
	}
	return &Wallet{balance: balance}
}

func (w *Wallet) Balance() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}

// Debit removes n coins and returns the new balance. A zero debit is free.
func (w *Wallet) Debit(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: debit %d", ErrInvalidAmount, n)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if n > w.balance {
		return w.balance, fmt.Errorf("%w: need %d, have %d", ErrInsufficientCoins, n, w.balance)
	}
	w.balance -= n
	return w.balance, nil
}

// Credit adds n coins and returns the new balance.
func (w *Wallet) Credit(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: credit %d", ErrInvalidAmount, n)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance += n
	return w.balance, nil
}
