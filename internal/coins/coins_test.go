package coins

import (
	"errors"
	"sync"
	"testing"
)

func TestForSpins(t *testing.T) {
	p := Price{PerSpin: 10, PerBundle: 90, BundleSize: 10}
	cases := map[int]int{0: 0, -3: 0, 1: 10, 9: 90, 10: 90, 11: 100, 25: 230}
	for n, want := range cases {
		if got := p.ForSpins(n); got != want {
			t.Fatalf("ForSpins(%d) = %d, want %d", n, got, want)
		}
	}
	plain := Price{PerSpin: 10}
	if got := plain.ForSpins(10); got != 100 {
		t.Fatalf("no bundle: ForSpins(10) = %d", got)
	}
}

func TestWalletDebitCredit(t *testing.T) {
	w := NewWallet(120)
	if bal, err := w.Debit(10); err != nil || bal != 110 {
		t.Fatalf("debit: %d %v", bal, err)
	}
	if bal, err := w.Credit(50); err != nil || bal != 160 {
		t.Fatalf("credit: %d %v", bal, err)
	}
	if _, err := w.Debit(161); !errors.Is(err, ErrInsufficientCoins) {
		t.Fatalf("overdraw: %v", err)
	}
	if w.Balance() != 160 {
		t.Fatalf("failed debit changed balance to %d", w.Balance())
	}
	if _, err := w.Debit(-1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative debit: %v", err)
	}
	if _, err := w.Credit(-1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative credit: %v", err)
	}
}

func TestWalletConcurrentDebits(t *testing.T) {
	w := NewWallet(100)
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := w.Debit(10); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if ok != 10 || w.Balance() != 0 {
		t.Fatalf("ok=%d balance=%d", ok, w.Balance())
	}
}

func TestCheapestPlan(t *testing.T) {
	p := Price{PerSpin: 10, PerBundle: 85, BundleSize: 10}
	cases := []struct {
		n    int
		want Plan
	}{
		{0, Plan{}},
		{3, Plan{Spins: 3, Singles: 3, Total: 3, Cost: 30}},
		{9, Plan{Spins: 9, Bundles: 1, Total: 10, Cost: 85}},
		{10, Plan{Spins: 10, Bundles: 1, Total: 10, Cost: 85}},
		{12, Plan{Spins: 12, Bundles: 1, Singles: 2, Total: 12, Cost: 105}},
		{19, Plan{Spins: 19, Bundles: 2, Total: 20, Cost: 170}},
	}
	for _, c := range cases {
		if got := p.Cheapest(c.n); got != c.want {
			t.Errorf("Cheapest(%d) = %+v, want %+v", c.n, got, c.want)
		}
	}

	plain := Price{PerSpin: 10}
	if got := plain.Cheapest(10); got.Cost != 100 || got.Bundles != 0 {
		t.Fatalf("no bundle: %+v", got)
	}
	// equal cost keeps singles
	even := Price{PerSpin: 10, PerBundle: 90, BundleSize: 10}
	if got := even.Cheapest(9); got.Bundles != 0 || got.Cost != 90 {
		t.Fatalf("tie: %+v", got)
	}
}
