package wheel

import "context"

// Pending is the completion handle of one spin. It completes exactly once,
// with a result or with ErrSpinCanceled.
type Pending struct {
	seq  uint64
	done chan struct{}
	res  SpinResult
	err  error
}

func newPending(seq uint64) *Pending {
	return &Pending{seq: seq, done: make(chan struct{})}
}

func (p *Pending) Seq() uint64 { return p.seq }

// Done is closed when the spin resolves or is canceled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Result returns ErrSpinInFlight until Done is closed.
func (p *Pending) Result() (SpinResult, error) {
	select {
	case <-p.done:
		return p.res, p.err
	default:
		return SpinResult{}, ErrSpinInFlight
	}
}

// Wait blocks until the spin completes or ctx ends. An expired ctx does not
// cancel the spin.
func (p *Pending) Wait(ctx context.Context) (SpinResult, error) {
	select {
	case <-p.done:
		return p.res, p.err
	case <-ctx.Done():
		return SpinResult{}, ctx.Err()
	}
}

func (p *Pending) complete(res SpinResult, err error) {
	p.res, p.err = res, err
	close(p.done)
}
