package reward

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xtding233/reward-wheel/internal/catalog"
	"github.com/xtding233/reward-wheel/internal/coins"
	"github.com/xtding233/reward-wheel/internal/events"
	"github.com/xtding233/reward-wheel/internal/wheel"
)

var ErrInvalidRequest = errors.New("invalid request")

// MaxSimTrials bounds a single simulation request.
const MaxSimTrials = 1_000_000

// Catalog is the wheel definition source.
type Catalog interface {
	catalog.Resolver
	List() ([]string, error)
}

// Service owns one wallet and a spinner per wheel name.
type Service struct {
	catalog     Catalog
	wallet      *coins.Wallet
	publisher   events.Publisher
	log         *zap.Logger
	spinnerOpts []wheel.Option
	newID       func() string

	mu     sync.Mutex
	wheels map[string]*entry
}

type entry struct {
	res     catalog.Resolved
	spinner *wheel.Spinner
	stale   bool
	charge  charge
}

// charge records what a spin cost so a cancel can refund it.
type charge struct {
	seq   uint64
	coins int
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSpinnerOptions passes extra options to every spinner the service builds.
func WithSpinnerOptions(opts ...wheel.Option) Option {
	return func(s *Service) { s.spinnerOpts = append(s.spinnerOpts, opts...) }
}

func New(cat Catalog, wallet *coins.Wallet, opts ...Option) *Service {
	s := &Service{
		catalog:   cat,
		wallet:    wallet,
		publisher: events.Nop{},
		log:       zap.NewNop(),
		newID:     uuid.NewString,
		wheels:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// entryLocked returns the live entry for name, building or rebuilding it when
// needed. A stale wheel is only rebuilt while it is not spinning.
func (s *Service) entryLocked(name string) (*entry, error) {
	e, ok := s.wheels[name]
	if ok && !(e.stale && e.spinner.Phase() != wheel.Spinning) {
		return e, nil
	}

	res, err := s.catalog.Resolve(name, catalog.Overrides{})
	if err != nil {
		if ok && !errors.Is(err, catalog.ErrWheelNotFound) {
			s.log.Warn("reload failed, keeping previous wheel", zap.String("wheel", name), zap.Error(err))
			e.stale = false
			return e, nil
		}
		delete(s.wheels, name)
		return nil, err
	}

	opts := append([]wheel.Option(nil), s.spinnerOpts...)
	opts = append(opts, wheel.OnResolve(s.resolved(name)))
	if ok {
		// continue from where the old wheel stopped
		st := e.spinner.State()
		opts = append(opts,
			wheel.WithRotation(st.Rotation),
			wheel.WithSeq(st.Seq),
			wheel.WithBlankStreak(st.BlankStreak),
		)
	}
	sp, err := wheel.New(res.Wheel, opts...)
	if err != nil {
		if ok {
			s.log.Warn("reload rejected, keeping previous wheel", zap.String("wheel", name), zap.Error(err))
			e.stale = false
			return e, nil
		}
		return nil, fmt.Errorf("wheel %s: %w", name, err)
	}

	ne := &entry{res: res, spinner: sp}
	s.wheels[name] = ne
	if ok {
		// ends the old spinner's frame streams so watchers re-subscribe
		e.spinner.Close()
		s.log.Info("wheel reloaded", zap.String("wheel", name), zap.String("version", res.Version))
	}
	return ne, nil
}

// resolved credits the prize and publishes the spin event.
func (s *Service) resolved(name string) func(wheel.SpinResult) {
	return func(r wheel.SpinResult) {
		balance, err := s.wallet.Credit(r.Outcome.Coins)
		if err != nil {
			s.log.Error("credit prize", zap.String("wheel", name), zap.Error(err))
			balance = s.wallet.Balance()
		}

		ev := events.SpinResolved{
			ID:            s.newID(),
			Wheel:         name,
			Seq:           r.Seq,
			OutcomeID:     r.Outcome.ID,
			Label:         r.Outcome.Label,
			Index:         r.Index,
			FinalRotation: r.FinalRotation,
			Coins:         r.Outcome.Coins,
			Balance:       balance,
			ResolvedAt:    r.ResolvedAt,
		}
		if err := s.publisher.PublishSpinResolved(context.Background(), ev); err != nil {
			s.log.Warn("publish spin event", zap.String("wheel", name), zap.String("id", ev.ID), zap.Error(err))
		}

		s.log.Info("spin resolved",
			zap.String("wheel", name),
			zap.Uint64("seq", r.Seq),
			zap.String("outcome", r.Outcome.ID),
			zap.Float64("final_rotation", r.FinalRotation),
			zap.Int("coins", r.Outcome.Coins),
			zap.Int("balance", balance))
	}
}

// Ticket describes the outcome of a Spin request.
type Ticket struct {
	Wheel   string
	Pending *wheel.Pending
	Started bool // false when the request joined a spin already in flight
	Charged int
	Balance int
	Target  float64
}

// Spin charges the wheel's price and starts a spin. While the wheel is
// spinning it returns the in-flight spin without charging.
func (s *Service) Spin(name string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.entryLocked(name)
	if err != nil {
		return Ticket{}, err
	}
	if p := e.spinner.Pending(); p != nil {
		target, _ := e.spinner.Target()
		return Ticket{Wheel: name, Pending: p, Balance: s.wallet.Balance(), Target: target}, nil
	}

	cost := e.res.Price.ForSpins(1)
	balance, err := s.wallet.Debit(cost)
	if err != nil {
		return Ticket{}, err
	}
	p, started := e.spinner.Spin()
	if !started {
		balance, _ = s.wallet.Credit(cost)
		cost = 0
	}
	e.charge = charge{seq: p.Seq(), coins: cost}
	target, _ := e.spinner.Target()

	s.log.Debug("spin started",
		zap.String("wheel", name),
		zap.Uint64("seq", p.Seq()),
		zap.Int("charged", cost),
		zap.Float64("target", target))
	return Ticket{Wheel: name, Pending: p, Started: started, Charged: cost, Balance: balance, Target: target}, nil
}

// Cancel stops an in-flight spin and refunds its price.
func (s *Service) Cancel(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.entryLocked(name)
	if err != nil {
		return false, err
	}
	return s.cancelLocked(name, e), nil
}

func (s *Service) cancelLocked(name string, e *entry) bool {
	// no spin can start while s.mu is held, so a successful Cancel stopped p
	p := e.spinner.Pending()
	if p == nil || !e.spinner.Cancel() {
		return false
	}
	refund := 0
	if e.charge.seq == p.Seq() {
		refund = e.charge.coins
		e.charge = charge{}
	}
	if refund > 0 {
		if _, err := s.wallet.Credit(refund); err != nil {
			s.log.Error("refund canceled spin", zap.String("wheel", name), zap.Error(err))
		}
	}
	s.log.Info("spin canceled", zap.String("wheel", name), zap.Uint64("seq", p.Seq()), zap.Int("refunded", refund))
	return true
}

// Reset returns the wheel to idle, canceling (and refunding) any spin in flight.
func (s *Service) Reset(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.entryLocked(name)
	if err != nil {
		return err
	}
	s.cancelLocked(name, e)
	e.spinner.Reset()
	return nil
}

// Shutdown cancels every in-flight spin, refunding it, and waits for the
// spinners' drivers to return.
func (s *Service) Shutdown() {
	s.mu.Lock()
	spinners := make([]*wheel.Spinner, 0, len(s.wheels))
	for name, e := range s.wheels {
		s.cancelLocked(name, e)
		spinners = append(spinners, e.spinner)
	}
	s.mu.Unlock()

	// Close waits for resolve hooks, which may block on the publisher
	for _, sp := range spinners {
		sp.Close()
	}
}

// Invalidate marks every wheel stale; each is rebuilt from the catalog the
// next time it is used while idle or resolved.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.wheels {
		e.stale = true
	}
}

func (s *Service) Balance() int { return s.wallet.Balance() }

func (s *Service) List() ([]string, error) { return s.catalog.List() }

// StateView is a wheel's spinner state plus the wallet balance.
type StateView struct {
	Wheel   string `json:"wheel"`
	Version string `json:"version,omitempty"`
	wheel.State
	Balance int `json:"balance"`
}

func (s *Service) State(name string) (StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.entryLocked(name)
	if err != nil {
		return StateView{}, err
	}
	return StateView{
		Wheel:   name,
		Version: e.res.Version,
		State:   e.spinner.State(),
		Balance: s.wallet.Balance(),
	}, nil
}

// Watch subscribes to a wheel's animation frames.
func (s *Service) Watch(name string, buffer int) (<-chan wheel.Frame, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.entryLocked(name)
	if err != nil {
		return nil, nil, err
	}
	ch, stop := e.spinner.Watch(buffer)
	return ch, stop, nil
}
