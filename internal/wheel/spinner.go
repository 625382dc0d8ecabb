package wheel

import (
	"sync"
	"time"
)

// Option configures a Spinner.
type Option func(*Spinner)

// WithRandomSource replaces the crypto-backed default source.
func WithRandomSource(rng RandomSource) Option {
	return func(s *Spinner) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithRotation sets the initial absolute rotation in degrees.
func WithRotation(deg float64) Option {
	return func(s *Spinner) { s.rotation = deg }
}

// WithSeq continues spin numbering after n, so the next spin is n+1.
func WithSeq(n uint64) Option {
	return func(s *Spinner) { s.seq = n }
}

// WithBlankStreak starts the guarantee counter at n consecutive blanks.
func WithBlankStreak(n int) Option {
	return func(s *Spinner) {
		if n > 0 {
			s.streak.blanks = n
		}
	}
}

// OnResolve registers fn to be called once for every completed spin, after the
// spinner has moved to Resolved. Canceled spins do not call it.
func OnResolve(fn func(SpinResult)) Option {
	return func(s *Spinner) {
		if fn != nil {
			s.hooks = append(s.hooks, fn)
		}
	}
}

// Spinner animates a Wheel and resolves one outcome per spin. At most one spin
// is in flight; Spin while spinning is a no-op.
type Spinner struct {
	w     *Wheel
	rng   RandomSource
	hooks []func(SpinResult)

	mu       sync.Mutex
	phase    Phase
	rotation float64
	last     *SpinResult
	seq      uint64
	streak   streak
	flight   *flight

	watchers  map[int]chan Frame
	nextWatch int
	closed    bool

	drivers sync.WaitGroup
}

type flight struct {
	pending *Pending
	tween   tween
	stop    chan struct{}
}

// New validates cfg and returns an idle spinner for it.
func New(cfg Config, opts ...Option) (*Spinner, error) {
	w, err := NewWheel(cfg)
	if err != nil {
		return nil, err
	}
	return NewSpinner(w, opts...), nil
}

func NewSpinner(w *Wheel, opts ...Option) *Spinner {
	s := &Spinner{
		w:        w,
		rng:      DefaultRNG(),
		streak:   streak{limit: w.cfg.Guarantee},
		watchers: make(map[int]chan Frame),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Spinner) Wheel() *Wheel { return s.w }

// Spin starts a spin and returns its handle and true. If a spin is already in
// flight it returns that spin's handle and false without touching it.
func (s *Spinner) Spin() (*Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.flight != nil {
		return s.flight.pending, false
	}

	cfg := s.w.cfg
	target := s.w.drawTarget(s.rotation, cfg.Mode, cfg.MinTurns, s.rng, s.streak.forced())
	s.seq++
	f := &flight{
		pending: newPending(s.seq),
		tween: tween{
			from:     s.rotation,
			to:       target,
			start:    time.Now(),
			duration: cfg.Duration,
			easing:   cfg.Easing,
		},
		stop: make(chan struct{}),
	}
	s.flight = f
	s.phase = Spinning
	s.last = nil
	s.broadcastLocked(Frame{Rotation: s.rotation, Phase: Spinning, At: f.tween.start})

	s.drivers.Add(1)
	go s.drive(f)
	return f.pending, true
}

// Cancel stops an in-flight spin where it is. The wheel goes back to Idle and
// the spin's Pending completes with ErrSpinCanceled. Returns false if nothing
// was spinning.
func (s *Spinner) Cancel() bool {
	s.mu.Lock()
	f := s.cancelLocked(time.Now())
	s.mu.Unlock()
	if f == nil {
		return false
	}
	f.pending.complete(SpinResult{}, ErrSpinCanceled)
	return true
}

// Reset returns the spinner to Idle and clears the last result. The absolute
// rotation is kept so the next spin continues forward from it.
func (s *Spinner) Reset() {
	s.mu.Lock()
	f := s.cancelLocked(time.Now())
	if f == nil {
		s.phase = Idle
		s.last = nil
		s.broadcastLocked(Frame{Rotation: s.rotation, Phase: Idle, At: time.Now()})
	}
	s.mu.Unlock()
	if f != nil {
		f.pending.complete(SpinResult{}, ErrSpinCanceled)
	}
}

func (s *Spinner) cancelLocked(now time.Time) *flight {
	f := s.flight
	if f == nil {
		return nil
	}
	s.flight = nil
	close(f.stop)
	s.rotation, _ = f.tween.at(now)
	s.phase = Idle
	s.last = nil
	s.broadcastLocked(Frame{Rotation: s.rotation, Phase: Idle, Progress: f.tween.progress(now), At: now})
	return f
}

// Close cancels any spin in flight, ends every frame subscription and waits
// until the driver, including resolve hooks, has returned. Later Watch calls
// get an already closed channel.
func (s *Spinner) Close() {
	s.Cancel()

	s.mu.Lock()
	s.closed = true
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
	s.mu.Unlock()

	s.drivers.Wait()
}

func (s *Spinner) drive(f *flight) {
	defer s.drivers.Done()
	ticker := time.NewTicker(s.w.cfg.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-f.stop:
			return
		case now := <-ticker.C:
			if s.step(f, now) {
				return
			}
		}
	}
}

// step advances the animation; it reports true once f is no longer in flight.
func (s *Spinner) step(f *flight, now time.Time) bool {
	s.mu.Lock()
	if s.flight != f {
		s.mu.Unlock()
		return true
	}
	rot, done := f.tween.at(now)
	s.rotation = rot
	if !done {
		s.broadcastLocked(Frame{Rotation: rot, Phase: Spinning, Progress: f.tween.progress(now), At: now})
		s.mu.Unlock()
		return false
	}

	idx := s.w.Resolve(f.tween.to)
	res := SpinResult{
		Outcome:       s.w.cfg.Outcomes[idx],
		Index:         idx,
		FinalRotation: NormalizeDegrees(f.tween.to),
		Target:        f.tween.to,
		Seq:           f.pending.seq,
		ResolvedAt:    now,
	}
	s.flight = nil
	s.last = &res
	s.phase = Resolved
	s.streak.observe(res.Outcome)
	s.broadcastLocked(Frame{Rotation: rot, Phase: Resolved, Progress: 1, At: now})
	hooks := s.hooks
	s.mu.Unlock()

	for _, h := range hooks {
		h(res)
	}
	f.pending.complete(res, nil)
	return true
}

func (s *Spinner) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Spinner) Rotation() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotation
}

// LastResult is nil unless the spinner is Resolved.
func (s *Spinner) LastResult() *SpinResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	res := *s.last
	return &res
}

// Target returns the in-flight spin's final absolute rotation.
func (s *Spinner) Target() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flight == nil {
		return 0, false
	}
	return s.flight.tween.to, true
}

// Pending returns the in-flight spin, if any.
func (s *Spinner) Pending() *Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flight == nil {
		return nil
	}
	return s.flight.pending
}

func (s *Spinner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Phase:       s.phase,
		Rotation:    s.rotation,
		Seq:         s.seq,
		BlankStreak: s.streak.blanks,
	}
	if s.flight != nil {
		to := s.flight.tween.to
		st.Target = &to
	}
	if s.last != nil {
		res := *s.last
		st.LastResult = &res
	}
	return st
}

// Watch subscribes to animation frames. When the buffer is full the oldest
// frame is dropped. The returned func unsubscribes and closes the channel.
func (s *Spinner) Watch(buffer int) (<-chan Frame, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Frame, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextWatch
	s.nextWatch++
	s.watchers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// Close may already have closed ch
		if c, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(c)
		}
	}
}

func (s *Spinner) broadcastLocked(f Frame) {
	for _, ch := range s.watchers {
		select {
		case ch <- f:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- f:
		default:
		}
	}
}
