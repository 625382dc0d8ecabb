package wheel

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// cryptoRNG reads from the operating system's CSPRNG. Live spins use it so
// outcomes cannot be predicted from earlier ones.
type cryptoRNG struct{}

func (cryptoRNG) Float64() float64 {
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		return rand.Float64()
	}
	// the top 53 bits fill a float64 mantissa exactly
	u := binary.BigEndian.Uint64(buf[:]) >> 11
	return float64(u) / (1 << 53)
}

// DefaultRNG returns the source spinners use unless WithRandomSource is given.
func DefaultRNG() RandomSource { return cryptoRNG{} }

// seededRNG is a PCG stream behind a mutex, since a spinner's driver and its
// callers may draw from it concurrently.
type seededRNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededRNG returns a reproducible source. The same seed yields the same
// sequence of spins, which simulations and tests rely on.
func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}
