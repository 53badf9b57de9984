package membership

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/spaolacci/murmur3"
)

// FNV-1a 32-bit parameters.
const (
	fnvOffset32 uint32 = 2166136261
	fnvPrime32  uint32 = 16777619
)

// Filter construction errors.
var (
	// ErrInvalidCapacity is returned when the bit capacity is not positive.
	ErrInvalidCapacity = errors.New("invalid filter capacity: must be positive")

	// ErrInvalidExpectedEntries is returned when the expected entry count is not positive.
	ErrInvalidExpectedEntries = errors.New("invalid expected entries: must be positive")

	// ErrUnknownMode is returned by ParseMode for unrecognised mode names.
	ErrUnknownMode = errors.New("unknown filter mode")
)

// Mode selects how many bits a key touches.
type Mode int

const (
	// ModeSingleBit touches exactly one bit per key, derived from the
	// four byte seeded FNV-1a chain.
	ModeSingleBit Mode = iota

	// ModeMultiProbe touches k bits per key, derived from k seeded murmur3 hashes.
	ModeMultiProbe
)

// String returns the mode name used in configuration files and flags.
func (m Mode) String() string {
	switch m {
	case ModeSingleBit:
		return "single-bit"
	case ModeMultiProbe:
		return "multi-probe"
	default:
		return "unknown"
	}
}

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "single-bit", "single", "":
		return ModeSingleBit, nil
	case "multi-probe", "multi", "bloom":
		return ModeMultiProbe, nil
	default:
		return ModeSingleBit, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Filter is a fixed-size bit array with probabilistic membership checks.
type Filter struct {
	// bits holds capacity bits, rounded up to whole bytes.
	bits []byte

	// capacity is the number of addressable bits.
	capacity uint32

	// expectedEntries is the number of keys the filter was sized for.
	expectedEntries int

	// k is the hash-chain depth (single-bit) or probe count (multi-probe).
	k int

	mode Mode

	// added counts Add calls, including repeats.
	added int
}

// Option configures a Filter.
type Option func(*Filter)

// WithMode selects the probing mode. The default is ModeSingleBit.
func WithMode(mode Mode) Option {
	return func(f *Filter) {
		f.mode = mode
	}
}

// New allocates a filter of capacity bits sized for expectedEntries keys.
// k is floor((capacity / expectedEntries) * ln 2), clamped to at least 1.
func New(capacity, expectedEntries int, opts ...Option) (*Filter, error) {
	if capacity <= 0 || uint64(capacity) > math.MaxUint32 {
		return nil, ErrInvalidCapacity
	}
	if expectedEntries <= 0 {
		return nil, ErrInvalidExpectedEntries
	}

	k := int(math.Floor(float64(capacity) / float64(expectedEntries) * math.Ln2))
	if k < 1 {
		k = 1
	}

	f := &Filter{
		bits:            make([]byte, (capacity+7)/8),
		capacity:        uint32(capacity),
		expectedEntries: expectedEntries,
		k:               k,
		mode:            ModeSingleBit,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// Add records key. Adding the same key twice is a no-op on the bit array.
func (f *Filter) Add(key string) {
	for _, idx := range f.indices(key) {
		f.bits[idx/8] |= 1 << (idx % 8)
	}
	f.added++
}

// Contains reports whether key may have been recorded.
// A false result is definitive; a true result may be a false positive.
func (f *Filter) Contains(key string) bool {
	for _, idx := range f.indices(key) {
		if f.bits[idx/8]&(1<<(idx%8)) == 0 {
			return false
		}
	}
	return true
}

// Remove clears the bits for key. Any other key sharing one of those bits
// is forgotten as well, so Contains may return false negatives afterwards.
func (f *Filter) Remove(key string) {
	for _, idx := range f.indices(key) {
		f.bits[idx/8] &^= 1 << (idx % 8)
	}
}

// Index returns the single-bit index for key, regardless of the filter mode.
func (f *Filter) Index(key string) uint32 {
	return chainedFNV1a(seed(key), f.k) % f.capacity
}

// Capacity returns the number of addressable bits.
func (f *Filter) Capacity() int {
	return int(f.capacity)
}

// ExpectedEntries returns the entry count the filter was sized for.
func (f *Filter) ExpectedEntries() int {
	return f.expectedEntries
}

// K returns the derived hash depth.
func (f *Filter) K() int {
	return f.k
}

// Mode returns the probing mode.
func (f *Filter) Mode() Mode {
	return f.mode
}

// Count returns how many times Add has been called.
func (f *Filter) Count() int {
	return f.added
}

// FillRatio returns the fraction of bits currently set.
func (f *Filter) FillRatio() float64 {
	set := 0
	for _, b := range f.bits {
		set += bits.OnesCount8(b)
	}
	return float64(set) / float64(f.capacity)
}

// indices returns the bit positions touched by key in the current mode.
func (f *Filter) indices(key string) []uint32 {
	if f.mode == ModeMultiProbe {
		data := []byte(key)
		out := make([]uint32, f.k)
		for i := range f.k {
			out[i] = murmur3.Sum32WithSeed(data, uint32(i)) % f.capacity
		}
		return out
	}
	return []uint32{f.Index(key)}
}

// seed reads the first four UTF-8 bytes of key as a little-endian uint32,
// zero-padding keys shorter than four bytes.
func seed(key string) uint32 {
	var buf [4]byte
	copy(buf[:], key)
	return binary.LittleEndian.Uint32(buf[:])
}

// chainedFNV1a applies fnv1a32 to v k times.
func chainedFNV1a(v uint32, k int) uint32 {
	for range k {
		v = fnv1a32(v)
	}
	return v
}

// fnv1a32 hashes the four bytes of v, least significant first.
func fnv1a32(v uint32) uint32 {
	h := fnvOffset32
	for range 4 {
		h ^= v & 0xff
		h *= fnvPrime32
		v >>= 8
	}
	return h
}
