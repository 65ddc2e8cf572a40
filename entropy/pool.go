package entropy

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"
	"time"

	"plumcave/tui/consts"
	"plumcave/tui/consts/errs"
)

// Pool is a fixed size buffer mixed by pointer motion and a timer. Both
// sources XOR into the same bytes, every mutation holds mu.
type Pool struct {
	mu        sync.Mutex
	data      []byte
	quality   float64
	finalized bool

	tick        time.Duration
	pointerStep float64
	timerStep   float64
	notify      func(quality float64)

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

type Option func(*Pool)

func WithTick(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.tick = d
		}
	}
}

// WithNotify registers fn to receive the quality after every mix. fn runs
// outside the pool lock.
func WithNotify(fn func(quality float64)) Option {
	return func(p *Pool) {
		p.notify = fn
	}
}

func New(opts ...Option) (*Pool, error) {
	data := make([]byte, consts.ENTROPY_POOL_SIZE)
	if _, err := rand.Read(data); err != nil {
		return nil, fmt.Errorf("failed to seed pool: %v", err)
	}

	p := &Pool{
		data:        data,
		tick:        consts.ENTROPY_TICK,
		pointerStep: consts.ENTROPY_POINTER_STEP,
		timerStep:   consts.ENTROPY_TIMER_STEP,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	return p, nil
}

// Start runs the timer mixer until Finalize or Discard.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.finalized {
		return
	}
	p.started = true

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.worker(p.ctx)
	}()
}

func (p *Pool) worker(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.MixTimer(); err != nil {
				return
			}
		}
	}
}

func (p *Pool) Quality() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quality
}

// >>>

// MixPointer folds one pointer position into the pool. 224 fresh random
// bytes are rendered as printable characters, the decimal digits of x and y
// are spliced in at random positions and the string is hashed with a
// randomly chosen function. Each digest byte is XORed at a random offset.
func (p *Pool) MixPointer(x, y int) error {
	material, err := pointerMaterial(x, y)
	if err != nil {
		return err
	}
	kind, err := pickHash()
	if err != nil {
		return err
	}
	digest := kind.Sum(material)
	clear(material)
	defer clear(digest)

	offsets, err := randOffsets(len(digest), consts.ENTROPY_POOL_SIZE)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.finalized {
		p.mu.Unlock()
		return errs.ErrFinalized
	}
	for i, b := range digest {
		p.data[offsets[i]] ^= b
	}
	q := p.raise(p.pointerStep)
	p.mu.Unlock()

	p.emit(q)
	return nil
}

// MixTimer XORs a full pool of system randomness in while quality is
// below 100.
func (p *Pool) MixTimer() error {
	fresh := make([]byte, consts.ENTROPY_POOL_SIZE)
	defer clear(fresh)
	if _, err := rand.Read(fresh); err != nil {
		return fmt.Errorf("failed to read random bytes: %v", err)
	}

	p.mu.Lock()
	if p.finalized {
		p.mu.Unlock()
		return errs.ErrFinalized
	}
	if p.quality >= 100 {
		p.mu.Unlock()
		return nil
	}
	for i := range p.data {
		p.data[i] ^= fresh[i]
	}
	q := p.raise(p.timerStep)
	p.mu.Unlock()

	p.emit(q)
	return nil
}

// raise must be called with mu held.
func (p *Pool) raise(step float64) float64 {
	p.quality = ratchet(p.quality, step, Estimate(p.data))
	return p.quality
}

func (p *Pool) emit(q float64) {
	if p.notify != nil {
		p.notify(q)
	}
}

// >>>

// Finalize stops all mixing and hands out the pool. It can be called once.
func (p *Pool) Finalize() ([]byte, error) {
	p.mu.Lock()
	if p.finalized {
		p.mu.Unlock()
		return nil, errs.ErrFinalized
	}
	p.finalized = true
	snapshot := make([]byte, len(p.data))
	copy(snapshot, p.data)
	clear(p.data)
	p.mu.Unlock()

	p.stop()
	return snapshot, nil
}

// Discard stops mixing and zeroes the pool without a snapshot.
func (p *Pool) Discard() {
	p.mu.Lock()
	p.finalized = true
	clear(p.data)
	p.mu.Unlock()

	p.stop()
}

func (p *Pool) stop() {
	p.cancel()
	p.wg.Wait()
}

// >>>

func pointerMaterial(x, y int) ([]byte, error) {
	raw := make([]byte, consts.ENTROPY_POINTER_BYTES)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %v", err)
	}
	defer clear(raw)

	chars := make([]byte, len(raw), len(raw)+40)
	for i, b := range raw {
		chars[i] = b%95 + 32
	}

	digits := strconv.Itoa(x) + strconv.Itoa(y)
	for i := 0; i < len(digits); i++ {
		at, err := randIndex(len(chars) + 1)
		if err != nil {
			return nil, err
		}
		chars = append(chars, 0)
		copy(chars[at+1:], chars[at:])
		chars[at] = digits[i]
	}
	return chars, nil
}

func pickHash() (HashKind, error) {
	i, err := randIndex(len(hashTable))
	if err != nil {
		return 0, err
	}
	return hashTable[i], nil
}

func randIndex(n int) (int, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("failed to read random bytes: %v", err)
	}
	return int(binary.LittleEndian.Uint32(b[:]) % uint32(n)), nil
}

func randOffsets(count, n int) ([]int, error) {
	buf := make([]byte, 4*count)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %v", err)
	}
	out := make([]int, count)
	for i := range out {
		out[i] = int(binary.LittleEndian.Uint32(buf[4*i:]) % uint32(n))
	}
	return out, nil
}
