package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskhub/taskhub-api/internal/api/metrics"
	"github.com/taskhub/taskhub-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrPoolClosed is returned for work submitted after Stop.
var ErrPoolClosed = errors.New("hash pool closed")

type job struct {
	ctx  context.Context
	run  func()
	ran  bool
	done chan struct{}
}

// HashPool runs password hashing on a fixed set of worker goroutines so that
// bursts of logins queue instead of oversubscribing the CPU. It implements
// ports.PasswordHasher by delegating to the wrapped hasher.
//
// Workers live until Stop. Stop refuses new submissions, then lets the workers
// drain everything already queued, so requests still being served during a
// graceful shutdown get their result.
type HashPool struct {
	hasher  ports.PasswordHasher
	jobs    chan *job
	workers int
	log     zerolog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	// quit wakes submitters blocked on a full queue when Stop begins.
	quit chan struct{}
	// sending counts submitters between the closed check and the send.
	sending sync.WaitGroup
	wg      sync.WaitGroup
}

// NewHashPool creates a pool of numWorkers workers around hasher.
// If numWorkers <= 0, defaultWorkers is used.
func NewHashPool(numWorkers int, hasher ports.PasswordHasher, log zerolog.Logger) *HashPool {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &HashPool{
		hasher:  hasher,
		jobs:    make(chan *job, channelBuffer),
		workers: numWorkers,
		log:     log,
		quit:    make(chan struct{}),
	}
}

// Start launches the worker goroutines. They run until Stop.
func (p *HashPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(i)
	}
	p.log.Info().Int("workers", p.workers).Msg("hash pool started")
}

// Stop refuses new work, waits for queued jobs to finish and then for the
// workers to exit. Call it after the HTTP server has shut down.
func (p *HashPool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	started := p.started
	close(p.quit)
	p.mu.Unlock()

	// No submitter can reach the send any more; once the ones in flight are
	// done the channel has no writers left.
	p.sending.Wait()
	close(p.jobs)

	if !started {
		for j := range p.jobs {
			close(j.done)
		}
		return
	}
	p.wg.Wait()
	p.log.Info().Msg("hash pool stopped")
}

// Hash hashes plaintext on a pool worker.
func (p *HashPool) Hash(ctx context.Context, plaintext string) (string, error) {
	var (
		hash string
		err  error
	)
	if subErr := p.submit(ctx, "hash", func() { hash, err = p.hasher.Hash(ctx, plaintext) }); subErr != nil {
		return "", subErr
	}
	return hash, err
}

// Verify checks plaintext against hash on a pool worker. A cancelled or
// rejected submission counts as a mismatch.
func (p *HashPool) Verify(ctx context.Context, plaintext, hash string) bool {
	var ok bool
	if err := p.submit(ctx, "verify", func() { ok = p.hasher.Verify(ctx, plaintext, hash) }); err != nil {
		p.log.Warn().Err(err).Msg("password verification not run")
		return false
	}
	return ok
}

func (p *HashPool) submit(ctx context.Context, op string, run func()) error {
	j := &job{ctx: ctx, done: make(chan struct{})}
	j.run = func() {
		start := time.Now()
		run()
		metrics.PasswordHashDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}
	p.sending.Add(1)
	p.mu.RUnlock()

	select {
	case p.jobs <- j:
		p.sending.Done()
		metrics.HashPoolQueueDepth.Set(float64(len(p.jobs)))
	case <-p.quit:
		p.sending.Done()
		return ErrPoolClosed
	case <-ctx.Done():
		p.sending.Done()
		return ctx.Err()
	}

	select {
	case <-j.done:
		if !j.ran {
			if err := ctx.Err(); err != nil {
				return err
			}
			return ErrPoolClosed
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *HashPool) runWorker(id int) {
	defer p.wg.Done()
	for j := range p.jobs {
		metrics.HashPoolQueueDepth.Set(float64(len(p.jobs)))
		if j.ctx.Err() != nil {
			p.log.Debug().Str("worker_id", strconv.Itoa(id)).Msg("skipping cancelled hash job")
			close(j.done)
			continue
		}
		j.run()
		j.ran = true
		close(j.done)
	}
}
