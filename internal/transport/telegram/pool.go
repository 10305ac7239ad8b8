package telegram

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"go.uber.org/zap"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("worker pool closed")

type task func(ctx context.Context)

// Pool runs tasks on a fixed set of shards. Tasks submitted with the same
// key always land on the same shard and run in submission order; different
// keys run in parallel.
type Pool struct {
	queues []chan task
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool starts shards workers, each with a queue of depth tasks.
func NewPool(shards, depth int, logger *zap.Logger) *Pool {
	if shards <= 0 {
		shards = 1
	}
	if depth <= 0 {
		depth = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		queues: make([]chan task, shards),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	for i := range p.queues {
		p.queues[i] = make(chan task, depth)
		p.wg.Add(1)
		go p.work(i)
	}
	return p
}

// Submit queues fn on the shard owning key. It blocks while that shard is
// full, until ctx is done.
func (p *Pool) Submit(ctx context.Context, key string, fn func(ctx context.Context)) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.queues[p.shard(key)] <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks, drains what is queued and waits for workers.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
}

func (p *Pool) shard(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(p.queues)))
}

func (p *Pool) work(i int) {
	defer p.wg.Done()
	for fn := range p.queues[i] {
		p.run(i, fn)
	}
}

func (p *Pool) run(i int, fn task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker task panicked", zap.Int("shard", i), zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn(p.ctx)
}
