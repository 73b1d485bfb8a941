package cartsync

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/angelmondragon/homeplast-storefront/internal/cart"
	"github.com/angelmondragon/homeplast-storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
	"github.com/angelmondragon/homeplast-storefront/pkg/metrics"
)

const (
	defaultWorkers     = 4
	defaultQueueSize   = 256
	defaultCallTimeout = 10 * time.Second
)

// Op names a cart mutation mirrored to the back end.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
	OpClear  Op = "clear"
)

// Gateway is the back-end surface used to mirror cart mutations.
type Gateway interface {
	AddCartItem(ctx context.Context, line cart.Line) error
	UpdateCartItem(ctx context.Context, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, productID string) error
	ClearCart(ctx context.Context) error
}

// Enqueuer accepts sync jobs. Callers never wait on the outcome.
type Enqueuer interface {
	Enqueue(job Job)
}

// Job is one cart mutation to mirror. Token is the shopper's bearer token; the
// back-end cart is owned by that user.
type Job struct {
	Op        Op
	SessionID string
	Token     string
	Line      cart.Line
	ProductID string
	Quantity  int
}

func (j Job) productID() string {
	if j.ProductID != "" {
		return j.ProductID
	}
	return j.Line.ProductID
}

// DispatcherParams groups dependencies and tuning for the dispatcher. Zero sizes
// and timeouts fall back to defaults; a zero DebounceWindow sends updates at once.
type DispatcherParams struct {
	Gateway        Gateway
	Logger         *logger.Logger
	Metrics        *metrics.SyncMetrics
	Workers        int
	QueueSize      int
	DebounceWindow time.Duration
	CallTimeout    time.Duration
}

type pendingKey struct {
	sessionID string
	productID string
}

type pendingUpdate struct {
	job   Job
	timer *time.Timer
	seq   uint64
}

// Dispatcher mirrors cart mutations to the back end on a fixed worker pool.
// Jobs of one session always land on the same worker so they run in order.
// Quantity updates for the same session and product are coalesced within the
// debounce window and only the last value is sent.
type Dispatcher struct {
	gateway     Gateway
	logg        *logger.Logger
	metrics     *metrics.SyncMetrics
	window      time.Duration
	callTimeout time.Duration
	queues      []chan Job

	mu      sync.Mutex
	pending map[pendingKey]*pendingUpdate
	seq     uint64
	closed  bool

	wg sync.WaitGroup
}

// NewDispatcher starts the worker pool. Close must be called to flush pending
// updates and stop the workers.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart sync gateway is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	workers := params.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	queueSize := params.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	callTimeout := params.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}

	d := &Dispatcher{
		gateway:     params.Gateway,
		logg:        logg,
		metrics:     params.Metrics,
		window:      params.DebounceWindow,
		callTimeout: callTimeout,
		queues:      make([]chan Job, workers),
		pending:     make(map[pendingKey]*pendingUpdate),
	}
	for i := range d.queues {
		d.queues[i] = make(chan Job, queueSize)
		d.wg.Add(1)
		go d.work(d.queues[i])
	}
	return d, nil
}

// Enqueue schedules a job without blocking. Jobs arriving after Close are dropped.
func (d *Dispatcher) Enqueue(job Job) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.drop(job, "cart sync dispatcher closed")
		return
	}

	key := pendingKey{sessionID: job.SessionID, productID: job.productID()}
	switch job.Op {
	case OpUpdate:
		if d.window <= 0 {
			d.dispatchLocked(job)
			return
		}
		d.debounceLocked(key, job)
	case OpAdd:
		// a pending update for the line must reach the back end before the add
		if p, ok := d.pending[key]; ok {
			p.timer.Stop()
			delete(d.pending, key)
			d.dispatchLocked(p.job)
		}
		d.dispatchLocked(job)
	case OpRemove:
		d.discardLocked(key)
		d.dispatchLocked(job)
	case OpClear:
		for k := range d.pending {
			if k.sessionID == job.SessionID {
				d.discardLocked(k)
			}
		}
		d.dispatchLocked(job)
	default:
		d.drop(job, fmt.Sprintf("unknown cart sync op %q", job.Op))
	}
}

func (d *Dispatcher) debounceLocked(key pendingKey, job Job) {
	d.seq++
	seq := d.seq
	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
		p.job = job
		p.seq = seq
		p.timer = time.AfterFunc(d.window, func() { d.fire(key, seq) })
		d.metrics.IncCoalesced()
		return
	}
	d.pending[key] = &pendingUpdate{
		job:   job,
		seq:   seq,
		timer: time.AfterFunc(d.window, func() { d.fire(key, seq) }),
	}
}

// fire sends a debounced update unless a newer one replaced it or it was discarded.
func (d *Dispatcher) fire(key pendingKey, seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[key]
	if !ok || p.seq != seq {
		return
	}
	delete(d.pending, key)
	if d.closed {
		return
	}
	d.dispatchLocked(p.job)
}

func (d *Dispatcher) discardLocked(key pendingKey) {
	p, ok := d.pending[key]
	if !ok {
		return
	}
	p.timer.Stop()
	delete(d.pending, key)
	d.metrics.IncCoalesced()
}

func (d *Dispatcher) dispatchLocked(job Job) {
	select {
	case d.queueFor(job.SessionID) <- job:
	default:
		d.drop(job, "cart sync queue full")
	}
}

func (d *Dispatcher) queueFor(sessionID string) chan Job {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return d.queues[h.Sum32()%uint32(len(d.queues))]
}

func (d *Dispatcher) drop(job Job, reason string) {
	ctx := d.logg.WithFields(context.Background(), map[string]any{
		"session_id": job.SessionID,
		"op":         string(job.Op),
	})
	d.logg.Warn(ctx, reason)
	d.metrics.IncFailed(string(job.Op))
}

func (d *Dispatcher) work(queue <-chan Job) {
	defer d.wg.Done()
	for job := range queue {
		d.run(job)
	}
}

func (d *Dispatcher) run(job Job) {
	ctx, cancel := context.WithTimeout(auth.WithToken(context.Background(), job.Token), d.callTimeout)
	defer cancel()

	var err error
	switch job.Op {
	case OpAdd:
		err = d.gateway.AddCartItem(ctx, job.Line)
	case OpUpdate:
		err = d.gateway.UpdateCartItem(ctx, job.productID(), job.Quantity)
	case OpRemove:
		err = d.gateway.RemoveCartItem(ctx, job.productID())
	case OpClear:
		err = d.gateway.ClearCart(ctx)
	}
	if err != nil {
		logCtx := d.logg.WithFields(ctx, map[string]any{
			"session_id": job.SessionID,
			"op":         string(job.Op),
			"product_id": job.productID(),
		})
		d.logg.Error(logCtx, "cart sync failed", err)
		d.metrics.IncFailed(string(job.Op))
		return
	}
	d.metrics.IncDispatched(string(job.Op))
}

// Close sends every pending update, stops accepting jobs and waits for the
// workers to drain or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
		select {
		case d.queueFor(p.job.SessionID) <- p.job:
		case <-ctx.Done():
			d.drop(p.job, "cart sync flush interrupted")
		}
	}
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
