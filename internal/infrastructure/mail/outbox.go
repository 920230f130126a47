package mail

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mknows/bootcamp-api/internal/core/ports"
	"github.com/mknows/bootcamp-api/internal/pkg/metrics"
)

const (
	defaultOutboxWorkers = 2
	defaultOutboxSize    = 256
	defaultSendTimeout   = time.Minute
)

// ErrOutboxFull is returned when a message cannot be queued.
var ErrOutboxFull = errors.New("mail outbox full")

// Outbox queues verification e-mails and delivers them from background
// workers, so the caller never waits on the relay. Each delivery runs under
// its own timeout, detached from the caller's context.
type Outbox struct {
	next        ports.Mailer
	queue       chan ports.VerificationEmail
	workers     int
	sendTimeout time.Duration
	log         zerolog.Logger
	wg          sync.WaitGroup
}

var _ ports.Mailer = (*Outbox)(nil)

// NewOutbox wraps next. Non-positive sizes fall back to defaults.
func NewOutbox(next ports.Mailer, workers, size int, sendTimeout time.Duration, log zerolog.Logger) *Outbox {
	if workers <= 0 {
		workers = defaultOutboxWorkers
	}
	if size <= 0 {
		size = defaultOutboxSize
	}
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &Outbox{
		next:        next,
		queue:       make(chan ports.VerificationEmail, size),
		workers:     workers,
		sendTimeout: sendTimeout,
		log:         log,
	}
}

// Start launches the workers. They deliver what is queued and stop when ctx
// is cancelled.
func (o *Outbox) Start(ctx context.Context) {
	for i := 0; i < o.workers; i++ {
		o.wg.Add(1)
		go o.run(ctx)
	}
}

// Wait blocks until every worker has stopped.
func (o *Outbox) Wait() {
	o.wg.Wait()
}

// SendVerification queues msg without blocking.
func (o *Outbox) SendVerification(_ context.Context, msg ports.VerificationEmail) error {
	select {
	case o.queue <- msg:
		return nil
	default:
		metrics.MailDeliveriesTotal.WithLabelValues("dropped").Inc()
		return ErrOutboxFull
	}
}

func (o *Outbox) run(ctx context.Context) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			o.drain()
			return
		case msg := <-o.queue:
			o.deliver(msg)
		}
	}
}

func (o *Outbox) drain() {
	for {
		select {
		case msg := <-o.queue:
			o.deliver(msg)
		default:
			return
		}
	}
}

func (o *Outbox) deliver(msg ports.VerificationEmail) {
	ctx, cancel := context.WithTimeout(context.Background(), o.sendTimeout)
	defer cancel()

	if err := o.next.SendVerification(ctx, msg); err != nil {
		o.log.Error().Err(err).
			Str("to", msg.To).
			Msg("verification email not delivered")
	}
}
