// Package serial implements an ordering service that executes the batches one
// after the other on a local database.
//
// A batch is committed in a single database transaction. The events of the
// accepted transactions are emitted only once the batch is durable, so that a
// listener never observes a state that could be rolled back.
package serial

import (
	"context"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.dedis.ch/bazaar"
	"go.dedis.ch/bazaar/core/access"
	"go.dedis.ch/bazaar/core/events"
	"go.dedis.ch/bazaar/core/store"
	"go.dedis.ch/bazaar/core/store/kv"
	"go.dedis.ch/bazaar/core/txn"
	"go.dedis.ch/bazaar/core/validation"
	"golang.org/x/xerrors"
)

// DefaultBucket is the name of the database bucket that holds the state.
var DefaultBucket = []byte("bazaar")

// defines prometheus metrics
var (
	promTxs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bazaar_serial_transactions_total",
		Help: "total number of processed transactions",
	}, []string{"status"})

	promBatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bazaar_serial_transactions_batch",
		Help:    "number of transactions in a batch",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 20, 30, 50, 100},
	})

	promBatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "bazaar_serial_batch_duration_seconds",
		Help: "time to execute and commit a batch",
	})

	promEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bazaar_serial_events_total",
		Help: "total number of emitted events",
	}, []string{"status"})
)

func init() {
	bazaar.PromCollectors = append(bazaar.PromCollectors,
		promTxs, promBatchSize, promBatchDuration, promEvents)
}

// Option is the type of options to create a service.
type Option func(*Service)

// WithEmitter sets the emitter that receives the events of the committed
// transactions.
func WithEmitter(e events.Emitter) Option {
	return func(s *Service) {
		s.emitter = e
	}
}

// WithTracer sets the tracer used to trace the batches.
func WithTracer(t opentracing.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithBucket sets the name of the bucket that holds the state.
func WithBucket(name []byte) Option {
	return func(s *Service) {
		s.bucket = name
	}
}

// Service is an ordering service that processes one batch at a time.
//
// - implements ordering.Service
type Service struct {
	sync.Mutex

	db         kv.DB
	bucket     []byte
	validation validation.Service
	emitter    events.Emitter
	tracer     opentracing.Tracer
	logger     zerolog.Logger
}

// NewService creates a new service on top of the database. The bucket of the
// state is created if necessary.
func NewService(db kv.DB, val validation.Service, opts ...Option) (*Service, error) {
	s := &Service{
		db:         db,
		bucket:     DefaultBucket,
		validation: val,
		emitter:    events.NoopEmitter{},
		tracer:     opentracing.GlobalTracer(),
		logger:     bazaar.Logger.With().Str("service", "serial").Logger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	err := db.Update(s.bucket, func(kv.Bucket) error { return nil })
	if err != nil {
		return nil, xerrors.Errorf("failed to create bucket: %v", err)
	}

	return s, nil
}

// Submit implements ordering.Service. It validates the batch inside one
// database transaction and emits the events of the accepted transactions
// after the commit. A failure to emit is logged but does not undo the batch.
func (s *Service) Submit(ctx context.Context,
	txs ...txn.Transaction) ([]validation.TransactionResult, error) {

	s.Lock()
	defer s.Unlock()

	span := s.tracer.StartSpan("submit")
	defer span.Finish()

	span.SetTag("transactions", len(txs))

	start := time.Now()

	var res validation.Result

	err := s.db.Update(s.bucket, func(b kv.Bucket) error {
		var err error

		res, err = s.validation.Validate(kv.NewSnapshot(b), txs)
		if err != nil {
			return xerrors.Errorf("failed to validate: %v", err)
		}

		return nil
	})
	if err != nil {
		ext.Error.Set(span, true)
		span.LogKV("error", err.Error())

		return nil, xerrors.Errorf("failed to commit batch: %v", err)
	}

	promBatchSize.Observe(float64(len(txs)))
	promBatchDuration.Observe(time.Since(start).Seconds())

	results := res.GetTransactionResults()

	var evts []events.Event
	rejected := 0

	for _, txRes := range results {
		accepted, reason := txRes.GetStatus()
		if !accepted {
			rejected++
			promTxs.WithLabelValues("rejected").Inc()

			s.logger.Debug().
				Hex("tx", txRes.GetTransaction().GetID()).
				Str("reason", reason).
				Msg("transaction refused")

			continue
		}

		promTxs.WithLabelValues("accepted").Inc()
		evts = append(evts, txRes.GetEvents()...)
	}

	span.SetTag("rejected", rejected)

	s.logger.Info().
		Int("transactions", len(txs)).
		Int("rejected", rejected).
		Int("events", len(evts)).
		Msg("batch committed")

	if len(evts) > 0 {
		ctx = opentracing.ContextWithSpan(ctx, span)

		err = s.emitter.Emit(ctx, evts...)
		if err != nil {
			promEvents.WithLabelValues("failed").Add(float64(len(evts)))
			s.logger.Err(err).Msg("failed to emit events")
		} else {
			promEvents.WithLabelValues("emitted").Add(float64(len(evts)))
		}
	}

	return results, nil
}

// GetNonce implements ordering.Service and signed.Client.
func (s *Service) GetNonce(ident access.Identity) (uint64, error) {
	var nonce uint64

	err := s.View(func(snap store.Snapshot) error {
		var err error
		nonce, err = s.validation.GetNonce(snap, ident)

		return err
	})
	if err != nil {
		return 0, xerrors.Errorf("failed to read nonce: %v", err)
	}

	return nonce, nil
}

// View implements ordering.Service. The snapshot refuses any write.
func (s *Service) View(fn func(store.Snapshot) error) error {
	return s.db.View(s.bucket, func(b kv.Bucket) error {
		return fn(kv.NewSnapshot(b))
	})
}
