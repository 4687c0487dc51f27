package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/salonbot/libs/db"
	"github.com/md-rashed-zaman/salonbot/libs/kafkax"
	otelx "github.com/md-rashed-zaman/salonbot/libs/otel"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	pool   *db.Pool
	repo   *Repository
	logger *slog.Logger
	cfg    PublisherConfig

	brokers   []string
	newWriter func(brokers []string) MessageWriter
	now       func() time.Time
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
	// MaxAttempts parks an event after this many failed sends.
	MaxAttempts int
	// Retention is how long published events are kept before pruning.
	Retention time.Duration
}

func (c *PublisherConfig) setDefaults() {
	if c.PollEvery <= 0 {
		c.PollEvery = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10
	}
	if c.Retention <= 0 {
		c.Retention = 7 * 24 * time.Hour
	}
}

func NewPublisher(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	cfg.setDefaults()
	return &Publisher{
		pool:      pool,
		repo:      repo,
		logger:    logger,
		cfg:       cfg,
		brokers:   kafkax.SplitBrokers(cfg.Brokers),
		newWriter: newKafkaWriter,
		now:       time.Now,
	}
}

func newKafkaWriter(brokers []string) MessageWriter {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// Enabled reports whether any broker is configured.
func (p *Publisher) Enabled() bool {
	return len(p.brokers) > 0
}

// Run relays pending events until ctx is done and prunes old published rows
// once an hour. Without brokers nothing is relayed and rows accumulate, so
// configuring Kafka later replays the backlog.
func (p *Publisher) Run(ctx context.Context) {
	if !p.Enabled() {
		p.logger.Warn("outbox publisher disabled, no kafka brokers configured")
		return
	}
	writer := p.newWriter(p.brokers)
	defer func() { _ = writer.Close() }()

	poll := time.NewTicker(p.cfg.PollEvery)
	defer poll.Stop()
	prune := time.NewTicker(time.Hour)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			for {
				n, err := p.relay(ctx, writer)
				if err != nil {
					p.logger.Error("outbox relay failed", "err", err)
					break
				}
				if n < p.cfg.BatchSize {
					break
				}
			}
		case <-prune.C:
			removed, err := p.repo.Prune(ctx, p.now().Add(-p.cfg.Retention))
			if err != nil {
				p.logger.Warn("outbox prune failed", "err", err)
				continue
			}
			if removed > 0 {
				p.logger.Info("outbox pruned", "removed", removed)
			}
		}
	}
}

// relay sends one batch and returns its size.
func (p *Publisher) relay(ctx context.Context, writer MessageWriter) (int, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	records, err := p.repo.LockPending(ctx, tx, p.cfg.BatchSize, p.cfg.MaxAttempts)
	if err != nil || len(records) == 0 {
		return 0, err
	}

	msgs, ids := Messages(ctx, records)
	if err := writer.WriteMessages(ctx, msgs...); err != nil {
		_ = tx.Rollback(ctx)
		if ferr := p.repo.RecordFailure(ctx, ids, err); ferr != nil {
			p.logger.Warn("outbox failure not recorded", "err", ferr)
		}
		for _, r := range records {
			if r.Attempts+1 >= p.cfg.MaxAttempts {
				p.logger.Error("outbox event parked", "event_id", r.EventID, "event_type", r.EventType, "err", err)
			}
		}
		return 0, err
	}
	if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	p.logger.Debug("outbox batch published", "count", len(ids))
	return len(records), nil
}

// Messages converts records into Kafka messages keyed by aggregate id. Each
// message carries the trace context captured when its row was written.
func Messages(ctx context.Context, records []Record) ([]kafka.Message, []int64) {
	msgs := make([]kafka.Message, len(records))
	ids := make([]int64, len(records))
	for i, r := range records {
		msgCtx := otelx.ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
		msgs[i] = kafka.Message{
			Topic:   r.EventType,
			Key:     []byte(r.AggregateID),
			Value:   r.Payload,
			Time:    r.CreatedAt,
			Headers: kafkax.InjectTraceHeaders(msgCtx, kafkax.EventHeaders(r.EventID, r.EventType)),
		}
		ids[i] = r.ID
	}
	return msgs, ids
}
