// Package broker publishes check-in events to a RabbitMQ topic exchange.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/adapter"
	"conference-checkin/internal/infra/metrics"
	"conference-checkin/internal/infra/worker"
)

const (
	DefaultExchange = "checkin"
	// RoutingKeyCheckin is used for every committed redemption.
	RoutingKeyCheckin = "checkin.recorded"
)

var _ adapter.EventPublisher = (*Publisher)(nil)

var errClosed = errors.New("broker: publisher closed")

// channel and connection are the parts of amqp091 the publisher touches.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type connection interface {
	Channel() (channel, error)
	IsClosed() bool
	Close() error
}

type dialFunc func(url string) (connection, error)

type amqpConn struct{ *amqp.Connection }

func (c amqpConn) Channel() (channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func dialAMQP(url string) (connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConn{conn}, nil
}

// Publisher keeps one connection and channel, redialing lazily after either
// is lost. PublishCheckin hands the work to the worker pool.
type Publisher struct {
	url      string
	exchange string
	dial     dialFunc
	pool     *worker.Pool
	timeout  time.Duration
	log      *zerolog.Logger

	mu     sync.Mutex
	conn   connection
	ch     channel
	closed bool
}

type Option func(*Publisher)

// WithPublishTimeout bounds each publish; default 5s.
func WithPublishTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func withDialer(d dialFunc) Option {
	return func(p *Publisher) { p.dial = d }
}

// NewPublisher dials url and declares a durable topic exchange. A nil pool
// makes PublishCheckin synchronous.
func NewPublisher(url, exchange string, pool *worker.Pool, logger *zerolog.Logger, opts ...Option) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	pubLog := logger.With().Str("component", "AMQP").Str("exchange", exchange).Logger()
	p := &Publisher{
		url:      url,
		exchange: exchange,
		dial:     dialAMQP,
		pool:     pool,
		timeout:  5 * time.Second,
		log:      &pubLog,
	}
	for _, o := range opts {
		o(p)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureConnection(); err != nil {
		return nil, err
	}
	return p, nil
}

// ensureConnection must be called with p.mu held.
func (p *Publisher) ensureConnection() error {
	if p.closed {
		return errClosed
	}
	if p.conn == nil || p.conn.IsClosed() {
		p.ch = nil
		conn, err := p.dial(p.url)
		if err != nil {
			return fmt.Errorf("amqp dial: %w", err)
		}
		p.conn = conn
	}
	if p.ch != nil {
		return nil
	}

	ch, err := p.conn.Channel()
	if err != nil {
		_ = p.conn.Close()
		p.conn = nil
		return fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("amqp declare exchange %s: %w", p.exchange, err)
	}
	p.ch = ch
	return nil
}

// Publish sends message as JSON with the given routing key.
func (p *Publisher) Publish(ctx context.Context, key string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("amqp marshal: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureConnection(); err != nil {
		metrics.IncEventPublished(key, "failed")
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		// A failed publish may have closed the channel; start fresh next time.
		_ = p.ch.Close()
		p.ch = nil
		metrics.IncEventPublished(key, "failed")
		return fmt.Errorf("amqp publish %s: %w", key, err)
	}
	metrics.IncEventPublished(key, "ok")
	p.log.Debug().Str("key", key).Int("bytes", len(body)).Msg("published")
	return nil
}

func (p *Publisher) PublishCheckin(ctx context.Context, ev model.CheckinEvent) error {
	if p.pool == nil {
		return p.Publish(ctx, RoutingKeyCheckin, ev)
	}
	return p.pool.Submit(func(ctx context.Context) error {
		return p.Publish(ctx, RoutingKeyCheckin, ev)
	})
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
		p.ch = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}
