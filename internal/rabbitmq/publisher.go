package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"huddle.websocket.go/internal/metrics"
)

const (
	exchangeName   = "huddle.events"
	queueSize      = 1024
	publishTimeout = 5 * time.Second
	reconnectDelay = 5 * time.Second
)

var errNotConnected = errors.New("rabbitmq channel not available")

type outgoing struct {
	routingKey string
	body       interface{}
}

// Publisher mirrors accepted chat mutations onto a topic exchange so other
// systems can follow the conversation. Enqueue never blocks the caller.
type Publisher struct {
	url     string
	logger  *slog.Logger
	mu      sync.RWMutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	connErr chan *amqp.Error
	queue   chan outgoing
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewPublisher(url string, logger *slog.Logger) (*Publisher, error) {
	p := &Publisher{
		url:    url,
		logger: logger,
		queue:  make(chan outgoing, queueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	if err := p.connect(); err != nil {
		return nil, err
	}

	go p.handleReconnect()
	go p.run()

	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	err = ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	connErr := make(chan *amqp.Error, 1)
	conn.NotifyClose(connErr)

	p.mu.Lock()
	p.conn = conn
	p.ch = ch
	p.connErr = connErr
	p.mu.Unlock()

	p.logger.Info("rabbitmq publisher connected", "exchange", exchangeName)
	return nil
}

func (p *Publisher) handleReconnect() {
	for {
		p.mu.RLock()
		connErr := p.connErr
		p.mu.RUnlock()

		select {
		case <-p.stop:
			return
		case err, ok := <-connErr:
			if !ok || err == nil {
				// Closed on purpose.
				return
			}
			p.logger.Error("rabbitmq connection lost, attempting to reconnect", "error", err)
			p.mu.Lock()
			p.ch = nil
			p.mu.Unlock()
			for {
				select {
				case <-p.stop:
					return
				case <-time.After(reconnectDelay):
				}
				if connErr := p.connect(); connErr == nil {
					p.logger.Info("rabbitmq publisher reconnected successfully")
					break
				}
				p.logger.Warn("rabbitmq reconnection failed, retrying")
			}
		}
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := p.Publish(ctx, msg.routingKey, msg.body)
		cancel()
		if err != nil {
			metrics.MirrorPublishes.WithLabelValues("error").Inc()
			p.logger.Warn("failed to mirror event", "routingKey", msg.routingKey, "error", err)
			continue
		}
		metrics.MirrorPublishes.WithLabelValues("ok").Inc()
	}
}

// Enqueue schedules body for publishing. When the queue is full the event
// is dropped and counted.
func (p *Publisher) Enqueue(routingKey string, body interface{}) {
	select {
	case p.queue <- outgoing{routingKey: routingKey, body: body}:
	default:
		metrics.MirrorPublishes.WithLabelValues("dropped").Inc()
		p.logger.Warn("mirror queue full, dropping event", "routingKey", routingKey)
	}
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	p.mu.RLock()
	ch := p.ch
	p.mu.RUnlock()
	if ch == nil {
		return errNotConnected
	}

	return ch.PublishWithContext(ctx,
		exchangeName,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         jsonBody,
		},
	)
}

// Close drains queued events, then closes the channel and connection.
// Enqueue must not be called after Close.
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.queue)
		<-p.done
		close(p.stop)

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.ch != nil {
			p.ch.Close()
		}
		if p.conn != nil {
			p.conn.Close()
		}
	})
}
