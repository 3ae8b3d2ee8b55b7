package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/metrics"
)

// RabbitProfileEvents читает события изменения профилей из очереди RabbitMQ.
type RabbitProfileEvents struct {
	url   string
	queue string

	mu         sync.Mutex
	conn       *amqp.Connection
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery
}

var _ domain.ProfileEventSource = (*RabbitProfileEvents)(nil)

// NewRabbitProfileEvents создаёт потребителя событий. Подключение устанавливается лениво.
func NewRabbitProfileEvents(amqpURL, queue string) (*RabbitProfileEvents, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	return &RabbitProfileEvents{url: amqpURL, queue: queue}, nil
}

// Receive ждёт следующее событие. Возвращённая функция подтверждает или возвращает его в очередь.
func (r *RabbitProfileEvents) Receive(ctx context.Context) (domain.ProfileEvent, domain.EventAckFunc, error) {
	deliveries, err := r.ensureConsumer()
	if err != nil {
		return domain.ProfileEvent{}, nil, err
	}
	select {
	case <-ctx.Done():
		return domain.ProfileEvent{}, nil, ctx.Err()
	case d, ok := <-deliveries:
		if !ok {
			r.reset()
			return domain.ProfileEvent{}, nil, errors.New("rabbitmq: delivery channel closed")
		}
		ack := func(success bool) error {
			if success {
				return d.Ack(false)
			}
			return d.Nack(false, true)
		}
		var event domain.ProfileEvent
		if err := json.Unmarshal(d.Body, &event); err != nil {
			_ = d.Nack(false, false)
			return domain.ProfileEvent{}, nil, fmt.Errorf("decode event: %w", err)
		}
		return event, ack, nil
	}
}

// Close закрывает канал и соединение.
func (r *RabbitProfileEvents) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	if r.ch != nil {
		errs = append(errs, r.ch.Close())
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}
	r.ch, r.conn, r.deliveries = nil, nil, nil
	return errors.Join(errs...)
}

func (r *RabbitProfileEvents) ensureConsumer() (<-chan amqp.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deliveries != nil && r.conn != nil && !r.conn.IsClosed() {
		return r.deliveries, nil
	}

	start := time.Now()
	conn, err := amqp.Dial(r.url)
	metrics.ObserveNetworkRequest("rabbitmq", "dial", r.queue, start, err)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(r.queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(r.queue, "", false, false, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}
	r.conn, r.ch, r.deliveries = conn, ch, deliveries
	return deliveries, nil
}

func (r *RabbitProfileEvents) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		_ = r.conn.Close()
	}
	r.conn, r.ch, r.deliveries = nil, nil, nil
}
