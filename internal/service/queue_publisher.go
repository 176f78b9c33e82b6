// Package service holds the outbound integrations of the seat map server.
// The selection publisher forwards seat toggles to RabbitMQ.  Toggles happen
// inside a session's event batch, so publishing is decoupled through a
// buffered channel: the request path never waits on the broker and a full
// buffer drops events with a warning instead of stalling viewers.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/venue-seatmap/internal/queue"
	"github.com/iliyamo/venue-seatmap/internal/seatmap"
	"github.com/iliyamo/venue-seatmap/internal/session"
)

// Publisher publishes SeatSelectionEvents to the seat.selection queue.
type Publisher struct {
	url    string
	events chan queue.SeatSelectionEvent
	log    *log.Logger
	now    func() time.Time

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher creates a publisher with room for buffer pending events.
// Call Run to start delivering them.
func NewPublisher(url string, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		url:    url,
		events: make(chan queue.SeatSelectionEvent, buffer),
		log:    log.New("selection-publisher"),
		now:    time.Now,
	}
}

// SelectionListener adapts the publisher to a session OnSelect hook.
func (p *Publisher) SelectionListener() func(*session.Session, seatmap.SelectionEvent) {
	return func(s *session.Session, ev seatmap.SelectionEvent) {
		p.Enqueue(queue.SeatSelectionEvent{
			Kind:        string(ev.Kind),
			SessionID:   s.ID,
			Owner:       s.Owner,
			VenueID:     s.VenueID,
			SeatID:      ev.Seat.SeatID,
			SectionID:   ev.Seat.SectionID,
			SectionName: ev.Seat.SectionName,
			Row:         ev.Seat.Row,
			Number:      ev.Seat.Number,
			Price:       ev.Seat.Price,
			OccurredAt:  p.now().UTC().Format(time.RFC3339),
		})
	}
}

// Enqueue hands ev to the delivery loop without blocking.  It reports
// false when the buffer is full and the event was dropped.
func (p *Publisher) Enqueue(ev queue.SeatSelectionEvent) bool {
	select {
	case p.events <- ev:
		return true
	default:
		p.log.Warnf("buffer full, dropping %s of seat %s", ev.Kind, ev.SeatID)
		return false
	}
}

// Run delivers queued events until ctx is cancelled.  Failed publishes
// are logged and dropped; the next publish redials.
func (p *Publisher) Run(ctx context.Context) {
	defer p.close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := p.PublishSeatSelection(pctx, ev); err != nil {
				p.log.Errorf("publish %s of seat %s failed: %v", ev.Kind, ev.SeatID, err)
			}
			cancel()
		}
	}
}

// PublishSeatSelection publishes one event synchronously.  Messages are
// persistent and go through the default exchange.
func (p *Publisher) PublishSeatSelection(ctx context.Context, ev queue.SeatSelectionEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ch, err := p.channel()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",                       // default exchange
		queue.SelectionQueueName, // routing key = queue name
		false,                    // mandatory
		false,                    // immediate
		pub,
	); err != nil {
		p.close() // force a redial next time
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// channel returns the cached channel, dialing and declaring the queue when
// there is none or the previous connection died.
func (p *Publisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue.SelectionQueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
