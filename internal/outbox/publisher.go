package outbox

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"cascade/internal/engine"
)

const (
	queueSize       = 1024
	maxAttempts     = 5
	initialInterval = 200 * time.Millisecond
	maxInterval     = 10 * time.Second
)

// Publisher drains cascade events to NATS on a background goroutine so that
// engine runs never block on the broker. Events are dropped (with a log line)
// when the queue is full or an event exhausts its publish attempts.
type Publisher struct {
	conn          *nats.Conn
	subjectPrefix string
	logger        zerolog.Logger
	queue         chan engine.Event
	done          chan struct{}
}

func NewPublisher(natsURL, subjectPrefix string, logger zerolog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{
		conn:          nc,
		subjectPrefix: subjectPrefix,
		logger:        logger,
		queue:         make(chan engine.Event, queueSize),
		done:          make(chan struct{}),
	}, nil
}

// Publish implements engine.EventPublisher. It never blocks the caller.
func (p *Publisher) Publish(event engine.Event) {
	select {
	case p.queue <- event:
	default:
		p.logger.Warn().
			Str("kind", event.Kind).
			Str("workflowId", event.WorkflowID).
			Msg("outbox queue full, dropping event")
	}
}

// Start runs the drain loop until Stop is called.
func (p *Publisher) Start() {
	go func() {
		defer close(p.done)
		for event := range p.queue {
			p.deliver(event)
		}
	}()
}

// Stop flushes queued events and drains the NATS connection.
func (p *Publisher) Stop() {
	close(p.queue)
	<-p.done
	if err := p.conn.Drain(); err != nil {
		p.logger.Error().Err(err).Msg("nats drain")
	}
}

func (p *Publisher) deliver(event engine.Event) {
	subject := fmt.Sprintf("%s.%s.workflow.%s.cascade", p.subjectPrefix, event.CompanyID, event.WorkflowID)
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("kind", event.Kind).Msg("outbox marshal event")
		return
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff(attempt))
		}
		if err = p.conn.Publish(subject, data); err == nil {
			return
		}
	}
	p.logger.Error().Err(err).
		Str("subject", subject).
		Str("kind", event.Kind).
		Msg("outbox publish failed after retries")
}

func backoff(attempt int) time.Duration {
	d := float64(initialInterval) * math.Pow(2, float64(attempt-1))
	d = d * (0.8 + rand.Float64()*0.4)
	if d > float64(maxInterval) {
		d = float64(maxInterval)
	}
	return time.Duration(d)
}
