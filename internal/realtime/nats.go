package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/nats-io/nats.go"
)

// NATSBridge subscribes to NATS subjects and pushes messages into the Hub.
type NATSBridge struct {
	conn      *nats.Conn
	hub       *Hub
	companyID string
}

func NewNATSBridge(natsURL, companyID string, hub *Hub) (*NATSBridge, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSBridge{conn: nc, hub: hub, companyID: companyID}, nil
}

// Subscribe listens for cascade events on company.<companyID>.workflow.*.cascade
func (b *NATSBridge) Subscribe() error {
	subject := fmt.Sprintf("company.%s.workflow.*.cascade", b.companyID)
	_, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		workflowID, err := parseWorkflowIDFromSubject(msg.Subject)
		if err != nil {
			log.Printf("nats: bad subject %q: %v", msg.Subject, err)
			return
		}

		// Wrap the raw cascade payload in the outgoing envelope
		envelope := outgoingMsg{
			Type:       "cascade.event",
			WorkflowID: workflowID,
			Payload:    json.RawMessage(msg.Data),
		}
		data, err := json.Marshal(envelope)
		if err != nil {
			log.Printf("nats: marshal envelope: %v", err)
			return
		}

		b.hub.broadcast <- broadcastMsg{workflowID: workflowID, payload: data}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", subject, err)
	}

	log.Printf("NATS bridge subscribed to: %s", subject)
	return nil
}

// Close drains the NATS connection.
func (b *NATSBridge) Close() {
	if err := b.conn.Drain(); err != nil {
		log.Printf("nats drain: %v", err)
	}
}

// parseWorkflowIDFromSubject extracts the workflow id from
// "company.<cid>.workflow.<workflowID>.cascade"
func parseWorkflowIDFromSubject(subject string) (string, error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 5 {
		return "", fmt.Errorf("expected 5 parts, got %d", len(parts))
	}
	if parts[3] == "" {
		return "", fmt.Errorf("empty workflow id")
	}
	return parts[3], nil
}
