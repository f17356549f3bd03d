// Package events publishes committed transactions to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
	"github.com/nats-io/nats.go"
)

const TypeTransactionCommitted = "transaction.committed"

type Event struct {
	Type        string             `json:"type"`
	Transaction models.Transaction `json:"transaction"`
}

type Publisher struct {
	conn    *nats.Conn
	subject string
}

func New(url, subject string) (*Publisher, error) {
	const op = "events.New"

	conn, err := nats.Connect(url,
		nats.Name("atm-server"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Publisher{conn: conn, subject: subject}, nil
}

func (p *Publisher) Name() string {
	return "nats"
}

func (p *Publisher) SaveTransaction(ctx context.Context, tx models.Transaction) error {
	const op = "events.SaveTransaction"

	data, err := Encode(tx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Publish only buffers; flush so a dead connection surfaces here.
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close drains pending messages before closing the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}

func Encode(tx models.Transaction) ([]byte, error) {
	return json.Marshal(Event{Type: TypeTransactionCommitted, Transaction: tx})
}
