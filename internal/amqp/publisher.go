package amqp

import (
	"context"

	"expensetracker/internal/core"
)

// EventPublisher is implemented by Client.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, msg *ExpenseEventMessage) error
}

// Publisher turns store mutations into expense events. It satisfies
// store.Notifier.
type Publisher struct {
	client EventPublisher
}

func NewPublisher(client EventPublisher) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) ExpenseAdded(ctx context.Context, e core.Expense) error {
	return p.client.PublishExpenseEvent(ctx, NewExpenseEventMessage(EventAdded, e))
}

func (p *Publisher) ExpenseDeleted(ctx context.Context, e core.Expense) error {
	return p.client.PublishExpenseEvent(ctx, NewExpenseEventMessage(EventDeleted, e))
}
