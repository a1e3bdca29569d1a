package service

import (
	"context"
	"errors"
	"testing"

	"inventory/internal/model"

	"github.com/stretchr/testify/assert"
)

type failingPublisher struct{ err error }

func (p failingPublisher) Publish(ctx context.Context, event model.Event) error {
	return p.err
}

func TestMultiPublisher(t *testing.T) {
	first := &fakePublisher{}
	second := &fakePublisher{}
	broken := failingPublisher{err: errors.New("broker down")}

	pub := NewMultiPublisher(first, nil, broken, second)
	err := pub.Publish(context.Background(), model.NewEvent(model.EventOrderCreated, "o-1", nil))

	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	env := setup(t)
	p := env.addProduct("Kaos", "A", 10, 50000, 30000)
	env.orderSvc = NewOrderService(env.orders, env.ledger, env.sequence, env.tx, env.cache,
		failingPublisher{err: errors.New("broker down")})

	order, err := env.orderSvc.CreateOrder(context.Background(), CreateOrderRequest{Items: []OrderItemRequest{itemReq(p.ID, 1)}})
	assert.NoError(t, err)
	assert.NotNil(t, order)
	assert.Equal(t, 9, env.product(p.ID).Stock)
}
