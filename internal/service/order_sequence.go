package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"inventory/internal/repository"
)

const orderNumberPrefix = "ORD-"

// OrderSequence hands out daily order numbers of the form ORD-YYYYMMDD-NNNN.
type OrderSequence interface {
	Next(ctx context.Context, date time.Time) (string, error)
}

type orderSequence struct {
	orderRepo repository.OrderRepository
}

func NewOrderSequence(orderRepo repository.OrderRepository) OrderSequence {
	return &orderSequence{orderRepo: orderRepo}
}

// Next must be called inside the transaction that inserts the order. The
// advisory lock is held until that transaction ends, and the unique index on
// order_number catches anything the lock misses.
func (s *orderSequence) Next(ctx context.Context, date time.Time) (string, error) {
	prefix := OrderNumberPrefix(date)

	if err := s.orderRepo.LockSequence(ctx, prefix); err != nil {
		return "", fmt.Errorf("failed to lock order sequence: %w", err)
	}

	latest, err := s.orderRepo.LatestNumberWithPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to read order sequence: %w", err)
	}

	seq := 0
	if latest != "" {
		seq, err = strconv.Atoi(strings.TrimPrefix(latest, prefix))
		if err != nil {
			return "", fmt.Errorf("malformed order number %q: %w", latest, err)
		}
	}

	return FormatOrderNumber(prefix, seq+1), nil
}

// OrderNumberPrefix uses the server-local calendar day.
func OrderNumberPrefix(date time.Time) string {
	return orderNumberPrefix + date.Local().Format("20060102") + "-"
}

func FormatOrderNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}
