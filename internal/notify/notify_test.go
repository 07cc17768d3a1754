package notify

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/multierr"
)

type countingNotifier struct {
	n   int
	err error
}

func (c *countingNotifier) Send(ctx context.Context, title, text string) error {
	c.n++
	return c.err
}

func TestMulti_SendsToAllAndCombinesErrors(t *testing.T) {
	a := &countingNotifier{err: errors.New("a down")}
	b := &countingNotifier{}
	c := &countingNotifier{err: errors.New("c down")}

	err := Multi{a, nil, b, c}.Send(context.Background(), "T", "x")
	if a.n != 1 || b.n != 1 || c.n != 1 {
		t.Fatalf("want every notifier called once, got %d %d %d", a.n, b.n, c.n)
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("want 2 combined errors, got %d (%v)", got, err)
	}
}

func TestMulti_NilWhenAllSucceed(t *testing.T) {
	if err := (Multi{&countingNotifier{}, nil}).Send(context.Background(), "T", "x"); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
}
