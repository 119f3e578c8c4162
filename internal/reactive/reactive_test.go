package reactive

import (
	"context"
	"errors"
	"testing"
)

func TestSingle_Get(t *testing.T) {
	calls := 0
	single := NewSingle(func(context.Context) (int, error) {
		calls++
		return 42, nil
	})

	value, err := single.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 42 {
		t.Fatalf("expected 42, got %d", value)
	}

	// Cold source: each Get re-invokes the producer.
	if _, err := single.Get(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 producer invocations, got %d", calls)
	}
}

func TestSingle_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	single := NewSingle(func(context.Context) (int, error) {
		t.Fatalf("producer must not run with a cancelled context")
		return 0, nil
	})
	if _, err := single.Get(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStream_All(t *testing.T) {
	stream := FromSliceFunc(func(context.Context) ([]string, error) {
		return []string{"a", "b", "c"}, nil
	})

	values, err := stream.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 3 || values[0] != "a" || values[2] != "c" {
		t.Fatalf("unexpected values %v", values)
	}
}

func TestStream_AllPropagatesError(t *testing.T) {
	produceErr := errors.New("fetch failed")
	stream := FromSliceFunc(func(context.Context) ([]string, error) {
		return nil, produceErr
	})

	if _, err := stream.All(context.Background()); !errors.Is(err, produceErr) {
		t.Fatalf("expected producer error, got %v", err)
	}
}

func TestStream_FirstStopsEarly(t *testing.T) {
	emitted := 0
	stream := NewStream(func(ctx context.Context, emit func(int) error) error {
		for i := 1; i <= 100; i++ {
			emitted++
			if err := emit(i); err != nil {
				return err
			}
		}
		return nil
	})

	value, found, err := stream.First(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found || value != 1 {
		t.Fatalf("expected first value 1, got %d (found=%v)", value, found)
	}
	if emitted != 1 {
		t.Fatalf("expected production to stop after first value, emitted %d", emitted)
	}
}

func TestStream_FirstOnEmpty(t *testing.T) {
	stream := FromSliceFunc(func(context.Context) ([]int, error) {
		return nil, nil
	})

	_, found, err := stream.First(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatalf("expected empty stream to report no value")
	}
}

func TestStream_Chan(t *testing.T) {
	stream := FromSliceFunc(func(context.Context) ([]int, error) {
		return []int{1, 2, 3}, nil
	})

	values, errs := stream.Chan(context.Background())
	var got []int
	for value := range values {
		got = append(got, value)
	}
	if err := <-errs; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[1] != 2 {
		t.Fatalf("unexpected values %v", got)
	}
}

func TestStream_ForEachCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	stream := NewStream(func(ctx context.Context, emit func(int) error) error {
		for i := 0; ; i++ {
			if err := emit(i); err != nil {
				return err
			}
		}
	})

	seen := 0
	err := stream.ForEach(ctx, func(int) error {
		seen++
		if seen == 3 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
