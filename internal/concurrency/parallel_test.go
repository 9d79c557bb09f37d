package concurrency

import (
	"context"
	"errors"
	"strconv"
	"testing"
)

func TestMapPreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}

	results, errs := Map(context.Background(), items, 3, func(_ context.Context, n int) (string, error) {
		return strconv.Itoa(n * 10), nil
	})
	if len(errs) != 0 {
		t.Fatalf("Expected no errors, got %v", errs)
	}
	for i, n := range items {
		if results[i] != strconv.Itoa(n*10) {
			t.Errorf("Expected result %d at index %d, got %q", n*10, i, results[i])
		}
	}
}

func TestMapCollectsErrors(t *testing.T) {
	items := []int{1, 2, 3}
	boom := errors.New("boom")

	_, errs := Map(context.Background(), items, 2, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	if len(errs) != 1 || !errors.Is(errs[0], boom) {
		t.Errorf("Expected one collected error, got %v", errs)
	}
}

func TestMapEmptyInput(t *testing.T) {
	results, errs := Map(context.Background(), nil, 4, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	if results != nil || errs != nil {
		t.Errorf("Expected nil results for empty input, got %v %v", results, errs)
	}
}
