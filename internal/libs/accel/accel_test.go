package accel

import (
	"errors"
	"testing"
)

func TestNewBatch(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		expected int
	}{
		{"valid size", 50, 50},
		{"zero defaults to 1000", 0, 1000},
		{"negative defaults to 1000", -1, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := NewBatch(tt.size)
			if batch.Size() != tt.expected {
				t.Errorf("expected size %d, got %d", tt.expected, batch.Size())
			}
		})
	}
}

func TestCount(t *testing.T) {
	batch := NewBatch(1000)

	tests := []struct {
		total    int
		expected int
	}{
		{0, 0},
		{1, 1},
		{1000, 1},
		{1001, 2},
		{2500, 3},
	}

	for _, tt := range tests {
		if got := batch.Count(tt.total); got != tt.expected {
			t.Errorf("Count(%d) = %d, want %d", tt.total, got, tt.expected)
		}
	}
}

func TestEach(t *testing.T) {
	batch := NewBatch(4)

	var bounds [][2]int
	err := batch.Each(10, func(start, end int) error {
		bounds = append(bounds, [2]int{start, end})
		return nil
	})
	if err != nil {
		t.Fatalf("Each failed: %v", err)
	}

	expected := [][2]int{{0, 4}, {4, 8}, {8, 10}}
	if len(bounds) != len(expected) {
		t.Fatalf("expected %d batches, got %d", len(expected), len(bounds))
	}
	for i := range expected {
		if bounds[i] != expected[i] {
			t.Errorf("batch %d: expected %v, got %v", i, expected[i], bounds[i])
		}
	}
}

func TestEachStopsOnError(t *testing.T) {
	batch := NewBatch(2)
	stop := errors.New("stop")

	calls := 0
	err := batch.Each(10, func(_, _ int) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected stop error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}
