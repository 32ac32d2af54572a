package statistics

import (
	"math"
	"testing"
)

func TestStatistics_Empty(t *testing.T) {
	t.Parallel()
	stats := New([]string{"a", "b"})

	if stats.MeanRounds() != 0 {
		t.Errorf("Expected mean of 0 for empty stats, got %f", stats.MeanRounds())
	}
	if stats.Variance() != 0 {
		t.Errorf("Expected variance of 0 for empty stats, got %f", stats.Variance())
	}
	if stats.Median() != 0 {
		t.Errorf("Expected median of 0 for empty stats, got %f", stats.Median())
	}
	if stats.PresentRate() != 0 {
		t.Errorf("Expected present rate of 0 for empty stats, got %f", stats.PresentRate())
	}
	if stats.Seats[0].WinRate() != 0 || stats.Seats[0].StdError() != 0 {
		t.Error("Expected zero win rate and error for an empty seat")
	}
	if err := stats.Validate(); err == nil {
		t.Error("Expected validation to fail with no games")
	}
}

func TestStatistics_Add(t *testing.T) {
	t.Parallel()
	stats := New([]string{"easy", "mid", "hard"})

	results := []GameResult{
		{Winner: 2, Rounds: 10, ChecksPresent: 6, ChecksAbsent: 4, Eliminations: 2},
		{Winner: 1, Rounds: 12, ChecksPresent: 5, ChecksAbsent: 7, Eliminations: 2},
		{Winner: 2, Rounds: 8, ChecksPresent: 3, ChecksAbsent: 5, Eliminations: 2},
		{Winner: -1, Rounds: 20, ChecksPresent: 10, ChecksAbsent: 9, Eliminations: 1},
	}
	for _, r := range results {
		stats.Add(r)
	}

	if stats.Games != 4 || stats.Unfinished != 1 {
		t.Fatalf("games=%d unfinished=%d", stats.Games, stats.Unfinished)
	}
	if stats.Rounds != 50 || stats.Checks() != 49 || stats.Eliminations != 7 {
		t.Errorf("rounds=%d checks=%d eliminations=%d", stats.Rounds, stats.Checks(), stats.Eliminations)
	}
	if got := stats.Seats[2].Wins; got != 2 {
		t.Errorf("hard wins = %d, want 2", got)
	}
	if got := stats.Seats[2].WinRate(); got != 0.5 {
		t.Errorf("hard win rate = %f, want 0.5", got)
	}
	if got := stats.MeanRounds(); got != 12.5 {
		t.Errorf("mean rounds = %f, want 12.5", got)
	}
	if got := stats.Median(); got != 11 {
		t.Errorf("median rounds = %f, want 11", got)
	}
	if got := stats.PresentRate(); math.Abs(got-24.0/49.0) > 1e-9 {
		t.Errorf("present rate = %f", got)
	}
	if err := stats.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestSeatStats_ConfidenceInterval(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		seat      SeatStats
		low, high float64
		tolerance float64
	}{
		{"half", SeatStats{Games: 100, Wins: 50}, 0.402, 0.598, 0.001},
		{"never", SeatStats{Games: 10, Wins: 0}, 0, 0, 1e-9},
		{"always", SeatStats{Games: 10, Wins: 10}, 1, 1, 1e-9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			low, high := tt.seat.ConfidenceInterval95()
			if math.Abs(low-tt.low) > tt.tolerance || math.Abs(high-tt.high) > tt.tolerance {
				t.Errorf("CI = [%f, %f], want [%f, %f]", low, high, tt.low, tt.high)
			}
		})
	}
}

func TestStatistics_Percentile(t *testing.T) {
	t.Parallel()
	stats := New([]string{"a"})
	for _, rounds := range []int{1, 2, 3, 4, 5} {
		stats.Add(GameResult{Winner: 0, Rounds: rounds})
	}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.25, 2},
		{0.5, 3},
		{0.9, 4.6},
		{1, 5},
	}
	for _, tt := range tests {
		if got := stats.Percentile(tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Percentile(%v) = %f, want %f", tt.p, got, tt.want)
		}
	}
	if got := stats.StdDev(); math.Abs(got-math.Sqrt(2.5)) > 1e-9 {
		t.Errorf("StdDev() = %f, want %f", got, math.Sqrt(2.5))
	}
}

func TestStatistics_ValidateCatchesMismatch(t *testing.T) {
	t.Parallel()
	stats := New([]string{"a", "b"})
	stats.Add(GameResult{Winner: 0, Rounds: 3, ChecksPresent: 2, ChecksAbsent: 1})
	stats.Seats[1].Games = 0

	if err := stats.Validate(); err == nil {
		t.Error("Expected seat mismatch to fail validation")
	}
}
