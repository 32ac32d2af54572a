// Package statistics aggregates the outcomes of simulated games.
package statistics

import (
	"fmt"
	"math"
	"sort"
)

// GameResult is the outcome of one complete game.
type GameResult struct {
	Seed          int64
	Winner        int // seat index, -1 when the game produced no winner
	Rounds        int
	ChecksPresent int // checks where the declared hand was on the table
	ChecksAbsent  int
	Eliminations  int
}

// SeatStats tracks one seat across games.
type SeatStats struct {
	Label string
	Games int
	Wins  int
}

// WinRate returns the fraction of games the seat won.
func (s SeatStats) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

// StdError returns the standard error of the win rate.
func (s SeatStats) StdError() float64 {
	if s.Games == 0 {
		return 0
	}
	p := s.WinRate()
	return math.Sqrt(p * (1 - p) / float64(s.Games))
}

// ConfidenceInterval95 returns the 95% confidence interval for the win rate,
// clamped to [0, 1].
func (s SeatStats) ConfidenceInterval95() (float64, float64) {
	p := s.WinRate()
	margin := 1.96 * s.StdError()
	return math.Max(0, p-margin), math.Min(1, p+margin)
}

// Statistics tracks a simulation run.
type Statistics struct {
	Games         int
	Unfinished    int // games stopped at the round cap
	Rounds        int
	ChecksPresent int
	ChecksAbsent  int
	Eliminations  int

	Seats []SeatStats

	sumRounds  float64
	sumRounds2 float64
	values     []float64 // rounds per game, for median and percentiles
}

// New returns statistics for seats with the given labels.
func New(labels []string) *Statistics {
	s := &Statistics{Seats: make([]SeatStats, len(labels))}
	for i, l := range labels {
		s.Seats[i].Label = l
	}
	return s
}

// Add incorporates a game result.
func (s *Statistics) Add(r GameResult) {
	s.Games++
	s.Rounds += r.Rounds
	s.ChecksPresent += r.ChecksPresent
	s.ChecksAbsent += r.ChecksAbsent
	s.Eliminations += r.Eliminations

	rounds := float64(r.Rounds)
	s.sumRounds += rounds
	s.sumRounds2 += rounds * rounds
	s.values = append(s.values, rounds)

	for i := range s.Seats {
		s.Seats[i].Games++
	}
	if r.Winner >= 0 && r.Winner < len(s.Seats) {
		s.Seats[r.Winner].Wins++
	} else {
		s.Unfinished++
	}
}

// Checks returns the number of resolved checks.
func (s *Statistics) Checks() int {
	return s.ChecksPresent + s.ChecksAbsent
}

// PresentRate returns the fraction of checks where the declared hand was present.
func (s *Statistics) PresentRate() float64 {
	if s.Checks() == 0 {
		return 0
	}
	return float64(s.ChecksPresent) / float64(s.Checks())
}

// MeanRounds returns the mean number of rounds per game.
func (s *Statistics) MeanRounds() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.sumRounds / float64(s.Games)
}

// Variance returns the sample variance of rounds per game.
func (s *Statistics) Variance() float64 {
	if s.Games < 2 {
		return 0
	}
	mean := s.MeanRounds()
	return (s.sumRounds2 - float64(s.Games)*mean*mean) / float64(s.Games-1)
}

// StdDev returns the sample standard deviation of rounds per game.
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// Median returns the median number of rounds per game.
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the rounds-per-game value at percentile p (0.0 to 1.0).
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.values))
	copy(sorted, s.values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Validate checks that the counters are consistent.
func (s *Statistics) Validate() error {
	if s.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", s.Games)
	}
	if len(s.values) != s.Games {
		return fmt.Errorf("values length (%d) does not match games count (%d)", len(s.values), s.Games)
	}
	wins := 0
	for _, seat := range s.Seats {
		if seat.Games != s.Games {
			return fmt.Errorf("seat %s played %d of %d games", seat.Label, seat.Games, s.Games)
		}
		wins += seat.Wins
	}
	if wins+s.Unfinished != s.Games {
		return fmt.Errorf("wins (%d) plus unfinished (%d) does not match games (%d)", wins, s.Unfinished, s.Games)
	}
	if s.Checks() > s.Rounds {
		return fmt.Errorf("more checks (%d) than rounds (%d)", s.Checks(), s.Rounds)
	}
	return nil
}
