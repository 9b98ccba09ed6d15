package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInstance         = errors.New("invalid instance")
	ErrExtractionInconsistency = errors.New("extraction inconsistency")
)

// StandardInstances are the tournament sizes run by a full batch.
var StandardInstances = []int{4, 6, 8, 10, 12, 14, 16, 18, 20}

// Instance is a tournament of N teams. N must be even and at least 2.
type Instance struct {
	N int
}

func NewInstance(n int) (Instance, error) {
	if n < 2 || n%2 != 0 {
		return Instance{}, fmt.Errorf("%w: n must be even and >= 2, got %d", ErrInvalidInstance, n)
	}
	return Instance{N: n}, nil
}

// Weeks returns the number of weeks (n-1)
func (instance Instance) Weeks() int { return instance.N - 1 }

// Periods returns the number of periods per week (n/2)
func (instance Instance) Periods() int { return instance.N / 2 }

// Slots returns the number of (period, week) slots
func (instance Instance) Slots() int { return instance.Weeks() * instance.Periods() }
