//-------------------------------------------------------------------------
//
// pgEdge Ledger Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package datagen provides data generation utilities.
package datagen

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Faker provides fake data generation using gofakeit. A Faker is the only
// random source a generation run uses, so two runs with the same seed
// produce the same rows.
type Faker struct {
	faker *gofakeit.Faker
	seed  uint64
}

// NewFaker creates a new Faker with a random seed.
func NewFaker() *Faker {
	return NewFakerWithSeed(uint64(time.Now().UnixNano()))
}

// NewFakerWithSeed creates a new Faker with a specific seed for reproducibility.
func NewFakerWithSeed(seed uint64) *Faker {
	return &Faker{
		faker: gofakeit.New(seed),
		seed:  seed,
	}
}

// Seed returns the seed the Faker was created with.
func (f *Faker) Seed() uint64 {
	return f.seed
}

// Name generates a random full name.
func (f *Faker) Name() string {
	return f.faker.Name()
}

// StateName generates a random US state name.
func (f *Faker) StateName() string {
	return f.faker.State()
}

// Country generates a random country name.
func (f *Faker) Country() string {
	return f.faker.Country()
}

// Job generates a random job title.
func (f *Faker) Job() string {
	return f.faker.JobTitle()
}

// Int generates a random integer between min and max (inclusive).
func (f *Faker) Int(min, max int) int {
	if max <= min {
		return min
	}
	return f.faker.IntRange(min, max)
}

// Int32 generates a random int32 between min and max (inclusive).
func (f *Faker) Int32(min, max int32) int32 {
	return int32(f.Int(int(min), int(max)))
}

// Float64 generates a random float64 between min and max.
func (f *Faker) Float64(min, max float64) float64 {
	if max <= min {
		return min
	}
	return f.faker.Float64Range(min, max)
}

// Chance returns true with probability p.
func (f *Faker) Chance(p float64) bool {
	return f.Float64(0, 1) < p
}

// Bool generates a random boolean.
func (f *Faker) Bool() bool {
	return f.faker.Bool()
}

// Day returns a random calendar day (midnight UTC) in [start, end].
// If end is before start, start is returned.
func (f *Faker) Day(start, end time.Time) time.Time {
	start = TruncateDay(start)
	end = TruncateDay(end)
	if !end.After(start) {
		return start
	}
	days := int(end.Sub(start).Hours() / 24)
	return start.AddDate(0, 0, f.Int(0, days))
}

// TruncateDay strips the time of day, keeping the calendar date in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Choose returns a random element from the given slice.
func Choose[T any](f *Faker, items []T) T {
	if len(items) == 0 {
		var zero T
		return zero
	}
	return items[f.Int(0, len(items)-1)]
}

// ChooseWeighted returns a random element based on weights.
func ChooseWeighted[T any](f *Faker, items []T, weights []int) T {
	if len(items) == 0 || len(weights) == 0 {
		var zero T
		return zero
	}

	totalWeight := 0
	for _, w := range weights {
		totalWeight += w
	}
	if totalWeight <= 0 {
		return items[0]
	}

	r := f.Int(1, totalWeight)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return items[i]
		}
	}

	return items[len(items)-1]
}

// Sample returns k distinct elements of items in random order.
// k is clamped to len(items).
func Sample[T any](f *Faker, items []T, k int) []T {
	k = max(0, min(k, len(items)))
	pool := make([]T, len(items))
	copy(pool, items)
	for i := 0; i < k; i++ {
		j := f.Int(i, len(pool)-1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// Ptr returns a pointer to v, for optional column values.
func Ptr[T any](v T) *T {
	return &v
}
