package models

import (
	"encoding/json"
	"time"

	"collegetour/internal/domain"
)

const (
	MinBusCapacity = 1
	MaxBusCapacity = 100
)

// Bus seat state. Only BookedSeats is stored; availability is always derived.
type Bus struct {
	ID          int64     `json:"id"`
	CollegeID   int64     `json:"collegeId"`
	BusName     string    `json:"busName"`
	BusNumber   string    `json:"busNumber"`
	Capacity    int       `json:"capacity"`
	BookedSeats int       `json:"bookedSeats"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AvailableSeats is capacity minus booked, clamped to [0, capacity].
func (b Bus) AvailableSeats() int {
	n := b.Capacity - b.BookedSeats
	if n < 0 {
		return 0
	}
	if n > b.Capacity {
		return b.Capacity
	}
	return n
}

func (b Bus) IsFull() bool {
	return b.AvailableSeats() == 0
}

// Status buckets availability the way the seat picker shows it.
func (b Bus) Status() string {
	switch n := b.AvailableSeats(); {
	case n == 0:
		return "FULL"
	case n <= 10:
		return "FILLING"
	default:
		return "AVAILABLE"
	}
}

func (b Bus) OccupancyPercent() float64 {
	if b.Capacity <= 0 {
		return 0
	}
	return float64(b.BookedSeats) / float64(b.Capacity) * 100
}

// BookSeat takes one seat and returns the seat number to hand out. The number
// is the lowest position in 1..capacity not present in taken, so a bus that
// only ever grows hands out 1, 2, 3... in booking order. A number freed by a
// release is handed to the next booking.
func (b *Bus) BookSeat(taken []int) (int, error) {
	if b.AvailableSeats() <= 0 {
		return 0, domain.CapacityError{Resource: "bus", Reason: domain.ReasonBusFull, Msg: "no seats available in this bus"}
	}
	used := make(map[int]bool, len(taken))
	for _, s := range taken {
		used[s] = true
	}
	seat := 0
	for n := 1; n <= b.Capacity; n++ {
		if !used[n] {
			seat = n
			break
		}
	}
	if seat == 0 {
		return 0, domain.CapacityError{Resource: "bus", Reason: domain.ReasonBusFull, Msg: "no seats available in this bus"}
	}
	b.BookedSeats++
	return seat, nil
}

// ReleaseSeat gives one seat back, never dropping below zero.
func (b *Bus) ReleaseSeat() {
	if b.BookedSeats > 0 {
		b.BookedSeats--
	}
}

func (b Bus) MarshalJSON() ([]byte, error) {
	type plain Bus
	return json.Marshal(struct {
		plain
		AvailableSeats   int     `json:"availableSeats"`
		IsFull           bool    `json:"isFull"`
		Status           string  `json:"status"`
		OccupancyPercent float64 `json:"occupancyPercentage"`
	}{
		plain:            plain(b),
		AvailableSeats:   b.AvailableSeats(),
		IsFull:           b.IsFull(),
		Status:           b.Status(),
		OccupancyPercent: b.OccupancyPercent(),
	})
}
