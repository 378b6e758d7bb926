package models

import "github.com/shopspring/decimal"

// ReservationTotal breaks the amount due into its parts.
type ReservationTotal struct {
	Package     decimal.Decimal `json:"packagePrice"`
	ExtraPlaces decimal.Decimal `json:"extraPlacesTotal"`
	Total       decimal.Decimal `json:"totalAmount"`
}

// ReservationView is the read model of one student's registration.
type ReservationView struct {
	User        PublicUser       `json:"user"`
	College     *College         `json:"college"`
	Package     *Package         `json:"package"`
	ExtraPlaces []Place          `json:"extraPlaces"`
	Bus         *Bus             `json:"bus"`
	SeatNumber  *int             `json:"seatNumber"`
	Totals      ReservationTotal `json:"totals"`
	IsComplete  bool             `json:"isComplete"`
}

// UserStats summarises how far students got through registration.
type UserStats struct {
	Total          int     `json:"total"`
	WithPackage    int     `json:"withPackage"`
	WithBus        int     `json:"withBus"`
	Complete       int     `json:"complete"`
	Incomplete     int     `json:"incomplete"`
	CompletionRate float64 `json:"completionRate"`
	PackageRate    float64 `json:"packageRate"`
	BusRate        float64 `json:"busRate"`
}

// Finalize derives the ratios from the raw counts.
func (s *UserStats) Finalize() {
	s.Incomplete = s.Total - s.Complete
	s.CompletionRate = percent(s.Complete, s.Total)
	s.PackageRate = percent(s.WithPackage, s.Total)
	s.BusRate = percent(s.WithBus, s.Total)
}

// BusStats aggregates seat usage across buses.
type BusStats struct {
	TotalBuses     int     `json:"totalBuses"`
	FullBuses      int     `json:"fullBuses"`
	AvailableBuses int     `json:"availableBuses"`
	TotalCapacity  int     `json:"totalCapacity"`
	TotalBooked    int     `json:"totalBooked"`
	TotalAvailable int     `json:"totalAvailable"`
	OccupancyRate  float64 `json:"occupancyRate"`
}

// ComputeBusStats folds a bus list into BusStats.
func ComputeBusStats(buses []Bus) BusStats {
	var s BusStats
	for _, b := range buses {
		s.TotalBuses++
		if b.IsFull() {
			s.FullBuses++
		}
		s.TotalCapacity += b.Capacity
		s.TotalBooked += b.BookedSeats
		s.TotalAvailable += b.AvailableSeats()
	}
	s.AvailableBuses = s.TotalBuses - s.FullBuses
	s.OccupancyRate = percent(s.TotalBooked, s.TotalCapacity)
	return s
}

func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	v := float64(part) / float64(whole) * 100
	return float64(int(v*100+0.5)) / 100
}
