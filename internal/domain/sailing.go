package domain

import "time"

type SailingStatus string

const (
	SailingStatusScheduled SailingStatus = "SCHEDULED"
	SailingStatusBoarding  SailingStatus = "BOARDING"
	SailingStatusDeparted  SailingStatus = "DEPARTED"
	SailingStatusCancelled SailingStatus = "CANCELLED"
)

type Sailing struct {
	ID                  int64
	RouteFrom           string
	RouteTo             string
	DepartureTime       time.Time
	ArrivalTime         time.Time
	Status              SailingStatus
	TotalVehicles       int
	TotalPassengers     int
	AvailableVehicles   int
	AvailablePassengers int
	BookingDeadline     time.Time
	CheckInOpensAt      time.Time
	CheckInClosesAt     time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OpenForBooking reports whether new bookings are still accepted.
func (s *Sailing) OpenForBooking(now time.Time) bool {
	return s.Status == SailingStatusScheduled && now.Before(s.BookingDeadline)
}

// CapacityInfo is the ledger snapshot exposed to callers.
type CapacityInfo struct {
	SailingID           int64 `json:"sailing_id"`
	TotalVehicles       int   `json:"total_vehicles"`
	TotalPassengers     int   `json:"total_passengers"`
	AvailableVehicles   int   `json:"available_vehicles"`
	AvailablePassengers int   `json:"available_passengers"`
}

type Customer struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

type Vehicle struct {
	ID           int64
	OwnerID      int64
	Plate        string
	Type         string
	LengthMeters float64
	CreatedAt    time.Time
}
