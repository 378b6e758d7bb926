package models

import (
	"time"

	"collegetour/internal/domain"
)

const (
	MinStudentAge     = 16
	MaxStudentAge     = 35
	MinPasswordLength = 6
)

var (
	Genders   = []string{"Male", "Female"}
	Divisions = []string{"A", "B", "C"}
)

// User is a student or an administrator. Reservation state lives in
// unexported fields and only changes through the transitions in
// reservation.go.
type User struct {
	ID            int64
	FullName      string
	Email         string
	MobileNumber  string
	Gender        string
	SpuID         string
	Age           int
	RollNumber    string
	PasswordHash  string
	Role          domain.Role
	CollegeID     int64
	Department    string
	Division      string
	PaymentStatus domain.PaymentStatus
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	pkg    *PackageSelection
	extras *ExtraPlacesSelection
	seat   *SeatAssignment
}

func (u *User) IsAdmin() bool {
	return u.Role == domain.RoleAdmin
}

// PublicUser is the JSON shape returned to clients.
type PublicUser struct {
	ID                    int64                `json:"id"`
	FullName              string               `json:"fullName"`
	Email                 string               `json:"email"`
	MobileNumber          string               `json:"mobileNumber"`
	Gender                string               `json:"gender"`
	SpuID                 string               `json:"spuId"`
	Age                   int                  `json:"age"`
	RollNumber            string               `json:"rollNumber"`
	Role                  domain.Role          `json:"role"`
	CollegeID             int64                `json:"collegeId"`
	Department            string               `json:"department"`
	Division              string               `json:"division"`
	PaymentStatus         domain.PaymentStatus `json:"paymentStatus"`
	IsActive              bool                 `json:"isActive"`
	Stage                 string               `json:"stage"`
	SelectedPackageID     *int64               `json:"selectedPackageId"`
	PackageSelectedAt     *time.Time           `json:"packageSelectedAt"`
	ExtraPlaceIDs         []int64              `json:"extraPlaceIds"`
	ExtraPlacesSelectedAt *time.Time           `json:"extraPlacesSelectedAt"`
	SelectedBusID         *int64               `json:"selectedBusId"`
	SeatNumber            *int                 `json:"seatNumber"`
	BusSelectedAt         *time.Time           `json:"busSelectedAt"`
	CreatedAt             time.Time            `json:"createdAt"`
	UpdatedAt             time.Time            `json:"updatedAt"`
}

func (u *User) ToPublic() PublicUser {
	rec := u.ReservationRecord()
	extras := rec.ExtraPlaceIDs
	if extras == nil {
		extras = []int64{}
	}
	return PublicUser{
		ID:                    u.ID,
		FullName:              u.FullName,
		Email:                 u.Email,
		MobileNumber:          u.MobileNumber,
		Gender:                u.Gender,
		SpuID:                 u.SpuID,
		Age:                   u.Age,
		RollNumber:            u.RollNumber,
		Role:                  u.Role,
		CollegeID:             u.CollegeID,
		Department:            u.Department,
		Division:              u.Division,
		PaymentStatus:         u.PaymentStatus,
		IsActive:              u.IsActive,
		Stage:                 u.Stage().String(),
		SelectedPackageID:     rec.PackageID,
		PackageSelectedAt:     rec.PackageSelectedAt,
		ExtraPlaceIDs:         extras,
		ExtraPlacesSelectedAt: rec.ExtraPlacesSelectedAt,
		SelectedBusID:         rec.BusID,
		SeatNumber:            rec.SeatNumber,
		BusSelectedAt:         rec.BusSelectedAt,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}
