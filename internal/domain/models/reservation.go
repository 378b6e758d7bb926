package models

import (
	"sort"
	"time"

	"collegetour/internal/domain"
)

// Stage is where a student is in the registration flow. Stages only move
// forward for the student; only an administrator deleting a bus can move a
// BusSelected user back to an earlier stage.
type Stage int

const (
	StageNoPackage Stage = iota
	StagePackageSelected
	StageExtraPlacesDecided
	StageBusSelected
)

func (s Stage) String() string {
	switch s {
	case StagePackageSelected:
		return "package_selected"
	case StageExtraPlacesDecided:
		return "extra_places_decided"
	case StageBusSelected:
		return "bus_selected"
	default:
		return "no_package"
	}
}

// PackageSelection is set once and has no way back to nil.
type PackageSelection struct {
	packageID  int64
	selectedAt time.Time
}

func (p PackageSelection) PackageID() int64      { return p.packageID }
func (p PackageSelection) SelectedAt() time.Time { return p.selectedAt }

type ExtraPlacesSelection struct {
	placeIDs   []int64
	selectedAt time.Time
}

func (e ExtraPlacesSelection) PlaceIDs() []int64 {
	return append([]int64(nil), e.placeIDs...)
}
func (e ExtraPlacesSelection) SelectedAt() time.Time { return e.selectedAt }

type SeatAssignment struct {
	busID      int64
	seatNumber int
	selectedAt time.Time
}

func (s SeatAssignment) BusID() int64          { return s.busID }
func (s SeatAssignment) SeatNumber() int       { return s.seatNumber }
func (s SeatAssignment) SelectedAt() time.Time { return s.selectedAt }

// ReservationRecord is the flat, nullable form of a user's reservation state
// used for persistence.
type ReservationRecord struct {
	PackageID             *int64
	PackageSelectedAt     *time.Time
	ExtraPlaceIDs         []int64
	ExtraPlacesSelectedAt *time.Time
	BusID                 *int64
	SeatNumber            *int
	BusSelectedAt         *time.Time
}

// RestoreReservation hydrates reservation state loaded from storage.
// Extra places and seat are ignored without a package, matching the
// forward-only flow.
func (u *User) RestoreReservation(r ReservationRecord) {
	u.pkg, u.extras, u.seat = nil, nil, nil
	if r.PackageID == nil {
		return
	}
	sel := PackageSelection{packageID: *r.PackageID}
	if r.PackageSelectedAt != nil {
		sel.selectedAt = *r.PackageSelectedAt
	}
	u.pkg = &sel

	if r.ExtraPlacesSelectedAt != nil {
		u.extras = &ExtraPlacesSelection{
			placeIDs:   normalizeIDs(r.ExtraPlaceIDs),
			selectedAt: *r.ExtraPlacesSelectedAt,
		}
	}
	if r.BusID != nil {
		seat := SeatAssignment{busID: *r.BusID}
		if r.SeatNumber != nil {
			seat.seatNumber = *r.SeatNumber
		}
		if r.BusSelectedAt != nil {
			seat.selectedAt = *r.BusSelectedAt
		}
		u.seat = &seat
	}
}

func (u *User) ReservationRecord() ReservationRecord {
	var r ReservationRecord
	if u.pkg != nil {
		id, at := u.pkg.packageID, u.pkg.selectedAt
		r.PackageID, r.PackageSelectedAt = &id, &at
	}
	if u.extras != nil {
		at := u.extras.selectedAt
		r.ExtraPlaceIDs = u.extras.PlaceIDs()
		r.ExtraPlacesSelectedAt = &at
	}
	if u.seat != nil {
		bus, seat, at := u.seat.busID, u.seat.seatNumber, u.seat.selectedAt
		r.BusID, r.SeatNumber, r.BusSelectedAt = &bus, &seat, &at
	}
	return r
}

func (u *User) Stage() Stage {
	switch {
	case u.seat != nil:
		return StageBusSelected
	case u.extras != nil:
		return StageExtraPlacesDecided
	case u.pkg != nil:
		return StagePackageSelected
	default:
		return StageNoPackage
	}
}

func (u *User) Package() (PackageSelection, bool) {
	if u.pkg == nil {
		return PackageSelection{}, false
	}
	return *u.pkg, true
}

func (u *User) ExtraPlaces() (ExtraPlacesSelection, bool) {
	if u.extras == nil {
		return ExtraPlacesSelection{}, false
	}
	return *u.extras, true
}

func (u *User) Seat() (SeatAssignment, bool) {
	if u.seat == nil {
		return SeatAssignment{}, false
	}
	return *u.seat, true
}

// SelectPackage records the user's one and only package.
func (u *User) SelectPackage(p Package, now time.Time) error {
	if u.pkg != nil {
		return domain.ConflictError{Resource: "package", Reason: domain.ReasonAlreadySelected, Msg: "a package has already been selected and cannot be changed"}
	}
	if p.ID == 0 || !p.IsActive || p.CollegeID != u.CollegeID {
		return domain.NotFoundError{Resource: "package"}
	}
	u.pkg = &PackageSelection{packageID: p.ID, selectedAt: now}
	return nil
}

// SelectExtraPlaces replaces the extra place set. It may be repeated.
// p must be the user's selected package with PlaceIDs loaded.
func (u *User) SelectExtraPlaces(p Package, placeIDs []int64, now time.Time) error {
	if u.pkg == nil {
		return domain.ConflictError{Resource: "extra places", Reason: domain.ReasonPackageRequired, Msg: "select a package first"}
	}
	if p.ID != u.pkg.packageID {
		return domain.ValidationError{Field: "package", Msg: "does not match the selected package"}
	}
	ids := normalizeIDs(placeIDs)
	for _, id := range ids {
		if p.HasPlace(id) {
			return domain.ConflictError{Resource: "extra places", Reason: domain.ReasonConflictingSelection, Msg: "cannot select places already in your package"}
		}
	}
	u.extras = &ExtraPlacesSelection{placeIDs: ids, selectedAt: now}
	return nil
}

// CheckCanBook runs the user-side bus preconditions in order.
func (u *User) CheckCanBook() error {
	if u.pkg == nil {
		return domain.ConflictError{Resource: "bus", Reason: domain.ReasonPackageRequired, Msg: "select a package first"}
	}
	if u.seat != nil {
		return domain.ConflictError{Resource: "bus", Reason: domain.ReasonAlreadyBooked, Msg: "a bus has already been selected"}
	}
	return nil
}

// SelectBus books a seat on b for the user. taken lists the seat numbers
// already held on b. On error neither u nor b is modified.
func (u *User) SelectBus(b *Bus, taken []int, now time.Time) error {
	if err := u.CheckCanBook(); err != nil {
		return err
	}
	if b == nil || b.ID == 0 {
		return domain.NotFoundError{Resource: "bus", Reason: domain.ReasonBusNotFound}
	}
	if !b.IsActive {
		return domain.ConflictError{Resource: "bus", Reason: domain.ReasonBusInactive, Msg: "selected bus is not available"}
	}
	if b.CollegeID != u.CollegeID {
		return domain.MismatchError{Reason: domain.ReasonCollegeMismatch, Msg: "you can only select buses from your college"}
	}
	seat, err := b.BookSeat(taken)
	if err != nil {
		return err
	}
	u.seat = &SeatAssignment{busID: b.ID, seatNumber: seat, selectedAt: now}
	return nil
}

// ReleaseBusSeat gives the user's seat back to b and clears the assignment.
// b may be nil when the bus row no longer exists. It reports whether the user
// held a seat.
func (u *User) ReleaseBusSeat(b *Bus) bool {
	if u.seat == nil {
		return false
	}
	if b != nil && b.ID == u.seat.busID {
		b.ReleaseSeat()
	}
	u.seat = nil
	return true
}

// DetachBus clears the seat without touching any bus counters. Used when the
// bus itself is being deleted.
func (u *User) DetachBus() {
	u.seat = nil
}

// TotalPrice is the package price plus every extra place price.
func TotalPrice(p *Package, extras []Place) ReservationTotal {
	t := ReservationTotal{ExtraPlaces: SumPrices(extras)}
	if p != nil {
		t.Package = p.Price
	}
	t.Total = t.Package.Add(t.ExtraPlaces)
	return t
}

func normalizeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
