package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"collegetour/internal/cache"
	intconfig "collegetour/internal/config"
	intdb "collegetour/internal/db"
	"collegetour/internal/domain"
	"collegetour/internal/domain/models"
	"collegetour/internal/metrics"
	"collegetour/internal/repositories"
	"collegetour/internal/utils"
)

// ReservationService runs the student registration flow: package, extra
// places, bus seat. Every transition locks the user row first and, for seat
// changes, the bus row second; other writers follow the same order.
type ReservationService struct {
	DB        *sql.DB
	Cache     *cache.BusCache
	RequestID string
	Now       func() time.Time
}

func (s ReservationService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s ReservationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s ReservationService) log(action, msg string) {
	utils.LogEvent(s.RequestID, "reservation", action, msg)
}

// SelectPackage stores the student's one package.
func (s ReservationService) SelectPackage(ctx context.Context, userID, packageID int64) (u models.User, err error) {
	defer func(start time.Time) { metrics.ObserveReservation("select_package", start, err) }(time.Now())

	now := s.now()
	err = intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		users := repositories.UserRepository{DB: tx}
		var err error
		if u, err = users.GetByID(ctx, userID, true); err != nil {
			return err
		}
		if _, ok := u.Package(); ok {
			return u.SelectPackage(models.Package{}, now)
		}
		pkg, err := repositories.PackageRepository{DB: tx}.GetByID(ctx, packageID)
		if err != nil {
			return err
		}
		if err := u.SelectPackage(pkg, now); err != nil {
			return err
		}
		ok, err := users.SetPackage(ctx, userID, packageID, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ConflictError{Resource: "package", Reason: domain.ReasonAlreadySelected, Msg: "a package has already been selected and cannot be changed"}
		}
		return nil
	})
	if err != nil {
		s.log("select_package_failed", fmt.Sprintf("user_id=%d package_id=%d err=%v", userID, packageID, err))
		return models.User{}, err
	}
	s.log("select_package", fmt.Sprintf("user_id=%d package_id=%d", userID, packageID))
	return u, nil
}

// SelectExtraPlaces replaces the student's extra places. An empty list
// records the decision to skip.
func (s ReservationService) SelectExtraPlaces(ctx context.Context, userID int64, placeIDs []int64) (u models.User, err error) {
	defer func(start time.Time) { metrics.ObserveReservation("select_extra_places", start, err) }(time.Now())

	now := s.now()
	err = intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		users := repositories.UserRepository{DB: tx}
		var err error
		if u, err = users.GetByID(ctx, userID, true); err != nil {
			return err
		}
		sel, ok := u.Package()
		if !ok {
			return u.SelectExtraPlaces(models.Package{}, placeIDs, now)
		}
		pkg, err := repositories.PackageRepository{DB: tx}.GetByID(ctx, sel.PackageID())
		if err != nil {
			return err
		}
		if err := u.SelectExtraPlaces(pkg, placeIDs, now); err != nil {
			return err
		}
		extras, _ := u.ExtraPlaces()
		ids := extras.PlaceIDs()
		found, err := repositories.PlaceRepository{DB: tx}.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(found) != len(ids) {
			return domain.NotFoundError{Resource: "place"}
		}
		for _, p := range found {
			if !p.IsActive {
				return domain.NotFoundError{Resource: "place"}
			}
		}
		return users.ReplaceExtraPlaces(ctx, userID, ids, now)
	})
	if err != nil {
		s.log("select_extra_places_failed", fmt.Sprintf("user_id=%d err=%v", userID, err))
		return models.User{}, err
	}
	extras, _ := u.ExtraPlaces()
	s.log("select_extra_places", fmt.Sprintf("user_id=%d places=%d", userID, len(extras.PlaceIDs())))
	return u, nil
}

// SelectBus books one seat for the student. The bus counter and the user's
// seat are written in one transaction; any failure leaves both unchanged.
func (s ReservationService) SelectBus(ctx context.Context, userID, busID int64) (u models.User, err error) {
	defer func(start time.Time) { metrics.ObserveReservation("select_bus", start, err) }(time.Now())

	var bus models.Bus
	now := s.now()
	err = intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		users := repositories.UserRepository{DB: tx}
		buses := repositories.BusRepository{DB: tx}
		var err error
		if u, err = users.GetByID(ctx, userID, true); err != nil {
			return err
		}
		if err := u.CheckCanBook(); err != nil {
			return err
		}
		if bus, err = buses.GetByID(ctx, busID, true); err != nil {
			return err
		}
		taken, err := users.TakenSeats(ctx, busID)
		if err != nil {
			return err
		}
		if err := u.SelectBus(&bus, taken, now); err != nil {
			return err
		}
		ok, err := buses.IncrementBooked(ctx, busID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.CapacityError{Resource: "bus", Reason: domain.ReasonBusFull, Msg: "no seats available in this bus"}
		}
		seat, _ := u.Seat()
		assigned, err := users.AssignSeat(ctx, userID, busID, seat.SeatNumber(), now)
		if err != nil {
			return err
		}
		if !assigned {
			return domain.ConflictError{Resource: "bus", Reason: domain.ReasonAlreadyBooked, Msg: "a bus has already been selected"}
		}
		return nil
	})
	if err != nil {
		s.log("select_bus_failed", fmt.Sprintf("user_id=%d bus_id=%d err=%v", userID, busID, err))
		return models.User{}, err
	}
	s.invalidate(ctx, bus.CollegeID)
	seat, _ := u.Seat()
	s.log("select_bus", fmt.Sprintf("user_id=%d bus_id=%d seat=%d", userID, busID, seat.SeatNumber()))
	return u, nil
}

// ReleaseBusSeat gives the student's seat back. It reports whether a seat
// was held.
func (s ReservationService) ReleaseBusSeat(ctx context.Context, userID int64) (released bool, err error) {
	defer func(start time.Time) { metrics.ObserveReservation("release_seat", start, err) }(time.Now())

	var collegeID int64
	err = intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		u, err := repositories.UserRepository{DB: tx}.GetByID(ctx, userID, true)
		if err != nil {
			return err
		}
		collegeID, released, err = releaseSeatTx(ctx, tx, &u)
		return err
	})
	if err != nil {
		return false, err
	}
	if released {
		s.invalidate(ctx, collegeID)
		metrics.SeatsReleased("released", 1)
		s.log("release_seat", fmt.Sprintf("user_id=%d", userID))
	}
	return released, nil
}

// releaseSeatTx expects u to be locked by tx. It returns the college of the
// bus whose counter changed.
func releaseSeatTx(ctx context.Context, tx *sql.Tx, u *models.User) (int64, bool, error) {
	seat, ok := u.Seat()
	if !ok {
		return 0, false, nil
	}
	buses := repositories.BusRepository{DB: tx}
	var busPtr *models.Bus
	bus, err := buses.GetByID(ctx, seat.BusID(), true)
	switch {
	case err == nil:
		busPtr = &bus
	case !domain.IsNotFound(err):
		return 0, false, err
	}
	u.ReleaseBusSeat(busPtr)
	if busPtr != nil {
		if err := buses.DecrementBooked(ctx, bus.ID); err != nil {
			return 0, false, err
		}
	}
	if err := (repositories.UserRepository{DB: tx}).ClearSeat(ctx, u.ID); err != nil {
		return 0, false, err
	}
	return bus.CollegeID, true, nil
}

func (s ReservationService) invalidate(ctx context.Context, collegeIDs ...int64) {
	if err := s.Cache.Invalidate(ctx, collegeIDs...); err != nil {
		s.log("cache_invalidate_failed", err.Error())
	}
}

// BusesForCollege lists the active buses a student may pick, served from the
// cache when possible.
func (s ReservationService) BusesForCollege(ctx context.Context, collegeID int64) ([]models.Bus, error) {
	if buses, ok, err := s.Cache.Get(ctx, collegeID); err != nil {
		s.log("cache_get_failed", err.Error())
	} else if ok {
		metrics.CacheHit()
		return buses, nil
	}
	metrics.CacheMiss()

	buses, err := repositories.BusRepository{DB: s.db()}.ListActiveByCollege(ctx, collegeID)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.Set(ctx, collegeID, buses); err != nil {
		s.log("cache_set_failed", err.Error())
	}
	return buses, nil
}

// View assembles the student's reservation with prices.
func (s ReservationService) View(ctx context.Context, userID int64) (models.ReservationView, error) {
	db := s.db()
	u, err := repositories.UserRepository{DB: db}.GetByID(ctx, userID, false)
	if err != nil {
		return models.ReservationView{}, err
	}
	return buildView(ctx, db, u)
}

func buildView(ctx context.Context, db intdb.DBTX, u models.User) (models.ReservationView, error) {
	view := models.ReservationView{User: u.ToPublic(), ExtraPlaces: []models.Place{}}
	places := repositories.PlaceRepository{DB: db}

	if u.CollegeID > 0 {
		c, err := repositories.CollegeRepository{DB: db}.GetByID(ctx, u.CollegeID, false)
		if err != nil && !domain.IsNotFound(err) {
			return view, err
		}
		if err == nil {
			view.College = &c
		}
	}
	if sel, ok := u.Package(); ok {
		pkg, err := repositories.PackageRepository{DB: db}.GetByID(ctx, sel.PackageID())
		if err != nil && !domain.IsNotFound(err) {
			return view, err
		}
		if err == nil {
			if pkg.Places, err = loadOrdered(ctx, places, pkg.PlaceIDs); err != nil {
				return view, err
			}
			view.Package = &pkg
		}
	}
	if extras, ok := u.ExtraPlaces(); ok {
		list, err := places.GetByIDs(ctx, extras.PlaceIDs())
		if err != nil {
			return view, err
		}
		view.ExtraPlaces = list
	}
	if seat, ok := u.Seat(); ok {
		bus, err := repositories.BusRepository{DB: db}.GetByID(ctx, seat.BusID(), false)
		if err != nil && !domain.IsNotFound(err) {
			return view, err
		}
		if err == nil {
			view.Bus = &bus
		}
		n := seat.SeatNumber()
		view.SeatNumber = &n
	}
	view.Totals = models.TotalPrice(view.Package, view.ExtraPlaces)
	view.IsComplete = view.Package != nil && view.SeatNumber != nil
	return view, nil
}

// loadOrdered returns places in the order of ids, skipping missing ones.
func loadOrdered(ctx context.Context, repo repositories.PlaceRepository, ids []int64) ([]models.Place, error) {
	list, err := repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.Place, len(list))
	for _, p := range list {
		byID[p.ID] = p
	}
	out := make([]models.Place, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
