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

// AdminService backs the admin panel. Deletions that touch seats run in one
// transaction and lock users before buses, matching ReservationService.
type AdminService struct {
	DB              *sql.DB
	Cache           *cache.BusCache
	MaxMainPackages int
	RequestID       string
}

func (s AdminService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s AdminService) log(action, msg string) {
	utils.LogEvent(s.RequestID, "admin", action, msg)
}

func (s AdminService) invalidate(ctx context.Context, collegeIDs ...int64) {
	if err := s.Cache.Invalidate(ctx, collegeIDs...); err != nil {
		s.log("cache_invalidate_failed", err.Error())
	}
}

// ---- colleges ----

func (s AdminService) ListColleges(ctx context.Context, activeOnly bool) ([]models.College, error) {
	return repositories.CollegeRepository{DB: s.db()}.List(ctx, activeOnly)
}

func (s AdminService) CreateCollege(ctx context.Context, in CollegeInput) (models.College, error) {
	c, err := in.toModel()
	if err != nil {
		return models.College{}, err
	}
	repo := repositories.CollegeRepository{DB: s.db()}
	id, err := repo.Create(ctx, c)
	if err != nil {
		return models.College{}, err
	}
	s.log("create_college", fmt.Sprintf("college_id=%d", id))
	return repo.GetByID(ctx, id, false)
}

func (s AdminService) UpdateCollege(ctx context.Context, id int64, in CollegeInput) (models.College, error) {
	c, err := in.toModel()
	if err != nil {
		return models.College{}, err
	}
	c.ID = id
	repo := repositories.CollegeRepository{DB: s.db()}
	if err := repo.Update(ctx, c); err != nil {
		return models.College{}, err
	}
	s.invalidate(ctx, id)
	return repo.GetByID(ctx, id, false)
}

// DeleteCollege refuses while buses, packages or users still reference it.
func (s AdminService) DeleteCollege(ctx context.Context, id int64) error {
	err := intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		repo := repositories.CollegeRepository{DB: tx}
		if _, err := repo.GetByID(ctx, id, true); err != nil {
			return err
		}
		refs, err := repo.References(ctx, id)
		if err != nil {
			return err
		}
		if refs.Any() {
			return domain.ConflictError{
				Resource: "college",
				Reason:   domain.ReasonInUse,
				Msg:      fmt.Sprintf("college still has %d buses, %d packages and %d users", refs.Buses, refs.Packages, refs.Users),
			}
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.log("delete_college", fmt.Sprintf("college_id=%d", id))
	return nil
}

// ---- places ----

func (s AdminService) ListPlaces(ctx context.Context) ([]models.Place, error) {
	return repositories.PlaceRepository{DB: s.db()}.List(ctx, false)
}

func (s AdminService) CreatePlace(ctx context.Context, in PlaceInput) (models.Place, error) {
	p, err := in.toModel()
	if err != nil {
		return models.Place{}, err
	}
	repo := repositories.PlaceRepository{DB: s.db()}
	id, err := repo.Create(ctx, p)
	if err != nil {
		return models.Place{}, err
	}
	s.log("create_place", fmt.Sprintf("place_id=%d", id))
	return repo.GetByID(ctx, id)
}

func (s AdminService) UpdatePlace(ctx context.Context, id int64, in PlaceInput) (models.Place, error) {
	p, err := in.toModel()
	if err != nil {
		return models.Place{}, err
	}
	p.ID = id
	repo := repositories.PlaceRepository{DB: s.db()}
	if err := repo.Update(ctx, p); err != nil {
		return models.Place{}, err
	}
	return repo.GetByID(ctx, id)
}

func (s AdminService) DeletePlace(ctx context.Context, id int64) error {
	err := intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		repo := repositories.PlaceRepository{DB: tx}
		n, err := repo.References(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ConflictError{Resource: "place", Reason: domain.ReasonInUse, Msg: "place is part of a package or a student selection"}
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log("delete_place", fmt.Sprintf("place_id=%d", id))
	return nil
}

// ---- packages ----

func (s AdminService) ListPackages(ctx context.Context, collegeID int64) ([]models.Package, error) {
	return repositories.PackageRepository{DB: s.db()}.List(ctx, repositories.PackageFilter{CollegeID: collegeID})
}

func (s AdminService) GetPackage(ctx context.Context, id int64) (models.Package, error) {
	db := s.db()
	p, err := repositories.PackageRepository{DB: db}.GetByID(ctx, id)
	if err != nil {
		return models.Package{}, err
	}
	p.Places, err = loadOrdered(ctx, repositories.PlaceRepository{DB: db}, p.PlaceIDs)
	return p, err
}

// checkPackageRefs verifies the college and every place exist.
func checkPackageRefs(ctx context.Context, tx intdb.DBTX, p models.Package) error {
	if _, err := (repositories.CollegeRepository{DB: tx}).GetByID(ctx, p.CollegeID, true); err != nil {
		if domain.IsNotFound(err) {
			return domain.ValidationError{Field: "collegeId", Msg: "college not found"}
		}
		return err
	}
	found, err := repositories.PlaceRepository{DB: tx}.GetByIDs(ctx, p.PlaceIDs)
	if err != nil {
		return err
	}
	if len(found) != len(p.PlaceIDs) {
		return domain.ValidationError{Field: "placeIds", Msg: "one or more places not found"}
	}
	return nil
}

// CreatePackage enforces the main package cap per college. The college row
// is locked so two concurrent creations cannot both pass the count.
func (s AdminService) CreatePackage(ctx context.Context, in PackageInput) (models.Package, error) {
	p, err := in.toModel()
	if err != nil {
		return models.Package{}, err
	}
	var id int64
	err = intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		if err := checkPackageRefs(ctx, tx, p); err != nil {
			return err
		}
		packages := repositories.PackageRepository{DB: tx}
		if p.CountsTowardCap() {
			n, err := packages.CountActiveMain(ctx, p.CollegeID)
			if err != nil {
				return err
			}
			if err := models.CheckMainPackageCap(p, n, s.MaxMainPackages); err != nil {
				return err
			}
		}
		id, err = packages.Create(ctx, p)
		return err
	})
	if err != nil {
		return models.Package{}, err
	}
	s.log("create_package", fmt.Sprintf("package_id=%d college_id=%d", id, p.CollegeID))
	return s.GetPackage(ctx, id)
}

// UpdatePackage applies the cap when the change turns the package into an
// active main package of a college.
func (s AdminService) UpdatePackage(ctx context.Context, id int64, in PackageInput) (models.Package, error) {
	p, err := in.toModel()
	if err != nil {
		return models.Package{}, err
	}
	p.ID = id
	err = intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		packages := repositories.PackageRepository{DB: tx}
		current, err := packages.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkPackageRefs(ctx, tx, p); err != nil {
			return err
		}
		if current.CollegeID != p.CollegeID {
			n, err := packages.CountSelections(ctx, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return domain.ConflictError{Resource: "package", Reason: domain.ReasonInUse, Msg: "cannot move a package selected by students to another college"}
			}
		}
		if p.CountsTowardCap() && !(current.CountsTowardCap() && current.CollegeID == p.CollegeID) {
			n, err := packages.CountActiveMain(ctx, p.CollegeID)
			if err != nil {
				return err
			}
			if err := models.CheckMainPackageCap(p, n, s.MaxMainPackages); err != nil {
				return err
			}
		}
		return packages.Update(ctx, p)
	})
	if err != nil {
		return models.Package{}, err
	}
	s.log("update_package", fmt.Sprintf("package_id=%d", id))
	return s.GetPackage(ctx, id)
}

// DeletePackage refuses while any student has selected the package.
func (s AdminService) DeletePackage(ctx context.Context, id int64) error {
	err := intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		packages := repositories.PackageRepository{DB: tx}
		n, err := packages.CountSelections(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ConflictError{Resource: "package", Reason: domain.ReasonInUse, Msg: fmt.Sprintf("package is selected by %d students", n)}
		}
		return packages.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log("delete_package", fmt.Sprintf("package_id=%d", id))
	return nil
}

// ---- buses ----

func (s AdminService) ListBuses(ctx context.Context, collegeID int64) ([]models.Bus, error) {
	return repositories.BusRepository{DB: s.db()}.List(ctx, collegeID)
}

func (s AdminService) CreateBus(ctx context.Context, in BusInput) (models.Bus, error) {
	b, err := in.toModel()
	if err != nil {
		return models.Bus{}, err
	}
	db := s.db()
	if _, err := (repositories.CollegeRepository{DB: db}).GetByID(ctx, b.CollegeID, false); err != nil {
		if domain.IsNotFound(err) {
			return models.Bus{}, domain.ValidationError{Field: "collegeId", Msg: "college not found"}
		}
		return models.Bus{}, err
	}
	buses := repositories.BusRepository{DB: db}
	id, err := buses.Create(ctx, b)
	if err != nil {
		return models.Bus{}, err
	}
	s.invalidate(ctx, b.CollegeID)
	s.log("create_bus", fmt.Sprintf("bus_id=%d college_id=%d", id, b.CollegeID))
	return buses.GetByID(ctx, id, false)
}

// UpdateBus never touches booked seats. Moving a bus with passengers to
// another college is refused because their seats would no longer match.
func (s AdminService) UpdateBus(ctx context.Context, id int64, in BusInput) (models.Bus, error) {
	b, err := in.toModel()
	if err != nil {
		return models.Bus{}, err
	}
	b.ID = id
	var before models.Bus
	err = intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		buses := repositories.BusRepository{DB: tx}
		var err error
		if before, err = buses.GetByID(ctx, id, true); err != nil {
			return err
		}
		if b.Capacity < before.BookedSeats {
			return domain.ConflictError{Resource: "bus", Reason: domain.ReasonCapacityBelowBooked, Msg: fmt.Sprintf("capacity cannot be less than booked seats (%d)", before.BookedSeats)}
		}
		if b.CollegeID != before.CollegeID {
			if before.BookedSeats > 0 {
				return domain.ConflictError{Resource: "bus", Reason: domain.ReasonInUse, Msg: "cannot move a bus with booked seats to another college"}
			}
			if _, err := (repositories.CollegeRepository{DB: tx}).GetByID(ctx, b.CollegeID, false); err != nil {
				if domain.IsNotFound(err) {
					return domain.ValidationError{Field: "collegeId", Msg: "college not found"}
				}
				return err
			}
		}
		return buses.Update(ctx, b)
	})
	if err != nil {
		return models.Bus{}, err
	}
	s.invalidate(ctx, before.CollegeID, b.CollegeID)
	s.log("update_bus", fmt.Sprintf("bus_id=%d", id))
	return repositories.BusRepository{DB: s.db()}.GetByID(ctx, id, false)
}

// DeleteBus detaches every passenger, then removes the bus. It returns how
// many students lost their seat.
func (s AdminService) DeleteBus(ctx context.Context, id int64) (int, error) {
	var (
		bus     models.Bus
		cleared int64
	)
	start := time.Now()
	err := intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		users := repositories.UserRepository{DB: tx}
		buses := repositories.BusRepository{DB: tx}
		if _, err := users.LockBusHolders(ctx, id); err != nil {
			return err
		}
		var err error
		if bus, err = buses.GetByID(ctx, id, true); err != nil {
			return err
		}
		if cleared, err = users.ClearSeatsForBus(ctx, id); err != nil {
			return err
		}
		return buses.Delete(ctx, id)
	})
	metrics.ObserveReservation("delete_bus", start, err)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, bus.CollegeID)
	metrics.SeatsReleased("bus_deleted", int(cleared))
	utils.LogEvent(s.RequestID, "reservation", "delete_bus", fmt.Sprintf("bus_id=%d cleared_users=%d", id, cleared))
	return int(cleared), nil
}

// ---- users ----

func (s AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	return repositories.UserRepository{DB: s.db()}.ListStudents(ctx, 0)
}

func (s AdminService) CreateUser(ctx context.Context, in AdminUserInput) (models.User, error) {
	u, err := in.toModel()
	if err != nil {
		return models.User{}, err
	}
	db := s.db()
	if u.CollegeID > 0 {
		if _, err := (repositories.CollegeRepository{DB: db}).GetByID(ctx, u.CollegeID, false); err != nil {
			if domain.IsNotFound(err) {
				return models.User{}, domain.ValidationError{Field: "collegeId", Msg: "college not found"}
			}
			return models.User{}, err
		}
	}
	if u.PasswordHash, err = hashPassword(in.Password); err != nil {
		return models.User{}, err
	}
	users := repositories.UserRepository{DB: db}
	id, err := users.Create(ctx, u)
	if err != nil {
		return models.User{}, err
	}
	s.log("create_user", fmt.Sprintf("user_id=%d role=%s", id, u.Role))
	return users.GetByID(ctx, id, false)
}

func (s AdminService) ResetPassword(ctx context.Context, id int64, password string) error {
	if len(password) < models.MinPasswordLength {
		return domain.ValidationError{Field: "newPassword", Msg: "must be at least 6 characters"}
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := (repositories.UserRepository{DB: s.db()}).UpdatePassword(ctx, id, hash); err != nil {
		return err
	}
	s.log("reset_password", fmt.Sprintf("user_id=%d", id))
	return nil
}

// UpdateRole changes a user's role. An admin cannot change their own.
func (s AdminService) UpdateRole(ctx context.Context, actorID, id int64, role domain.Role) error {
	if !role.Valid() {
		return domain.ValidationError{Field: "role", Msg: "must be student or admin"}
	}
	if actorID == id {
		return domain.ConflictError{Resource: "user", Reason: domain.ReasonSelfRoleChange, Msg: "you cannot change your own role"}
	}
	if err := (repositories.UserRepository{DB: s.db()}).UpdateRole(ctx, id, role); err != nil {
		return err
	}
	s.log("update_role", fmt.Sprintf("user_id=%d role=%s", id, role))
	return nil
}

func (s AdminService) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	if !status.Valid() {
		return domain.ValidationError{Field: "paymentStatus", Msg: "must be pending or success"}
	}
	if err := (repositories.UserRepository{DB: s.db()}).UpdatePaymentStatus(ctx, id, status); err != nil {
		return err
	}
	s.log("update_payment", fmt.Sprintf("user_id=%d status=%s", id, status))
	return nil
}

// ReleaseSeat frees a student's seat without deleting the account.
func (s AdminService) ReleaseSeat(ctx context.Context, id int64) (bool, error) {
	return ReservationService{DB: s.db(), Cache: s.Cache, RequestID: s.RequestID}.ReleaseBusSeat(ctx, id)
}

// DeleteUser gives the student's seat back and removes the account in one
// transaction. Admin accounts are refused.
func (s AdminService) DeleteUser(ctx context.Context, id int64) error {
	var (
		collegeID int64
		released  bool
	)
	err := intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		users := repositories.UserRepository{DB: tx}
		u, err := users.GetByID(ctx, id, true)
		if err != nil {
			return err
		}
		if u.IsAdmin() {
			return domain.ConflictError{Resource: "user", Reason: domain.ReasonAdminNotDeletable, Msg: "admin accounts cannot be deleted"}
		}
		if collegeID, released, err = releaseSeatTx(ctx, tx, &u); err != nil {
			return err
		}
		return users.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	if released {
		s.invalidate(ctx, collegeID)
		metrics.SeatsReleased("user_deleted", 1)
	}
	utils.LogEvent(s.RequestID, "reservation", "delete_user", fmt.Sprintf("user_id=%d seat_released=%t", id, released))
	return nil
}

// ---- dashboard ----

type AdminDashboard struct {
	Counts struct {
		Users    int `json:"users"`
		Colleges int `json:"colleges"`
		Packages int `json:"packages"`
		Buses    int `json:"buses"`
		Places   int `json:"places"`
	} `json:"counts"`
	RecentPackages []models.Package    `json:"recentPackages"`
	RecentColleges []models.College    `json:"recentColleges"`
	RecentBuses    []models.Bus        `json:"recentBuses"`
	RecentUsers    []models.PublicUser `json:"recentUsers"`
	UserStats      models.UserStats    `json:"userStats"`
	BusStats       models.BusStats     `json:"busStats"`
}

func (s AdminService) Dashboard(ctx context.Context) (AdminDashboard, error) {
	db := s.db()
	var (
		d   AdminDashboard
		err error
	)
	users := repositories.UserRepository{DB: db}
	colleges := repositories.CollegeRepository{DB: db}
	packages := repositories.PackageRepository{DB: db}
	buses := repositories.BusRepository{DB: db}

	if d.Counts.Users, err = users.Count(ctx); err != nil {
		return d, err
	}
	if d.Counts.Colleges, err = colleges.Count(ctx); err != nil {
		return d, err
	}
	if d.Counts.Packages, err = packages.Count(ctx); err != nil {
		return d, err
	}
	if d.Counts.Buses, err = buses.Count(ctx); err != nil {
		return d, err
	}
	if d.Counts.Places, err = (repositories.PlaceRepository{DB: db}).Count(ctx); err != nil {
		return d, err
	}
	if d.RecentPackages, err = packages.Recent(ctx, 5); err != nil {
		return d, err
	}
	if d.RecentColleges, err = colleges.Recent(ctx, 5); err != nil {
		return d, err
	}
	if d.RecentBuses, err = buses.Recent(ctx, 5); err != nil {
		return d, err
	}
	recent, err := users.Recent(ctx, 10)
	if err != nil {
		return d, err
	}
	d.RecentUsers = make([]models.PublicUser, 0, len(recent))
	for i := range recent {
		d.RecentUsers = append(d.RecentUsers, recent[i].ToPublic())
	}
	if d.UserStats, err = users.Stats(ctx); err != nil {
		return d, err
	}
	all, err := buses.List(ctx, 0)
	if err != nil {
		return d, err
	}
	d.BusStats = models.ComputeBusStats(all)
	return d, nil
}
