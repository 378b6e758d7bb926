package services

import (
	"context"

	"collegetour/internal/domain/models"
	"collegetour/internal/repositories"
	"collegetour/internal/utils"

	"github.com/shopspring/decimal"
)

type StudentDashboard struct {
	Reservation       models.ReservationView `json:"reservation"`
	AvailablePackages []models.Package       `json:"availablePackages"`
	AvailableBuses    []models.Bus           `json:"availableBuses"`
	NextStep          string                 `json:"nextStep"`
}

// Dashboard shows the registration so far plus what the student can do next.
func (s ReservationService) Dashboard(ctx context.Context, userID int64) (StudentDashboard, error) {
	view, err := s.View(ctx, userID)
	if err != nil {
		return StudentDashboard{}, err
	}
	d := StudentDashboard{
		Reservation:       view,
		AvailablePackages: []models.Package{},
		AvailableBuses:    []models.Bus{},
		NextStep:          nextStep(view.User.Stage),
	}
	if view.Package == nil {
		if d.AvailablePackages, err = s.PackagesForCollege(ctx, view.User.CollegeID); err != nil {
			return StudentDashboard{}, err
		}
	}
	if view.Package != nil && view.SeatNumber == nil {
		if d.AvailableBuses, err = s.BusesForCollege(ctx, view.User.CollegeID); err != nil {
			return StudentDashboard{}, err
		}
	}
	return d, nil
}

func nextStep(stage string) string {
	switch stage {
	case models.StageNoPackage.String():
		return "select_package"
	case models.StagePackageSelected.String():
		return "select_extra_places"
	case models.StageExtraPlacesDecided.String():
		return "select_bus"
	default:
		return "done"
	}
}

// PackagesForCollege lists active main packages starting today or later,
// with their places.
func (s ReservationService) PackagesForCollege(ctx context.Context, collegeID int64) ([]models.Package, error) {
	db := s.db()
	list, err := repositories.PackageRepository{DB: db}.List(ctx, repositories.PackageFilter{
		CollegeID:  collegeID,
		ActiveOnly: true,
		MainOnly:   true,
		StartsFrom: utils.StartOfDay(s.now()),
	})
	if err != nil {
		return nil, err
	}
	places := repositories.PlaceRepository{DB: db}
	for i := range list {
		if list[i].Places, err = loadOrdered(ctx, places, list[i].PlaceIDs); err != nil {
			return nil, err
		}
	}
	return list, nil
}

type ExtraPlacesOptions struct {
	Available []models.Place  `json:"available"`
	Selected  []int64         `json:"selected"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Decided   bool            `json:"decided"`
}

// ExtraPlaceOptions lists active places not already in the student's package.
func (s ReservationService) ExtraPlaceOptions(ctx context.Context, userID int64) (ExtraPlacesOptions, error) {
	db := s.db()
	u, err := repositories.UserRepository{DB: db}.GetByID(ctx, userID, false)
	if err != nil {
		return ExtraPlacesOptions{}, err
	}
	sel, ok := u.Package()
	if !ok {
		return ExtraPlacesOptions{}, u.SelectExtraPlaces(models.Package{}, nil, s.now())
	}
	pkg, err := repositories.PackageRepository{DB: db}.GetByID(ctx, sel.PackageID())
	if err != nil {
		return ExtraPlacesOptions{}, err
	}
	places := repositories.PlaceRepository{DB: db}
	all, err := places.List(ctx, true)
	if err != nil {
		return ExtraPlacesOptions{}, err
	}

	opts := ExtraPlacesOptions{Available: []models.Place{}, Selected: []int64{}, Subtotal: decimal.Zero}
	for _, p := range all {
		if !pkg.HasPlace(p.ID) {
			opts.Available = append(opts.Available, p)
		}
	}
	if extras, ok := u.ExtraPlaces(); ok {
		opts.Decided = true
		opts.Selected = extras.PlaceIDs()
		chosen, err := places.GetByIDs(ctx, opts.Selected)
		if err != nil {
			return ExtraPlacesOptions{}, err
		}
		opts.Subtotal = models.SumPrices(chosen)
	}
	return opts, nil
}
