package services

import (
	"regexp"
	"strings"

	"collegetour/internal/domain"
	"collegetour/internal/domain/models"
	"collegetour/internal/utils"
)

var (
	tenDigits = regexp.MustCompile(`^[0-9]{10}$`)
	emailRe   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func validEmail(email string) bool {
	return emailRe.MatchString(email)
}

// CollegeInput is the admin form for a college. Departments arrive as a
// comma separated string.
type CollegeInput struct {
	Name              string `json:"name"`
	Departments       string `json:"departments"`
	AmbassadorName    string `json:"ambassadorName"`
	AmbassadorContact string `json:"ambassadorContact"`
	IsActive          *bool  `json:"isActive"`
}

func (in CollegeInput) toModel() (models.College, error) {
	c := models.College{
		Name:              utils.NormalizeSpace(in.Name),
		Departments:       models.SplitDepartments(in.Departments),
		AmbassadorName:    utils.NormalizeSpace(in.AmbassadorName),
		AmbassadorContact: strings.TrimSpace(in.AmbassadorContact),
		IsActive:          in.IsActive == nil || *in.IsActive,
	}
	switch {
	case c.Name == "":
		return c, domain.ValidationError{Field: "name", Msg: "is required"}
	case len(c.Departments) == 0:
		return c, domain.ValidationError{Field: "departments", Msg: "at least one department is required"}
	case c.AmbassadorName == "":
		return c, domain.ValidationError{Field: "ambassadorName", Msg: "is required"}
	case !tenDigits.MatchString(c.AmbassadorContact):
		return c, domain.ValidationError{Field: "ambassadorContact", Msg: "must be a 10 digit number"}
	}
	return c, nil
}

type PlaceInput struct {
	Name        string       `json:"name"`
	Location    string       `json:"location"`
	Description string       `json:"description"`
	Price       utils.Amount `json:"price"`
	IsActive    *bool        `json:"isActive"`
}

func (in PlaceInput) toModel() (models.Place, error) {
	p := models.Place{
		Name:        utils.NormalizeSpace(in.Name),
		Location:    utils.NormalizeSpace(in.Location),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Decimal,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	switch {
	case p.Name == "":
		return p, domain.ValidationError{Field: "name", Msg: "is required"}
	case p.Location == "":
		return p, domain.ValidationError{Field: "location", Msg: "is required"}
	case p.Price.IsNegative():
		return p, domain.ValidationError{Field: "price", Msg: "cannot be negative"}
	}
	return p, nil
}

const (
	minPackageDays         = 1
	maxPackageDays         = 30
	defaultMaxParticipants = 50
)

type PackageInput struct {
	Name            string       `json:"name"`
	CollegeID       int64        `json:"collegeId"`
	PlaceIDs        []int64      `json:"placeIds"`
	Duration        int          `json:"duration"`
	Price           utils.Amount `json:"price"`
	Description     string       `json:"description"`
	StartDate       string       `json:"startDate"`
	MaxParticipants int          `json:"maxParticipants"`
	IsOptional      bool         `json:"isOptional"`
	IsActive        *bool        `json:"isActive"`
}

func (in PackageInput) toModel() (models.Package, error) {
	p := models.Package{
		Name:            utils.NormalizeSpace(in.Name),
		CollegeID:       in.CollegeID,
		PlaceIDs:        dedupeKeepOrder(in.PlaceIDs),
		Duration:        in.Duration,
		Price:           in.Price.Decimal,
		Description:     strings.TrimSpace(in.Description),
		MaxParticipants: in.MaxParticipants,
		IsOptional:      in.IsOptional,
		IsActive:        in.IsActive == nil || *in.IsActive,
	}
	if p.MaxParticipants <= 0 {
		p.MaxParticipants = defaultMaxParticipants
	}
	switch {
	case p.Name == "":
		return p, domain.ValidationError{Field: "name", Msg: "is required"}
	case p.CollegeID <= 0:
		return p, domain.ValidationError{Field: "collegeId", Msg: "is required"}
	case len(p.PlaceIDs) == 0:
		return p, domain.ValidationError{Field: "placeIds", Msg: "at least one place is required"}
	case p.Duration < minPackageDays || p.Duration > maxPackageDays:
		return p, domain.ValidationError{Field: "duration", Msg: "must be between 1 and 30 days"}
	case p.Price.IsNegative():
		return p, domain.ValidationError{Field: "price", Msg: "cannot be negative"}
	}
	start, err := utils.ParseDate(in.StartDate)
	if err != nil {
		return p, domain.ValidationError{Field: "startDate", Msg: "must be YYYY-MM-DD", Err: err}
	}
	p.StartDate = start
	return p, nil
}

func dedupeKeepOrder(ids []int64) []int64 {
	seen := map[int64]bool{}
	out := []int64{}
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

type BusInput struct {
	BusName   string `json:"busName"`
	BusNumber string `json:"busNumber"`
	CollegeID int64  `json:"collegeId"`
	Capacity  int    `json:"capacity"`
	IsActive  *bool  `json:"isActive"`
}

func (in BusInput) toModel() (models.Bus, error) {
	b := models.Bus{
		BusName:   utils.NormalizeSpace(in.BusName),
		BusNumber: strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(in.BusNumber), " ", "")),
		CollegeID: in.CollegeID,
		Capacity:  in.Capacity,
		IsActive:  in.IsActive == nil || *in.IsActive,
	}
	switch {
	case b.BusName == "":
		return b, domain.ValidationError{Field: "busName", Msg: "is required"}
	case b.BusNumber == "":
		return b, domain.ValidationError{Field: "busNumber", Msg: "is required"}
	case b.CollegeID <= 0:
		return b, domain.ValidationError{Field: "collegeId", Msg: "is required"}
	case b.Capacity < models.MinBusCapacity || b.Capacity > models.MaxBusCapacity:
		return b, domain.ValidationError{Field: "capacity", Msg: "must be between 1 and 100"}
	}
	return b, nil
}

// RegisterInput is the student self-registration form.
type RegisterInput struct {
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
	Gender       string `json:"gender"`
	SpuID        string `json:"spuId"`
	Age          int    `json:"age"`
	RollNumber   string `json:"rollNumber"`
	Password     string `json:"password"`
	CollegeID    int64  `json:"collegeId"`
	Department   string `json:"department"`
	Division     string `json:"division"`
}

func (in RegisterInput) toModel() (models.User, error) {
	u := models.User{
		FullName:      utils.NormalizeSpace(in.FullName),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		MobileNumber:  strings.TrimSpace(in.MobileNumber),
		Gender:        strings.TrimSpace(in.Gender),
		SpuID:         strings.ToUpper(strings.TrimSpace(in.SpuID)),
		Age:           in.Age,
		RollNumber:    strings.ToUpper(strings.TrimSpace(in.RollNumber)),
		Role:          domain.RoleStudent,
		CollegeID:     in.CollegeID,
		Department:    strings.TrimSpace(in.Department),
		Division:      strings.ToUpper(strings.TrimSpace(in.Division)),
		PaymentStatus: domain.PaymentPending,
		IsActive:      true,
	}
	switch {
	case u.FullName == "":
		return u, domain.ValidationError{Field: "fullName", Msg: "is required"}
	case !validEmail(u.Email):
		return u, domain.ValidationError{Field: "email", Msg: "is not a valid email"}
	case !tenDigits.MatchString(u.MobileNumber):
		return u, domain.ValidationError{Field: "mobileNumber", Msg: "must be a 10 digit number"}
	case !oneOf(u.Gender, models.Genders):
		return u, domain.ValidationError{Field: "gender", Msg: "must be Male or Female"}
	case u.SpuID == "":
		return u, domain.ValidationError{Field: "spuId", Msg: "is required"}
	case u.Age < models.MinStudentAge || u.Age > models.MaxStudentAge:
		return u, domain.ValidationError{Field: "age", Msg: "must be between 16 and 35"}
	case u.RollNumber == "":
		return u, domain.ValidationError{Field: "rollNumber", Msg: "is required"}
	case len(in.Password) < models.MinPasswordLength:
		return u, domain.ValidationError{Field: "password", Msg: "must be at least 6 characters"}
	case u.CollegeID <= 0:
		return u, domain.ValidationError{Field: "collegeId", Msg: "is required"}
	case u.Department == "":
		return u, domain.ValidationError{Field: "department", Msg: "is required"}
	case !oneOf(u.Division, models.Divisions):
		return u, domain.ValidationError{Field: "division", Msg: "must be A, B or C"}
	}
	return u, nil
}

// AdminUserInput creates an account from the admin panel.
type AdminUserInput struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	CollegeID int64  `json:"collegeId"`
	Role      string `json:"role"`
}

func (in AdminUserInput) toModel() (models.User, error) {
	u := models.User{
		FullName:      utils.NormalizeSpace(in.FullName),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		Role:          domain.Role(strings.ToLower(strings.TrimSpace(in.Role))),
		CollegeID:     in.CollegeID,
		PaymentStatus: domain.PaymentPending,
		IsActive:      true,
	}
	if u.Role == "" {
		u.Role = domain.RoleStudent
	}
	switch {
	case u.FullName == "":
		return u, domain.ValidationError{Field: "fullName", Msg: "is required"}
	case !validEmail(u.Email):
		return u, domain.ValidationError{Field: "email", Msg: "is not a valid email"}
	case len(in.Password) < models.MinPasswordLength:
		return u, domain.ValidationError{Field: "password", Msg: "must be at least 6 characters"}
	case !u.Role.Valid():
		return u, domain.ValidationError{Field: "role", Msg: "must be student or admin"}
	case u.Role == domain.RoleStudent && u.CollegeID <= 0:
		return u, domain.ValidationError{Field: "collegeId", Msg: "is required for students"}
	}
	return u, nil
}
