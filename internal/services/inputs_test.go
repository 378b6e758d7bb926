package services

import (
	"encoding/json"
	"testing"

	"collegetour/internal/domain"
	"collegetour/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegisterInput() RegisterInput {
	return RegisterInput{
		FullName:     "  Asha   Patel ",
		Email:        "Asha@Example.com",
		MobileNumber: "9876543210",
		Gender:       "Female",
		SpuID:        "spu01",
		Age:          20,
		RollNumber:   "r1",
		Password:     "secret123",
		CollegeID:    2,
		Department:   "CE",
		Division:     "a",
	}
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var verr domain.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Field
}

func TestRegisterInputNormalizes(t *testing.T) {
	u, err := validRegisterInput().toModel()
	require.NoError(t, err)
	assert.Equal(t, "Asha Patel", u.FullName)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.Equal(t, "SPU01", u.SpuID)
	assert.Equal(t, "A", u.Division)
	assert.Equal(t, domain.PaymentPending, u.PaymentStatus)
}

func TestRegisterInputRejects(t *testing.T) {
	cases := map[string]func(*RegisterInput){
		"mobileNumber": func(in *RegisterInput) { in.MobileNumber = "12345" },
		"email":        func(in *RegisterInput) { in.Email = "not-an-email" },
		"gender":       func(in *RegisterInput) { in.Gender = "x" },
		"age":          func(in *RegisterInput) { in.Age = 40 },
		"password":     func(in *RegisterInput) { in.Password = "abc" },
		"division":     func(in *RegisterInput) { in.Division = "Z" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := validRegisterInput()
			mutate(&in)
			_, err := in.toModel()
			assert.Equal(t, field, fieldOf(t, err))
		})
	}
}

func TestPackageInputDefaultsAndBounds(t *testing.T) {
	in := validPackageInput()
	in.PlaceIDs = []int64{20, 21, 20, 0}
	p, err := in.toModel()
	require.NoError(t, err)
	assert.Equal(t, []int64{20, 21}, p.PlaceIDs)
	assert.Equal(t, 50, p.MaxParticipants)
	assert.True(t, p.IsActive)

	in.Duration = 31
	_, err = in.toModel()
	assert.Equal(t, "duration", fieldOf(t, err))

	in = validPackageInput()
	in.StartDate = "01/02/2026"
	_, err = in.toModel()
	assert.Equal(t, "startDate", fieldOf(t, err))

	in = validPackageInput()
	in.Price = utils.NewAmount("-1")
	_, err = in.toModel()
	assert.Equal(t, "price", fieldOf(t, err))
}

func TestPriceBindsFromFormattedString(t *testing.T) {
	var in PlaceInput
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Modhera","location":"Mehsana","price":"Rs 1,250.50"}`), &in))
	p, err := in.toModel()
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("1250.50")))

	var pkg PackageInput
	require.NoError(t, json.Unmarshal([]byte(`{"price":1500}`), &pkg))
	assert.Equal(t, "1500.00", pkg.Price.StringFixed(2))

	assert.Error(t, json.Unmarshal([]byte(`{"price":"free"}`), &pkg))
}

func TestBusInputNormalizesNumber(t *testing.T) {
	b, err := BusInput{BusName: "Bus A", BusNumber: " gj01 ab 1234 ", CollegeID: 2, Capacity: 40}.toModel()
	require.NoError(t, err)
	assert.Equal(t, "GJ01AB1234", b.BusNumber)

	_, err = BusInput{BusName: "Bus A", BusNumber: "X", CollegeID: 2, Capacity: 101}.toModel()
	assert.Equal(t, "capacity", fieldOf(t, err))
}

func TestCollegeInputRequiresDepartments(t *testing.T) {
	c, err := CollegeInput{Name: "SPU", Departments: "CE, IT,,", AmbassadorName: "Ravi", AmbassadorContact: "9876543210"}.toModel()
	require.NoError(t, err)
	assert.Equal(t, []string{"CE", "IT"}, c.Departments)

	_, err = CollegeInput{Name: "SPU", Departments: " , ", AmbassadorName: "Ravi", AmbassadorContact: "9876543210"}.toModel()
	assert.Equal(t, "departments", fieldOf(t, err))
}

func TestAdminUserInputStudentNeedsCollege(t *testing.T) {
	_, err := AdminUserInput{FullName: "Ops", Email: "ops@example.com", Password: "secret1"}.toModel()
	assert.Equal(t, "collegeId", fieldOf(t, err))

	u, err := AdminUserInput{FullName: "Ops", Email: "ops@example.com", Password: "secret1", Role: "ADMIN"}.toModel()
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}
