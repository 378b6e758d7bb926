package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	intconfig "collegetour/internal/config"
	"collegetour/internal/domain"
	"collegetour/internal/domain/models"
	"collegetour/internal/repositories"
	"collegetour/internal/utils"
)

// Export sections an admin can tick. Columns are emitted in this order.
const (
	SectionStudent = "student"
	SectionPackage = "package"
	SectionPricing = "pricing"
	SectionBus     = "bus"
	SectionDates   = "dates"
)

var sectionOrder = []string{SectionStudent, SectionPackage, SectionPricing, SectionBus, SectionDates}

var sectionHeaders = map[string][]string{
	SectionStudent: {"Full Name", "Email", "Mobile Number", "Gender", "SPU ID", "Age", "Roll Number", "Department", "Division", "Payment Status"},
	SectionPackage: {"Package", "Duration (days)", "Start Date", "Extra Places"},
	SectionPricing: {"Package Price", "Extra Places Total", "Total Amount"},
	SectionBus:     {"Bus Name", "Bus Number", "Seat Number"},
	SectionDates:   {"Registered At", "Package Selected At", "Bus Selected At"},
}

// ExportService builds the per-college student CSV.
type ExportService struct {
	DB        *sql.DB
	RequestID string
}

func (s ExportService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

// normalizeSections keeps known sections in canonical order. No selection
// means the student section only.
func normalizeSections(fields []string) ([]string, error) {
	want := map[string]bool{}
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if _, ok := sectionHeaders[f]; !ok {
			return nil, domain.ValidationError{Field: "fields", Msg: "unknown section " + strconv.Quote(f)}
		}
		want[f] = true
	}
	if len(want) == 0 {
		want[SectionStudent] = true
	}
	out := []string{}
	for _, sec := range sectionOrder {
		if want[sec] {
			out = append(out, sec)
		}
	}
	return out, nil
}

// StudentsCSV renders every student of collegeID, ordered by department then
// name, with the chosen column sections.
func (s ExportService) StudentsCSV(ctx context.Context, collegeID int64, fields []string) ([]byte, string, error) {
	sections, err := normalizeSections(fields)
	if err != nil {
		return nil, "", err
	}
	db := s.db()
	college, err := repositories.CollegeRepository{DB: db}.GetByID(ctx, collegeID, false)
	if err != nil {
		return nil, "", err
	}
	students, err := repositories.UserRepository{DB: db}.ListStudents(ctx, collegeID)
	if err != nil {
		return nil, "", err
	}
	if len(students) == 0 {
		return nil, "", domain.NotFoundError{Resource: "students"}
	}

	packages, err := repositories.PackageRepository{DB: db}.List(ctx, repositories.PackageFilter{CollegeID: collegeID})
	if err != nil {
		return nil, "", err
	}
	pkgByID := map[int64]models.Package{}
	for _, p := range packages {
		pkgByID[p.ID] = p
	}
	buses, err := repositories.BusRepository{DB: db}.List(ctx, collegeID)
	if err != nil {
		return nil, "", err
	}
	busByID := map[int64]models.Bus{}
	for _, b := range buses {
		busByID[b.ID] = b
	}
	places, err := repositories.PlaceRepository{DB: db}.List(ctx, false)
	if err != nil {
		return nil, "", err
	}
	placeByID := map[int64]models.Place{}
	for _, p := range places {
		placeByID[p.ID] = p
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{}
	for _, sec := range sections {
		header = append(header, sectionHeaders[sec]...)
	}
	if err := w.Write(header); err != nil {
		return nil, "", err
	}
	for i := range students {
		row := exportRow(&students[i], sections, pkgByID, busByID, placeByID)
		if err := w.Write(row); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	utils.LogEvent(s.RequestID, "export", "students_csv", fmt.Sprintf("college_id=%d rows=%d sections=%s", collegeID, len(students), strings.Join(sections, ",")))
	filename := fmt.Sprintf("%s_students_%s.csv", utils.SafeFilenamePart(college.Name), time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func exportRow(u *models.User, sections []string, pkgs map[int64]models.Package, buses map[int64]models.Bus, places map[int64]models.Place) []string {
	var (
		pkg    *models.Package
		extras []models.Place
		bus    *models.Bus
	)
	rec := u.ReservationRecord()
	if rec.PackageID != nil {
		if p, ok := pkgs[*rec.PackageID]; ok {
			pkg = &p
		}
	}
	for _, id := range rec.ExtraPlaceIDs {
		if p, ok := places[id]; ok {
			extras = append(extras, p)
		}
	}
	if rec.BusID != nil {
		if b, ok := buses[*rec.BusID]; ok {
			bus = &b
		}
	}
	totals := models.TotalPrice(pkg, extras)

	row := []string{}
	for _, sec := range sections {
		switch sec {
		case SectionStudent:
			row = append(row, u.FullName, u.Email, u.MobileNumber, u.Gender, u.SpuID, strconv.Itoa(u.Age),
				u.RollNumber, u.Department, u.Division, string(u.PaymentStatus))
		case SectionPackage:
			names := make([]string, 0, len(extras))
			for _, p := range extras {
				names = append(names, p.Name)
			}
			if pkg == nil {
				row = append(row, "", "", "", strings.Join(names, "; "))
				continue
			}
			row = append(row, pkg.Name, strconv.Itoa(pkg.Duration), utils.FormatDate(pkg.StartDate), strings.Join(names, "; "))
		case SectionPricing:
			row = append(row, utils.FormatMoney(totals.Package), utils.FormatMoney(totals.ExtraPlaces), utils.FormatMoney(totals.Total))
		case SectionBus:
			seat := ""
			if rec.SeatNumber != nil {
				seat = strconv.Itoa(*rec.SeatNumber)
			}
			if bus == nil {
				row = append(row, "", "", seat)
				continue
			}
			row = append(row, bus.BusName, bus.BusNumber, seat)
		case SectionDates:
			row = append(row, utils.FormatDateTime(u.CreatedAt), formatOptional(rec.PackageSelectedAt), formatOptional(rec.BusSelectedAt))
		}
	}
	return row
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return utils.FormatDateTime(*t)
}
