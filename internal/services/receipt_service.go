package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	intconfig "collegetour/internal/config"
	"collegetour/internal/domain"
	"collegetour/internal/domain/models"
	"collegetour/internal/repositories"
	"collegetour/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// ReceiptService renders a student's registration as a one-page PDF.
type ReceiptService struct {
	DB        *sql.DB
	RequestID string
	Now       func() time.Time
	Loader    func(ctx context.Context, userID int64) (models.ReservationView, error)
}

func (s ReceiptService) load(ctx context.Context, userID int64) (models.ReservationView, error) {
	if s.Loader != nil {
		return s.Loader(ctx, userID)
	}
	db := s.DB
	if db == nil {
		db = intconfig.DB
	}
	u, err := repositories.UserRepository{DB: db}.GetByID(ctx, userID, false)
	if err != nil {
		return models.ReservationView{}, err
	}
	return buildView(ctx, db, u)
}

// Generate returns the PDF bytes and a download filename. A student without
// a package has nothing to print.
func (s ReceiptService) Generate(ctx context.Context, userID int64) ([]byte, string, error) {
	view, err := s.load(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if view.Package == nil {
		return nil, "", domain.ConflictError{Resource: "receipt", Reason: domain.ReasonPackageRequired, Msg: "select a package first"}
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	utils.LogEvent(s.RequestID, "receipt", "generate_pdf", fmt.Sprintf("user_id=%d", userID))
	return buildReceiptPDF(view, now)
}

func buildReceiptPDF(v models.ReservationView, now time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Tour Registration Receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TOUR REGISTRATION RECEIPT")
	pdf.Ln(12)

	receiptNo := fmt.Sprintf("RCPT-%d-%d", v.User.ID, v.Package.ID)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Receipt No : "+receiptNo)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Issued     : "+now.Format("2006-01-02 15:04"))
	pdf.Ln(10)

	collegeName := "-"
	if v.College != nil {
		collegeName = v.College.Name
	}
	section(pdf, "Student")
	lines := []string{
		fmt.Sprintf("Name       : %s", safe(v.User.FullName, "-")),
		fmt.Sprintf("Email      : %s", safe(v.User.Email, "-")),
		fmt.Sprintf("Mobile     : %s", safe(v.User.MobileNumber, "-")),
		fmt.Sprintf("SPU ID     : %s", safe(v.User.SpuID, "-")),
		fmt.Sprintf("Roll No    : %s", safe(v.User.RollNumber, "-")),
		fmt.Sprintf("College    : %s", safe(collegeName, "-")),
		fmt.Sprintf("Department : %s / Division %s", safe(v.User.Department, "-"), safe(v.User.Division, "-")),
		fmt.Sprintf("Payment    : %s", strings.ToUpper(safe(string(v.User.PaymentStatus), "pending"))),
	}
	writeLines(pdf, lines)

	section(pdf, "Package")
	pkg := v.Package
	writeLines(pdf, []string{
		fmt.Sprintf("%s (%d days)", pkg.Name, pkg.Duration),
		fmt.Sprintf("Starts     : %s", pkg.StartDate.Format("2006-01-02")),
		fmt.Sprintf("Price      : %s", utils.FormatRupees(pkg.Price)),
	})
	for i, p := range pkg.Places {
		pdf.Cell(0, 6, fmt.Sprintf("  %d) %s, %s", i+1, p.Name, safe(p.Location, "-")))
		pdf.Ln(6)
	}
	pdf.Ln(2)

	section(pdf, "Extra places")
	if len(v.ExtraPlaces) == 0 {
		writeLines(pdf, []string{"None"})
	}
	for _, p := range v.ExtraPlaces {
		writeLines(pdf, []string{fmt.Sprintf("%s, %s  %s", p.Name, safe(p.Location, "-"), utils.FormatRupees(p.Price))})
	}

	section(pdf, "Bus")
	if v.Bus != nil && v.SeatNumber != nil {
		writeLines(pdf, []string{
			fmt.Sprintf("%s (%s)", v.Bus.BusName, v.Bus.BusNumber),
			fmt.Sprintf("Seat       : %d", *v.SeatNumber),
		})
	} else {
		writeLines(pdf, []string{"Not selected yet"})
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Package     : "+utils.FormatRupees(v.Totals.Package))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Extra places: "+utils.FormatRupees(v.Totals.ExtraPlaces))
	pdf.Ln(7)
	pdf.Cell(0, 8, "Total       : "+utils.FormatRupees(v.Totals.Total))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Carry this receipt and your college ID card on the day of departure.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("RECEIPT_%d_%s.pdf", v.User.ID, utils.SafeFilenamePart(v.User.FullName))
	return buf.Bytes(), filename, nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
}

func writeLines(pdf *gofpdf.Fpdf, lines []string) {
	for _, s := range lines {
		pdf.Cell(0, 6, s)
		pdf.Ln(6)
	}
	pdf.Ln(3)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
