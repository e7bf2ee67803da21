package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/store"
)

// ExportTimeLayout formats timestamps in attendance exports
const ExportTimeLayout = "2006-01-02 15:04"

var exportHeader = []string{"Member", "Check In", "Check Out", "Method"}

type AttendanceService struct {
	store store.Store
	clock clock.Clock
	log   *slog.Logger
}

func NewAttendanceService(s store.Store, c clock.Clock, log *slog.Logger) *AttendanceService {
	return &AttendanceService{store: s, clock: c, log: log}
}

// CheckIn opens a visit for the user. It fails with ErrAlreadyCheckedIn while
// a previous visit is still open.
func (s *AttendanceService) CheckIn(ctx context.Context, userID uint, method models.AttendanceMethod) (*models.AttendanceEntry, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	_, err = s.store.GetOpenAttendance(ctx, userID)
	if err == nil {
		return nil, ErrAlreadyCheckedIn
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if method == "" {
		method = models.AttendanceMethodManual
	}
	entry := &models.AttendanceEntry{
		UserID:  userID,
		CheckIn: s.clock.Now(),
		Method:  method,
	}
	if err := s.store.CreateAttendance(ctx, entry); err != nil {
		return nil, fmt.Errorf("create attendance: %w", err)
	}
	s.log.Debug("checked in", "user_id", userID, "method", method)
	return entry, nil
}

// CheckOut closes the user's open visit
func (s *AttendanceService) CheckOut(ctx context.Context, userID uint) (*models.AttendanceEntry, error) {
	entry, err := s.store.GetOpenAttendance(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotCheckedIn
	}
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := s.store.CloseAttendance(ctx, entry.ID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotCheckedIn
		}
		return nil, err
	}
	entry.CheckOut = &now
	return entry, nil
}

// OpenVisit returns the user's open visit, or nil
func (s *AttendanceService) OpenVisit(ctx context.Context, userID uint) (*models.AttendanceEntry, error) {
	entry, err := s.store.GetOpenAttendance(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return entry, err
}

func (s *AttendanceService) History(ctx context.Context, userID uint, limit int) ([]models.AttendanceEntry, error) {
	return s.store.ListAttendanceByUser(ctx, userID, limit)
}

// ListBetween returns visits checked in on the days from..to, both inclusive
func (s *AttendanceService) ListBetween(ctx context.Context, from, to time.Time) ([]models.AttendanceEntry, error) {
	from = clock.Today(from)
	to = clock.Today(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end is before its start", ErrInvalidInput)
	}
	return s.store.ListAttendanceBetween(ctx, from, clock.AddDays(to, 1))
}

func exportRow(e models.AttendanceEntry, loc *time.Location) []string {
	checkOut := ""
	if e.CheckOut != nil {
		checkOut = e.CheckOut.In(loc).Format(ExportTimeLayout)
	}
	return []string{
		e.User.Name,
		e.CheckIn.In(loc).Format(ExportTimeLayout),
		checkOut,
		string(e.Method),
	}
}

// WriteCSV writes entries with every field quoted and CRLF line endings
func WriteCSV(w io.Writer, entries []models.AttendanceEntry, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	if err := writeQuotedRecord(w, exportHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writeQuotedRecord(w, exportRow(e, loc)); err != nil {
			return err
		}
	}
	return nil
}

func writeQuotedRecord(w io.Writer, fields []string) error {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteXLSX writes the same table as WriteCSV into a single-sheet workbook
func WriteXLSX(w io.Writer, entries []models.AttendanceEntry, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Attendance"
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return err
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range entries {
		fields := exportRow(e, loc)
		row := make([]interface{}, len(fields))
		for j, v := range fields {
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "D", 20); err != nil {
		return err
	}

	return f.Write(w)
}
