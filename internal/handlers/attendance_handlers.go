package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AttendanceHandler struct {
	attendance *services.AttendanceService
	reports    *services.ReportService
	clock      clock.Clock
	loc        *time.Location
}

func NewAttendanceHandler(a *services.AttendanceService, r *services.ReportService, c clock.Clock, loc *time.Location) *AttendanceHandler {
	if loc == nil {
		loc = time.Local
	}
	return &AttendanceHandler{attendance: a, reports: r, clock: c, loc: loc}
}

type attendanceData struct {
	Open    *models.AttendanceEntry
	History []models.AttendanceEntry
}

type adminAttendanceData struct {
	From    string
	To      string
	Entries []models.AttendanceEntry
}

// MyAttendance renders the member's check-in page
func (h *AttendanceHandler) MyAttendance(c echo.Context) error {
	ctx := c.Request().Context()
	userID := getUintFromContext(c, "userID")
	open, err := h.attendance.OpenVisit(ctx, userID)
	if err != nil {
		return err
	}
	history, err := h.attendance.History(ctx, userID, 30)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "attendance.html", newPage(c, "Attendance", "attendance", attendanceData{Open: open, History: history}))
}

// CheckIn opens a visit for the member
func (h *AttendanceHandler) CheckIn(c echo.Context) error {
	ctx := c.Request().Context()
	method := models.AttendanceMethodManual
	if c.FormValue("method") == string(models.AttendanceMethodQR) {
		method = models.AttendanceMethodQR
	}
	if _, err := h.attendance.CheckIn(ctx, getUintFromContext(c, "userID"), method); err != nil {
		if isUserError(err) {
			return redirectWith(c, "/attendance", "error", err.Error())
		}
		return err
	}
	_ = h.reports.InvalidateReport(ctx)
	return redirectWith(c, "/attendance", "notice", "Checked in. Have a good session!")
}

// CheckOut closes the member's open visit
func (h *AttendanceHandler) CheckOut(c echo.Context) error {
	entry, err := h.attendance.CheckOut(c.Request().Context(), getUintFromContext(c, "userID"))
	if err != nil {
		if isUserError(err) {
			return redirectWith(c, "/attendance", "error", err.Error())
		}
		return err
	}
	return redirectWith(c, "/attendance", "notice",
		fmt.Sprintf("Checked out after %s.", entry.Duration().Round(time.Minute)))
}

// dateRange reads from/to query params, defaulting to the last 7 days
func (h *AttendanceHandler) dateRange(c echo.Context) (time.Time, time.Time, error) {
	today := clock.Today(h.clock.Now().In(h.loc))
	from, to := clock.AddDays(today, -6), today
	if v := c.QueryParam("from"); v != "" {
		d, err := clock.ParseDay(v, h.loc)
		if err != nil {
			return from, to, echo.NewHTTPError(http.StatusBadRequest, "from must be YYYY-MM-DD")
		}
		from = d
	}
	if v := c.QueryParam("to"); v != "" {
		d, err := clock.ParseDay(v, h.loc)
		if err != nil {
			return from, to, echo.NewHTTPError(http.StatusBadRequest, "to must be YYYY-MM-DD")
		}
		to = d
	}
	return from, to, nil
}

func (h *AttendanceHandler) entriesInRange(c echo.Context) (time.Time, time.Time, []models.AttendanceEntry, error) {
	from, to, err := h.dateRange(c)
	if err != nil {
		return from, to, nil, err
	}
	entries, err := h.attendance.ListBetween(c.Request().Context(), from, to)
	if err != nil {
		return from, to, nil, httpError(err)
	}
	return from, to, entries, nil
}

// AdminAttendance renders every visit in the selected range
func (h *AttendanceHandler) AdminAttendance(c echo.Context) error {
	from, to, entries, err := h.entriesInRange(c)
	if err != nil {
		return err
	}
	page := newPage(c, "Attendance", "admin", adminAttendanceData{
		From:    clock.DayKey(from),
		To:      clock.DayKey(to),
		Entries: entries,
	})
	page.Breadcrumbs = []Breadcrumb{{Title: "Admin", URL: "/admin"}, {Title: "Attendance"}}
	return c.Render(http.StatusOK, "admin_attendance.html", page)
}

// ExportCSV streams the selected range as CSV
func (h *AttendanceHandler) ExportCSV(c echo.Context) error {
	from, to, entries, err := h.entriesInRange(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := services.WriteCSV(&buf, entries, h.loc); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, exportFilename(from, to, "csv"))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportXLSX streams the selected range as an Excel workbook
func (h *AttendanceHandler) ExportXLSX(c echo.Context) error {
	from, to, entries, err := h.entriesInRange(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := services.WriteXLSX(&buf, entries, h.loc); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, exportFilename(from, to, "xlsx"))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func exportFilename(from, to time.Time, ext string) string {
	return fmt.Sprintf(`attachment; filename="attendance_%s_%s.%s"`, clock.DayKey(from), clock.DayKey(to), ext)
}
