// Package export renders reservations into an Excel workbook.
package export

import (
	"fmt"
	"sort"
	"time"

	"quickbook/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	ReservationsSheet = "Reservations"
	RoomsSheet        = "Rooms"
	ContentType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	timeLayout = "2006-01-02 15:04"
)

var reservationHeaders = []string{"ID", "Room", "Location", "Title", "User", "Email", "Start", "End", "Status", "Amenities", "Feedback"}

var roomHeaders = []string{"Room", "Location", "Capacity", "Availability", "Confirmed", "Completed", "Cancelled", "Total"}

// FileName is the suggested attachment name for a workbook built at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("reservations_%s.xlsx", now.Format("2006-01-02"))
}

// ReservationsWorkbook builds a workbook with every reservation on one sheet
// and per-room status counts on another. Times are written in loc.
// The caller closes the returned file.
func ReservationsWorkbook(reservations []*models.Reservation, rooms []*models.Room, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(ReservationsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if _, err := f.NewSheet(RoomsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating style: %w", err)
	}

	roomByID := make(map[int64]*models.Room, len(rooms))
	for _, r := range rooms {
		roomByID[r.ID] = r
	}

	if err := writeReservations(f, headerStyle, reservations, roomByID, loc); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRoomSummary(f, headerStyle, reservations, rooms); err != nil {
		f.Close()
		return nil, err
	}

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

func writeHeader(f *excelize.File, sheet string, style int, headers []string) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("error writing header: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeReservations(f *excelize.File, style int, reservations []*models.Reservation, rooms map[int64]*models.Room, loc *time.Location) error {
	if err := writeHeader(f, ReservationsSheet, style, reservationHeaders); err != nil {
		return err
	}

	sorted := append([]*models.Reservation(nil), reservations...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime.Before(sorted[j].StartTime) })

	for i, res := range sorted {
		location := ""
		if room, ok := rooms[res.RoomID]; ok {
			location = string(room.Location)
		}
		feedback := "no"
		if res.FeedbackProvided {
			feedback = "yes"
		}

		values := []interface{}{
			res.ID,
			res.RoomName,
			location,
			res.Title,
			res.UserName,
			res.UserEmail,
			res.StartTime.In(loc).Format(timeLayout),
			res.EndTime.In(loc).Format(timeLayout),
			string(res.Status),
			res.Amenities,
			feedback,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ReservationsSheet, cell, &values); err != nil {
			return fmt.Errorf("error writing reservation %d: %w", res.ID, err)
		}
	}

	_ = f.SetColWidth(ReservationsSheet, "A", "A", 8)
	_ = f.SetColWidth(ReservationsSheet, "B", "F", 22)
	_ = f.SetColWidth(ReservationsSheet, "G", "H", 18)
	_ = f.SetColWidth(ReservationsSheet, "I", "K", 14)
	return nil
}

type roomCounts struct {
	confirmed, completed, cancelled int
}

func writeRoomSummary(f *excelize.File, style int, reservations []*models.Reservation, rooms []*models.Room) error {
	if err := writeHeader(f, RoomsSheet, style, roomHeaders); err != nil {
		return err
	}

	counts := make(map[int64]*roomCounts, len(rooms))
	for _, res := range reservations {
		c, ok := counts[res.RoomID]
		if !ok {
			c = &roomCounts{}
			counts[res.RoomID] = c
		}
		switch res.Status {
		case models.ReservationConfirmed:
			c.confirmed++
		case models.ReservationCompleted:
			c.completed++
		case models.ReservationCancelled:
			c.cancelled++
		}
	}

	for i, room := range rooms {
		c := counts[room.ID]
		if c == nil {
			c = &roomCounts{}
		}
		values := []interface{}{
			room.Name,
			string(room.Location),
			room.Capacity,
			string(room.Availability),
			c.confirmed,
			c.completed,
			c.cancelled,
			c.confirmed + c.completed + c.cancelled,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(RoomsSheet, cell, &values); err != nil {
			return fmt.Errorf("error writing room %s: %w", room.Name, err)
		}
	}

	_ = f.SetColWidth(RoomsSheet, "A", "B", 22)
	_ = f.SetColWidth(RoomsSheet, "C", "H", 14)
	return nil
}
