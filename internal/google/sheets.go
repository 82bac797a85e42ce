// Package google mirrors reservations into a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"sync"
	"time"

	"quickbook/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	timestampLayout = "2006-01-02 15:04"
	lastColumn      = "K"
	statusColumn    = "H"
	updatedColumn   = "K"
)

var (
	ErrRowNotFound = errors.New("reservation row not found")

	rowInRange = regexp.MustCompile(`![A-Z]+(\d+)`)
)

var headerRow = []interface{}{
	"ID", "User", "Email", "Room", "Title", "Start", "End", "Status", "Amenities", "Created At", "Updated At",
}

type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	loc           *time.Location
	rowCache      map[int64]int
	cacheMu       sync.RWMutex
	now           func() time.Time
}

// NewSheetsService authenticates with a service-account key file.
func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, loc *time.Location) (*SheetsService, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return newService(srv, spreadsheetID, sheetName, loc), nil
}

func newService(srv *sheets.Service, spreadsheetID, sheetName string, loc *time.Location) *SheetsService {
	if sheetName == "" {
		sheetName = "Reservations"
	}
	if loc == nil {
		loc = time.Local
	}
	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		loc:           loc,
		rowCache:      make(map[int64]int),
		now:           time.Now,
	}
}

func (s *SheetsService) rng(a1 string) string {
	return s.sheetName + "!" + a1
}

// TestConnection reads the header cell.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	if _, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.rng("A1")).Context(ctx).Do(); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// WarmUpCache rebuilds the id -> row index from column A.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.rng("A:A")).Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)
	for i, row := range resp.Values {
		if id, ok := cellID(row); ok {
			s.rowCache[id] = i + 1
		}
	}
	return nil
}

func cellID(row []interface{}) (int64, bool) {
	if len(row) == 0 {
		return 0, false
	}
	switch v := row[0].(type) {
	case float64:
		return int64(v), v > 0
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil && id > 0
	}
	return 0, false
}

func (s *SheetsService) rowValues(res *models.Reservation) []interface{} {
	return []interface{}{
		res.ID,
		res.UserName,
		res.UserEmail,
		res.RoomName,
		res.Title,
		res.StartTime.In(s.loc).Format(timestampLayout),
		res.EndTime.In(s.loc).Format(timestampLayout),
		string(res.Status),
		res.Amenities,
		res.CreatedAt.In(s.loc).Format(timestampLayout),
		s.now().In(s.loc).Format(timestampLayout),
	}
}

// AppendReservation adds a row and remembers where it landed.
func (s *SheetsService) AppendReservation(ctx context.Context, res *models.Reservation) error {
	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.rng("A:A"), &sheets.ValueRange{
		Values: [][]interface{}{s.rowValues(res)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return err
	}
	if resp.Updates != nil {
		if row, ok := rowFromRange(resp.Updates.UpdatedRange); ok {
			s.setCachedRow(res.ID, row)
		}
	}
	return nil
}

func rowFromRange(a1 string) (int, bool) {
	m := rowInRange.FindStringSubmatch(a1)
	if m == nil {
		return 0, false
	}
	row, err := strconv.Atoi(m[1])
	return row, err == nil
}

// UpsertReservation rewrites the reservation's row or appends a new one.
func (s *SheetsService) UpsertReservation(ctx context.Context, res *models.Reservation) error {
	if res == nil {
		return errors.New("reservation is nil")
	}

	rowIdx, err := s.FindReservationRow(ctx, res.ID)
	if errors.Is(err, ErrRowNotFound) {
		return s.AppendReservation(ctx, res)
	}
	if err != nil {
		return err
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, s.rng(fmt.Sprintf("A%d:%s%d", rowIdx, lastColumn, rowIdx)), &sheets.ValueRange{
		Values: [][]interface{}{s.rowValues(res)},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// UpdateReservationStatus rewrites the status and updated-at cells.
func (s *SheetsService) UpdateReservationStatus(ctx context.Context, reservationID int64, status models.ReservationStatus) error {
	rowIdx, err := s.FindReservationRow(ctx, reservationID)
	if err != nil {
		return err
	}

	statusRange := s.rng(fmt.Sprintf("%s%d:%s%d", statusColumn, rowIdx, statusColumn, rowIdx))
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, statusRange, &sheets.ValueRange{
		Values: [][]interface{}{{string(status)}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return err
	}

	updatedRange := s.rng(fmt.Sprintf("%s%d:%s%d", updatedColumn, rowIdx, updatedColumn, rowIdx))
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, updatedRange, &sheets.ValueRange{
		Values: [][]interface{}{{s.now().In(s.loc).Format(timestampLayout)}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// ReplaceReservations clears the sheet and writes the header plus all rows.
func (s *SheetsService) ReplaceReservations(ctx context.Context, reservations []*models.Reservation) error {
	_, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, s.rng("A:"+lastColumn), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	values := make([][]interface{}, 0, len(reservations)+1)
	values = append(values, headerRow)
	for _, res := range reservations {
		values = append(values, s.rowValues(res))
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, s.rng("A1"), &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int, len(reservations))
	for i, res := range reservations {
		s.rowCache[res.ID] = i + 2
	}
	return nil
}

// FindReservationRow locates the 1-based row of a reservation id in column A.
func (s *SheetsService) FindReservationRow(ctx context.Context, reservationID int64) (int, error) {
	if reservationID == 0 {
		return 0, errors.New("reservation id is required")
	}
	if row, ok := s.getCachedRow(reservationID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.rng("A:A")).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for i, row := range resp.Values {
		if id, ok := cellID(row); ok && id == reservationID {
			s.setCachedRow(reservationID, i+1)
			return i + 1, nil
		}
	}
	return 0, ErrRowNotFound
}

func (s *SheetsService) getCachedRow(id int64) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id int64, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}
