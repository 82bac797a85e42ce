package database

import (
	"context"
	"fmt"
	"time"

	"quickbook/internal/models"
)

const roomColumns = `id, name, location, capacity, availability, description, image_url, created_at`

func scanRoom(s scanner) (*models.Room, error) {
	r := &models.Room{}
	if err := s.Scan(&r.ID, &r.Name, &r.Location, &r.Capacity, &r.Availability, &r.Description, &r.ImageURL, &r.CreatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

func (db *DB) queryRooms(ctx context.Context, query string, args ...any) ([]*models.Room, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

func (db *DB) CreateRoom(ctx context.Context, room *models.Room) error {
	if room.Availability == "" {
		room.Availability = models.RoomAvailable
	}
	now := utc(time.Now())
	query := `INSERT INTO rooms (name, location, capacity, availability, description, image_url, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		room.Name, room.Location, room.Capacity, room.Availability, room.Description, room.ImageURL, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("room %q: %w", room.Name, ErrDuplicate)
		}
		return fmt.Errorf("failed to create room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	room.ID = id
	room.CreatedAt = now
	return nil
}

func (db *DB) UpdateRoom(ctx context.Context, room *models.Room) error {
	query := `UPDATE rooms SET name = ?, location = ?, capacity = ?, availability = ?, description = ?, image_url = ?
              WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		room.Name, room.Location, room.Capacity, room.Availability, room.Description, room.ImageURL, room.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("room %q: %w", room.Name, ErrDuplicate)
		}
		return fmt.Errorf("failed to update room: %w", err)
	}
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	row := db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	r, err := scanRoom(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get room %d: %w", id, notFound(err))
	}
	return r, nil
}

func (db *DB) GetRoomByName(ctx context.Context, name string) (*models.Room, error) {
	row := db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE name = ?`, name)
	r, err := scanRoom(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get room %q: %w", name, notFound(err))
	}
	return r, nil
}

func (db *DB) ListRooms(ctx context.Context) ([]*models.Room, error) {
	return db.queryRooms(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name`)
}

func (db *DB) ListRoomsByLocation(ctx context.Context, loc models.RoomLocation) ([]*models.Room, error) {
	return db.queryRooms(ctx, `SELECT `+roomColumns+` FROM rooms WHERE location = ? ORDER BY name`, loc)
}

func (db *DB) ListRoomsByMinCapacity(ctx context.Context, minCapacity int) ([]*models.Room, error) {
	return db.queryRooms(ctx, `SELECT `+roomColumns+` FROM rooms WHERE capacity >= ? ORDER BY capacity, name`, minCapacity)
}

// ListAvailableRooms returns rooms that are not under maintenance and have no
// confirmed reservation overlapping [start, end).
func (db *DB) ListAvailableRooms(ctx context.Context, start, end time.Time) ([]*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms r
              WHERE r.availability = ?
                AND NOT EXISTS (
                    SELECT 1 FROM reservations res
                    WHERE res.room_id = r.id AND res.status = ?
                      AND res.start_time < ? AND res.end_time > ?
                )
              ORDER BY r.name`
	return db.queryRooms(ctx, query, models.RoomAvailable, models.ReservationConfirmed, utc(end), utc(start))
}

// DeleteRoom removes the room with its reservations and feedback.
func (db *DB) DeleteRoom(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM feedbacks WHERE room_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete room feedback: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE room_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete room reservations: %w", err)
	}
	return tx.Commit()
}

// AppendRoomNote adds a timestamped line to the room description.
func (db *DB) AppendRoomNote(ctx context.Context, id int64, note string, at time.Time) error {
	line := at.Format("2006-01-02 15:04:05") + ": " + note
	query := `UPDATE rooms SET description = CASE
                  WHEN description = '' THEN ?
                  ELSE description || char(10) || ?
              END
              WHERE id = ?`
	result, err := db.ExecContext(ctx, query, line, line, id)
	if err != nil {
		return fmt.Errorf("failed to append room note: %w", err)
	}
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) CountRooms(ctx context.Context) (int, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM rooms`)
}
