package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quickbook/internal/models"
)

const reservationSelect = `SELECT res.id, res.user_id, COALESCE(u.name, ''), COALESCE(u.email, ''),
                 res.room_id, COALESCE(r.name, ''), res.title, res.start_time, res.end_time,
                 res.status, res.amenities, res.feedback_provided, res.created_at, res.version
          FROM reservations res
          LEFT JOIN users u ON u.id = res.user_id
          LEFT JOIN rooms r ON r.id = res.room_id`

func scanReservation(s scanner) (*models.Reservation, error) {
	r := &models.Reservation{}
	err := s.Scan(
		&r.ID, &r.UserID, &r.UserName, &r.UserEmail,
		&r.RoomID, &r.RoomName, &r.Title, &r.StartTime, &r.EndTime,
		&r.Status, &r.Amenities, &r.FeedbackProvided, &r.CreatedAt, &r.Version,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (db *DB) queryReservations(ctx context.Context, where string, args ...any) ([]*models.Reservation, error) {
	rows, err := db.QueryContext(ctx, reservationSelect+" "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var out []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// overlapCount counts confirmed reservations of the room overlapping [start, end),
// ignoring excludeID when it is non-zero.
func overlapCount(ctx context.Context, tx *sql.Tx, roomID int64, start, end time.Time, excludeID int64) (int, error) {
	query := `SELECT COUNT(*) FROM reservations
              WHERE room_id = ? AND status = ?
                AND start_time < ? AND end_time > ?
                AND id != ?`
	var n int
	err := tx.QueryRowContext(ctx, query, roomID, models.ReservationConfirmed, utc(end), utc(start), excludeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to check overlap in tx: %w", err)
	}
	return n, nil
}

// CreateReservationWithLock inserts the reservation unless a confirmed one
// overlaps it in the same room. The check and the insert share a transaction.
func (db *DB) CreateReservationWithLock(ctx context.Context, res *models.Reservation) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	n, err := overlapCount(ctx, tx, res.RoomID, res.StartTime, res.EndTime, 0)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrSlotTaken
	}

	if res.Status == "" {
		res.Status = models.ReservationConfirmed
	}
	now := utc(time.Now())
	query := `INSERT INTO reservations (
                user_id, room_id, title, start_time, end_time, status, amenities,
                feedback_provided, created_at, updated_at, version
              ) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, 1)`
	result, err := tx.ExecContext(ctx, query,
		res.UserID, res.RoomID, res.Title, utc(res.StartTime), utc(res.EndTime), res.Status, res.Amenities, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert reservation in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}

	res.ID = id
	res.CreatedAt = now
	res.Version = 1
	return nil
}

// UpdateReservationWithLock rewrites room, title, interval and amenities of a
// confirmed reservation. The overlap check excludes the reservation itself and
// the write is guarded by the version the caller read.
func (db *DB) UpdateReservationWithLock(ctx context.Context, res *models.Reservation) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	n, err := overlapCount(ctx, tx, res.RoomID, res.StartTime, res.EndTime, res.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrSlotTaken
	}

	query := `UPDATE reservations
              SET room_id = ?, title = ?, start_time = ?, end_time = ?, amenities = ?,
                  updated_at = ?, version = version + 1
              WHERE id = ? AND version = ? AND status = ?`
	result, err := tx.ExecContext(ctx, query,
		res.RoomID, res.Title, utc(res.StartTime), utc(res.EndTime), res.Amenities,
		utc(time.Now()), res.ID, res.Version, models.ReservationConfirmed)
	if err != nil {
		return fmt.Errorf("failed to update reservation in tx: %w", err)
	}
	affected, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConcurrentModification
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reservation update: %w", err)
	}
	res.Version++
	return nil
}

func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	row := db.QueryRowContext(ctx, reservationSelect+` WHERE res.id = ?`, id)
	r, err := scanReservation(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation %d: %w", id, notFound(err))
	}
	return r, nil
}

func (db *DB) ListReservations(ctx context.Context) ([]*models.Reservation, error) {
	return db.queryReservations(ctx, `ORDER BY res.start_time DESC`)
}

func (db *DB) ListReservationsByUser(ctx context.Context, userID int64) ([]*models.Reservation, error) {
	return db.queryReservations(ctx, `WHERE res.user_id = ? ORDER BY res.start_time DESC`, userID)
}

func (db *DB) ListReservationsByRoom(ctx context.Context, roomID int64) ([]*models.Reservation, error) {
	return db.queryReservations(ctx, `WHERE res.room_id = ? ORDER BY res.start_time ASC`, roomID)
}

// ListReservationsByRoomRange returns reservations of the room that overlap [from, to).
func (db *DB) ListReservationsByRoomRange(ctx context.Context, roomID int64, from, to time.Time) ([]*models.Reservation, error) {
	return db.queryReservations(ctx,
		`WHERE res.room_id = ? AND res.start_time < ? AND res.end_time > ? ORDER BY res.start_time ASC`,
		roomID, utc(to), utc(from))
}

// ListReservationsInRange returns reservations of every room that overlap [from, to).
func (db *DB) ListReservationsInRange(ctx context.Context, from, to time.Time) ([]*models.Reservation, error) {
	return db.queryReservations(ctx,
		`WHERE res.start_time < ? AND res.end_time > ? ORDER BY res.start_time ASC`,
		utc(to), utc(from))
}

// CancelReservationIfFuture cancels a confirmed reservation that has not
// started at now. ErrNotCancellable reports any other state.
func (db *DB) CancelReservationIfFuture(ctx context.Context, id int64, now time.Time) error {
	query := `UPDATE reservations SET status = ?, updated_at = ?, version = version + 1
              WHERE id = ? AND status = ? AND start_time > ?`
	result, err := db.ExecContext(ctx, query,
		models.ReservationCancelled, utc(time.Now()), id, models.ReservationConfirmed, utc(now))
	if err != nil {
		return fmt.Errorf("failed to cancel reservation: %w", err)
	}
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	if _, err := db.GetReservation(ctx, id); err != nil {
		return err
	}
	return ErrNotCancellable
}

// UpdateReservationStatus moves a confirmed row that still has fromVersion to
// status.
func (db *DB) UpdateReservationStatus(ctx context.Context, id, fromVersion int64, status models.ReservationStatus) error {
	query := `UPDATE reservations SET status = ?, version = version + 1, updated_at = ?
	          WHERE id = ? AND version = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, status, utc(time.Now()), id, fromVersion, models.ReservationConfirmed)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// MarkCompletedReservations flips confirmed reservations that ended before now
// to completed and returns their ids.
func (db *DB) MarkCompletedReservations(ctx context.Context, now time.Time) ([]int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM reservations WHERE status = ? AND end_time < ? ORDER BY id`,
		models.ReservationConfirmed, utc(now))
	if err != nil {
		return nil, fmt.Errorf("failed to select expired reservations: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan reservation id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ?, version = version + 1
         WHERE status = ? AND end_time < ?`,
		models.ReservationCompleted, utc(time.Now()), models.ReservationConfirmed, utc(now))
	if err != nil {
		return nil, fmt.Errorf("failed to complete reservations: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit completion: %w", err)
	}
	return ids, nil
}

func (db *DB) CountReservations(ctx context.Context) (int, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM reservations`)
}

// CountReservationsByRoom returns reservations per room, busiest first.
func (db *DB) CountReservationsByRoom(ctx context.Context, limit int) ([]models.RoomBookings, error) {
	query := `SELECT r.id, r.name, COUNT(res.id) AS c
              FROM rooms r
              LEFT JOIN reservations res ON res.room_id = r.id
              GROUP BY r.id, r.name
              ORDER BY c DESC, r.name ASC
              LIMIT ?`
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to count reservations by room: %w", err)
	}
	defer rows.Close()

	var out []models.RoomBookings
	for rows.Next() {
		var rb models.RoomBookings
		if err := rows.Scan(&rb.RoomID, &rb.RoomName, &rb.Reservations); err != nil {
			return nil, fmt.Errorf("failed to scan room bookings: %w", err)
		}
		out = append(out, rb)
	}
	return out, rows.Err()
}
