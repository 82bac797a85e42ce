package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quickbook/internal/models"
)

const feedbackSelect = `SELECT f.id, f.reservation_id, f.user_id, COALESCE(u.name, ''),
                 f.room_id, COALESCE(r.name, ''), f.rating, f.comment, f.created_at
          FROM feedbacks f
          LEFT JOIN users u ON u.id = f.user_id
          LEFT JOIN rooms r ON r.id = f.room_id`

func scanFeedback(s scanner) (*models.Feedback, error) {
	f := &models.Feedback{}
	err := s.Scan(&f.ID, &f.ReservationID, &f.UserID, &f.UserName, &f.RoomID, &f.RoomName, &f.Rating, &f.Comment, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (db *DB) queryFeedbacks(ctx context.Context, where string, args ...any) ([]*models.Feedback, error) {
	rows, err := db.QueryContext(ctx, feedbackSelect+" "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedbacks: %w", err)
	}
	defer rows.Close()

	var out []*models.Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CreateFeedback stores the feedback and sets feedback_provided on its
// reservation in one transaction. A second feedback for the same reservation
// yields ErrDuplicate.
func (db *DB) CreateFeedback(ctx context.Context, fb *models.Feedback) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := utc(time.Now())
	result, err := tx.ExecContext(ctx,
		`INSERT INTO feedbacks (reservation_id, user_id, room_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		fb.ReservationID, fb.UserID, fb.RoomID, fb.Rating, fb.Comment, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("feedback for reservation %d: %w", fb.ReservationID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := markFeedbackProvided(ctx, tx, fb.ReservationID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feedback: %w", err)
	}

	fb.ID = id
	fb.CreatedAt = now
	return nil
}

func markFeedbackProvided(ctx context.Context, tx *sql.Tx, reservationID int64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE reservations SET feedback_provided = 1, updated_at = ? WHERE id = ?`,
		utc(time.Now()), reservationID)
	if err != nil {
		return fmt.Errorf("failed to mark feedback provided: %w", err)
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

func (db *DB) GetFeedback(ctx context.Context, id int64) (*models.Feedback, error) {
	f, err := scanFeedback(db.QueryRowContext(ctx, feedbackSelect+` WHERE f.id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback %d: %w", id, notFound(err))
	}
	return f, nil
}

func (db *DB) ListFeedbacks(ctx context.Context) ([]*models.Feedback, error) {
	return db.queryFeedbacks(ctx, `ORDER BY f.created_at DESC, f.id DESC`)
}

// ListRecentFeedbacks returns the newest limit feedback entries.
func (db *DB) ListRecentFeedbacks(ctx context.Context, limit int) ([]*models.Feedback, error) {
	return db.queryFeedbacks(ctx, `ORDER BY f.created_at DESC, f.id DESC LIMIT ?`, limit)
}

func (db *DB) ListFeedbacksByRoom(ctx context.Context, roomID int64) ([]*models.Feedback, error) {
	return db.queryFeedbacks(ctx, `WHERE f.room_id = ? ORDER BY f.created_at DESC, f.id DESC`, roomID)
}

func (db *DB) ListFeedbacksByUser(ctx context.Context, userID int64) ([]*models.Feedback, error) {
	return db.queryFeedbacks(ctx, `WHERE f.user_id = ? ORDER BY f.created_at DESC, f.id DESC`, userID)
}

// DeleteFeedback removes the feedback and clears feedback_provided on its
// reservation in one transaction, so the reservation can be rated again.
func (db *DB) DeleteFeedback(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var reservationID int64
	err = tx.QueryRowContext(ctx, `SELECT reservation_id FROM feedbacks WHERE id = ?`, id).Scan(&reservationID)
	if err != nil {
		return fmt.Errorf("failed to get feedback %d: %w", id, notFound(err))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM feedbacks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET feedback_provided = 0, updated_at = ? WHERE id = ?`,
		utc(time.Now()), reservationID); err != nil {
		return fmt.Errorf("failed to clear feedback provided: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feedback deletion: %w", err)
	}
	return nil
}
