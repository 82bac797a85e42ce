package database

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrDuplicate              = errors.New("already exists")
	ErrSlotTaken              = errors.New("time slot unavailable")
	ErrNotCancellable         = errors.New("reservation can no longer be cancelled")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)
