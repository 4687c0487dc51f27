package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salonbot/libs/db"
)

var (
	ErrNotFound        = errors.New("storage: not found")
	ErrSlotTaken       = errors.New("storage: slot already booked")
	ErrDuplicateCode   = errors.New("storage: duplicate appointment code")
	ErrDuplicateChatID = errors.New("storage: duplicate master chat id")
)

const (
	activeSlotIndex      = "appointments_active_slot_idx"
	uniqueCodeConstraint = "appointments_unique_code_key"
	chatIDConstraint     = "masters_chat_id_key"
)

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if name, ok := db.UniqueViolation(err); ok {
		switch name {
		case activeSlotIndex:
			return ErrSlotTaken
		case uniqueCodeConstraint:
			return ErrDuplicateCode
		case chatIDConstraint:
			return ErrDuplicateChatID
		}
	}
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrSlotTaken)
}
