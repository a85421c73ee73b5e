package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/N1cus0r/chat-backend/models"
	redispkg "github.com/N1cus0r/chat-backend/redis"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrInvalidCapacity = errors.New("max participants must be between 2 and 5")
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RoomService owns the room registry and membership transitions: code
// generation, create-or-replace per host, capacity-checked joins and
// host-dissolves-room leaves.
type RoomService struct {
	db    *gorm.DB
	cache *redispkg.RoomCache // optional, may be nil
}

func NewRoomService(db *gorm.DB, cache *redispkg.RoomCache) *RoomService {
	return &RoomService{db: db, cache: cache}
}

// generateCode draws 6 uppercase letters and retries until the code is not
// held by any live room. A registry lookup failure aborts the loop.
func (s *RoomService) generateCode() (string, error) {
	buf := make([]byte, models.CodeLength)
	for {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate room code: %w", err)
		}
		for i := range buf {
			buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
		}
		code := string(buf)

		var count int64
		if err := s.db.Model(&models.Room{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("room code lookup failed: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
}

// FindByCode resolves a room by its join code, serving repeat lookups from
// the cache when one is configured.
func (s *RoomService) FindByCode(code string) (*models.Room, error) {
	if s.cache != nil {
		if room, err := s.cache.Get(context.Background(), code); err == nil && room != nil {
			return room, nil
		}
	}

	var room models.Room
	if err := s.db.Where("code = ?", code).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(context.Background(), &room)
	}
	return &room, nil
}

// CreateOrReplaceForHost returns the host's room, creating it on first use.
// A host owns at most one room: calling again overwrites the capacity and
// resets the participant count instead of creating a second row.
func (s *RoomService) CreateOrReplaceForHost(hostID uint, maxParticipants int) (*models.Room, error) {
	if maxParticipants == 0 {
		maxParticipants = models.DefaultCapacity
	}
	if maxParticipants < models.MinCapacity || maxParticipants > models.MaxCapacity {
		return nil, ErrInvalidCapacity
	}

	var room models.Room
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("host_id = ?", hostID).First(&room).Error
		if err == nil {
			room.HostID = hostID
			room.MaxParticipants = maxParticipants
			room.Participants = 0
			return tx.Save(&room).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		code, err := s.generateCode()
		if err != nil {
			return err
		}
		room = models.Room{
			HostID:          hostID,
			Code:            code,
			MaxParticipants: maxParticipants,
			Participants:    0,
		}
		return tx.Create(&room).Error
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(context.Background(), room.Code)
	}
	return &room, nil
}

// Join claims a slot in the room identified by code. The check and the
// increment run as a single guarded UPDATE so that two concurrent joins on
// the last free slot cannot both succeed.
func (s *RoomService) Join(code string, userID uint) (*models.Room, error) {
	res := s.db.Model(&models.Room{}).
		Where("code = ? AND participants < max_participants", code).
		Update("participants", gorm.Expr("participants + 1"))
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		// No slot was claimed: either the room is full or the code is dead.
		var count int64
		if err := s.db.Model(&models.Room{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrRoomNotFound
		}
		return nil, ErrRoomFull
	}

	if s.cache != nil {
		s.cache.Invalidate(context.Background(), code)
	}

	var room models.Room
	if err := s.db.Where("code = ?", code).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// Leave releases the caller's slot. A leaving host dissolves the room
// entirely, messages included; the returned flag reports that case so the
// live layer can tear the broadcast group down. A non-host leave decrements
// the count, clamped at zero.
func (s *RoomService) Leave(code string, userID uint) (room *models.Room, dissolved bool, err error) {
	var found models.Room
	if err := s.db.Where("code = ?", code).First(&found).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrRoomNotFound
		}
		return nil, false, err
	}

	if found.HostID == userID {
		if err := s.destroy(&found); err != nil {
			return nil, false, err
		}
		return &found, true, nil
	}

	res := s.db.Model(&models.Room{}).
		Where("code = ? AND participants > 0", code).
		Update("participants", gorm.Expr("participants - 1"))
	if res.Error != nil {
		return nil, false, res.Error
	}

	if s.cache != nil {
		s.cache.Invalidate(context.Background(), code)
	}
	return &found, false, nil
}

// IsActive reports whether a room with the given code exists.
func (s *RoomService) IsActive(code string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Room{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// destroy removes the room and all its messages in one transaction.
func (s *RoomService) destroy(room *models.Room) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", room.ID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(room).Error
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(context.Background(), room.Code)
	}
	return nil
}
