package model

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Title        string    `gorm:"size:255;not null"`
	CoinsPerHour int64     `gorm:"not null"`
	Days         string    `gorm:"size:32;not null"`
	StartTime    string    `gorm:"size:5"`
	EndTime      string    `gorm:"size:5"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

type SwapRequest struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PostID          uuid.UUID  `gorm:"type:uuid;index;not null"`
	RequesterID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	ResponderID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	StartsAt        time.Time  `gorm:"index;not null"`
	SlotStart       int        `gorm:"not null"`
	SlotEnd         int        `gorm:"not null"`
	DurationMinutes int        `gorm:"not null"`
	Cost            int64      `gorm:"not null"`
	Status          string     `gorm:"size:16;index;not null"`
	SessionID       *uuid.UUID `gorm:"type:uuid"`
	CreatedAt       time.Time  `gorm:"not null"`
	ResolvedAt      *time.Time
}

type Session struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	SwapRequestID   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	HostID          uuid.UUID `gorm:"type:uuid;index;not null"`
	LearnerID       uuid.UUID `gorm:"type:uuid;index;not null"`
	ScheduledTime   time.Time `gorm:"index;not null"`
	DurationMinutes int       `gorm:"not null"`
	Status          string    `gorm:"size:16;index;not null"`
	HostJoinedAt    *time.Time
	LearnerJoinedAt *time.Time
	StartedAt       *time.Time
	EndedAt         *time.Time
	EndedBy         string `gorm:"size:16"`
	Cost            int64  `gorm:"not null"`
}

type Wallet struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Balance   int64     `gorm:"not null;check:balance >= 0"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Transaction struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	FromUserID       uuid.UUID  `gorm:"type:uuid;index;not null"`
	ToUserID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	Amount           int64      `gorm:"not null"`
	PlatformShare    int64      `gorm:"not null"`
	Type             string     `gorm:"size:8;not null;uniqueIndex:idx_transactions_key_type,priority:2"`
	RelatedSessionID *uuid.UUID `gorm:"type:uuid;index"`
	IdempotencyKey   string     `gorm:"size:128;not null;uniqueIndex:idx_transactions_key_type,priority:1"`
	Memo             string     `gorm:"size:255"`
	CreatedAt        time.Time  `gorm:"not null;index"`
}
