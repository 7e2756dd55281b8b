package db

import (
	"time"

	"github.com/liuran001/WatchParty-Go/party"
)

// SettingModel stores one key/value setting.
type SettingModel struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null;default:''"`
	UpdatedAt time.Time
}

func (SettingModel) TableName() string {
	return "settings"
}

// FeedbackModel mirrors the feedback_entries outbox.
type FeedbackModel struct {
	ID        string `gorm:"primaryKey"`
	Message   string `gorm:"not null"`
	Contact   string
	Page      string
	RoomID    string
	Status    string `gorm:"not null;default:'pending';index"`
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (FeedbackModel) TableName() string {
	return "feedback_entries"
}

func toInternal(model FeedbackModel) *party.FeedbackEntry {
	return &party.FeedbackEntry{
		ID:        model.ID,
		Message:   model.Message,
		Contact:   model.Contact,
		Page:      model.Page,
		RoomID:    model.RoomID,
		Status:    party.FeedbackStatus(model.Status),
		Error:     model.Error,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func fromInternal(entry *party.FeedbackEntry) FeedbackModel {
	status := entry.Status
	if status == "" {
		status = party.FeedbackPending
	}
	return FeedbackModel{
		ID:        entry.ID,
		Message:   entry.Message,
		Contact:   entry.Contact,
		Page:      entry.Page,
		RoomID:    entry.RoomID,
		Status:    string(status),
		Error:     entry.Error,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}
