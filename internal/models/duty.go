package models

import "time"

type DutyStatus string

const (
	DutyUndone DutyStatus = "undone"
	DutyDone   DutyStatus = "done"
)

func (s DutyStatus) Toggle() DutyStatus {
	if s == DutyDone {
		return DutyUndone
	}
	return DutyDone
}

func (s DutyStatus) Title() string {
	if s == DutyDone {
		return "виконано"
	}
	return "не виконано"
}

// Duty: чергування на дату. На одну дату не больше одного.
type Duty struct {
	ID     int64
	Date   time.Time
	Status DutyStatus
}

// DutyPhoto: фотоотчёт. На одно чергування не больше одного фото.
type DutyPhoto struct {
	ID     int64
	DutyID int64
	UserID int64
	Blob   []byte
}

// Group: групповой чат, куда добавлен бот.
type Group struct {
	ChannelID int64
}
