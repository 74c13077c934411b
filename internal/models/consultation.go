package models

import (
	"encoding/json"
	"time"
)

// DateLayout is the wire and storage format of a meeting date.
const DateLayout = "2006-01-02"

type Consultation struct {
	ID          int64     `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	MeetingDate time.Time `json:"-"`
	MeetingTime string    `json:"meeting_time"`
	Status      string    `json:"status"` // pending, confirmed, completed, cancelled
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Slot returns the (date, time) pair the consultation occupies while active.
func (c *Consultation) Slot() Slot {
	return Slot{Date: c.MeetingDate.Format(DateLayout), Time: c.MeetingTime}
}

// MarshalJSON renders MeetingDate as a plain calendar date.
func (c Consultation) MarshalJSON() ([]byte, error) {
	type plain Consultation
	return json.Marshal(struct {
		plain
		MeetingDate string `json:"meeting_date"`
	}{plain: plain(c), MeetingDate: c.MeetingDate.Format(DateLayout)})
}

type Slot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (s Slot) String() string {
	return s.Date + " " + s.Time
}
