package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Language is the delivery language of an engagement.
type Language string

const (
	LanguageEnglish    Language = "English"
	LanguageSpanish    Language = "Spanish"
	LanguageFrench     Language = "French"
	LanguageItalian    Language = "Italian"
	LanguagePortuguese Language = "Portuguese"
	LanguageGerman     Language = "German"
)

// Valid reports whether l is one of the known languages.
func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageSpanish, LanguageFrench,
		LanguageItalian, LanguagePortuguese, LanguageGerman:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown languages.
func (l *Language) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if !Language(s).Valid() {
		return fmt.Errorf("unknown language %q", s)
	}
	*l = Language(s)
	return nil
}

// Status is the booking state of an engagement.
type Status string

const (
	StatusPlanning  Status = "Planning"
	StatusInvited   Status = "Invited"
	StatusConfirmed Status = "Confirmed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusInvited, StatusConfirmed:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown statuses.
func (s *Status) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if !Status(v).Valid() {
		return fmt.Errorf("unknown status %q", v)
	}
	*s = Status(v)
	return nil
}

// Engagement is a scheduled session between an instructor and a host.
//
// Date is kept as the string the admin UI submitted; parsing and part
// numbering rules belong to the request handlers, not to this package.
type Engagement struct {
	ID         uuid.UUID `json:"id"`
	Instructor string    `json:"instructor"`
	Host       string    `json:"host"`
	Date       string    `json:"date"`
	Language   Language  `json:"language"`
	Title      string    `json:"title"`
	Part       int       `json:"part"`
	NumParts   int       `json:"num_parts"`
	Status     Status    `json:"status"`
}

// NewEngagement returns an engagement with a fresh random ID.
func NewEngagement(instructor, host, date, title string) *Engagement {
	return &Engagement{
		ID:         uuid.New(),
		Instructor: instructor,
		Host:       host,
		Date:       date,
		Language:   LanguageEnglish,
		Title:      title,
		Part:       1,
		NumParts:   1,
		Status:     StatusPlanning,
	}
}

// Clone returns a copy of the engagement.
func (e *Engagement) Clone() *Engagement {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
