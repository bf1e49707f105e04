package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

const maxNoteLength = 200

type (
	EntryType string

	Money struct {
		Cents int64
	}

	// Entry is one income or expense record attributed to a calendar day.
	Entry struct {
		ID        string        `json:"id"`
		Amount    Money         `json:"amount"`
		Type      EntryType     `json:"type"`
		Category  Category      `json:"category,omitempty"`
		Group     CategoryGroup `json:"categoryGroup,omitempty"` // derived from Category on write, normalized on read
		Date      Date          `json:"date"`
		Note      string        `json:"note,omitempty"`
		CreatedAt time.Time     `json:"createdAt"`
	}

	// Budget is a monthly spending cap for one category.
	Budget struct {
		Category Category   `json:"category"`
		Year     int        `json:"year"`
		Month    time.Month `json:"month"`
		Amount   Money      `json:"amount"`
	}

	Streak struct {
		CurrentStreak        int  `json:"currentStreak"`
		LongestStreak        int  `json:"longestStreak"`
		LastEntryDate        Date `json:"lastEntryDate"` // zero when no entry has ever counted
		TotalDaysWithEntries int  `json:"totalDaysWithEntries"`
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid entry type")
	ErrInvalidCategory = errors.New("invalid category")
	ErrMissingGroup    = errors.New("missing category group")
	ErrNoteTooLong     = errors.New("note too long (max 200 characters)")
	ErrInvalidTheme    = errors.New("invalid theme")
)

func (t EntryType) IsValid() bool {
	return t == Income || t == Expense
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the write-time invariants. Expenses need a category that
// resolves to a known group; income may carry any known category or none.
func (e Entry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Type.IsValid() {
		return ErrInvalidType
	}
	if len(e.Note) > maxNoteLength {
		return ErrNoteTooLong
	}
	if e.Type == Expense {
		if !e.Category.IsValid() {
			return ErrInvalidCategory
		}
		if !e.Group.IsValid() {
			return ErrMissingGroup
		}
		return nil
	}
	if e.Category != "" && !e.Category.IsValid() {
		return ErrInvalidCategory
	}
	return nil
}

// Normalize trims free text and derives the group from the category table.
func (e Entry) Normalize() Entry {
	e.Note = strings.TrimSpace(e.Note)
	e.Category = Category(strings.TrimSpace(string(e.Category)))
	if g, ok := GroupOf(e.Category); ok {
		e.Group = g
	} else {
		e.Group = ""
	}
	return e
}

func (b Budget) Validate() error {
	if b.Year < 1 {
		return ErrInvalidDate
	}
	if b.Month < time.January || b.Month > time.December {
		return ErrInvalidDate
	}
	if _, ok := GroupOf(b.Category); !ok {
		return ErrInvalidCategory
	}
	return b.Amount.Validate()
}

// Period returns the budget's year and month.
func (b Budget) Period() YearMonth {
	return YearMonth{Year: b.Year, Month: b.Month}
}
