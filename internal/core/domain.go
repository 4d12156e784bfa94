package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const maxDescriptionLength = 255

type (
	TransactionType string

	Transaction struct {
		ID          string          `json:"id"`
		OwnerID     string          `json:"-"`
		Amount      Money           `json:"amount"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		Type        TransactionType `json:"type"`
		CategoryID  string          `json:"categoryId,omitempty"` // empty means uncategorized
		Tags        []string        `json:"tags,omitempty"`
		Notes       string          `json:"notes,omitempty"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	// TransactionInput carries the user supplied fields of a new transaction.
	TransactionInput struct {
		Amount      Money           `json:"amount"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		Type        TransactionType `json:"type"`
		CategoryID  string          `json:"categoryId,omitempty"`
		Tags        []string        `json:"tags,omitempty"`
		Notes       string          `json:"notes,omitempty"`
	}

	// TransactionPatch is a partial update. Nil fields are left untouched.
	TransactionPatch struct {
		Amount      *Money           `json:"amount,omitempty"`
		Description *string          `json:"description,omitempty"`
		Date        *Date            `json:"date,omitempty"`
		Type        *TransactionType `json:"type,omitempty"`
		CategoryID  *string          `json:"categoryId,omitempty"`
		Tags        *[]string        `json:"tags,omitempty"`
		Notes       *string          `json:"notes,omitempty"`
	}
)

var (
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrNotFound           = errors.New("not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrEmptyName          = errors.New("empty name")
)

// IsValidationError reports whether err was caused by bad caller input.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidFilter, ErrInvalidDateRange, ErrInvalidAmount, ErrInvalidDate,
		ErrInvalidType, ErrEmptyDescription, ErrDescriptionTooLong, ErrEmptyName,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType accepts "income" and "expense" in any letter case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func (in TransactionInput) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if err := validateDescription(in.Description); err != nil {
		return err
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if !in.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}

func validateDescription(s string) error {
	if len(strings.TrimSpace(s)) == 0 {
		return ErrEmptyDescription
	}
	if len([]rune(s)) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// NewTransaction builds a transaction from validated input.
func NewTransaction(id, ownerID string, in TransactionInput, now time.Time) Transaction {
	return Transaction{
		ID:          id,
		OwnerID:     ownerID,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		Type:        in.Type,
		CategoryID:  in.CategoryID,
		Tags:        normalizeTags(in.Tags),
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (p TransactionPatch) Validate() error {
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.Type != nil && !p.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}

// Apply returns t with the patch applied. ID, OwnerID and CreatedAt are kept.
func (p TransactionPatch) Apply(t Transaction, now time.Time) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Tags != nil {
		t.Tags = normalizeTags(*p.Tags)
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	t.UpdatedAt = now
	return t
}

// SplitTags parses a comma separated tag list.
func SplitTags(s string) []string {
	return normalizeTags(strings.Split(s, ","))
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func normalizeTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
