package lunch

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidPlaceID indicates that a place identifier is empty or exceeds storage bounds.
	ErrInvalidPlaceID = errors.New("lunch: invalid place id")
)

// PlaceID is a typed reference to a stored lunch place. Proposals carry it
// directly instead of a composite reference string, so no parsing happens
// anywhere.
type PlaceID string

// NewPlaceID validates raw input and returns a PlaceID.
func NewPlaceID(rawInput string) (PlaceID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPlaceID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidPlaceID, maxIdentifierLength)
	}
	return PlaceID(trimmed), nil
}

// String returns the underlying string identifier.
func (id PlaceID) String() string {
	return string(id)
}

// Place is a lunch spot suggested by a workspace member. Places are created
// lazily by the add command and never deleted.
//
// No TableName override: table names go through the namespace-prefixing
// naming strategy configured at open time.
type Place struct {
	ID        PlaceID   `gorm:"column:id;primaryKey;size:190;not null"`
	Name      string    `gorm:"column:name;size:320;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Proposal records one picked lunch place. A proposal is immutable in the
// normal workflow; the update path exists structurally and is ignored by the
// announcement hook.
type Proposal struct {
	ID        string    `gorm:"column:id;primaryKey;size:190;not null"`
	PlaceID   PlaceID   `gorm:"column:place_id;size:190;not null;index"`
	Channel   string    `gorm:"column:channel;size:190"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
