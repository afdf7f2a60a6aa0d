// Package testdata contains test types for the providers.
package testdata

import (
	"database/sql"
	"encoding/json"
	"iter"
	"time"

	"github.com/google/uuid"
)

// User represents a user in the system.
// This is the full documentation body.
type User struct {
	// ID is the unique identifier
	ID uuid.UUID `json:"id" jsonschema:"required"`

	// Name is the user's display name
	Name string `json:"name" validate:"required,min=1"`

	// Email is optional
	Email string `json:"email,omitempty"`

	// Age may be nil
	Age *int `json:"age"`

	// Status is the account status
	Status Status `json:"status"`

	// Priority is an integer enum
	Priority Priority `json:"priority"`

	// CreatedAt is when the user was created
	CreatedAt time.Time `json:"created_at"`

	// Metadata can contain any JSON
	Metadata map[string]any `json:"metadata,omitempty"`

	// Tags is a list of strings
	Tags []string `json:"tags"`

	// Manager is another user.
	//
	// Deprecated: use Managers.
	Manager *User `json:"manager,omitempty"`

	Managers []*User `json:"managers"`

	Password string `json:"-"`

	secret string
}

// Status represents user status.
type Status string

const (
	// StatusActive means the user is active
	StatusActive Status = "active"
	// StatusInactive means the user is inactive
	StatusInactive Status = "inactive"
	// StatusPending means awaiting approval
	StatusPending Status = "pending"
)

// Priority is an integer enum.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

// Level is an enum written through MarshalText.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
)

func (l Level) MarshalText() ([]byte, error) {
	if l == LevelDebug {
		return []byte("debug"), nil
	}
	return []byte("info"), nil
}

// Base holds fields shared by resources.
type Base struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
}

// Resource embeds Base.
type Resource struct {
	Base
	Name string `json:"name"`
}

// Shadowing redeclares the id property of its base.
type Shadowing struct {
	Base
	ID int64 `json:"id"`
}

// FlatShadowing redeclares the id property and flattens.
type FlatShadowing struct {
	_ struct{} `jsonschema:"flatten"`
	Base
	ID int64 `json:"id"`
}

// Contract only exposes marked members.
type Contract struct {
	_ struct{} `jsonschema:"datacontract,description=A data contract, with opt-in members"`

	Total    int    `json:"total" jsonschema:"member=required"`
	Note     string `json:"note" jsonschema:"member"`
	Internal string `json:"internal"`
}

// Nullables covers the nullable wrappers.
type Nullables struct {
	Count   sql.Null[int]   `json:"count"`
	Label   sql.NullString  `json:"label"`
	Ratio   **float64       `json:"ratio"`
	List    *[]string       `json:"list"`
	Forced  string          `json:"forced" jsonschema:"nullable"`
	Never   *int            `json:"never" jsonschema:"notnull"`
	Raw     json.RawMessage `json:"raw"`
	Dynamic any             `json:"dynamic"`
}

// Shapes covers sequences and dictionaries.
type Shapes struct {
	Seq     iter.Seq[int]             `json:"seq"`
	Pairs   iter.Seq2[string, int]    `json:"pairs"`
	Stream  <-chan string             `json:"stream"`
	Fixed   [3]int                    `json:"fixed"`
	Index   map[string][]int          `json:"index"`
	Blob    []byte                    `json:"blob"`
	Extra   map[string]any            `json:"-" jsonschema:"extension"`
	Numbers []json.Number             `json:"numbers"`
	Nested  map[string]map[string]int `json:"nested"`
}

// Overrides covers explicit schema and substitution tags.
type Overrides struct {
	Code    int64    `json:"code,string"`
	Day     string   `json:"day" jsonschema:"format=date"`
	Opaque  Opaque   `json:"opaque"`
	AsText  Priority `json:"as_text" jsonschema:"as=string"`
	Skipped string   `json:"skipped" jsonschema:"ignore"`
	Kept    string   `json:"kept" jsonschema:"ignore=never"`
	Note    string   `json:"note" jsonschema:"description=Free text, any length"`
	Level   Level    `json:"level"`
	Named   Priority `json:"named" jsonschema:"converter=StringEnum"`
}

// Opaque is documented as a string.
type Opaque struct {
	parts []string
}

func (Opaque) JSONSchemaAlias() any {
	return ""
}

// Parent links to a Child that embeds it.
type Parent struct {
	Child *Child `json:"child"`
}

// Child embeds the Parent that points back to it.
type Child struct {
	Parent
	X int `json:"x"`
}
