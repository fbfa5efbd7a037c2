// internal/crm/types.go
package crm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// GroupContact status values on the CRM side. The CRM models removal as a
// GroupContact row with status Removed, not as row deletion.
const (
	StatusAdded   = "Added"
	StatusRemoved = "Removed"
)

// GroupTypeAccessControl is the CiviCRM group_type value forced onto every
// synced group so the CRM treats it as an access-control group.
const GroupTypeAccessControl = 1

var (
	// ErrNotFound is returned when a lookup matches no group.
	ErrNotFound = errors.New("crm: group not found")

	// ErrMultipleMatches is returned when a get-single lookup matches more
	// than one row. Callers treat multiplicity as a data-integrity fault,
	// never as "pick one", so it is distinct from ErrNotFound.
	ErrMultipleMatches = errors.New("crm: multiple groups match")
)

// APIError is an error result returned by the CRM API itself.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm: api error: %s", e.Message)
}

// Group is a CRM-side group as returned by lookups.
type Group struct {
	ID          int64
	Name        string
	Title       string
	Description string
	Source      string
}

// GroupParams are the writable fields of a CRM group.
type GroupParams struct {
	Name        string
	Title       string
	Description string
	Source      string
	GroupType   []int
}

// flexInt decodes CRM API integers, which arrive as numbers or as quoted
// strings depending on entity and API path.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if len(b) > 1 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*f = flexInt(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type wireGroup struct {
	ID          flexInt `json:"id"`
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Source      string  `json:"source"`
}

func (w wireGroup) toGroup() Group {
	return Group{
		ID:          int64(w.ID),
		Name:        w.Name,
		Title:       w.Title,
		Description: w.Description,
		Source:      w.Source,
	}
}

type wireGroupContact struct {
	ContactID flexInt `json:"contact_id"`
}

// apiResponse is the common CRM API envelope.
type apiResponse struct {
	IsError      flexInt         `json:"is_error"`
	ErrorMessage string          `json:"error_message"`
	Count        flexInt         `json:"count"`
	ID           flexInt         `json:"id"`
	Values       json.RawMessage `json:"values"`
}
