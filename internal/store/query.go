package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/payment-plan/pkg/constants"
)

// SortField names a sortable column.
type SortField string

// Sortable fields.
const (
	SortClient    SortField = "client"
	SortProject   SortField = "project"
	SortPrice     SortField = "price"
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
)

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Query filters, sorts and pages a listing. Prefix filters are case
// insensitive and combine with AND.
type Query struct {
	ClientPrefix  string    `json:"client,omitempty"`
	ProjectPrefix string    `json:"project,omitempty"`
	Sort          SortField `json:"sort,omitempty"`
	Direction     Direction `json:"direction,omitempty"`
	PageSize      int       `json:"pageSize,omitempty"`
	Cursor        string    `json:"cursor,omitempty"`
}

// ParseSortField accepts a sortable field name, case insensitively.
func ParseSortField(name string) (SortField, bool) {
	for _, f := range []SortField{SortClient, SortProject, SortPrice, SortCreatedAt, SortUpdatedAt} {
		if strings.EqualFold(strings.TrimSpace(name), string(f)) {
			return f, true
		}
	}
	return "", false
}

// ParseDirection accepts asc or desc, case insensitively.
func ParseDirection(name string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case string(Asc):
		return Asc, true
	case string(Desc):
		return Desc, true
	}
	return "", false
}

// Normalize fills in defaults: newest first, DefaultPageSize rows, capped at
// MaxPageSize.
func (q Query) Normalize() Query {
	if _, ok := ParseSortField(string(q.Sort)); !ok {
		q.Sort = SortCreatedAt
	} else {
		q.Sort, _ = ParseSortField(string(q.Sort))
	}
	if d, ok := ParseDirection(string(q.Direction)); ok {
		q.Direction = d
	} else {
		q.Direction = Desc
	}
	if q.PageSize <= 0 {
		q.PageSize = constants.DefaultPageSize
	}
	if q.PageSize > constants.MaxPageSize {
		q.PageSize = constants.MaxPageSize
	}
	q.ClientPrefix = strings.TrimSpace(q.ClientPrefix)
	q.ProjectPrefix = strings.TrimSpace(q.ProjectPrefix)
	return q
}

// matches reports whether r passes the prefix filters of q.
func (q Query) matches(r Record) bool {
	return hasPrefixFold(r.Plan.Client, q.ClientPrefix) && hasPrefixFold(r.Plan.Project, q.ProjectPrefix)
}

func hasPrefixFold(s, prefix string) bool {
	return prefix == "" || strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}

// cursor marks the last row of a page by its sort key and id.
type cursor struct {
	Sort   SortField `json:"s"`
	Text   string    `json:"t,omitempty"`
	Number float64   `json:"n,omitempty"`
	Time   time.Time `json:"ts,omitempty"`
	ID     string    `json:"id"`
}

func cursorFor(r Record, sort SortField) cursor {
	c := cursor{Sort: sort, ID: r.ID}
	switch sort {
	case SortClient:
		c.Text = strings.ToLower(r.Plan.Client)
	case SortProject:
		c.Text = strings.ToLower(r.Plan.Project)
	case SortPrice:
		c.Number = r.Plan.Price
	case SortUpdatedAt:
		c.Time = r.UpdatedAt
	default:
		c.Time = r.CreatedAt
	}
	return c
}

func (c cursor) encode() string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeCursor(raw string, sort SortField) (cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.Sort != sort || c.ID == "" {
		return cursor{}, fmt.Errorf("%w: cursor was issued for another sort", ErrInvalidCursor)
	}
	return c, nil
}

// compare orders two cursors by sort key then id, ascending.
func compare(a, b cursor) int {
	var result int
	switch a.Sort {
	case SortClient, SortProject:
		result = strings.Compare(a.Text, b.Text)
	case SortPrice:
		switch {
		case a.Number < b.Number:
			result = -1
		case a.Number > b.Number:
			result = 1
		}
	default:
		result = a.Time.Compare(b.Time)
	}
	if result != 0 {
		return result
	}
	return strings.Compare(a.ID, b.ID)
}

// paginate builds a page from at most q.PageSize rows. A full page reports
// HasMore even when it happens to hold the last rows.
func paginate(rows []Record, q Query) Page {
	if rows == nil {
		rows = []Record{}
	}
	page := Page{Records: rows, HasMore: len(rows) == q.PageSize}
	if page.HasMore {
		page.NextCursor = cursorFor(rows[len(rows)-1], q.Sort).encode()
	}
	return page
}
