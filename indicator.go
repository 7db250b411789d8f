package marginalia

import (
	"fmt"
	"sort"
	"strings"
)

// Status is the moderation state of a comment as far as display is concerned.
type Status int

const (
	// StatusPending is awaiting moderation. It outranks denied.
	StatusPending Status = iota

	// StatusApproved outranks every other status.
	StatusApproved

	// StatusDenied has the lowest display priority.
	StatusDenied
)

// priority orders statuses for display: approved > pending > denied.
func (s Status) priority() int {
	switch s {
	case StatusApproved:
		return 2
	case StatusPending:
		return 1
	default:
		return 0
	}
}

func (s Status) String() string {
	switch s {
	case StatusApproved:
		return "approved"
	case StatusDenied:
		return "denied"
	default:
		return "pending"
	}
}

// ParseStatus parses "pending", "approved" or "denied" (case-insensitive).
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approved":
		return StatusApproved, nil
	case "pending", "":
		return StatusPending, nil
	case "denied":
		return StatusDenied, nil
	default:
		return StatusPending, fmt.Errorf("unknown status %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Comment is a comment as supplied by the comment store, in creation order.
type Comment struct {
	ID       string        `json:"id" yaml:"id"`
	AuthorID string        `json:"author_id" yaml:"author"`
	Anchor   *AnchorRecord `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Status   Status        `json:"status" yaml:"status"`
}

// Indicator is one margin marker standing for every comment anchored at Position.
// CommentIDs, UserColors and Statuses are parallel and in creation order.
type Indicator struct {
	Position   int
	CommentIDs []string
	UserColors []Color
	Statuses   []Status
}

// Len returns the number of comments in the indicator.
func (ind Indicator) Len() int {
	return len(ind.CommentIDs)
}

// PrimaryStatus returns the status shown for the whole group:
// approved if any comment is approved, else pending if any is pending, else denied.
func (ind Indicator) PrimaryStatus() Status {
	primary := StatusDenied
	for _, s := range ind.Statuses {
		if s.priority() > primary.priority() {
			primary = s
		}
	}
	return primary
}

// PrimaryColor returns the color of the first comment whose status is the primary status.
func (ind Indicator) PrimaryColor() Color {
	primary := ind.PrimaryStatus()
	for i, s := range ind.Statuses {
		if s == primary {
			return ind.UserColors[i]
		}
	}
	return ""
}

// BuildIndicators groups comments by their anchor's original start offset.
// Comments with no anchor or an invalid one are skipped. Within a group comments keep
// their input order; groups are sorted by position.
func BuildIndicators(comments []Comment, color ColorFunc) []Indicator {
	if color == nil {
		color = DefaultPalette.ColorFunc()
	}

	groups := make(map[int]*Indicator)
	for _, c := range comments {
		if c.Anchor == nil || !c.Anchor.Valid() {
			continue
		}
		pos := c.Anchor.Start
		ind, ok := groups[pos]
		if !ok {
			ind = &Indicator{Position: pos}
			groups[pos] = ind
		}
		ind.CommentIDs = append(ind.CommentIDs, c.ID)
		ind.UserColors = append(ind.UserColors, color(c.AuthorID))
		ind.Statuses = append(ind.Statuses, c.Status)
	}

	out := make([]Indicator, 0, len(groups))
	for _, ind := range groups {
		out = append(out, *ind)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}
