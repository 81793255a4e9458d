package announcement

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Announcement is a staff-authored notice. An empty ClassroomIDs list means
// the announcement targets everyone; otherwise only members (students and
// supervisors) of the listed classrooms see it.
type Announcement struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"author_id"`
	AuthorName   string    `json:"author_name,omitempty"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	ClassroomIDs []string  `json:"classroom_ids,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC

	// Read is viewer-relative; populated on list reads.
	Read bool `json:"read"`
}

type NewAnnouncement struct {
	Title        string   `json:"title" validate:"required,notblank,max=255"`
	Body         string   `json:"body" validate:"required,notblank"`
	ClassroomIDs []string `json:"classroom_ids" validate:"dive,uuid4"`
}

func (na *NewAnnouncement) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Body = core.CleanString(na.Body)
	return core.Validate.Struct(na)
}
