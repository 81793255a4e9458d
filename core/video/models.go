package video

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core"
)

// Category groups videos; classroom access is granted per category.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type Video struct {
	ID           string    `json:"id"`
	CategoryID   string    `json:"category_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`      // hosted video URL; source ID derived at watch time
	Duration     int       `json:"duration"` // seconds; 0 while unknown
	ThumbnailURL string    `json:"thumbnail_url"`
	Published    bool      `json:"published"`
	Position     int       `json:"position"`   // ordering within the category
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

type NewCategory struct {
	Name        string `json:"name" validate:"required,notblank,max=255"`
	Description string `json:"description"`
}

func (nc *NewCategory) Validate(ctx context.Context, svc Service) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCategoryUniqueness(ctx, nc.Name)
}

type UpdateCategory struct {
	Name        string `json:"name" validate:"required,notblank,max=255"`
	Description string `json:"description"`
}

func (uc *UpdateCategory) Validate(ctx context.Context, svc Service, excluded Category) error {
	uc.Name = core.CleanString(uc.Name)
	uc.Description = core.CleanString(uc.Description)
	if err := core.Validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckCategoryUniqueness(ctx, uc.Name, excluded)
}

type NewVideo struct {
	CategoryID  string `json:"category_id" validate:"required,uuid4"`
	Title       string `json:"title" validate:"required,notblank,max=255"`
	Description string `json:"description"`
	URL         string `json:"url" validate:"required,url"`
	Duration    int    `json:"duration" validate:"min=0"`
	Published   bool   `json:"published"`
	Position    int    `json:"position" validate:"min=0"`
}

func (nv *NewVideo) Validate() error {
	nv.Title = core.CleanString(nv.Title)
	nv.Description = core.CleanString(nv.Description)
	nv.URL = core.CleanString(nv.URL)
	return core.Validate.Struct(nv)
}

type UpdateVideo struct {
	CategoryID  string `json:"category_id" validate:"required,uuid4"`
	Title       string `json:"title" validate:"required,notblank,max=255"`
	Description string `json:"description"`
	URL         string `json:"url" validate:"required,url"`
	Duration    int    `json:"duration" validate:"min=0"`
	Published   bool   `json:"published"`
	Position    int    `json:"position" validate:"min=0"`
}

func (uv *UpdateVideo) Validate() error {
	uv.Title = core.CleanString(uv.Title)
	uv.Description = core.CleanString(uv.Description)
	uv.URL = core.CleanString(uv.URL)
	return core.Validate.Struct(uv)
}

// AccessGrant lists the classrooms allowed to watch a category's videos.
type AccessGrant struct {
	CategoryID   string   `json:"category_id"`
	ClassroomIDs []string `json:"classroom_ids" validate:"dive,uuid4"`
}

// QueryFilter applies an AND operation on available fields.
// Search does a case-insensitive match on title/description.
type QueryFilter struct {
	Search     string `query:"q"`
	CategoryID string `query:"category"`
	Published  *bool  `query:"published"`
}
