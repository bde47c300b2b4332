package entity

import (
	"time"
)

type Recipe struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     *string   `json:"image"`
	CreatedBy *int64    `json:"-"`
	CreatedAt time.Time `json:"-"`
}

func NewRecipe(title, content string, image *string, createdBy *int64) *Recipe {
	return &Recipe{
		Title:     title,
		Content:   content,
		Image:     image,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
}

// HasImage reports whether an image file is attached to the recipe.
func (r *Recipe) HasImage() bool {
	return r.Image != nil && *r.Image != ""
}
