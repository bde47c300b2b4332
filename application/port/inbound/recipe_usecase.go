package inbound

import (
	"context"
	"io"

	"github.com/glucon/glucon-api/domain/entity"
)

// ImageUpload is an optional file attached to a recipe form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type CreateRecipeRequest struct {
	Title     string
	Content   string
	Image     *ImageUpload
	CreatedBy *int64
}

type CreateRecipeResponse struct {
	ID int64 `json:"id"`
}

type RecipeUseCase interface {
	CreateRecipe(ctx context.Context, req CreateRecipeRequest) (*CreateRecipeResponse, error)
	ListRecipes(ctx context.Context) ([]*entity.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*entity.Recipe, error)
	OpenImage(ctx context.Context, name string) (io.ReadCloser, string, error)
}
