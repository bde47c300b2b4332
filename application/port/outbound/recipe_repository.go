package outbound

import (
	"context"
	"errors"

	"github.com/glucon/glucon-api/domain/entity"
)

var ErrRecipeNotFound = errors.New("recipe not found")

type RecipeRepository interface {
	Create(ctx context.Context, recipe *entity.Recipe) error
	FindByID(ctx context.Context, id int64) (*entity.Recipe, error)
	List(ctx context.Context) ([]*entity.Recipe, error)
}
