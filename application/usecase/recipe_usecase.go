package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/glucon/glucon-api/application/port/inbound"
	"github.com/glucon/glucon-api/application/port/outbound"
	"github.com/glucon/glucon-api/domain/entity"
	"github.com/glucon/glucon-api/infrastructure/service/logger"
)

type RecipeUseCase struct {
	recipeRepository outbound.RecipeRepository
	imageStore       outbound.ImageStore
	logger           logger.Logger
}

func NewRecipeUseCase(recipeRepo outbound.RecipeRepository, imageStore outbound.ImageStore, logger logger.Logger) *RecipeUseCase {
	return &RecipeUseCase{
		recipeRepository: recipeRepo,
		imageStore:       imageStore,
		logger:           logger,
	}
}

func (uc *RecipeUseCase) CreateRecipe(ctx context.Context, req inbound.CreateRecipeRequest) (*inbound.CreateRecipeResponse, error) {
	if missing := missingFields(map[string]string{
		"title":   req.Title,
		"content": req.Content,
	}); missing != "" {
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidPayload, missing)
	}

	var image *string
	if req.Image != nil && req.Image.Filename != "" {
		name, err := uc.imageStore.Save(ctx, req.Image.Filename, req.Image.ContentType, req.Image.Body)
		if err != nil {
			uc.logger.Error(ctx, "Failed to store recipe image", err, map[string]interface{}{
				"filename": req.Image.Filename,
			})
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		image = &name
	}

	recipe := entity.NewRecipe(req.Title, req.Content, image, req.CreatedBy)
	if err := uc.recipeRepository.Create(ctx, recipe); err != nil {
		uc.logger.Error(ctx, "Failed to create recipe", err, nil)
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	uc.logger.Info(ctx, "Recipe created", map[string]interface{}{
		"recipe_id": recipe.ID,
		"has_image": recipe.HasImage(),
	})

	return &inbound.CreateRecipeResponse{ID: recipe.ID}, nil
}

func (uc *RecipeUseCase) ListRecipes(ctx context.Context) ([]*entity.Recipe, error) {
	recipes, err := uc.recipeRepository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	if recipes == nil {
		recipes = []*entity.Recipe{}
	}
	return recipes, nil
}

// GetRecipe looks a recipe up by id. The catalog is shared: any
// authenticated caller may read any recipe.
func (uc *RecipeUseCase) GetRecipe(ctx context.Context, id int64) (*entity.Recipe, error) {
	return uc.recipeRepository.FindByID(ctx, id)
}

func (uc *RecipeUseCase) OpenImage(ctx context.Context, name string) (io.ReadCloser, string, error) {
	return uc.imageStore.Open(ctx, name)
}
