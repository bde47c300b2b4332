package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/glucon/glucon-api/application/port/outbound"
	"github.com/glucon/glucon-api/domain/entity"
)

type RecipeRepositoryAdapter struct {
	db *sql.DB
}

func NewRecipeRepositoryAdapter(db *sql.DB) outbound.RecipeRepository {
	return &RecipeRepositoryAdapter{db: db}
}

func (r *RecipeRepositoryAdapter) Create(ctx context.Context, recipe *entity.Recipe) error {
	if recipe == nil {
		return fmt.Errorf("recipe cannot be nil")
	}

	query := `
		INSERT INTO recipes (title, content, image, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		recipe.Title,
		recipe.Content,
		nullString(recipe.Image),
		nullInt64(recipe.CreatedBy),
		recipe.CreatedAt,
	).Scan(&recipe.ID)
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}

	return nil
}

func (r *RecipeRepositoryAdapter) FindByID(ctx context.Context, id int64) (*entity.Recipe, error) {
	query := `
		SELECT id, title, content, image, created_by, created_at
		FROM recipes
		WHERE id = $1
	`

	recipe, err := scanRecipe(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to find recipe: %w", err)
	}
	return recipe, nil
}

func (r *RecipeRepositoryAdapter) List(ctx context.Context) ([]*entity.Recipe, error) {
	query := `
		SELECT id, title, content, image, created_by, created_at
		FROM recipes
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := make([]*entity.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}

	return recipes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*entity.Recipe, error) {
	var (
		recipe    entity.Recipe
		image     sql.NullString
		createdBy sql.NullInt64
	)
	if err := row.Scan(&recipe.ID, &recipe.Title, &recipe.Content, &image, &createdBy, &recipe.CreatedAt); err != nil {
		return nil, err
	}
	if image.Valid {
		recipe.Image = &image.String
	}
	if createdBy.Valid {
		recipe.CreatedBy = &createdBy.Int64
	}
	recipe.CreatedAt = recipe.CreatedAt.UTC()
	return &recipe, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
