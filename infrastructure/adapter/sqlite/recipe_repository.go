package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/glucon/glucon-api/application/port/outbound"
	"github.com/glucon/glucon-api/domain/entity"
)

type RecipeRepository struct {
	db *sql.DB
}

func NewRecipeRepository(db *sql.DB) outbound.RecipeRepository {
	return &RecipeRepository{db: db}
}

func (r *RecipeRepository) Create(ctx context.Context, recipe *entity.Recipe) error {
	if recipe == nil {
		return fmt.Errorf("recipe cannot be nil")
	}

	var image, createdBy any
	if recipe.HasImage() {
		image = *recipe.Image
	}
	if recipe.CreatedBy != nil {
		createdBy = *recipe.CreatedBy
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recipes (title, content, image, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, recipe.Title, recipe.Content, image, createdBy, toMillis(recipe.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read recipe id: %w", err)
	}
	recipe.ID = id
	return nil
}

func (r *RecipeRepository) FindByID(ctx context.Context, id int64) (*entity.Recipe, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, content, image, created_by, created_at
		FROM recipes WHERE id = ?
	`, id)
	recipe, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("query recipe: %w", err)
	}
	return recipe, nil
}

func (r *RecipeRepository) List(ctx context.Context) ([]*entity.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, content, image, created_by, created_at
		FROM recipes ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	recipes := make([]*entity.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
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
		createdAt int64
	)
	if err := row.Scan(&recipe.ID, &recipe.Title, &recipe.Content, &image, &createdBy, &createdAt); err != nil {
		return nil, err
	}
	if image.Valid {
		recipe.Image = &image.String
	}
	if createdBy.Valid {
		recipe.CreatedBy = &createdBy.Int64
	}
	recipe.CreatedAt = fromMillis(createdAt)
	return &recipe, nil
}
