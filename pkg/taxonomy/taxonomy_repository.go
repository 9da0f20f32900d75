package taxonomy

import (
	"context"

	"gorm.io/gorm"

	"recipebook/entities"
)

type (
	TagRepository interface {
		CreateTag(ctx context.Context, tag *entities.Tag) error
		GetTagsByUser(ctx context.Context, userID uint) ([]entities.Tag, error)
		GetTagsByIDs(ctx context.Context, ids []uint, userID uint) ([]entities.Tag, error)
	}

	IngredientRepository interface {
		CreateIngredient(ctx context.Context, ingredient *entities.Ingredient) error
		GetIngredientsByUser(ctx context.Context, userID uint) ([]entities.Ingredient, error)
		GetIngredientsByIDs(ctx context.Context, ids []uint, userID uint) ([]entities.Ingredient, error)
	}

	tagRepository struct {
		db *gorm.DB
	}

	ingredientRepository struct {
		db *gorm.DB
	}
)

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *tagRepository) CreateTag(ctx context.Context, tag *entities.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

func (r *tagRepository) GetTagsByUser(ctx context.Context, userID uint) ([]entities.Tag, error) {
	var tags []entities.Tag
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name desc").
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) GetTagsByIDs(ctx context.Context, ids []uint, userID uint) ([]entities.Tag, error) {
	var tags []entities.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND user_id = ?", ids, userID).
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *ingredientRepository) CreateIngredient(ctx context.Context, ingredient *entities.Ingredient) error {
	return r.db.WithContext(ctx).Create(ingredient).Error
}

func (r *ingredientRepository) GetIngredientsByUser(ctx context.Context, userID uint) ([]entities.Ingredient, error) {
	var ingredients []entities.Ingredient
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name desc").
		Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) GetIngredientsByIDs(ctx context.Context, ids []uint, userID uint) ([]entities.Ingredient, error) {
	var ingredients []entities.Ingredient
	if len(ids) == 0 {
		return ingredients, nil
	}
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND user_id = ?", ids, userID).
		Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}
