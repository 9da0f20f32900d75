package taxonomy

import (
	"context"

	"recipebook/domain"
	"recipebook/entities"
)

type (
	TagService interface {
		GetTags(ctx context.Context, userID uint) ([]domain.TagResponse, error)
		CreateTag(ctx context.Context, req domain.CreateTagRequest, userID uint) (domain.TagResponse, error)
	}

	IngredientService interface {
		GetIngredients(ctx context.Context, userID uint) ([]domain.IngredientResponse, error)
		CreateIngredient(ctx context.Context, req domain.CreateIngredientRequest, userID uint) (domain.IngredientResponse, error)
	}

	tagService struct {
		tagRepository TagRepository
	}

	ingredientService struct {
		ingredientRepository IngredientRepository
	}
)

func NewTagService(tagRepository TagRepository) TagService {
	return &tagService{tagRepository: tagRepository}
}

func NewIngredientService(ingredientRepository IngredientRepository) IngredientService {
	return &ingredientService{ingredientRepository: ingredientRepository}
}

func (s *tagService) GetTags(ctx context.Context, userID uint) ([]domain.TagResponse, error) {
	tags, err := s.tagRepository.GetTagsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := make([]domain.TagResponse, 0, len(tags))
	for _, tag := range tags {
		res = append(res, domain.TagResponse{ID: tag.ID, Name: tag.Name})
	}
	return res, nil
}

func (s *tagService) CreateTag(ctx context.Context, req domain.CreateTagRequest, userID uint) (domain.TagResponse, error) {
	tag := &entities.Tag{
		UserID: userID,
		Name:   req.Name,
	}
	if err := s.tagRepository.CreateTag(ctx, tag); err != nil {
		return domain.TagResponse{}, err
	}
	return domain.TagResponse{ID: tag.ID, Name: tag.Name}, nil
}

func (s *ingredientService) GetIngredients(ctx context.Context, userID uint) ([]domain.IngredientResponse, error) {
	ingredients, err := s.ingredientRepository.GetIngredientsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := make([]domain.IngredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		res = append(res, domain.IngredientResponse{ID: ingredient.ID, Name: ingredient.Name})
	}
	return res, nil
}

func (s *ingredientService) CreateIngredient(ctx context.Context, req domain.CreateIngredientRequest, userID uint) (domain.IngredientResponse, error) {
	ingredient := &entities.Ingredient{
		UserID: userID,
		Name:   req.Name,
	}
	if err := s.ingredientRepository.CreateIngredient(ctx, ingredient); err != nil {
		return domain.IngredientResponse{}, err
	}
	return domain.IngredientResponse{ID: ingredient.ID, Name: ingredient.Name}, nil
}
