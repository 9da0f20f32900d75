package recipe

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime/multipart"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"recipebook/domain"
	"recipebook/entities"
	"recipebook/internal/utils/storage"
	"recipebook/pkg/taxonomy"
)

type (
	RecipeService interface {
		GetRecipes(ctx context.Context, userID uint) ([]domain.RecipeResponse, error)
		GetRecipeDetail(ctx context.Context, id uint, userID uint) (domain.RecipeDetailResponse, error)
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID uint) (domain.RecipeDetailResponse, error)
		PatchRecipe(ctx context.Context, id uint, req domain.PatchRecipeRequest, userID uint) (domain.RecipeDetailResponse, error)
		PutRecipe(ctx context.Context, id uint, req domain.PutRecipeRequest, userID uint) (domain.RecipeDetailResponse, error)
		DeleteRecipe(ctx context.Context, id uint, userID uint) error
		UploadRecipeImage(ctx context.Context, id uint, img *multipart.FileHeader, userID uint) (domain.UploadRecipeImageResponse, error)
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		tagRepository        taxonomy.TagRepository
		ingredientRepository taxonomy.IngredientRepository
		s3                   storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	tagRepository taxonomy.TagRepository,
	ingredientRepository taxonomy.IngredientRepository,
	s3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		tagRepository:        tagRepository,
		ingredientRepository: ingredientRepository,
		s3:                   s3,
	}
}

func (s *recipeService) GetRecipes(ctx context.Context, userID uint) ([]domain.RecipeResponse, error) {
	recipes, err := s.recipeRepository.GetRecipes(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := make([]domain.RecipeResponse, 0, len(recipes))
	for i := range recipes {
		res = append(res, toRecipeResponse(&recipes[i]))
	}
	return res, nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, id uint, userID uint) (domain.RecipeDetailResponse, error) {
	recipe, err := s.getOwnedRecipe(ctx, id, userID)
	if err != nil {
		return domain.RecipeDetailResponse{}, err
	}
	return toRecipeDetailResponse(recipe), nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID uint) (domain.RecipeDetailResponse, error) {
	tags, err := s.resolveTags(ctx, req.Tags, userID)
	if err != nil {
		return domain.RecipeDetailResponse{}, err
	}
	ingredients, err := s.resolveIngredients(ctx, req.Ingredients, userID)
	if err != nil {
		return domain.RecipeDetailResponse{}, err
	}

	recipe := &entities.Recipe{
		UserID:      userID,
		Title:       req.Title,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        req.Link,
		Tags:        tags,
		Ingredients: ingredients,
	}

	if err := s.recipeRepository.CreateRecipe(ctx, recipe); err != nil {
		return domain.RecipeDetailResponse{}, err
	}

	return toRecipeDetailResponse(recipe), nil
}

func (s *recipeService) PatchRecipe(ctx context.Context, id uint, req domain.PatchRecipeRequest, userID uint) (domain.RecipeDetailResponse, error) {
	recipe, err := s.getOwnedRecipe(ctx, id, userID)
	if err != nil {
		return domain.RecipeDetailResponse{}, err
	}

	// Resolve both association sets up front so a bad id aborts the whole
	// operation before anything is written.
	var tags []entities.Tag
	if req.Tags != nil {
		if tags, err = s.resolveTags(ctx, *req.Tags, userID); err != nil {
			return domain.RecipeDetailResponse{}, err
		}
	}
	var ingredients []entities.Ingredient
	if req.Ingredients != nil {
		if ingredients, err = s.resolveIngredients(ctx, *req.Ingredients, userID); err != nil {
			return domain.RecipeDetailResponse{}, err
		}
	}

	if req.Title != nil {
		recipe.Title = *req.Title
	}
	if req.TimeMinutes != nil {
		recipe.TimeMinutes = *req.TimeMinutes
	}
	if req.Price != nil {
		recipe.Price = *req.Price
	}
	if req.Link != nil {
		recipe.Link = *req.Link
	}

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe); err != nil {
		return domain.RecipeDetailResponse{}, err
	}

	if req.Tags != nil {
		if err := s.recipeRepository.ReplaceTags(ctx, recipe, tags); err != nil {
			return domain.RecipeDetailResponse{}, err
		}
		recipe.Tags = tags
	}

	if req.Ingredients != nil {
		if err := s.recipeRepository.ReplaceIngredients(ctx, recipe, ingredients); err != nil {
			return domain.RecipeDetailResponse{}, err
		}
		recipe.Ingredients = ingredients
	}

	return toRecipeDetailResponse(recipe), nil
}

// PutRecipe replaces the whole record. Tags or ingredients omitted from the
// request clear the corresponding association set.
func (s *recipeService) PutRecipe(ctx context.Context, id uint, req domain.PutRecipeRequest, userID uint) (domain.RecipeDetailResponse, error) {
	recipe, err := s.getOwnedRecipe(ctx, id, userID)
	if err != nil {
		return domain.RecipeDetailResponse{}, err
	}

	tags, err := s.resolveTags(ctx, req.Tags, userID)
	if err != nil {
		return domain.RecipeDetailResponse{}, err
	}
	ingredients, err := s.resolveIngredients(ctx, req.Ingredients, userID)
	if err != nil {
		return domain.RecipeDetailResponse{}, err
	}

	recipe.Title = req.Title
	recipe.TimeMinutes = req.TimeMinutes
	recipe.Price = req.Price
	recipe.Link = req.Link

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe); err != nil {
		return domain.RecipeDetailResponse{}, err
	}
	if err := s.recipeRepository.ReplaceTags(ctx, recipe, tags); err != nil {
		return domain.RecipeDetailResponse{}, err
	}
	if err := s.recipeRepository.ReplaceIngredients(ctx, recipe, ingredients); err != nil {
		return domain.RecipeDetailResponse{}, err
	}

	recipe.Tags = tags
	recipe.Ingredients = ingredients
	return toRecipeDetailResponse(recipe), nil
}

func (s *recipeService) DeleteRecipe(ctx context.Context, id uint, userID uint) error {
	recipe, err := s.getOwnedRecipe(ctx, id, userID)
	if err != nil {
		return err
	}
	return s.recipeRepository.DeleteRecipe(ctx, recipe)
}

func (s *recipeService) UploadRecipeImage(ctx context.Context, id uint, img *multipart.FileHeader, userID uint) (domain.UploadRecipeImageResponse, error) {
	recipe, err := s.getOwnedRecipe(ctx, id, userID)
	if err != nil {
		return domain.UploadRecipeImageResponse{}, err
	}

	if err := checkDecodable(img); err != nil {
		return domain.UploadRecipeImageResponse{}, err
	}

	// Fresh random name per upload so files never collide or get overwritten.
	fileName := fmt.Sprintf("recipe-%s%s", uuid.New().String(), filepath.Ext(img.Filename))

	objectKey, err := s.s3.UploadFile(fileName, img, "recipes", storage.AllowImage...)
	if err != nil {
		return domain.UploadRecipeImageResponse{}, err
	}

	if recipe.ImageURL != "" {
		if oldKey := s.s3.GetObjectKeyFromLink(recipe.ImageURL); oldKey != "" {
			_ = s.s3.DeleteFile(oldKey)
		}
	}

	recipe.ImageURL = s.s3.GetPublicLinkKey(objectKey)
	if err := s.recipeRepository.UpdateRecipe(ctx, recipe); err != nil {
		return domain.UploadRecipeImageResponse{}, err
	}

	return domain.UploadRecipeImageResponse{
		ID:       recipe.ID,
		ImageURL: recipe.ImageURL,
	}, nil
}

func (s *recipeService) getOwnedRecipe(ctx context.Context, id uint, userID uint) (*entities.Recipe, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, err
	}
	// A foreign recipe is indistinguishable from a missing one.
	if recipe.UserID != userID {
		return nil, domain.ErrRecipeNotFound
	}
	return recipe, nil
}

func (s *recipeService) resolveTags(ctx context.Context, ids []uint, userID uint) ([]entities.Tag, error) {
	ids = dedupeIDs(ids)
	tags, err := s.tagRepository.GetTagsByIDs(ctx, ids, userID)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, domain.ErrTagNotOwned
	}
	if tags == nil {
		tags = []entities.Tag{}
	}
	return tags, nil
}

func (s *recipeService) resolveIngredients(ctx context.Context, ids []uint, userID uint) ([]entities.Ingredient, error) {
	ids = dedupeIDs(ids)
	ingredients, err := s.ingredientRepository.GetIngredientsByIDs(ctx, ids, userID)
	if err != nil {
		return nil, err
	}
	if len(ingredients) != len(ids) {
		return nil, domain.ErrIngredientNotOwned
	}
	if ingredients == nil {
		ingredients = []entities.Ingredient{}
	}
	return ingredients, nil
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func checkDecodable(img *multipart.FileHeader) error {
	src, err := img.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if _, _, err := image.DecodeConfig(src); err != nil {
		return domain.ErrInvalidImage
	}
	return nil
}

func toRecipeResponse(recipe *entities.Recipe) domain.RecipeResponse {
	tagIDs := make([]uint, 0, len(recipe.Tags))
	for _, tag := range recipe.Tags {
		tagIDs = append(tagIDs, tag.ID)
	}
	ingredientIDs := make([]uint, 0, len(recipe.Ingredients))
	for _, ingredient := range recipe.Ingredients {
		ingredientIDs = append(ingredientIDs, ingredient.ID)
	}

	return domain.RecipeResponse{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price,
		Link:        recipe.Link,
		ImageURL:    recipe.ImageURL,
		Tags:        tagIDs,
		Ingredients: ingredientIDs,
	}
}

func toRecipeDetailResponse(recipe *entities.Recipe) domain.RecipeDetailResponse {
	tags := make([]domain.TagResponse, 0, len(recipe.Tags))
	for _, tag := range recipe.Tags {
		tags = append(tags, domain.TagResponse{ID: tag.ID, Name: tag.Name})
	}
	ingredients := make([]domain.IngredientResponse, 0, len(recipe.Ingredients))
	for _, ingredient := range recipe.Ingredients {
		ingredients = append(ingredients, domain.IngredientResponse{ID: ingredient.ID, Name: ingredient.Name})
	}

	return domain.RecipeDetailResponse{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price,
		Link:        recipe.Link,
		ImageURL:    recipe.ImageURL,
		Tags:        tags,
		Ingredients: ingredients,
	}
}
