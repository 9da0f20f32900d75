package domain

import (
	"errors"
	"mime/multipart"
)

var (
	MessageSuccessGetRecipes      = "success get recipes"
	MessageSuccessGetRecipeDetail = "success get recipe detail"
	MessageSuccessCreateRecipe    = "recipe created successfully"
	MessageSuccessUpdateRecipe    = "recipe updated successfully"
	MessageSuccessDeleteRecipe    = "recipe deleted successfully"
	MessageSuccessUploadImage     = "image uploaded successfully"

	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedCreateRecipe    = "failed to create recipe"
	MessageFailedUpdateRecipe    = "failed to update recipe"
	MessageFailedDeleteRecipe    = "failed to delete recipe"
	MessageFailedUploadImage     = "failed to upload image"

	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrTagNotOwned        = errors.New("tag does not belong to user")
	ErrIngredientNotOwned = errors.New("ingredient does not belong to user")
	ErrInvalidImage       = errors.New("uploaded file is not a valid image")
)

type (
	CreateRecipeRequest struct {
		Title       string  `json:"title" validate:"required"`
		TimeMinutes int     `json:"time_minutes" validate:"gte=0"`
		Price       float64 `json:"price" validate:"gte=0"`
		Link        string  `json:"link"`
		Tags        []uint  `json:"tags"`
		Ingredients []uint  `json:"ingredients"`
	}

	// PatchRecipeRequest uses pointers so an omitted field can be told apart
	// from a zero value. Tags/Ingredients, when present, replace the whole set.
	PatchRecipeRequest struct {
		Title       *string  `json:"title"`
		TimeMinutes *int     `json:"time_minutes" validate:"omitempty,gte=0"`
		Price       *float64 `json:"price" validate:"omitempty,gte=0"`
		Link        *string  `json:"link"`
		Tags        *[]uint  `json:"tags"`
		Ingredients *[]uint  `json:"ingredients"`
	}

	// PutRecipeRequest replaces the whole record. Omitted tags/ingredients
	// clear the associations.
	PutRecipeRequest struct {
		Title       string  `json:"title" validate:"required"`
		TimeMinutes int     `json:"time_minutes" validate:"gte=0"`
		Price       float64 `json:"price" validate:"gte=0"`
		Link        string  `json:"link"`
		Tags        []uint  `json:"tags"`
		Ingredients []uint  `json:"ingredients"`
	}

	RecipeResponse struct {
		ID          uint    `json:"id"`
		Title       string  `json:"title"`
		TimeMinutes int     `json:"time_minutes"`
		Price       float64 `json:"price"`
		Link        string  `json:"link,omitempty"`
		ImageURL    string  `json:"image_url,omitempty"`
		Tags        []uint  `json:"tags"`
		Ingredients []uint  `json:"ingredients"`
	}

	RecipeDetailResponse struct {
		ID          uint                 `json:"id"`
		Title       string               `json:"title"`
		TimeMinutes int                  `json:"time_minutes"`
		Price       float64              `json:"price"`
		Link        string               `json:"link,omitempty"`
		ImageURL    string               `json:"image_url,omitempty"`
		Tags        []TagResponse        `json:"tags"`
		Ingredients []IngredientResponse `json:"ingredients"`
	}

	UploadRecipeImageRequest struct {
		Image *multipart.FileHeader `json:"image" validate:"required"`
	}

	UploadRecipeImageResponse struct {
		ID       uint   `json:"id"`
		ImageURL string `json:"image_url"`
	}
)
