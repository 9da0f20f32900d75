package handlers_test

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebook/domain"
	"recipebook/entities"
)

func (e *testEnv) uploadImage(t *testing.T, recipeID uint, bearer string, filename string, content []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/recipes/%d/image", recipeID), &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 10))))
	return buf.Bytes()
}

func TestRecipesAPI(t *testing.T) {
	env := setupTestApp(t)
	userID := env.createUser(t, "test@test.com", "testpass")
	bearer := env.issueToken(t, "test@test.com", "testpass")

	t.Run("requires authentication", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/v1/recipes", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("lists own recipes newest first", func(t *testing.T) {
		first := sampleRecipe(t, env.db, userID, "First Recipe")
		second := sampleRecipe(t, env.db, userID, "Second Recipe")

		otherID := env.createUser(t, "user2@test.com", "testpass")
		sampleRecipe(t, env.db, otherID, "Foreign Recipe")

		resp := env.request(t, http.MethodGet, "/api/v1/recipes", nil, bearer)
		body := readBody(t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		res := decodeData[[]domain.RecipeResponse](t, decodeResponse(t, body))
		require.Len(t, res, 2)
		assert.Equal(t, second.ID, res[0].ID)
		assert.Equal(t, first.ID, res[1].ID)
	})
}

func TestRecipeDetailAPI(t *testing.T) {
	env := setupTestApp(t)
	userID := env.createUser(t, "test@test.com", "testpass")
	bearer := env.issueToken(t, "test@test.com", "testpass")

	t.Run("returns nested tags and ingredients", func(t *testing.T) {
		tag := sampleTag(t, env.db, userID, "Dinner")
		ingredient := sampleIngredient(t, env.db, userID, "Steak")

		recipeRow := sampleRecipe(t, env.db, userID, "Steak Dinner")
		require.NoError(t, env.db.Model(&recipeRow).Association("Tags").Append(&tag))
		require.NoError(t, env.db.Model(&recipeRow).Association("Ingredients").Append(&ingredient))

		resp := env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/recipes/%d", recipeRow.ID), nil, bearer)
		body := readBody(t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		res := decodeData[domain.RecipeDetailResponse](t, decodeResponse(t, body))
		require.Len(t, res.Tags, 1)
		assert.Equal(t, "Dinner", res.Tags[0].Name)
		require.Len(t, res.Ingredients, 1)
		assert.Equal(t, "Steak", res.Ingredients[0].Name)
	})

	t.Run("foreign recipe answers not found", func(t *testing.T) {
		otherID := env.createUser(t, "user2@test.com", "testpass")
		foreign := sampleRecipe(t, env.db, otherID, "Foreign Recipe")

		resp := env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/recipes/%d", foreign.ID), nil, bearer)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("missing recipe answers not found", func(t *testing.T) {
		resp := env.request(t, http.MethodGet, "/api/v1/recipes/99999", nil, bearer)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCreateRecipeAPI(t *testing.T) {
	env := setupTestApp(t)
	userID := env.createUser(t, "test@test.com", "testpass")
	bearer := env.issueToken(t, "test@test.com", "testpass")

	t.Run("basic recipe", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/v1/recipes", fiber.Map{
			"title":        "Cheesecake",
			"time_minutes": 90,
			"price":        10.00,
		}, bearer)
		body := readBody(t, resp)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		res := decodeData[domain.RecipeDetailResponse](t, decodeResponse(t, body))

		var stored entities.Recipe
		require.NoError(t, env.db.First(&stored, res.ID).Error)
		assert.Equal(t, "Cheesecake", stored.Title)
		assert.Equal(t, 90, stored.TimeMinutes)
		assert.Equal(t, 10.00, stored.Price)
		assert.Equal(t, userID, stored.UserID)
	})

	t.Run("with tags", func(t *testing.T) {
		tag1 := sampleTag(t, env.db, userID, "Breakfast")
		tag2 := sampleTag(t, env.db, userID, "Dinner")

		resp := env.request(t, http.MethodPost, "/api/v1/recipes", fiber.Map{
			"title":        "Chicken-N-Waffles",
			"time_minutes": 45,
			"price":        15.00,
			"tags":         []uint{tag1.ID, tag2.ID},
		}, bearer)
		body := readBody(t, resp)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		res := decodeData[domain.RecipeDetailResponse](t, decodeResponse(t, body))

		require.Len(t, res.Tags, 2)
		ids := []uint{res.Tags[0].ID, res.Tags[1].ID}
		assert.ElementsMatch(t, []uint{tag1.ID, tag2.ID}, ids)
	})

	t.Run("with ingredients", func(t *testing.T) {
		ingredient1 := sampleIngredient(t, env.db, userID, "Chicken")
		ingredient2 := sampleIngredient(t, env.db, userID, "Waffles")

		resp := env.request(t, http.MethodPost, "/api/v1/recipes", fiber.Map{
			"title":        "Chicken-N-Waffles",
			"time_minutes": 45,
			"price":        15.00,
			"ingredients":  []uint{ingredient1.ID, ingredient2.ID},
		}, bearer)
		body := readBody(t, resp)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		res := decodeData[domain.RecipeDetailResponse](t, decodeResponse(t, body))

		require.Len(t, res.Ingredients, 2)
		ids := []uint{res.Ingredients[0].ID, res.Ingredients[1].ID}
		assert.ElementsMatch(t, []uint{ingredient1.ID, ingredient2.ID}, ids)
	})

	t.Run("repeated tag ids collapse to one association", func(t *testing.T) {
		tag := sampleTag(t, env.db, userID, "Repeated")

		resp := env.request(t, http.MethodPost, "/api/v1/recipes", fiber.Map{
			"title":        "Twice Tagged",
			"time_minutes": 5,
			"price":        2.00,
			"tags":         []uint{tag.ID, tag.ID},
		}, bearer)
		body := readBody(t, resp)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		res := decodeData[domain.RecipeDetailResponse](t, decodeResponse(t, body))
		require.Len(t, res.Tags, 1)
		assert.Equal(t, tag.ID, res.Tags[0].ID)
	})

	t.Run("foreign tag ids rejected", func(t *testing.T) {
		otherID := env.createUser(t, "user2@test.com", "testpass")
		foreignTag := sampleTag(t, env.db, otherID, "Foreign")

		resp := env.request(t, http.MethodPost, "/api/v1/recipes", fiber.Map{
			"title":        "Sneaky Recipe",
			"time_minutes": 5,
			"price":        1.00,
			"tags":         []uint{foreignTag.ID},
		}, bearer)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUpdateRecipeAPI(t *testing.T) {
	env := setupTestApp(t)
	userID := env.createUser(t, "test@test.com", "testpass")
	bearer := env.issueToken(t, "test@test.com", "testpass")

	t.Run("patch replaces only supplied fields", func(t *testing.T) {
		recipeRow := sampleRecipe(t, env.db, userID, "Sample Recipe")
		oldTag := sampleTag(t, env.db, userID, "Savory")
		require.NoError(t, env.db.Model(&recipeRow).Association("Tags").Append(&oldTag))
		newTag := sampleTag(t, env.db, userID, "Sweets")

		resp := env.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/recipes/%d", recipeRow.ID), fiber.Map{
			"title": "Gummy Bears",
			"tags":  []uint{newTag.ID},
		}, bearer)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var stored entities.Recipe
		require.NoError(t, env.db.Preload("Tags").First(&stored, recipeRow.ID).Error)
		assert.Equal(t, "Gummy Bears", stored.Title)
		assert.Equal(t, 15, stored.TimeMinutes)
		assert.Equal(t, 10.00, stored.Price)
		require.Len(t, stored.Tags, 1)
		assert.Equal(t, newTag.ID, stored.Tags[0].ID)
	})

	t.Run("patch with foreign tag writes nothing", func(t *testing.T) {
		recipeRow := sampleRecipe(t, env.db, userID, "Original Title")
		otherID := env.createUser(t, "stranger@test.com", "testpass")
		foreignTag := sampleTag(t, env.db, otherID, "Foreign")

		resp := env.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/recipes/%d", recipeRow.ID), fiber.Map{
			"title": "Hijacked Title",
			"tags":  []uint{foreignTag.ID},
		}, bearer)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var stored entities.Recipe
		require.NoError(t, env.db.Preload("Tags").First(&stored, recipeRow.ID).Error)
		assert.Equal(t, "Original Title", stored.Title)
		assert.Empty(t, stored.Tags)
	})

	t.Run("patch without association keys leaves them untouched", func(t *testing.T) {
		recipeRow := sampleRecipe(t, env.db, userID, "Keep Tags")
		tag := sampleTag(t, env.db, userID, "Keeper")
		require.NoError(t, env.db.Model(&recipeRow).Association("Tags").Append(&tag))

		resp := env.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/recipes/%d", recipeRow.ID), fiber.Map{
			"title": "Still Keeps Tags",
		}, bearer)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var stored entities.Recipe
		require.NoError(t, env.db.Preload("Tags").First(&stored, recipeRow.ID).Error)
		require.Len(t, stored.Tags, 1)
	})

	t.Run("put clears omitted associations", func(t *testing.T) {
		recipeRow := sampleRecipe(t, env.db, userID, "Sample Recipe")
		ingredient := sampleIngredient(t, env.db, userID, "Flour")
		require.NoError(t, env.db.Model(&recipeRow).Association("Ingredients").Append(&ingredient))
		newTag := sampleTag(t, env.db, userID, "Dessert")

		resp := env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/recipes/%d", recipeRow.ID), fiber.Map{
			"title":        "Cheesecake",
			"time_minutes": 45,
			"price":        9.00,
			"tags":         []uint{newTag.ID},
		}, bearer)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var stored entities.Recipe
		require.NoError(t, env.db.Preload("Tags").Preload("Ingredients").First(&stored, recipeRow.ID).Error)
		assert.Equal(t, "Cheesecake", stored.Title)
		assert.Equal(t, 45, stored.TimeMinutes)
		assert.Equal(t, 9.00, stored.Price)
		require.Len(t, stored.Tags, 1)
		assert.Empty(t, stored.Ingredients)
	})

	t.Run("updating a foreign recipe answers not found", func(t *testing.T) {
		otherID := env.createUser(t, "user2@test.com", "testpass")
		foreign := sampleRecipe(t, env.db, otherID, "Foreign Recipe")

		resp := env.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/recipes/%d", foreign.ID), fiber.Map{
			"title": "Hijacked",
		}, bearer)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDeleteRecipeAPI(t *testing.T) {
	env := setupTestApp(t)
	userID := env.createUser(t, "test@test.com", "testpass")
	bearer := env.issueToken(t, "test@test.com", "testpass")

	t.Run("owner can delete", func(t *testing.T) {
		recipeRow := sampleRecipe(t, env.db, userID, "Doomed Recipe")

		resp := env.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/recipes/%d", recipeRow.ID), nil, bearer)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var count int64
		require.NoError(t, env.db.Model(&entities.Recipe{}).Where("id = ?", recipeRow.ID).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("foreign recipe answers not found", func(t *testing.T) {
		otherID := env.createUser(t, "user2@test.com", "testpass")
		foreign := sampleRecipe(t, env.db, otherID, "Foreign Recipe")

		resp := env.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/recipes/%d", foreign.ID), nil, bearer)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRecipeImageUploadAPI(t *testing.T) {
	env := setupTestApp(t)
	userID := env.createUser(t, "test@test.com", "testpass")
	bearer := env.issueToken(t, "test@test.com", "testpass")

	t.Run("valid image stored under a fresh name", func(t *testing.T) {
		recipeRow := sampleRecipe(t, env.db, userID, "Photogenic Recipe")

		resp := env.uploadImage(t, recipeRow.ID, bearer, "dish.png", pngBytes(t))
		body := readBody(t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		res := decodeData[domain.UploadRecipeImageResponse](t, decodeResponse(t, body))
		assert.Contains(t, res.ImageURL, "recipes/recipe-")
		assert.Contains(t, res.ImageURL, ".png")

		var stored entities.Recipe
		require.NoError(t, env.db.First(&stored, recipeRow.ID).Error)
		assert.Equal(t, res.ImageURL, stored.ImageURL)

		objectKey := env.store.GetObjectKeyFromLink(stored.ImageURL)
		assert.Contains(t, env.store.objects, objectKey)
	})

	t.Run("second upload replaces the stored object", func(t *testing.T) {
		recipeRow := sampleRecipe(t, env.db, userID, "Re-shot Recipe")

		env.uploadImage(t, recipeRow.ID, bearer, "one.png", pngBytes(t))
		var before entities.Recipe
		require.NoError(t, env.db.First(&before, recipeRow.ID).Error)

		env.uploadImage(t, recipeRow.ID, bearer, "two.png", pngBytes(t))
		var after entities.Recipe
		require.NoError(t, env.db.First(&after, recipeRow.ID).Error)

		assert.NotEqual(t, before.ImageURL, after.ImageURL)
		oldKey := env.store.GetObjectKeyFromLink(before.ImageURL)
		assert.NotContains(t, env.store.objects, oldKey)
	})

	t.Run("non-image payload rejected without touching the record", func(t *testing.T) {
		recipeRow := sampleRecipe(t, env.db, userID, "Camera-shy Recipe")

		resp := env.uploadImage(t, recipeRow.ID, bearer, "notimage.txt", []byte("notimage"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var stored entities.Recipe
		require.NoError(t, env.db.First(&stored, recipeRow.ID).Error)
		assert.Empty(t, stored.ImageURL)
	})
}
