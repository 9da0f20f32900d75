package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"recipebook/domain"
	"recipebook/entities"
	"recipebook/internal/api/handlers"
	"recipebook/internal/api/routes"
	"recipebook/internal/middleware"
	"recipebook/internal/utils"
	"recipebook/pkg/jwt"
	"recipebook/pkg/recipe"
	"recipebook/pkg/taxonomy"
	"recipebook/pkg/token"
	"recipebook/pkg/user"
)

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// memoryStorage stands in for the S3 client so upload tests never hit the
// network.
type memoryStorage struct {
	objects map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}}
}

func (m *memoryStorage) UploadFile(fileName string, file *multipart.FileHeader, folder string, allowedTypes ...string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}

	objectKey := folder + "/" + fileName
	m.objects[objectKey] = data
	return objectKey, nil
}

func (m *memoryStorage) DeleteFile(objectKey string) error {
	delete(m.objects, objectKey)
	return nil
}

func (m *memoryStorage) GetPublicLinkKey(objectKey string) string {
	return "https://storage.test/" + objectKey
}

func (m *memoryStorage) GetObjectKeyFromLink(link string) string {
	return strings.TrimPrefix(link, "https://storage.test/")
}

type testEnv struct {
	app          *fiber.App
	db           *gorm.DB
	store        *memoryStorage
	userService  user.UserService
	tokenService token.TokenService
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entities.User{},
		&entities.AuthToken{},
		&entities.Tag{},
		&entities.Ingredient{},
		&entities.Recipe{},
	))

	utils.InitValidator()
	store := newMemoryStorage()

	userRepository := user.NewUserRepository(db)
	tokenRepository := token.NewTokenRepository(db)
	tagRepository := taxonomy.NewTagRepository(db)
	ingredientRepository := taxonomy.NewIngredientRepository(db)
	recipeRepository := recipe.NewRecipeRepository(db)

	jwtService := jwt.NewJWTService()
	userService := user.NewUserService(userRepository, jwtService, user.NewMailer())
	tokenService := token.NewTokenService(tokenRepository, userService)
	tagService := taxonomy.NewTagService(tagRepository)
	ingredientService := taxonomy.NewIngredientService(ingredientRepository)
	recipeService := recipe.NewRecipeService(recipeRepository, tagRepository, ingredientRepository, store)

	app := fiber.New()
	routesConfig := routes.Config{
		App:               app,
		UserHandler:       handlers.NewUserHandler(userService, tokenService, utils.Validate),
		TagHandler:        handlers.NewTagHandler(tagService, utils.Validate),
		IngredientHandler: handlers.NewIngredientHandler(ingredientService, utils.Validate),
		RecipeHandler:     handlers.NewRecipeHandler(recipeService, utils.Validate),
		Middleware:        middleware.NewMiddleware(),
		TokenService:      tokenService,
	}
	routesConfig.Setup()

	return &testEnv{
		app:          app,
		db:           db,
		store:        store,
		userService:  userService,
		tokenService: tokenService,
	}
}

func (e *testEnv) createUser(t *testing.T, email, password string) uint {
	t.Helper()
	res, err := e.userService.RegisterUser(context.Background(), domain.RegisterUserRequest{
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return res.ID
}

func (e *testEnv) issueToken(t *testing.T, email, password string) string {
	t.Helper()
	res, err := e.tokenService.Issue(context.Background(), domain.TokenRequest{
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return res.Token
}

func (e *testEnv) request(t *testing.T, method, path string, body any, bearer string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return body
}

func decodeResponse(t *testing.T, body []byte) apiResponse {
	t.Helper()
	var res apiResponse
	require.NoError(t, json.Unmarshal(body, &res))
	return res
}

func decodeData[T any](t *testing.T, res apiResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(res.Data, &out))
	return out
}

func sampleTag(t *testing.T, db *gorm.DB, userID uint, name string) entities.Tag {
	t.Helper()
	tag := entities.Tag{UserID: userID, Name: name}
	require.NoError(t, db.Create(&tag).Error)
	return tag
}

func sampleIngredient(t *testing.T, db *gorm.DB, userID uint, name string) entities.Ingredient {
	t.Helper()
	ingredient := entities.Ingredient{UserID: userID, Name: name}
	require.NoError(t, db.Create(&ingredient).Error)
	return ingredient
}

func sampleRecipe(t *testing.T, db *gorm.DB, userID uint, title string) entities.Recipe {
	t.Helper()
	recipeRow := entities.Recipe{
		UserID:      userID,
		Title:       title,
		TimeMinutes: 15,
		Price:       10.00,
	}
	require.NoError(t, db.Create(&recipeRow).Error)
	return recipeRow
}
