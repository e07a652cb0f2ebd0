package apiv1

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
	"github.com/abogadai/abogadai/app/repository"
	"github.com/abogadai/abogadai/internal/pkg/security"
)

type fakeUserRepo struct {
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*models.User), nextID: 1}
}

func (r *fakeUserRepo) Create(u *models.User) error {
	u.ID = r.nextID
	r.nextID++
	r.users[u.ID] = u
	return nil
}
func (r *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeUserRepo) Update(u *models.User) error                   { r.users[u.ID] = u; return nil }
func (r *fakeUserRepo) Delete(id uint) error                          { delete(r.users, id); return nil }
func (r *fakeUserRepo) List(offset, limit int) ([]models.User, error) { return nil, nil }
func (r *fakeUserRepo) Count() (int64, error)                         { return int64(len(r.users)), nil }
func (r *fakeUserRepo) ListAll() ([]models.User, error)               { return nil, nil }
func (r *fakeUserRepo) ResetBonusSessions() (int64, error)            { return 0, nil }
func (r *fakeUserRepo) UpdateTierFields(userID uint, tier, paymentsLast30 int, recalcAt time.Time) error {
	return nil
}
func (r *fakeUserRepo) UpdateTierFieldsBulk(updates []repository.TierUpdate) error { return nil }

func newAuthTestApp() (*fiber.App, *fakeUserRepo) {
	users := newFakeUserRepo()
	server := &APIServer{repos: &repository.Repositories{User: users}}

	app := fiber.New()
	app.Get("/ping", server.GetPing)
	app.Post("/auth/register", server.PostRegister)
	app.Post("/auth/login", server.PostLogin)
	return app, users
}

func postJSON(app *fiber.App, path string, payload any) (*httptest.ResponseRecorder, error) {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		return nil, err
	}
	rec := httptest.NewRecorder()
	rec.Code = resp.StatusCode
	_, err = rec.Body.ReadFrom(resp.Body)
	return rec, err
}

func TestPing(t *testing.T) {
	app, _ := newAuthTestApp()

	req := httptest.NewRequest("GET", "/ping", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRegisterAndLogin(t *testing.T) {
	app, users := newAuthTestApp()

	rec, err := postJSON(app, "/auth/register", RegisterRequest{
		Name:     "Ana Gomez",
		Email:    "Ana@Example.com",
		Password: "secreto123",
	})
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, rec.Code)

	var created AuthResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "ana@example.com", created.User.Email)
	assert.Equal(t, models.TierFree, created.User.Tier)

	claims, err := security.ParseToken(created.Token)
	assert.NoError(t, err)
	assert.Equal(t, created.User.ID, claims.UserID)

	// Stored password is hashed, never plain.
	stored := users.users[created.User.ID]
	assert.NotEqual(t, "secreto123", stored.Password)
	assert.True(t, stored.CheckPassword("secreto123"))

	rec, err = postJSON(app, "/auth/login", LoginRequest{
		Email:    "ana@example.com",
		Password: "secreto123",
	})
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app, _ := newAuthTestApp()

	payload := RegisterRequest{Name: "Ana Gomez", Email: "ana@example.com", Password: "secreto123"}
	rec, err := postJSON(app, "/auth/register", payload)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, rec.Code)

	rec, err = postJSON(app, "/auth/register", payload)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	app, _ := newAuthTestApp()

	rec, err := postJSON(app, "/auth/register", RegisterRequest{
		Name:     "An",
		Email:    "not-an-email",
		Password: "123",
	})
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	app, _ := newAuthTestApp()

	rec, err := postJSON(app, "/auth/register", RegisterRequest{
		Name: "Ana Gomez", Email: "ana@example.com", Password: "secreto123",
	})
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, rec.Code)

	rec, err = postJSON(app, "/auth/login", LoginRequest{
		Email:    "ana@example.com",
		Password: "wrong",
	})
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, rec.Code)

	rec, err = postJSON(app, "/auth/login", LoginRequest{
		Email:    "nobody@example.com",
		Password: "secreto123",
	})
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, rec.Code)
}
