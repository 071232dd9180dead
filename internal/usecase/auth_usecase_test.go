package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func newAuthFixture() (*UserRepoMock, *usecase.AuthUsecase) {
	users := new(UserRepoMock)
	cfg := config.Config{JWTSecret: "test-secret"}
	return users, usecase.NewAuthUsecase(cfg, users)
}

func TestRegister_ShortPassword(t *testing.T) {
	_, uc := newAuthFixture()

	_, err := uc.Register(context.Background(), usecase.AuthRegisterInput{
		Email: "taro@example.com", Username: "taro", Password: "short",
	})

	assertHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	_, uc := newAuthFixture()

	_, err := uc.Register(context.Background(), usecase.AuthRegisterInput{
		Email: "taro@example.com", Username: "taro", Password: "password123", Role: "admin",
	})

	assertHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users, uc := newAuthFixture()

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{ID: 1}, nil)

	_, err := uc.Register(context.Background(), usecase.AuthRegisterInput{
		Email: "Taro@Example.com", Username: "taro", Password: "password123",
	})

	assertHTTPError(t, err, http.StatusBadRequest, usecase.CodeConflict)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_HashesPasswordAndDefaultsRole(t *testing.T) {
	users, uc := newAuthFixture()

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(nil, nil)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		//平文のままではない、かつ照合には成功する
		if u.PasswordHash == "password123" {
			return false
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) != nil {
			return false
		}
		return u.Email == "taro@example.com" && u.Role == model.RoleCustomer && u.IsActive
	})).Return(nil)

	out, err := uc.Register(context.Background(), usecase.AuthRegisterInput{
		Email: " Taro@Example.com ", Username: "taro", Password: "password123",
	})

	assert.NoError(t, err)
	assert.Equal(t, "taro@example.com", out.Email)
	assert.Equal(t, "customer", out.Role)
	users.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	users, uc := newAuthFixture()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID: 1, Email: "taro@example.com", PasswordHash: string(hash), Role: model.RoleCustomer, IsActive: true,
	}, nil)

	_, err := uc.Login(context.Background(), usecase.AuthLoginInput{
		Email: "taro@example.com", Password: "wrongpass",
	})

	assertHTTPError(t, err, http.StatusUnauthorized, usecase.CodeUnauthorized)
}

func TestLogin_DisabledAccount(t *testing.T) {
	users, uc := newAuthFixture()

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID: 1, Email: "taro@example.com", IsActive: false,
	}, nil)

	_, err := uc.Login(context.Background(), usecase.AuthLoginInput{
		Email: "taro@example.com", Password: "password123",
	})

	assertHTTPError(t, err, http.StatusForbidden, usecase.CodeForbidden)
}

func TestLogin_IssuesTokenWithRoleClaim(t *testing.T) {
	users, uc := newAuthFixture()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	users.On("FindByEmail", mock.Anything, "hana@example.com").Return(&model.User{
		ID: 42, Email: "hana@example.com", Username: "hana",
		PasswordHash: string(hash), Role: model.RoleSupplier, IsActive: true,
	}, nil)
	users.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.ID == 42 && u.LastLoginAt != nil
	})).Return(nil)

	out, err := uc.Login(context.Background(), usecase.AuthLoginInput{
		Email: "hana@example.com", Password: "password123",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(42), out.User.ID)
	assert.Equal(t, 900, out.ExpiresIn)
	assert.NotEmpty(t, out.AccessToken)

	//発行したトークンを同じシークレットで検証できる
	token, err := jwt.Parse(out.AccessToken, func(tk *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	assert.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	if assert.True(t, ok) {
		assert.Equal(t, "supplier", claims["role"])
		assert.EqualValues(t, 42, claims["sub"])
	}
	users.AssertExpectations(t)
}
