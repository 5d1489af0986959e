package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domerr "sensorman/internal/domain/errors"
	"sensorman/internal/domain/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockRepository) FindUsersByLastname(ctx context.Context, prefix string) ([]models.User, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockRepository) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) DeleteUser(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CreateDevice(ctx context.Context, device *models.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *MockRepository) GetDeviceByID(ctx context.Context, id int64) (*models.Device, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Device), args.Error(1)
}

func (m *MockRepository) GetAllDevices(ctx context.Context) ([]models.Device, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Device), args.Error(1)
}

func (m *MockRepository) FindDevicesByModel(ctx context.Context, prefix string) ([]models.Device, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Device), args.Error(1)
}

func (m *MockRepository) UpdateDevice(ctx context.Context, device *models.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *MockRepository) DeleteDevice(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CreateDbUser(ctx context.Context, user *models.DbUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) GetDbUserByID(ctx context.Context, id int64) (*models.DbUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DbUser), args.Error(1)
}

func (m *MockRepository) GetAllDbUsers(ctx context.Context) ([]models.DbUser, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.DbUser), args.Error(1)
}

func (m *MockRepository) FindDbUsersByUsername(ctx context.Context, username string) ([]models.DbUser, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DbUser), args.Error(1)
}

func (m *MockRepository) UpdateDbUser(ctx context.Context, user *models.DbUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) DeleteDbUser(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) IsUserValid(ctx context.Context, username, password string) (bool, error) {
	args := m.Called(ctx, username, password)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

const testSecret = "test-secret"

func newTestAPI(repo Repository) *SensorAPI {
	gin.SetMode(gin.TestMode)
	return NewSensorAPI(repo, &Config{
		SessionSecret: testSecret,
		SessionTTLMin: 60,
	})
}

func generateTestToken(username string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte(testSecret))
	return signed
}

func authorize(req *http.Request) {
	req.AddCookie(&http.Cookie{Name: "jwt_token", Value: generateTestToken("admin")})
}

func TestAddUser(t *testing.T) {
	tests := []struct {
		name    string
		request models.User
		want    struct {
			statusCode int
			location   string
		}
		mockSetup func(*MockRepository)
	}{
		{
			name:    "successful creation",
			request: models.User{Firstname: "John", Lastname: "Smith", Email: "j@x.com"},
			want: struct {
				statusCode int
				location   string
			}{
				statusCode: 201,
				location:   "/api/users/7",
			},
			mockSetup: func(mockRepo *MockRepository) {
				mockRepo.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).
					Run(func(args mock.Arguments) {
						args.Get(1).(*models.User).ID = 7
					}).Return(nil)
			},
		},
		{
			name:    "firstname too short",
			request: models.User{Firstname: "Jo", Lastname: "Smith", Email: "j@x.com"},
			want: struct {
				statusCode int
				location   string
			}{
				statusCode: 400,
			},
			mockSetup: func(mockRepo *MockRepository) {},
		},
		{
			name:    "duplicate email",
			request: models.User{Firstname: "John", Lastname: "Smith", Email: "j@x.com"},
			want: struct {
				statusCode int
				location   string
			}{
				statusCode: 409,
			},
			mockSetup: func(mockRepo *MockRepository) {
				mockRepo.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).
					Return(domerr.ErrAlreadyExists)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{}
			tt.mockSetup(mockRepo)
			api := newTestAPI(mockRepo)

			jsonData, _ := json.Marshal(tt.request)
			req, _ := http.NewRequest("POST", "/api/users", bytes.NewBuffer(jsonData))
			req.Header.Set("Content-Type", "application/json")
			authorize(req)

			w := httptest.NewRecorder()
			api.httpSrv.Handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want.statusCode, w.Code)
			if tt.want.statusCode == 201 {
				assert.Equal(t, tt.want.location, w.Header().Get("Location"))
				assert.Contains(t, w.Body.String(), `"id":7`)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAddUserMalformedBody(t *testing.T) {
	mockRepo := &MockRepository{}
	api := newTestAPI(mockRepo)

	req, _ := http.NewRequest("POST", "/api/users", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	authorize(req)

	w := httptest.NewRecorder()
	api.httpSrv.Handler.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	mockRepo.AssertExpectations(t)
}

func TestGetUser(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		want      int
		mockSetup func(*MockRepository)
	}{
		{
			name: "user found",
			path: "/api/users/1",
			want: 200,
			mockSetup: func(mockRepo *MockRepository) {
				mockRepo.On("GetUserByID", mock.Anything, int64(1)).
					Return(&models.User{ID: 1, Firstname: "John", Lastname: "Smith", Email: "j@x.com"}, nil)
			},
		},
		{
			name: "user not found",
			path: "/api/users/9999",
			want: 404,
			mockSetup: func(mockRepo *MockRepository) {
				mockRepo.On("GetUserByID", mock.Anything, int64(9999)).
					Return(nil, domerr.ErrUserNotFound)
			},
		},
		{
			name:      "non-numeric id",
			path:      "/api/users/abc",
			want:      400,
			mockSetup: func(mockRepo *MockRepository) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{}
			tt.mockSetup(mockRepo)
			api := newTestAPI(mockRepo)

			req, _ := http.NewRequest("GET", tt.path, nil)
			authorize(req)

			w := httptest.NewRecorder()
			api.httpSrv.Handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestGetUsersByLastname(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		want      int
		mockSetup func(*MockRepository)
	}{
		{
			name: "matches found",
			path: "/api/users?lastname=Smi",
			want: 200,
			mockSetup: func(mockRepo *MockRepository) {
				mockRepo.On("FindUsersByLastname", mock.Anything, "Smi").
					Return([]models.User{{ID: 1, Firstname: "John", Lastname: "Smith", Email: "j@x.com"}}, nil)
			},
		},
		{
			name: "empty search result is a bad request",
			path: "/api/users?lastname=zzz",
			want: 400,
			mockSetup: func(mockRepo *MockRepository) {
				mockRepo.On("FindUsersByLastname", mock.Anything, "zzz").
					Return(nil, domerr.ErrUserNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{}
			tt.mockSetup(mockRepo)
			api := newTestAPI(mockRepo)

			req, _ := http.NewRequest("GET", tt.path, nil)
			authorize(req)

			w := httptest.NewRecorder()
			api.httpSrv.Handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestGetAllUsersEmptyListIsOK(t *testing.T) {
	mockRepo := &MockRepository{}
	mockRepo.On("GetAllUsers", mock.Anything).Return([]models.User{}, nil)
	api := newTestAPI(mockRepo)

	req, _ := http.NewRequest("GET", "/api/users/all", nil)
	authorize(req)

	w := httptest.NewRecorder()
	api.httpSrv.Handler.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
	mockRepo.AssertExpectations(t)
}

func TestUpdateUser(t *testing.T) {
	tests := []struct {
		name      string
		request   models.User
		want      int
		mockSetup func(*MockRepository)
	}{
		{
			name:    "successful update",
			request: models.User{Firstname: "John", Lastname: "Smith", Email: "j@x.com"},
			want:    200,
			mockSetup: func(mockRepo *MockRepository) {
				mockRepo.On("UpdateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
			},
		},
		{
			name:    "user does not exist",
			request: models.User{Firstname: "John", Lastname: "Smith", Email: "j@x.com"},
			want:    404,
			mockSetup: func(mockRepo *MockRepository) {
				mockRepo.On("UpdateUser", mock.Anything, mock.AnythingOfType("*models.User")).
					Return(domerr.ErrUserNotFound)
			},
		},
		{
			name:      "validation failure skips the store",
			request:   models.User{Firstname: "John", Lastname: "", Email: "j@x.com"},
			want:      400,
			mockSetup: func(mockRepo *MockRepository) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{}
			tt.mockSetup(mockRepo)
			api := newTestAPI(mockRepo)

			jsonData, _ := json.Marshal(tt.request)
			req, _ := http.NewRequest("PUT", "/api/users/5", bytes.NewBuffer(jsonData))
			req.Header.Set("Content-Type", "application/json")
			authorize(req)

			w := httptest.NewRecorder()
			api.httpSrv.Handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == 200 {
				// идентификатор берётся из пути, а не из тела
				assert.Contains(t, w.Body.String(), `"id":5`)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestDeleteUser(t *testing.T) {
	tests := []struct {
		name      string
		want      int
		mockSetup func(*MockRepository)
	}{
		{
			name: "successful delete returns the removed record",
			want: 200,
			mockSetup: func(mockRepo *MockRepository) {
				mockRepo.On("GetUserByID", mock.Anything, int64(3)).
					Return(&models.User{ID: 3, Firstname: "John", Lastname: "Smith", Email: "j@x.com"}, nil)
				mockRepo.On("DeleteUser", mock.Anything, int64(3)).Return(nil)
			},
		},
		{
			name: "absent id",
			want: 404,
			mockSetup: func(mockRepo *MockRepository) {
				mockRepo.On("GetUserByID", mock.Anything, int64(3)).
					Return(nil, domerr.ErrUserNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{}
			tt.mockSetup(mockRepo)
			api := newTestAPI(mockRepo)

			req, _ := http.NewRequest("DELETE", "/api/users/3", nil)
			authorize(req)

			w := httptest.NewRecorder()
			api.httpSrv.Handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == 200 {
				assert.Contains(t, w.Body.String(), "Smith")
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAddDeviceValidation(t *testing.T) {
	mockRepo := &MockRepository{}
	api := newTestAPI(mockRepo)

	jsonData, _ := json.Marshal(models.Device{Model: "TempSensor-01", Mac: "short", IP: "10.0.0.1"})
	req, _ := http.NewRequest("POST", "/api/devices", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	authorize(req)

	w := httptest.NewRecorder()
	api.httpSrv.Handler.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"mac"`)
	assert.Contains(t, w.Body.String(), `"code":"size"`)
	mockRepo.AssertExpectations(t)
}

func TestNewSensorAPIRequiresDependencies(t *testing.T) {
	assert.Nil(t, NewSensorAPI(nil, &Config{}))
	assert.Nil(t, NewSensorAPI(&MockRepository{}, nil))
	assert.NotNil(t, newTestAPI(&MockRepository{}))
}

func TestShutdownWithoutStart(t *testing.T) {
	api := newTestAPI(&MockRepository{})
	assert.NoError(t, api.Shutdown(context.Background()))
}

func TestAddDbUserDuplicateUsername(t *testing.T) {
	mockRepo := &MockRepository{}
	mockRepo.On("UsernameExists", mock.Anything, "admin").Return(true, nil)
	api := newTestAPI(mockRepo)

	jsonData, _ := json.Marshal(models.DbUser{Username: "admin", Password: "Secret12"})
	req, _ := http.NewRequest("POST", "/api/dbusers", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	authorize(req)

	w := httptest.NewRecorder()
	api.httpSrv.Handler.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"duplicate"`)
	mockRepo.AssertExpectations(t)
}
