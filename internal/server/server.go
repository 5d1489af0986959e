package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	domerr "sensorman/internal/domain/errors"
	"sensorman/internal/domain/models"
	"sensorman/internal/logs"

	"github.com/gin-gonic/gin"
)

// Repository — контракт хранилища сущностей. Update/Delete возвращают
// ошибку "не найдено", если записи с таким ID нет; Find* возвращают её же
// при пустом результате поиска.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	FindUsersByLastname(ctx context.Context, prefix string) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error

	CreateDevice(ctx context.Context, device *models.Device) error
	GetDeviceByID(ctx context.Context, id int64) (*models.Device, error)
	GetAllDevices(ctx context.Context) ([]models.Device, error)
	FindDevicesByModel(ctx context.Context, prefix string) ([]models.Device, error)
	UpdateDevice(ctx context.Context, device *models.Device) error
	DeleteDevice(ctx context.Context, id int64) error

	CreateDbUser(ctx context.Context, user *models.DbUser) error
	GetDbUserByID(ctx context.Context, id int64) (*models.DbUser, error)
	GetAllDbUsers(ctx context.Context) ([]models.DbUser, error)
	FindDbUsersByUsername(ctx context.Context, username string) ([]models.DbUser, error)
	UpdateDbUser(ctx context.Context, user *models.DbUser) error
	DeleteDbUser(ctx context.Context, id int64) error

	IsUserValid(ctx context.Context, username, password string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type SensorAPI struct {
	httpSrv  *http.Server
	repo     Repository
	cfg      *Config
	sessions *sessionStore
}

func NewSensorAPI(repo Repository, cfg *Config) *SensorAPI {
	if repo == nil || cfg == nil {
		return nil
	}

	api := SensorAPI{
		httpSrv: &http.Server{
			Addr: fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port),
		},
		repo:     repo,
		cfg:      cfg,
		sessions: newSessionStore(),
	}

	api.configRoutes()

	return &api
}

func (api *SensorAPI) Start() error {
	if api.httpSrv == nil {
		return domerr.ErrInternalServer
	}

	if api.httpSrv.Addr == "" || api.httpSrv.Addr == ":0" {
		api.httpSrv.Addr = ":8080"
	}

	return api.httpSrv.ListenAndServe()
}

func (api *SensorAPI) Shutdown(ctx context.Context) error {
	if api.httpSrv == nil {
		return nil
	}
	return api.httpSrv.Shutdown(ctx)
}

func (api *SensorAPI) configRoutes() {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(RequestID())
	// любой необработанный сбой превращается в 500 с текстом причины
	router.Use(gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		logs.Logger.Errorf("необработанная ошибка запроса: %v", recovered)
		ctx.String(http.StatusInternalServerError, "An error occurred: %v", recovered)
		ctx.Abort()
	}))

	router.HandleMethodNotAllowed = true
	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"error": "использован некорректный HTTP-метод"})
	})

	router.GET("/", api.root)
	router.GET("/login", api.loginPage)
	router.POST("/login", api.login)
	router.GET("/logout", api.logout)

	authorized := router.Group("/api")
	authorized.Use(api.requireAuth())

	users := authorized.Group("/users")
	{
		users.GET("", api.getUsersByLastname)
		users.GET("/all", api.getAllUsers)
		users.GET("/:userID", api.getUser)
		users.POST("", api.addUser)
		users.PUT("/:userID", api.updateUser)
		users.DELETE("/:userID", api.deleteUser)
	}

	devices := authorized.Group("/devices")
	{
		devices.GET("", api.getDevicesByModel)
		devices.GET("/all", api.getAllDevices)
		devices.GET("/:deviceID", api.getDevice)
		devices.POST("", api.addDevice)
		devices.PUT("/:deviceID", api.updateDevice)
		devices.DELETE("/:deviceID", api.deleteDevice)
	}

	dbusers := authorized.Group("/dbusers")
	{
		dbusers.GET("", api.getDbUsersByUsername)
		dbusers.GET("/all", api.getAllDbUsers)
		dbusers.GET("/:dbuserID", api.getDbUser)
		dbusers.POST("", api.addDbUser)
		dbusers.PUT("/:dbuserID", api.updateDbUser)
		dbusers.DELETE("/:dbuserID", api.deleteDbUser)
	}

	api.httpSrv.Handler = router
}

// parseIDParam разбирает числовой идентификатор из пути. Нечисловое значение
// считается некорректным запросом (400), а не отсутствующим ресурсом.
func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": domerr.ErrBadRequest.Error()})
		return 0, false
	}
	return id, true
}

func isNotFound(err error) bool {
	switch err {
	case domerr.ErrUserNotFound, domerr.ErrDeviceNotFound, domerr.ErrDbUserNotFound, domerr.ErrNotFound:
		return true
	}
	return false
}

// failRequest отображает ошибку хранилища на HTTP-статус: "не найдено" —
// 404, конфликт уникальности — 409, всё прочее — 500 с текстом причины.
func failRequest(ctx *gin.Context, err error) {
	switch {
	case isNotFound(err):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err == domerr.ErrAlreadyExists:
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logs.Logger.Errorf("ошибка обработки запроса: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func createdLocation(ctx *gin.Context, id int64) string {
	return fmt.Sprintf("%s/%d", ctx.Request.URL.Path, id)
}
