package server

import (
	"net/http"

	domerr "sensorman/internal/domain/errors"
	"sensorman/internal/domain/models"
	"sensorman/internal/domain/validation"

	"github.com/gin-gonic/gin"
)

// getUsersByLastname ищет пользователей, фамилия которых начинается с
// заданной строки. Пустой результат поиска считается некорректным запросом.
func (api *SensorAPI) getUsersByLastname(ctx *gin.Context) {
	users, err := api.repo.FindUsersByLastname(ctx, ctx.Query("lastname"))
	if err != nil {
		if isNotFound(err) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, users)
}

func (api *SensorAPI) getUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "userID")
	if !ok {
		return
	}

	user, err := api.repo.GetUserByID(ctx, id)
	if err != nil {
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

func (api *SensorAPI) getAllUsers(ctx *gin.Context) {
	users, err := api.repo.GetAllUsers(ctx)
	if err != nil {
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, users)
}

func (api *SensorAPI) addUser(ctx *gin.Context) {
	var dto models.User
	if err := ctx.ShouldBindJSON(&dto); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": domerr.ErrBadRequest.Error()})
		return
	}

	if violations := validation.ValidateUser(dto); len(violations) > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": violations})
		return
	}

	// идентификатор назначает хранилище, присланное клиентом значение игнорируется
	dto.ID = 0
	if err := api.repo.CreateUser(ctx, &dto); err != nil {
		failRequest(ctx, err)
		return
	}

	ctx.Header("Location", createdLocation(ctx, dto.ID))
	ctx.JSON(http.StatusCreated, dto)
}

func (api *SensorAPI) updateUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "userID")
	if !ok {
		return
	}

	var dto models.User
	if err := ctx.ShouldBindJSON(&dto); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": domerr.ErrBadRequest.Error()})
		return
	}

	if violations := validation.ValidateUser(dto); len(violations) > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": violations})
		return
	}

	dto.ID = id
	if err := api.repo.UpdateUser(ctx, &dto); err != nil {
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto)
}

func (api *SensorAPI) deleteUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "userID")
	if !ok {
		return
	}

	user, err := api.repo.GetUserByID(ctx, id)
	if err != nil {
		failRequest(ctx, err)
		return
	}

	if err := api.repo.DeleteUser(ctx, id); err != nil {
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}
