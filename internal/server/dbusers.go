package server

import (
	"net/http"

	domerr "sensorman/internal/domain/errors"
	"sensorman/internal/domain/models"
	"sensorman/internal/domain/validation"
	"sensorman/internal/logs"

	"github.com/gin-gonic/gin"
)

// usernameTaken замыкает проверку занятости имени для валидатора учётных
// записей. Ошибка хранилища трактуется как "не занято", чтобы сбой БД не
// маскировался под нарушение валидации.
func (api *SensorAPI) usernameTaken(ctx *gin.Context) func(string) bool {
	return func(username string) bool {
		exists, err := api.repo.UsernameExists(ctx, username)
		if err != nil {
			logs.Logger.Errorf("не удалось проверить занятость имени %q: %v", username, err)
			return false
		}
		return exists
	}
}

// getDbUsersByUsername ищет учётные записи по точному совпадению имени.
func (api *SensorAPI) getDbUsersByUsername(ctx *gin.Context) {
	dbUsers, err := api.repo.FindDbUsersByUsername(ctx, ctx.Query("username"))
	if err != nil {
		if isNotFound(err) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dbUsers)
}

func (api *SensorAPI) getDbUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "dbuserID")
	if !ok {
		return
	}

	dbUser, err := api.repo.GetDbUserByID(ctx, id)
	if err != nil {
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dbUser)
}

func (api *SensorAPI) getAllDbUsers(ctx *gin.Context) {
	dbUsers, err := api.repo.GetAllDbUsers(ctx)
	if err != nil {
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dbUsers)
}

func (api *SensorAPI) addDbUser(ctx *gin.Context) {
	var dto models.DbUser
	if err := ctx.ShouldBindJSON(&dto); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": domerr.ErrBadRequest.Error()})
		return
	}

	if violations := validation.ValidateDbUser(dto, api.usernameTaken(ctx)); len(violations) > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": violations})
		return
	}

	dto.ID = 0
	if err := api.repo.CreateDbUser(ctx, &dto); err != nil {
		failRequest(ctx, err)
		return
	}

	ctx.Header("Location", createdLocation(ctx, dto.ID))
	ctx.JSON(http.StatusCreated, dto)
}

func (api *SensorAPI) updateDbUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "dbuserID")
	if !ok {
		return
	}

	var dto models.DbUser
	if err := ctx.ShouldBindJSON(&dto); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": domerr.ErrBadRequest.Error()})
		return
	}

	// проверка на дубликат выполняется и при обновлении: смена имени на уже
	// занятое отклоняется, сохранение прежнего имени тоже
	if violations := validation.ValidateDbUser(dto, api.usernameTaken(ctx)); len(violations) > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": violations})
		return
	}

	dto.ID = id
	if err := api.repo.UpdateDbUser(ctx, &dto); err != nil {
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto)
}

func (api *SensorAPI) deleteDbUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "dbuserID")
	if !ok {
		return
	}

	dbUser, err := api.repo.GetDbUserByID(ctx, id)
	if err != nil {
		failRequest(ctx, err)
		return
	}

	if err := api.repo.DeleteDbUser(ctx, id); err != nil {
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dbUser)
}
