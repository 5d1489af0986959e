package server

import (
	"net/http"

	domerr "sensorman/internal/domain/errors"
	"sensorman/internal/domain/models"
	"sensorman/internal/domain/validation"

	"github.com/gin-gonic/gin"
)

func (api *SensorAPI) getDevicesByModel(ctx *gin.Context) {
	devices, err := api.repo.FindDevicesByModel(ctx, ctx.Query("model"))
	if err != nil {
		if isNotFound(err) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, devices)
}

func (api *SensorAPI) getDevice(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "deviceID")
	if !ok {
		return
	}

	device, err := api.repo.GetDeviceByID(ctx, id)
	if err != nil {
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, device)
}

func (api *SensorAPI) getAllDevices(ctx *gin.Context) {
	devices, err := api.repo.GetAllDevices(ctx)
	if err != nil {
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, devices)
}

func (api *SensorAPI) addDevice(ctx *gin.Context) {
	var dto models.Device
	if err := ctx.ShouldBindJSON(&dto); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": domerr.ErrBadRequest.Error()})
		return
	}

	if violations := validation.ValidateDevice(dto); len(violations) > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": violations})
		return
	}

	dto.ID = 0
	if err := api.repo.CreateDevice(ctx, &dto); err != nil {
		failRequest(ctx, err)
		return
	}

	ctx.Header("Location", createdLocation(ctx, dto.ID))
	ctx.JSON(http.StatusCreated, dto)
}

func (api *SensorAPI) updateDevice(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "deviceID")
	if !ok {
		return
	}

	var dto models.Device
	if err := ctx.ShouldBindJSON(&dto); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": domerr.ErrBadRequest.Error()})
		return
	}

	if violations := validation.ValidateDevice(dto); len(violations) > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": violations})
		return
	}

	dto.ID = id
	if err := api.repo.UpdateDevice(ctx, &dto); err != nil {
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto)
}

func (api *SensorAPI) deleteDevice(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "deviceID")
	if !ok {
		return
	}

	device, err := api.repo.GetDeviceByID(ctx, id)
	if err != nil {
		failRequest(ctx, err)
		return
	}

	if err := api.repo.DeleteDevice(ctx, id); err != nil {
		failRequest(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, device)
}
