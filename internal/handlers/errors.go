package handlers

import (
	"errors"
	"net/http"

	"pizzeria-service/internal/dto"
	"pizzeria-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// writeError переводит ошибку сервиса в HTTP-ответ.
// InvalidArgument проверяется первым: ErrUnknownProduct и подобные одновременно и NotFound.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, dto.NewValidationError(err.Error(), nil))
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, dto.NewUnauthorizedError(err.Error()))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.NewForbiddenError(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.NewNotFoundError(err.Error()))
	case errors.Is(err, service.ErrIllegalState):
		c.JSON(http.StatusConflict, dto.NewConflictError("illegal_state", err.Error()))
	case errors.Is(err, service.ErrAlreadyExists):
		c.JSON(http.StatusConflict, dto.NewConflictError("conflict", err.Error()))
	default:
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewInternalError(""))
	}
}

func badRequest(c *gin.Context, log *zap.Logger, err error) {
	log.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", []dto.FieldError{}))
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid id",
			[]dto.FieldError{{Field: name, Message: "must be a uuid", Tag: "uuid"}}))
		return uuid.Nil, false
	}
	return id, true
}
