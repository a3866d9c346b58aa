package utils

import (
	"errors"
	"strconv"

	"github.com/flowboard/flowboard/internal/auth"
	"github.com/flowboard/flowboard/internal/types"
	"github.com/gin-gonic/gin"
)

func GetCurrentIdentity(ctx *gin.Context) (auth.Identity, error) {
	value, exists := ctx.Get(types.ContextIdentityKey)

	if !exists {
		return auth.Identity{}, errors.New("request is not authenticated")
	}

	identity, ok := value.(auth.Identity)

	if !ok {
		return auth.Identity{}, errors.New("invalid identity type in context")
	}

	return identity, nil
}

func getIDParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, errors.New(name + " not found")
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil {
		return 0, errors.New("invalid " + name)
	}

	return uint(id), nil
}

func GetProjectID(ctx *gin.Context) (uint, error) {
	return getIDParam(ctx, "project_id")
}

func GetPipelineID(ctx *gin.Context) (uint, error) {
	return getIDParam(ctx, "pipeline_id")
}

func GetTaskID(ctx *gin.Context) (uint, error) {
	return getIDParam(ctx, "task_id")
}
