package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flowboard/flowboard/db"
	"github.com/flowboard/flowboard/internal/logger"
	"github.com/flowboard/flowboard/internal/models"
	"github.com/flowboard/flowboard/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SyncUserRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// SyncUser creates or refreshes the local record for the authenticated
// identity. Idempotent: every login calls it and the second call only
// touches the linkage, the refreshable fields and last_login.
func SyncUser(ctx *gin.Context) {
	identity, err := utils.GetCurrentIdentity(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body SyncUserRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	if body.Email == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	now := time.Now()

	var user models.User

	err = db.DB.Where("email = ? OR external_id = ?", body.Email, identity.Subject).
		First(&user).Error

	if err == nil {
		updates := map[string]interface{}{
			"external_id": identity.Subject,
			"email":       body.Email,
			"last_login":  now,
			"is_verified": true,
		}

		// Keep the prior value when the provider sends nothing.
		if body.Username != "" {
			updates["username"] = body.Username
		}
		if body.FullName != "" {
			updates["full_name"] = body.FullName
		}
		if body.AvatarURL != "" {
			updates["avatar_url"] = body.AvatarURL
		}

		if err := db.DB.Model(&user).Updates(updates).Error; err != nil {
			logger.Error("failed to update user on sync", "user_id", user.ID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if err := db.DB.First(&user, user.ID).Error; err != nil {
			logger.Error("failed to reload user", "user_id", user.ID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		ctx.JSON(http.StatusOK, newUserRecord(user))
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("failed to look up user on sync", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	username, err := uniqueUsername(body.Username, body.Email)

	if err != nil {
		logger.Error("failed to derive username", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user = models.User{
		ExternalID: identity.Subject,
		Email:      body.Email,
		Username:   username,
		FullName:   body.FullName,
		AvatarURL:  body.AvatarURL,
		IsActive:   true,
		IsVerified: true,
		LastLogin:  &now,
	}

	// A concurrent first sync can still lose the uniqueness race at write
	// time; the caller retries.
	if err := db.DB.Create(&user).Error; err != nil {
		logger.Error("failed to create user on sync", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, newUserRecord(user))
}

// uniqueUsername builds a username from the supplied value or the email's
// local part plus a time-derived suffix, then walks numeric suffixes until
// the name is free.
func uniqueUsername(supplied, email string) (string, error) {
	base := supplied

	if base == "" {
		local, _, _ := strings.Cut(email, "@")
		millis := strconv.FormatInt(time.Now().UnixMilli(), 10)
		base = local + "_" + millis[len(millis)-6:]
	}

	username := base

	for counter := 1; ; counter++ {
		var existing models.User

		err := db.DB.Where("username = ?", username).First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return username, nil
		}

		if err != nil {
			return "", err
		}

		username = fmt.Sprintf("%s_%d", base, counter)
	}
}
