package access

import (
	"errors"

	"github.com/flowboard/flowboard/db"
	"github.com/flowboard/flowboard/internal/auth"
	"github.com/flowboard/flowboard/internal/models"
	"github.com/flowboard/flowboard/internal/types"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound means the identity has no local user record yet.
	ErrUserNotFound = errors.New("user not found")
	// ErrProjectNotFound covers both a missing project and one the caller
	// may not see. Callers map it to 404, never 403, so existence does
	// not leak.
	ErrProjectNotFound = errors.New("project not found")
)

// ResolveUser maps the verified identity to its local user record.
func ResolveUser(identity auth.Identity) (*models.User, error) {
	var user models.User

	err := db.DB.Where("external_id = ?", identity.Subject).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// CheckProjectAccess loads the project only when the resolved user is its
// owner or a member; with requireAdmin the membership role must be OWNER
// or ADMIN. The check itself is read-only.
func CheckProjectAccess(projectID uint, identity auth.Identity, requireAdmin bool) (*models.User, *models.Project, error) {
	user, err := ResolveUser(identity)

	if err != nil {
		return nil, nil, err
	}

	membership := db.DB.Model(&models.ProjectMember{}).
		Select("1").
		Where("project_members.project_id = projects.id AND project_members.user_id = ?", user.ID)

	if requireAdmin {
		membership = membership.Where("project_members.role IN ?", []string{types.RoleOwner, types.RoleAdmin})
	}

	var project models.Project

	err = db.DB.Model(&models.Project{}).
		Where("projects.id = ?", projectID).
		Where("projects.owner_id = ? OR EXISTS (?)", user.ID, membership).
		First(&project).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProjectNotFound
		}
		return nil, nil, err
	}

	return user, &project, nil
}
