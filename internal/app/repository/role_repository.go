package repository

import (
	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"gorm.io/gorm"
)

type RoleRepository interface {
	WithTx(tx *gorm.DB) RoleRepository
	FindByName(name string) (*model.Role, error)
	FindByNames(names []string) ([]model.Role, error)
	FirstOrCreate(name string) (*model.Role, error)
	List() ([]model.Role, error)
	RolesOfUser(userID uint) ([]model.Role, error)
	AttachToUser(userID uint, roles []model.Role) error
	ReplaceForUser(userID uint, roles []model.Role) error
	GrantPermissions(role *model.Role, names []string) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) WithTx(tx *gorm.DB) RoleRepository {
	return &roleRepository{db: tx}
}

func (r *roleRepository) FindByName(name string) (*model.Role, error) {
	logger.Debug("Finding role by name in database", map[string]interface{}{
		"role": name,
	})

	var role model.Role
	if err := r.db.Where("name = ?", name).First(&role).Error; err != nil {
		logFindError("Failed to find role by name in database", err, map[string]interface{}{
			"role": name,
		})
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByNames(names []string) ([]model.Role, error) {
	var roles []model.Role
	if len(names) == 0 {
		return roles, nil
	}
	if err := r.db.Where("name IN ?", names).Order("id").Find(&roles).Error; err != nil {
		logger.Error("Failed to find roles by name in database", err, map[string]interface{}{
			"roles": names,
		})
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) FirstOrCreate(name string) (*model.Role, error) {
	var role model.Role
	if err := r.db.Where(model.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
		logger.Error("Failed to find or create role in database", err, map[string]interface{}{
			"role": name,
		})
		return nil, err
	}

	logger.Debug("Role resolved in database", map[string]interface{}{
		"role_id": role.ID,
		"role":    role.Name,
	})
	return &role, nil
}

func (r *roleRepository) List() ([]model.Role, error) {
	logger.Debug("Listing roles from database")

	var roles []model.Role
	if err := r.db.Order("id").Find(&roles).Error; err != nil {
		logger.Error("Failed to list roles from database", err)
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) RolesOfUser(userID uint) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.Model(&model.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.id").
		Find(&roles).Error
	if err != nil {
		logger.Error("Failed to load roles of user from database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return roles, nil
}

// AttachToUser adds roles to the user; roles the user already has are ignored.
func (r *roleRepository) AttachToUser(userID uint, roles []model.Role) error {
	if len(roles) == 0 {
		return nil
	}
	logger.Debug("Attaching roles to user in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(roles),
	})

	if err := r.db.Model(&model.User{ID: userID}).Association("Roles").Append(roles); err != nil {
		logger.Error("Failed to attach roles to user in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	return nil
}

// ReplaceForUser makes roles the user's complete role set.
func (r *roleRepository) ReplaceForUser(userID uint, roles []model.Role) error {
	logger.Debug("Replacing roles of user in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(roles),
	})

	association := r.db.Model(&model.User{ID: userID}).Association("Roles")
	var err error
	if len(roles) == 0 {
		err = association.Clear()
	} else {
		err = association.Replace(roles)
	}
	if err != nil {
		logger.Error("Failed to replace roles of user in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	return nil
}

// GrantPermissions creates missing permissions and links them to role.
func (r *roleRepository) GrantPermissions(role *model.Role, names []string) error {
	permissions := make([]model.Permission, 0, len(names))
	for _, name := range names {
		var permission model.Permission
		if err := r.db.Where(model.Permission{Name: name}).FirstOrCreate(&permission).Error; err != nil {
			logger.Error("Failed to find or create permission in database", err, map[string]interface{}{
				"permission": name,
			})
			return err
		}
		permissions = append(permissions, permission)
	}
	if len(permissions) == 0 {
		return nil
	}

	if err := r.db.Model(role).Association("Permissions").Append(permissions); err != nil {
		logger.Error("Failed to grant permissions to role in database", err, map[string]interface{}{
			"role": role.Name,
		})
		return err
	}
	return nil
}
