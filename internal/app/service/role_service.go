package service

import (
	"errors"

	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/internal/app/repository"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrRoleNotFound = errors.New("role not found")

// DefaultRolePermissions is the permission set of each built-in role.
var DefaultRolePermissions = map[string][]string{
	model.RoleAdmin:  {"view dashboard", "edit user", "delete user", "create post", "edit post", "delete post"},
	model.RoleEditor: {"create post", "edit post", "delete post"},
	model.RoleUser:   {"view dashboard"},
}

type RoleService interface {
	WithTx(tx *gorm.DB) RoleService
	AssignRole(userID uint, roleName string) error
	RolesOf(userID uint) ([]string, error)
	SyncRoles(userID uint, names []string) error
	HasAnyRole(userID uint, names ...string) (bool, error)
	ResolveRoles(names []string) ([]model.Role, error)
	FindRole(name string) (*model.Role, error)
	ListRoles() ([]model.Role, error)
	EnsureDefaults() error
}

type roleService struct {
	roleRepo repository.RoleRepository
}

func NewRoleService(roleRepo repository.RoleRepository) RoleService {
	return &roleService{roleRepo: roleRepo}
}

func (s *roleService) WithTx(tx *gorm.DB) RoleService {
	return &roleService{roleRepo: s.roleRepo.WithTx(tx)}
}

// AssignRole gives the user roleName, creating the role when it does not exist yet.
func (s *roleService) AssignRole(userID uint, roleName string) error {
	role, err := s.roleRepo.FirstOrCreate(roleName)
	if err != nil {
		return err
	}
	if err := s.roleRepo.AttachToUser(userID, []model.Role{*role}); err != nil {
		return err
	}

	logger.Info("Role assigned to user", map[string]interface{}{
		"user_id": userID,
		"role":    roleName,
	})
	return nil
}

func (s *roleService) RolesOf(userID uint) ([]string, error) {
	roles, err := s.roleRepo.RolesOfUser(userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names, nil
}

// SyncRoles replaces the user's roles with names. Every name must exist.
func (s *roleService) SyncRoles(userID uint, names []string) error {
	roles, err := s.ResolveRoles(names)
	if err != nil {
		return err
	}
	if err := s.roleRepo.ReplaceForUser(userID, roles); err != nil {
		return err
	}

	logger.Info("User roles synced", map[string]interface{}{
		"user_id": userID,
		"roles":   names,
	})
	return nil
}

func (s *roleService) HasAnyRole(userID uint, names ...string) (bool, error) {
	held, err := s.RolesOf(userID)
	if err != nil {
		return false, err
	}
	for _, h := range held {
		for _, n := range names {
			if h == n {
				return true, nil
			}
		}
	}
	return false, nil
}

// ResolveRoles loads the named roles, failing with ErrRoleNotFound if any is missing.
func (s *roleService) ResolveRoles(names []string) ([]model.Role, error) {
	unique := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		unique = append(unique, n)
	}

	roles, err := s.roleRepo.FindByNames(unique)
	if err != nil {
		return nil, err
	}
	if len(roles) != len(unique) {
		logger.Warn("Unknown role requested", map[string]interface{}{
			"roles": names,
		})
		return nil, ErrRoleNotFound
	}
	return roles, nil
}

func (s *roleService) FindRole(name string) (*model.Role, error) {
	role, err := s.roleRepo.FindByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return role, nil
}

func (s *roleService) ListRoles() ([]model.Role, error) {
	return s.roleRepo.List()
}

// EnsureDefaults creates the built-in roles and grants their permissions. It
// is idempotent.
func (s *roleService) EnsureDefaults() error {
	logger.Info("Ensuring default roles and permissions")

	for _, name := range []string{model.RoleAdmin, model.RoleEditor, model.RoleUser} {
		role, err := s.roleRepo.FirstOrCreate(name)
		if err != nil {
			return err
		}
		if err := s.roleRepo.GrantPermissions(role, DefaultRolePermissions[name]); err != nil {
			return err
		}
	}

	logger.Info("Default roles and permissions ready", map[string]interface{}{
		"roles": len(DefaultRolePermissions),
	})
	return nil
}
