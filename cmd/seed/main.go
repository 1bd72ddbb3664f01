package main

import (
	"errors"
	"flag"

	"github.com/ikkim/userhub-backend/config"
	"github.com/ikkim/userhub-backend/internal/app/model"
	"github.com/ikkim/userhub-backend/internal/app/repository"
	"github.com/ikkim/userhub-backend/internal/app/service"
	"github.com/ikkim/userhub-backend/internal/db"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"gorm.io/gorm"
)

func main() {
	dataDir := flag.String("data", "", "directory with provinsi.json and the kabupaten, kecamatan and kelurahan folders (defaults to SEED_DATA_DIR)")
	skipLocations := flag.Bool("skip-locations", false, "only seed roles and the admin user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}
	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to connect to database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	conn := db.GetDB()
	userRepo := repository.NewUserRepository(conn)
	roleService := service.NewRoleService(repository.NewRoleRepository(conn))
	userService := service.NewUserService(conn, userRepo, repository.NewAccessTokenRepository(conn), roleService)

	if err := roleService.EnsureDefaults(); err != nil {
		logger.Fatal("Failed to seed roles", err)
	}
	if err := seedAdmin(userRepo, userService, cfg.Seed); err != nil {
		logger.Fatal("Failed to seed admin user", err)
	}

	if *skipLocations {
		return
	}
	dir := *dataDir
	if dir == "" {
		dir = cfg.Seed.DataDir
	}
	result, err := db.SeedLocations(conn, dir)
	if err != nil {
		logger.Fatal("Failed to seed locations", err, map[string]interface{}{
			"dir": dir,
		})
	}
	logger.Info("Seeding completed", map[string]interface{}{
		"provinces": result.Provinces,
		"regencies": result.Regencies,
		"districts": result.Districts,
		"villages":  result.Villages,
	})
}

// seedAdmin creates the configured admin account unless the email is already registered.
func seedAdmin(users repository.UserRepository, userService service.UserService, cfg config.SeedConfig) error {
	existing, err := users.FindByEmail(cfg.AdminEmail)
	if err == nil {
		logger.Info("Admin user already exists", map[string]interface{}{
			"user_id": existing.ID,
		})
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	admin, err := userService.Create(service.CreateUserInput{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Roles:    []string{model.RoleAdmin},
	})
	if err != nil {
		return err
	}
	logger.Info("Admin user created", map[string]interface{}{
		"user_id": admin.ID,
		"email":   admin.Email,
	})
	return nil
}
