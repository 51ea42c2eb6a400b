package main

import (
	"context"
	"log"
	"os"

	"github.com/Baaaki/freelance-market/internal/config"
	"github.com/Baaaki/freelance-market/internal/database"
	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/repository"
	"github.com/Baaaki/freelance-market/internal/utils"
	"github.com/Baaaki/freelance-market/pkg/logger"
	"go.uber.org/zap"
)

// Seeds the three roles and, when ADMIN_* variables are set, the admin user.
func main() {
	cfg := config.Load()
	if err := logger.Init(cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	ctx := context.Background()
	roleRepo := repository.NewRoleRepository(db)
	userRepo := repository.NewUserRepository(db)

	roles := make(map[models.RoleName]*models.Role)
	for _, name := range []models.RoleName{models.RoleClient, models.RoleFreelancer, models.RoleAdmin} {
		role, err := roleRepo.FindOrCreate(ctx, name)
		if err != nil {
			logger.Log.Fatal("Failed to seed role", zap.String("role", string(name)), zap.Error(err))
		}
		roles[name] = role
		logger.Log.Info("Role ready", zap.String("role", string(name)))
	}

	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminUsername == "" || adminEmail == "" || adminPassword == "" {
		logger.Log.Info("ADMIN_USERNAME, ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin user")
		return
	}

	existing, err := userRepo.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		logger.Log.Fatal("Failed to look up admin", zap.Error(err))
	}
	if existing != nil {
		logger.Log.Info("Admin user already exists", zap.String("username", existing.Username))
		return
	}

	passwordHash, err := utils.HashPassword(adminPassword)
	if err != nil {
		logger.Log.Fatal("Failed to hash password", zap.Error(err))
	}

	admin := &models.User{
		Username:     adminUsername,
		Email:        adminEmail,
		PasswordHash: passwordHash,
		RoleID:       roles[models.RoleAdmin].ID,
	}
	if err := userRepo.CreateUser(ctx, admin); err != nil {
		logger.Log.Fatal("Failed to create admin", zap.Error(err))
	}

	logger.Log.Info("Admin user created",
		zap.String("username", admin.Username),
		zap.String("email", admin.Email),
	)
}
