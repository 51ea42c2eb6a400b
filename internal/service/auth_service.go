package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/Baaaki/freelance-market/internal/apperror"
	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/repository"
	"github.com/Baaaki/freelance-market/internal/utils"
	"github.com/Baaaki/freelance-market/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Environment   string
}

type AuthService struct {
	db        *gorm.DB
	userRepo  *repository.UserRepository
	roleRepo  *repository.RoleRepository
	tokenRepo *repository.RefreshTokenRepository
	cfg       AuthConfig
}

func NewAuthService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	roleRepo *repository.RoleRepository,
	tokenRepo *repository.RefreshTokenRepository,
	cfg AuthConfig,
) *AuthService {
	return &AuthService{
		db:        db,
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		tokenRepo: tokenRepo,
		cfg:       cfg,
	}
}

// IsProduction returns true if running in production environment
func (s *AuthService) IsProduction() bool {
	return s.cfg.Environment == "production"
}

func (s *AuthService) AccessTTL() time.Duration  { return s.cfg.AccessTTL }
func (s *AuthService) RefreshTTL() time.Duration { return s.cfg.RefreshTTL }

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Role      models.RoleName
	FirstName string
	LastName  string
}

// ClientContext is the request metadata stored with a refresh token
type ClientContext struct {
	UserAgent string
	IP        string
}

type TokenPair struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	start := time.Now()

	logger.Log.Debug("Processing user registration",
		zap.String("username", in.Username),
		zap.String("email", in.Email),
		zap.String("role", string(in.Role)),
	)

	// 1. Validate input
	if err := validateRegisterInput(in); err != nil {
		logger.Log.Warn("Registration validation failed",
			zap.String("username", in.Username),
			zap.Error(err),
		)
		return nil, err
	}

	// 2. Check if email already exists
	existing, err := s.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if existing != nil {
		logger.Log.Warn("Email already exists", zap.String("email", in.Email))
		return nil, apperror.Conflict("User with this email already exists")
	}

	// 3. Check if username already exists
	existing, err = s.userRepo.GetUserByUsername(ctx, in.Username)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if existing != nil {
		logger.Log.Warn("Username already exists", zap.String("username", in.Username))
		return nil, apperror.Conflict("User with this username already exists")
	}

	// 4. Hash password
	hashStart := time.Now()
	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return nil, apperror.Internal(err)
	}
	hashDuration := time.Since(hashStart)

	// 5. Resolve role, creating the row on first use
	role, err := s.roleRepo.FindOrCreate(ctx, in.Role)
	if err != nil {
		logger.Log.Error("Failed to resolve role", zap.String("role", string(in.Role)), zap.Error(err))
		return nil, apperror.Internal(err)
	}

	// 6. Create user
	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashedPassword,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		RoleID:       role.ID,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		// A concurrent registration can still hit the unique index
		if apperror.Is(err, apperror.KindConflict) {
			return nil, err
		}
		logger.Log.Error("Failed to create user in database",
			zap.String("username", in.Username),
			zap.Error(err),
		)
		return nil, apperror.Internal(err)
	}
	user.Role = role

	logger.Log.Info("User registered successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(role.Name)),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, identifier, password string, client ClientContext) (*TokenPair, error) {
	start := time.Now()

	logger.Log.Debug("Processing user login", zap.String("identifier", identifier))

	// 1. Resolve identifier as email or username
	user, err := s.userRepo.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil {
		logger.Log.Warn("Login failed: user not found", zap.String("identifier", identifier))
		return nil, apperror.Unauthorized("Invalid credentials")
	}

	// 2. Verify password
	valid, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, apperror.Internal(err)
	}
	if !valid {
		logger.Log.Warn("Login failed: invalid password", zap.String("user_id", user.ID.String()))
		return nil, apperror.Unauthorized("Invalid credentials")
	}

	// 3. Issue token pair
	pair, err := s.issueTokens(ctx, s.tokenRepo, user, client)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("User logged in successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("ip", client.IP),
		zap.Duration("total_duration", time.Since(start)),
	)

	return pair, nil
}

// Refresh rotates a refresh token: the presented token is spent and a new
// pair bound to the same user and device is returned.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthorized("Refresh token required")
	}

	stored, err := s.tokenRepo.GetByToken(ctx, refreshToken)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if stored == nil || !stored.IsValid {
		logger.Log.Warn("Refresh rejected: unknown or revoked token")
		return nil, apperror.Unauthorized("Invalid refresh token")
	}
	if stored.Expired(time.Now()) {
		logger.Log.Warn("Refresh rejected: token expired", zap.String("user_id", stored.UserID.String()))
		return nil, apperror.Unauthorized("Refresh token expired")
	}

	claims, err := utils.ValidateRefreshToken(refreshToken, s.cfg.RefreshSecret)
	if err != nil || claims.UserID != stored.UserID {
		return nil, apperror.Unauthorized("Invalid refresh token")
	}

	user, err := s.userRepo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("User not found")
	}

	var pair *TokenPair
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tokens := s.tokenRepo.WithTx(tx)

		// Conditional update: only one of two concurrent refreshes wins
		n, err := tokens.Invalidate(ctx, refreshToken)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.Unauthorized("Invalid refresh token")
		}

		pair, err = s.issueTokens(ctx, tokens, user, ClientContext{
			UserAgent: stored.DeviceInfo,
			IP:        stored.IPAddress,
		})
		return err
	})
	if err != nil {
		return nil, wrapInternal(err)
	}

	logger.Log.Info("Refresh token rotated", zap.String("user_id", user.ID.String()))
	return pair, nil
}

// Logout revokes the token. Unknown or already revoked tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	n, err := s.tokenRepo.Invalidate(ctx, refreshToken)
	if err != nil {
		return apperror.Internal(err)
	}
	logger.Log.Debug("Logout processed", zap.Int64("revoked", n))
	return nil
}

// LogoutAll revokes every refresh token the user holds
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.tokenRepo.InvalidateAllForUser(ctx, userID)
	if err != nil {
		return 0, apperror.Internal(err)
	}
	logger.Log.Info("Revoked all sessions",
		zap.String("user_id", userID.String()),
		zap.Int64("revoked", n),
	)
	return n, nil
}

// VerifyAccessToken returns the caller's claims or Unauthorized
func (s *AuthService) VerifyAccessToken(token string) (*utils.AccessClaims, error) {
	claims, err := utils.ValidateAccessToken(token, s.cfg.AccessSecret)
	if err != nil {
		if errors.Is(err, utils.ErrExpiredToken) {
			return nil, apperror.Unauthorized("Token expired")
		}
		return nil, apperror.Unauthorized("Invalid token")
	}
	return claims, nil
}

func (s *AuthService) issueTokens(ctx context.Context, tokens *repository.RefreshTokenRepository, user *models.User, client ClientContext) (*TokenPair, error) {
	accessToken, err := utils.GenerateAccessToken(user, s.cfg.AccessSecret, s.cfg.AccessTTL)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	refreshToken, expiresAt, err := utils.GenerateRefreshToken(user, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	row := &models.RefreshToken{
		Token:      refreshToken,
		IsValid:    true,
		ExpiresAt:  expiresAt,
		UserID:     user.ID,
		DeviceInfo: truncate(client.UserAgent, 255),
		IPAddress:  truncate(client.IP, 64),
	}
	if err := tokens.Create(ctx, row); err != nil {
		logger.Log.Error("Failed to persist refresh token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, apperror.Internal(err)
	}

	return &TokenPair{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.AccessTTL / time.Second),
	}, nil
}

func validateRegisterInput(in RegisterInput) error {
	if len(in.Username) < 3 || len(in.Username) > 50 {
		return apperror.BadRequest("Username must be between 3 and 50 characters")
	}
	if len(in.Email) > 100 || !emailRegex.MatchString(in.Email) {
		return apperror.BadRequest("Invalid email format")
	}
	if len(in.Password) < 6 {
		return apperror.BadRequest("Password must be at least 6 characters")
	}
	if in.Role != models.RoleClient && in.Role != models.RoleFreelancer {
		return apperror.BadRequest("Role must be client or freelancer")
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
