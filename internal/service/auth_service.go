package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/config"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const refreshKeyPrefix = "auth:refresh:"

// AuthService 认证服务：密码登录、JWT 签发与刷新。
// 刷新令牌放 Redis 白名单，登出即失效。
type AuthService struct {
	users *repository.UserRepository
	rdb   *redis.Client
	cfg   *config.Config
}

func NewAuthService(users *repository.UserRepository, rdb *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{users: users, rdb: rdb, cfg: cfg}
}

// TokenPair 一对访问/刷新令牌
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RegisterRequest 注册请求（仅管理员可调用）
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	Name            string `json:"name" binding:"required"`
	Phone           string `json:"phone"`
	Role            string `json:"role" binding:"required"`
	ServiceCenterID string `json:"serviceCenterId"`
}

// Register 创建用户
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*entity.User, error) {
	role := entity.Role(req.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, req.Role)
	}
	if !role.Manufacturer() && req.ServiceCenterID == "" {
		return nil, fmt.Errorf("%w: service center is required for role %s", ErrInvalidArgument, role)
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email %s", ErrDuplicate, req.Email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Email:           req.Email,
		PasswordHash:    string(hash),
		Name:            req.Name,
		Phone:           req.Phone,
		Role:            role,
		ServiceCenterID: req.ServiceCenterID,
		Status:          "active",
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 校验密码并签发令牌对
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredential
		}
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredential
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// RefreshToken 用刷新令牌换新令牌对，旧刷新令牌作废
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.rdb.Get(ctx, refreshKeyPrefix+refreshToken).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	s.rdb.Del(ctx, refreshKeyPrefix+refreshToken)
	return s.issueTokens(ctx, user)
}

// Logout 作废刷新令牌
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.rdb.Del(ctx, refreshKeyPrefix+refreshToken).Err()
}

// GetCurrentUser 查当前用户
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *entity.User) (*TokenPair, error) {
	now := time.Now()
	expire := s.cfg.JWT.AccessTokenExpire

	claims := jwt.MapClaims{
		"sub":               user.ID,
		"uid":               user.ID,
		"name":              user.Name,
		"email":             user.Email,
		"role":              string(user.Role),
		"service_center_id": user.ServiceCenterID,
		"iss":               s.cfg.JWT.Issuer,
		"iat":               now.Unix(),
		"exp":               now.Add(expire).Unix(),
		"jti":               uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	access, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	refresh := uuid.New().String()
	if err := s.rdb.Set(ctx, refreshKeyPrefix+refresh, user.ID, s.cfg.JWT.RefreshTokenExpire).Err(); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(expire.Seconds()),
	}, nil
}
