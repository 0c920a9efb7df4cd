package service

import (
	"cascade"
	"cascade/internal/api/handler/request"
	"cascade/internal/api/handler/response"
	"cascade/internal/api/repo"
	"cascade/pkg"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	userRepo *repo.UserRepository
	config   cascade.AppConfig
	logger   zerolog.Logger
}

func NewUserService() *UserService {
	return &UserService{
		userRepo: repo.NewUserRepository(),
		config:   cascade.GetConfig(),
		logger:   cascade.Logger,
	}
}

func (slf *UserService) Login(loginDTO request.LoginDTO) (*response.AuthResponseDTO, error) {
	user, err := slf.userRepo.FindByEmail(loginDTO.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid email or password")
		}
		slf.logger.Error().Err(err).Msg("Error finding user by email")
		return nil, err
	}

	if !user.Active {
		return nil, errors.New("account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginDTO.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	token, err := pkg.GenerateToken(user.ID, user.Email, string(user.Role), slf.config.JWTConfig.Secret, slf.config.JWTConfig.Expiration)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error generating token")
		return nil, err
	}

	refreshToken, err := pkg.GenerateRefreshToken(user.ID, slf.config.JWTConfig.Secret, slf.config.JWTConfig.RefreshExpiration)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error generating refresh token")
		return nil, err
	}

	user.RefreshToken = refreshToken
	if err = slf.userRepo.Update(&user); err != nil {
		slf.logger.Error().Err(err).Msg("Error updating user with refresh token")
		return nil, err
	}

	slf.logger.Info().Uint("userId", user.ID).Msg("User logged in successfully")

	return &response.AuthResponseDTO{
		Token:        token,
		RefreshToken: refreshToken,
		User: response.UserResponseDTO{
			ID:     user.ID,
			Email:  user.Email,
			Role:   string(user.Role),
			Active: user.Active,
		},
	}, nil
}

func (slf *UserService) Refresh(refreshToken string) (*response.AuthResponseDTO, error) {
	claims, err := pkg.ValidateToken(refreshToken, slf.config.JWTConfig.Secret)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}

	user, err := slf.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}
	if user.RefreshToken != refreshToken || !user.Active {
		return nil, errors.New("invalid refresh token")
	}

	token, err := pkg.GenerateToken(user.ID, user.Email, string(user.Role), slf.config.JWTConfig.Secret, slf.config.JWTConfig.Expiration)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error generating token")
		return nil, err
	}

	return &response.AuthResponseDTO{
		Token:        token,
		RefreshToken: refreshToken,
		User: response.UserResponseDTO{
			ID:     user.ID,
			Email:  user.Email,
			Role:   string(user.Role),
			Active: user.Active,
		},
	}, nil
}
