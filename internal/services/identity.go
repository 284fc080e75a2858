package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplist/api/internal/models"
	"github.com/shoplist/api/pkg/utils"
)

type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type IdentityService struct {
	DB *gorm.DB
}

func NewIdentityService(db *gorm.DB) *IdentityService {
	return &IdentityService{DB: db}
}

// NormalizeEmail trims and lowercases an address. Usernames are compared
// exactly as stored; emails are compared in this normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const maxPasswordBytes = 72

func (in RegisterInput) validate() error {
	if err := checkLength("username", in.Username, 2, 20); err != nil {
		return err
	}
	if in.Email == "" {
		return invalid("email", "is required")
	}
	if err := checkLength("email", in.Email, 1, 120); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return invalid("email", "must be a valid email address")
	}
	if in.Password == "" {
		return invalid("password", "is required")
	}
	if utf8.RuneCountInString(in.Password) < 6 {
		return invalid("password", "must be at least 6 characters")
	}
	// bcrypt only accepts the first 72 bytes.
	if len(in.Password) > maxPasswordBytes {
		return invalid("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	if in.ConfirmPassword != in.Password {
		return invalid("confirmPassword", "must match password")
	}
	return nil
}

func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = NormalizeEmail(in.Email)
	if err := in.validate(); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateUsername
	}
	if err := db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateEmail
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateCause(ctx, in.Username)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// duplicateCause decides which unique index a concurrent insert lost on.
func (s *IdentityService) duplicateCause(ctx context.Context, username string) error {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return fmt.Errorf("check duplicate user: %w", err)
	}
	if count > 0 {
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}

// Authenticate never reveals whether the email exists: both failure paths
// return ErrInvalidCredentials after one bcrypt comparison.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.BurnPasswordCheck(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *IdentityService) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *IdentityService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
