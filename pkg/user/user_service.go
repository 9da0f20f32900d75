package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"recipebook/domain"
	"recipebook/entities"
	"recipebook/internal/utils/mailing"
	"recipebook/pkg/jwt"
)

type (
	UserService interface {
		RegisterUser(ctx context.Context, req domain.RegisterUserRequest) (domain.RegisterUserResponse, error)
		CreateSuperuser(ctx context.Context, email, password string) (*entities.User, error)
		Authenticate(ctx context.Context, email, password string) (*entities.User, error)
		Me(ctx context.Context, userID uint) (domain.UserMeResponse, error)
		UpdateUser(ctx context.Context, req domain.UpdateUserRequest, userID uint) error
		SendVerificationEmail(ctx context.Context, req domain.SendVerifyEmailRequest) error
		VerifyEmail(ctx context.Context, token string) error
		ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error
		ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
	}

	// Mailer sends the account emails. The default implementation dials SMTP;
	// tests substitute a recorder.
	Mailer interface {
		SendVerificationEmail(toEmail, token string) error
		SendResetPasswordEmail(toEmail, token string) error
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
		mailer         Mailer
	}

	smtpMailer struct{}
)

func NewMailer() Mailer {
	return smtpMailer{}
}

func (smtpMailer) SendVerificationEmail(toEmail, token string) error {
	return mailing.SendVerificationEmail(toEmail, token)
}

func (smtpMailer) SendResetPasswordEmail(toEmail, token string) error {
	return mailing.SendResetPasswordEmail(toEmail, token)
}

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService, mailer Mailer) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
		mailer:         mailer,
	}
}

// NormalizeEmail lowercases the domain portion of an address, keeping the
// local part intact. Login lookups go through the same normalization, which
// makes the email case-insensitive for all practical purposes.
func NormalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func (s *userService) RegisterUser(ctx context.Context, req domain.RegisterUserRequest) (domain.RegisterUserResponse, error) {
	if req.Email == "" {
		return domain.RegisterUserResponse{}, domain.ErrEmailRequired
	}

	email := NormalizeEmail(req.Email)

	exists, err := s.userRepository.CheckEmailExist(ctx, email)
	if err != nil {
		return domain.RegisterUserResponse{}, err
	}
	if exists {
		return domain.RegisterUserResponse{}, domain.ErrEmailAlreadyRegistered
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.RegisterUserResponse{}, err
	}

	user := &entities.User{
		Email:    email,
		Password: string(hashed),
		Name:     req.Name,
		IsActive: true,
	}

	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		return domain.RegisterUserResponse{}, err
	}

	return domain.RegisterUserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}, nil
}

func (s *userService) CreateSuperuser(ctx context.Context, email, password string) (*entities.User, error) {
	if email == "" {
		return nil, domain.ErrEmailRequired
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Email:       NormalizeEmail(email),
		Password:    string(hashed),
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}

	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*entities.User, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

func (s *userService) Me(ctx context.Context, userID uint) (domain.UserMeResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return domain.UserMeResponse{}, domain.ErrUserNotFound
	}

	return domain.UserMeResponse{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Verified: user.Verified,
	}, nil
}

func (s *userService) UpdateUser(ctx context.Context, req domain.UpdateUserRequest, userID uint) error {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	if req.Name != "" {
		user.Name = req.Name
	}

	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user.Password = string(hashed)
	}

	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) SendVerificationEmail(ctx context.Context, req domain.SendVerifyEmailRequest) error {
	user, err := s.userRepository.GetUserByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return domain.ErrUserNotFound
	}

	token, err := s.jwtService.GenerateMailToken(
		map[string]any{"email": user.Email},
		24*time.Hour,
	)
	if err != nil {
		return err
	}

	return s.mailer.SendVerificationEmail(user.Email, token)
}

func (s *userService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.jwtService.ValidateMailToken(token)
	if err != nil {
		return err
	}

	email, ok := claims["email"].(string)
	if !ok {
		return domain.ErrTokenInvalid
	}

	user, err := s.userRepository.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.ErrUserNotFound
	}

	user.Verified = true
	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	user, err := s.userRepository.GetUserByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		return domain.ErrUserNotFound
	}

	token, err := s.jwtService.GenerateMailToken(
		map[string]any{"email": user.Email},
		time.Hour,
	)
	if err != nil {
		return err
	}

	return s.mailer.SendResetPasswordEmail(user.Email, token)
}

func (s *userService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	claims, err := s.jwtService.ValidateMailToken(req.Token)
	if err != nil {
		return err
	}

	email, ok := claims["email"].(string)
	if !ok {
		return domain.ErrTokenInvalid
	}

	user, err := s.userRepository.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.ErrUserNotFound
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.Password = string(hashed)
	return s.userRepository.UpdateUser(ctx, user)
}
