package domain

import (
	"errors"
)

var (
	MessageSuccessRegister          = "user registered successfully"
	MessageSuccessLogin             = "login success"
	MessageSuccessGetMe             = "success get user detail"
	MessageSuccessUpdateUser        = "user updated successfully"
	MessageSuccessSendVerifyEmail   = "verification email sent"
	MessageSuccessVerifyEmail       = "email verified successfully"
	MessageSuccessSendResetPassword = "password reset email sent"
	MessageSuccessResetPassword     = "password reset successfully"

	MessageFailedRegister          = "failed to register user"
	MessageFailedLogin             = "unable to authenticate with provided credentials"
	MessageFailedGetMe             = "failed to get user detail"
	MessageFailedUpdateUser        = "failed to update user"
	MessageFailedSendVerifyEmail   = "failed to send verification email"
	MessageFailedVerifyEmail       = "failed to verify email"
	MessageFailedSendResetPassword = "failed to send password reset email"
	MessageFailedResetPassword     = "failed to reset password"

	ErrEmailRequired          = errors.New("email is required")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrTokenInvalid           = errors.New("token invalid")
	ErrTokenExpired           = errors.New("token expired")
)

type (
	RegisterUserRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Name     string `json:"name"`
	}

	RegisterUserResponse struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name,omitempty"`
	}

	TokenRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	UserMeResponse struct {
		ID       uint   `json:"id"`
		Email    string `json:"email"`
		Name     string `json:"name,omitempty"`
		Verified bool   `json:"verified"`
	}

	UpdateUserRequest struct {
		Name     string `json:"name"`
		Password string `json:"password" validate:"omitempty,min=6"`
	}

	SendVerifyEmailRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ForgotPasswordRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ResetPasswordRequest struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=6"`
	}
)
