package domain

import (
	"time"
)

// UserRole определяет роль пользователя в системе
type UserRole string

const (
	// UserRoleAdmin имеет доступ к панели администратора
	UserRoleAdmin UserRole = "ADMIN"
	// UserRoleUser - обычный пользователь приложения
	UserRoleUser UserRole = "USER"
)

// UserStatus определяет статус учетной записи
type UserStatus string

const (
	// UserStatusActive - учетная запись активна
	UserStatusActive UserStatus = "ACTIVE"
	// UserStatusSuspended - учетная запись заблокирована администратором
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User представляет пользователя, как его возвращает бэкенд
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"fullName"`
	UserName     *string    `json:"userName,omitempty"`
	ProfilePhoto *string    `json:"profilePhoto,omitempty"`
	Role         UserRole   `json:"role"`
	Status       UserStatus `json:"status"`
	IsPremium    bool       `json:"isPremium,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// IsAdmin проверяет, является ли пользователь администратором
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// IsAdmin проверяет роль владельца сессии
func (u SessionUser) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// ToSessionUser возвращает минимальный профиль для cookie userData
func (u *User) ToSessionUser() SessionUser {
	return SessionUser{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

// SessionUser - минимальный профиль администратора, хранимый на клиенте
type SessionUser struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
	Role     UserRole `json:"role"`
}

// UserCounts - агрегаты по всей коллекции пользователей, которые присылает бэкенд
type UserCounts struct {
	TotalUsers     int `json:"totalUsers"`
	ActiveUsers    int `json:"activeUsers"`
	SuspendedUsers int `json:"suspendedUsers"`
	PremiumUsers   int `json:"premiumUsers"`
}

// MoveStatus переносит одного пользователя из одной корзины статуса в другую
func (c *UserCounts) MoveStatus(from, to UserStatus) {
	if from == to {
		return
	}
	c.bump(from, -1)
	c.bump(to, 1)
}

func (c *UserCounts) bump(status UserStatus, delta int) {
	switch status {
	case UserStatusActive:
		c.ActiveUsers = max(0, c.ActiveUsers+delta)
	case UserStatusSuspended:
		c.SuspendedUsers = max(0, c.SuspendedUsers+delta)
	}
}

// UserStatusUpdateRequest представляет запрос на смену статуса пользователя
type UserStatusUpdateRequest struct {
	Status UserStatus `json:"status" validate:"required,user_status"`
}

// LoginRequest представляет данные для входа администратора
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse представляет ответ бэкенда при успешном входе
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// VerifyOTPRequest представляет запрос на подтверждение одноразового кода
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// ResendOTPRequest представляет запрос на повторную отправку кода
type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPasswordRequest представляет запрос на восстановление пароля
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UpdatePasswordRequest представляет установку нового пароля после подтверждения кода
type UpdatePasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// ChangePasswordRequest представляет запрос на изменение пароля текущего администратора
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}
