package models

import (
	"time"

	"github.com/google/uuid"
)

// User представляет владельца аккаунта — фрилансера, который создаёт и
// отправляет предложения.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Name         string     `db:"name" json:"name"`
	Company      *string    `db:"company" json:"company,omitempty"`
	Plan         string     `db:"plan" json:"plan"`
	BrandColor   *string    `db:"brand_color" json:"brand_color,omitempty"`
	LogoPath     *string    `db:"logo_path" json:"logo_path,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
}

// Branding — публичные поля оформления, которые разрешено показывать
// на клиентской странице предложения.
type Branding struct {
	Name       string  `json:"name"`
	Company    *string `json:"company,omitempty"`
	BrandColor *string `json:"brand_color,omitempty"`
	LogoPath   *string `json:"logo_path,omitempty"`
}

// PublicBranding возвращает allow-list полей оформления владельца.
func (u *User) PublicBranding() Branding {
	return Branding{
		Name:       u.Name,
		Company:    u.Company,
		BrandColor: u.BrandColor,
		LogoPath:   u.LogoPath,
	}
}
