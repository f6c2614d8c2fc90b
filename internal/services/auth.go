package services

import (
	"errors"
	"time"

	"github.com/HiroshigeAoki/slack-game-master/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// StaffAuthService issues and validates JWTs for the operator dashboard.
type StaffAuthService struct {
	db        *gorm.DB
	jwtSecret []byte
}

func NewStaffAuthService(db *gorm.DB, jwtSecret string) *StaffAuthService {
	return &StaffAuthService{db: db, jwtSecret: []byte(jwtSecret)}
}

func (s *StaffAuthService) Register(username, password string) (string, error) {
	var existing models.StaffAccount
	if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
		return "", errors.New("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	account := models.StaffAccount{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.db.Create(&account).Error; err != nil {
		return "", err
	}

	return s.GenerateToken(account.ID)
}

func (s *StaffAuthService) Login(username, password string) (string, error) {
	var account models.StaffAccount
	if err := s.db.Where("username = ?", username).First(&account).Error; err != nil {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	return s.GenerateToken(account.ID)
}

func (s *StaffAuthService) GenerateToken(staffID uint) (string, error) {
	claims := jwt.MapClaims{
		"staff_id": staffID,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *StaffAuthService) ValidateToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}

	staffIDFloat, ok := claims["staff_id"].(float64)
	if !ok {
		return 0, errors.New("invalid staff_id in token")
	}

	return uint(staffIDFloat), nil
}
