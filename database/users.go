package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"safestreet/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUserExists is returned when a signup reuses an email.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no account matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserService handles account registration, login and credential
// updates.
type UserService struct {
	db        *sql.DB
	jwtSecret []byte
}

// NewUserService creates a new user service instance
func NewUserService(db *sql.DB, jwtSecret string) *UserService {
	return &UserService{db: db, jwtSecret: []byte(jwtSecret)}
}

// CreateUser registers a new account with a bcrypt-hashed password.
func (s *UserService) CreateUser(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	exists, err := s.UserExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID := uuid.New().String()
	createdAt := time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, phone, occupation, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		userID, req.Name, req.Email, req.Phone, req.Occupation, string(passwordHash), createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &models.User{
		ID:         userID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Occupation: req.Occupation,
		CreatedAt:  createdAt,
	}, nil
}

// Login authenticates a user and returns a signed token plus the user
// the app shows on its dashboards.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (string, *models.User, error) {
	var user models.User
	var passwordHash string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, phone, occupation, password_hash, created_at FROM users WHERE email = ?",
		req.Email).Scan(&user.ID, &user.Name, &user.Email, &user.Phone, &user.Occupation, &passwordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return token, &user, nil
}

// UpdatePassword replaces the stored credential for the account.
func (s *UserService) UpdatePassword(ctx context.Context, email, newPassword string) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE email = ?",
		string(passwordHash), email)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UserExistsByEmail checks if a user exists by email address
func (s *UserService) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)", email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query users: %w", err)
	}
	return exists, nil
}

// ValidateToken validates a JWT token and returns the user ID
func (s *UserService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("invalid user id in token")
	}
	return userID, nil
}

// generateToken generates a JWT token for a user
func (s *UserService) generateToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(24 * time.Hour).Unix(),
		"iat":     now.Unix(),
	})
	return token.SignedString(s.jwtSecret)
}
