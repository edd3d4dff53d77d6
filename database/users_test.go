package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"safestreet/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateUser(t *testing.T) {
	it(func() {
		s := NewUserService(db, "test-secret")

		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("INSERT INTO users").
			WithArgs(sqlmock.AnyArg(), "Ada", "ada@example.com", "555-0100", "Road Inspector",
				sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		user, err := s.CreateUser(context.Background(), models.SignupRequest{
			Name:       "Ada",
			Email:      "ada@example.com",
			Phone:      "555-0100",
			Occupation: "Road Inspector",
			Password:   "hunter22",
		})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if user.ID == "" {
			t.Error("empty user id")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	it(func() {
		s := NewUserService(db, "test-secret")

		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := s.CreateUser(context.Background(), models.SignupRequest{Email: "ada@example.com", Password: "x"})
		if !errors.Is(err, ErrUserExists) {
			t.Fatalf("err = %v, want ErrUserExists", err)
		}
	})
}

func TestLogin(t *testing.T) {
	it(func() {
		s := NewUserService(db, "test-secret")
		hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}

		mock.ExpectQuery("SELECT (.+) FROM users WHERE email = (.+)").
			WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "name", "email", "phone", "occupation", "password_hash", "created_at"}).
				AddRow("user-1", "Ada", "ada@example.com", "555-0100", "Road Inspector",
					string(hash), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

		token, user, err := s.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "hunter22"})
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if user.ID != "user-1" {
			t.Errorf("user id = %q", user.ID)
		}

		// The issued token round-trips through validation.
		userID, err := s.ValidateToken(token)
		if err != nil {
			t.Fatalf("ValidateToken: %v", err)
		}
		if userID != "user-1" {
			t.Errorf("token user id = %q", userID)
		}
	})
}

func TestLoginWrongPassword(t *testing.T) {
	it(func() {
		s := NewUserService(db, "test-secret")
		hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}

		mock.ExpectQuery("SELECT (.+) FROM users WHERE email = (.+)").
			WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "name", "email", "phone", "occupation", "password_hash", "created_at"}).
				AddRow("user-1", "Ada", "ada@example.com", "", "",
					string(hash), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

		_, _, loginErr := s.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "wrong"})
		if !errors.Is(loginErr, ErrInvalidCredentials) {
			t.Fatalf("err = %v, want ErrInvalidCredentials", loginErr)
		}
	})
}

func TestLoginUnknownEmail(t *testing.T) {
	it(func() {
		s := NewUserService(db, "test-secret")

		mock.ExpectQuery("SELECT (.+) FROM users WHERE email = (.+)").
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "occupation", "password_hash", "created_at"}))

		_, _, err := s.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "x"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("err = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestUpdatePassword(t *testing.T) {
	it(func() {
		s := NewUserService(db, "test-secret")

		mock.ExpectExec("UPDATE users SET password_hash = (.+) WHERE email = (.+)").
			WithArgs(sqlmock.AnyArg(), "ada@example.com").
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := s.UpdatePassword(context.Background(), "ada@example.com", "new-secret"); err != nil {
			t.Fatalf("UpdatePassword: %v", err)
		}
	})
}

func TestUpdatePasswordUnknownEmail(t *testing.T) {
	it(func() {
		s := NewUserService(db, "test-secret")

		mock.ExpectExec("UPDATE users SET password_hash = (.+) WHERE email = (.+)").
			WithArgs(sqlmock.AnyArg(), "nobody@example.com").
			WillReturnResult(sqlmock.NewResult(0, 0))

		if err := s.UpdatePassword(context.Background(), "nobody@example.com", "x"); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("err = %v, want ErrUserNotFound", err)
		}
	})
}

func TestValidateTokenRejectsForgedToken(t *testing.T) {
	it(func() {
		s := NewUserService(db, "test-secret")
		other := NewUserService(db, "other-secret")

		token, err := other.generateToken("user-1")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.ValidateToken(token); err == nil {
			t.Fatal("token signed with a different secret was accepted")
		}
	})
}
