package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/aircrushin/mindful-moment/internal/user"
	"github.com/aircrushin/mindful-moment/internal/validation"
)

const invalidCredentials = "Invalid email or password"

type TokenIssuer interface {
	GenerateToken(userID uuid.UUID) (string, error)
}

type AuthService struct {
	db         *pgxpool.Pool
	tokens     TokenIssuer
	bcryptCost int
}

func NewAuthService(db *pgxpool.Pool, tokens TokenIssuer, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{db: db, tokens: tokens, bcryptCost: bcryptCost}
}

const userColumns = `id, email, password_hash, display_name, avatar_url, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the account and its empty streak row together and returns
// a session token for it.
func (s *AuthService) Register(ctx context.Context, req *user.RegisterRequest) (*user.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if req.DisplayName != nil {
		trimmed := strings.TrimSpace(*req.DisplayName)
		req.DisplayName = &trimmed
		if trimmed == "" {
			req.DisplayName = nil
		}
	}
	if fields := validation.Struct(req); fields != nil {
		return nil, newValidationError(fields)
	}
	// bcrypt rejects inputs over 72 bytes; the max tag counts runes.
	if len(req.Password) > 72 {
		return nil, newValidationError(map[string]string{"password": "must be at most 72 bytes"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	INSERT INTO users (email, password_hash, display_name)
	VALUES ($1, $2, $3)
	RETURNING ` + userColumns

	u, err := scanUser(tx.QueryRow(ctx, query, req.Email, string(hash), req.DisplayName))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &ConflictError{Message: "Email already registered"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO user_streaks (user_id) VALUES ($1)`, u.ID); err != nil {
		return nil, fmt.Errorf("failed to create streak row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	token, err := s.tokens.GenerateToken(u.ID)
	if err != nil {
		return nil, err
	}

	registrations.Inc()
	log.WithField("user_id", u.ID).Info("AuthService: registered new user")

	return &user.AuthResponse{User: u, Token: token}, nil
}

// Login answers unknown emails and wrong passwords identically.
func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest) (*user.AuthResponse, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, newValidationError(fields)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.db.QueryRow(ctx, query, normalizeEmail(req.Email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			loginFailures.Inc()
			return nil, &UnauthorizedError{Message: invalidCredentials}
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		loginFailures.Inc()
		return nil, &UnauthorizedError{Message: invalidCredentials}
	}

	token, err := s.tokens.GenerateToken(u.ID)
	if err != nil {
		return nil, err
	}

	return &user.AuthResponse{User: u, Token: token}, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "User"}
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpdateProfile changes only the fields present in req.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *user.UpdateProfileRequest) (*user.User, error) {
	if fields := validation.Struct(req); fields != nil {
		return nil, newValidationError(fields)
	}

	query := `
	UPDATE users
	SET display_name = COALESCE($2, display_name),
	    avatar_url = COALESCE($3, avatar_url),
	    updated_at = NOW()
	WHERE id = $1
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, userID, req.DisplayName, req.AvatarURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Resource: "User"}
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

// DeleteUser removes the account; progress, streak and devices cascade.
func (s *AuthService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Resource: "User"}
	}

	log.WithField("user_id", userID).Info("AuthService: deleted user")
	return nil
}
