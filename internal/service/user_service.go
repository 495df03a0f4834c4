package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type RegisterRequest struct {
	Nom        string `json:"nom" binding:"required"`
	Entreprise string `json:"entreprise"`
	SIRET      string `json:"siret"`
	Email      string `json:"email" binding:"required,email"`
	Telephone  string `json:"telephone"`
	Adresse    string `json:"adresse"`
	Password   string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Nom        *string `json:"nom"`
	Entreprise *string `json:"entreprise"`
	SIRET      *string `json:"siret"`
	Telephone  *string `json:"telephone"`
	Adresse    *string `json:"adresse"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type UserResponse struct {
	ID         string `json:"id"`
	Nom        string `json:"nom"`
	Entreprise string `json:"entreprise"`
	SIRET      string `json:"siret"`
	Email      string `json:"email"`
	Telephone  string `json:"telephone"`
	Adresse    string `json:"adresse"`
	CreatedAt  string `json:"created_at"`
}

// --- Interface ---

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	GetProfile(ctx context.Context, userID string) (*UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*UserResponse, error)
}

type userService struct {
	repo      repository.UserRepository
	jwtSecret []byte
}

func NewUserService(repo repository.UserRepository, jwtSecret []byte) UserService {
	return &userService{repo: repo, jwtSecret: jwtSecret}
}

// --- Implementation ---

func (s *userService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email deja utilise", ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hachage mot de passe: %w", err)
	}

	user := model.User{
		Nom:        req.Nom,
		Entreprise: req.Entreprise,
		SIRET:      req.SIRET,
		Email:      req.Email,
		Telephone:  req.Telephone,
		Adresse:    req.Adresse,
		Password:   string(hashed),
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, fmt.Errorf("creation compte: %w", err)
	}

	resp := toUserResponse(&user)
	return &resp, nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: identifiants incorrects", ErrValidation)
		}
		return nil, fmt.Errorf("recherche compte: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: identifiants incorrects", ErrValidation)
	}

	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("signature token: %w", err)
	}

	return &TokenResponse{Token: token}, nil
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*UserResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: identifiant utilisateur invalide", ErrValidation)
	}
	user, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: compte", ErrNotFound)
		}
		return nil, fmt.Errorf("recherche compte: %w", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*UserResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: identifiant utilisateur invalide", ErrValidation)
	}
	user, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: compte", ErrNotFound)
		}
		return nil, fmt.Errorf("recherche compte: %w", err)
	}

	if req.Nom != nil {
		user.Nom = *req.Nom
	}
	if req.Entreprise != nil {
		user.Entreprise = *req.Entreprise
	}
	if req.SIRET != nil {
		user.SIRET = *req.SIRET
	}
	if req.Telephone != nil {
		user.Telephone = *req.Telephone
	}
	if req.Adresse != nil {
		user.Adresse = *req.Adresse
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("mise a jour profil: %w", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// --- Mapping ---

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:         u.ID.String(),
		Nom:        u.Nom,
		Entreprise: u.Entreprise,
		SIRET:      u.SIRET,
		Email:      u.Email,
		Telephone:  u.Telephone,
		Adresse:    u.Adresse,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
	}
}
