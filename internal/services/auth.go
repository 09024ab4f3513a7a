package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/PatelJay-25/SlotSwapper-Project/internal/apierr"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/logger"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/normalization"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/repos"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/requestdata"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/types"
	"github.com/PatelJay-25/SlotSwapper-Project/internal/utils"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

// AuthService owns credentials and token issuance. Everything downstream of
// the auth middleware only ever sees the verified user id in requestdata.
type AuthService interface {
	Signup(ctx context.Context, user *types.User) (string, *types.User, error)
	Login(ctx context.Context, email, password string) (string, *types.User, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
	}
}

func (as *authService) Signup(ctx context.Context, user *types.User) (string, *types.User, error) {
	utils.NormalizeUserFields(user)
	if vErr := utils.SignupInputValidation(ctx, as.userRepo, user); vErr != nil {
		return "", nil, vErr
	}
	if hErr := utils.HashPassword(user); hErr != nil {
		return "", nil, hErr
	}

	var accessToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user.ID = uuid.New()
		if _, ucErr := as.userRepo.Create(ctx, tx, []*types.User{user}); ucErr != nil {
			return fmt.Errorf("failed to create user: %w", ucErr)
		}
		tok, issueErr := as.issueToken(ctx, tx, user)
		if issueErr != nil {
			return issueErr
		}
		accessToken = tok
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return accessToken, user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, *types.User, error) {
	email = normalization.ParseInputString(email)
	if vErr := utils.LoginInputValidation(email, password); vErr != nil {
		return "", nil, vErr
	}

	users, usErr := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if usErr != nil {
		return "", nil, fmt.Errorf("error retrieving user by email: %w", usErr)
	}
	if len(users) == 0 {
		return "", nil, apierr.Newf(http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
	}

	user := users[0]
	if hErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); hErr != nil {
		return "", nil, apierr.Newf(http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
	}

	var accessToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tok, issueErr := as.issueToken(ctx, tx, user)
		if issueErr != nil {
			return issueErr
		}
		accessToken = tok
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return accessToken, user, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.Newf(http.StatusUnauthorized, "NO_SESSION", "no session token in context")
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		foundTokens, ftErr := as.userTokenRepo.GetByAccessTokens(ctx, tx, []string{rd.TokenString})
		if ftErr != nil {
			return fmt.Errorf("error finding user token: %w", ftErr)
		}
		if len(foundTokens) == 0 {
			return nil
		}
		if tdErr := as.userTokenRepo.FullDeleteByTokens(ctx, tx, foundTokens); tdErr != nil {
			return fmt.Errorf("error deleting user token: %w", tdErr)
		}
		return nil
	})
}

func (as *authService) issueToken(ctx context.Context, tx *gorm.DB, user *types.User) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	userToken := types.UserToken{
		ID:          uuid.New(),
		UserID:      user.ID,
		AccessToken: signed,
		ExpiresAt:   time.Now().Add(as.accessTTL),
	}
	if _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&userToken}); cErr != nil {
		return "", fmt.Errorf("failed to persist user token: %w", cErr)
	}
	return signed, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("empty token")
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", err)
	}
	foundTokens, ftErr := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
	if ftErr != nil {
		return ctx, fmt.Errorf("failed to look up session token: %w", ftErr)
	}
	if len(foundTokens) == 0 {
		return ctx, fmt.Errorf("session revoked")
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
