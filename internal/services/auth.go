package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos"
	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/apierr"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/ctxutil"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/dbctx"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

const minPasswordLength = 6

var (
	ErrTokenMissing  = errors.New("no token provided")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrTokenNoUser   = errors.New("user not found")
	errNoRequestData = errors.New("no request data found in context")
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

type RegisterUserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResult struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresAt    time.Time   `json:"expiresAt"`
	User         *types.User `json:"user"`
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterUserInput) (*AuthResult, error)
	LoginUser(ctx context.Context, email, password string) (*AuthResult, error)
	RefreshUser(ctx context.Context, refreshToken string) (*AuthResult, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	PruneExpiredTokens(ctx context.Context) (int64, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (as *authService) RegisterUser(ctx context.Context, in RegisterUserInput) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	password := in.Password

	if username == "" || email == "" || password == "" {
		return nil, apierr.Validation("All fields are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apierr.Validation("Please provide a valid email address")
	}
	if len(password) < minPasswordLength {
		return nil, apierr.Validation(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var result *AuthResult
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := as.userRepo.GetByEmails(dbc, []string{email})
		if err != nil {
			return fmt.Errorf("lookup user by email: %w", err)
		}
		if len(existing) > 0 {
			return apierr.Validation("User already exists")
		}
		taken, err := as.userRepo.GetByUsernames(dbc, []string{username})
		if err != nil {
			return fmt.Errorf("lookup user by username: %w", err)
		}
		if len(taken) > 0 {
			return apierr.Validation("Username already taken")
		}

		user := &types.User{ID: uuid.New(), Username: username, Email: email, Password: string(hashed)}
		if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		result, err = as.issueTokens(dbc, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("Admin registered", "user_id", result.User.ID)
	return result, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apierr.Validation("Email and password are required")
	}

	var result *AuthResult
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		users, err := as.userRepo.GetByEmails(dbc, []string{email})
		if err != nil {
			return fmt.Errorf("lookup user by email: %w", err)
		}
		if len(users) == 0 {
			return apierr.Unauthorized("User not found")
		}
		user := users[0]
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
			return apierr.Unauthorized("Invalid password")
		}
		result, err = as.issueTokens(dbc, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (*AuthResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.Validation("Refresh token is required")
	}

	var (
		result  *AuthResult
		expired bool
	)
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := as.userTokenRepo.GetByRefreshTokens(dbc, []string{refreshToken})
		if err != nil {
			return fmt.Errorf("fetch refresh token: %w", err)
		}
		if len(found) == 0 {
			return apierr.Unauthorized("Invalid refresh token")
		}
		existing := found[0]
		if existing.ExpiresAt.Before(as.now()) {
			if err := as.userTokenRepo.FullDeleteByTokens(dbc, []*types.UserToken{existing}); err != nil {
				return fmt.Errorf("delete expired refresh token: %w", err)
			}
			expired = true
			return nil
		}

		users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("load user for refresh: %w", err)
		}
		if len(users) == 0 {
			return apierr.Unauthorized("User not found")
		}
		if err := as.userTokenRepo.FullDeleteByTokens(dbc, []*types.UserToken{existing}); err != nil {
			return fmt.Errorf("remove old refresh token: %w", err)
		}
		result, err = as.issueTokens(dbc, users[0])
		return err
	})
	if err != nil {
		as.log.Warn("Token refresh failed", "error", err)
		return nil, err
	}
	if expired {
		return nil, apierr.Unauthorized("Refresh token expired")
	}
	return result, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		as.log.Warn("Logout without request data")
		return apierr.Unauthorized(errNoRequestData.Error())
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{rd.TokenString})
		if err != nil {
			return fmt.Errorf("find user token: %w", err)
		}
		if len(found) == 0 {
			return nil
		}
		if err := as.userTokenRepo.FullDeleteByTokens(dbc, found); err != nil {
			return fmt.Errorf("delete user token: %w", err)
		}
		return nil
	})
}

func (as *authService) issueTokens(dbc dbctx.Context, user *types.User) (*AuthResult, error) {
	access, err := as.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	userToken := &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: uuid.New().String(),
		ExpiresAt:    as.now().Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{userToken}); err != nil {
		return nil, fmt.Errorf("create user token: %w", err)
	}
	return &AuthResult{
		Token:        access,
		RefreshToken: userToken.RefreshToken,
		ExpiresAt:    as.now().Add(as.accessTTL),
		User:         user,
	}, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := as.now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken verifies the bearer token, checks it has not been
// revoked, and attaches the acting admin to ctx.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, ErrTokenMissing
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(as.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ctx, ErrTokenExpired
		}
		return ctx, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, ErrTokenInvalid
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}

	dbc := dbctx.Context{Ctx: ctx}
	found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("fetch user token by access token: %w", err)
	}
	if len(found) == 0 {
		return ctx, fmt.Errorf("%w: revoked", ErrTokenInvalid)
	}
	users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return ctx, fmt.Errorf("load token user: %w", err)
	}
	if len(users) == 0 {
		return ctx, ErrTokenNoUser
	}

	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) PruneExpiredTokens(ctx context.Context) (int64, error) {
	n, err := as.userTokenRepo.FullDeleteExpired(dbctx.Context{Ctx: ctx}, as.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		as.log.Info("Pruned expired user tokens", "count", n)
	}
	return n, nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
