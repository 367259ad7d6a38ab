/*
Package handler provides the chi routes of the chatlink HTTP API and the WebSocket upgrade.
*/
package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"

	"chatlink/internal/app/db"
	"chatlink/internal/pkg/auth/jwt"
	"chatlink/internal/pkg/errs"
	"chatlink/internal/pkg/limiter"
	"chatlink/internal/pkg/logx"
	"chatlink/internal/pkg/randx"
	"chatlink/internal/pkg/req"
	"chatlink/internal/pkg/resp"
)

// RefreshCookieName is the httpOnly cookie mirroring the refresh token.
const RefreshCookieName = "refresh_token"

var (
	usernameRegex = regexp.MustCompile(`^[a-z0-9_]{4,20}$`)
)

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// HandleRegister creates an account and signs it in.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input RegisterInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Username = strings.ToLower(strings.TrimSpace(input.Username))
		if !usernameRegex.MatchString(input.Username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		if !validPassword(input.Password) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		email := pgtype.Text{}
		if input.Email = strings.TrimSpace(input.Email); input.Email != "" {
			addr, err := mail.ParseAddress(input.Email)
			if err != nil || addr.Address != input.Email {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidEmail))
				return
			}
			email = pgtype.Text{String: strings.ToLower(input.Email), Valid: true}
		}

		name := strings.TrimSpace(input.Name)
		if name == "" {
			nickname, err := randx.UserNickname()
			if err != nil {
				nickname = "User_X"
			}
			name = nickname
		}
		if utf8.RuneCountInString(name) > 50 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		row, err := deps.DB.CreateUser(r.Context(), db.CreateUserParams{
			Username:     input.Username,
			Email:        email,
			Name:         name,
			PasswordHash: string(hashedPassword),
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				logx.Warn("registration conflict: username or email already exists", "username", input.Username)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user in database")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		respondSignedIn(w, r, deps, row)
	}
}

type LoginInput struct {
	// Login is a username or an email address.
	Login    string `json:"login"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and issues an access and refresh token pair.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if identity := jwt.GetPayloadFromContext(r); identity != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input LoginInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		login := strings.ToLower(strings.TrimSpace(input.Login))
		if login == "" || input.Password == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		row, err := deps.DB.GetUserByLogin(r.Context(), login)
		if err != nil {
			if !errors.Is(err, db.ErrNotFound) {
				logx.Error(err, "login: user lookup failed")
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
			logx.Warn("login: unknown account", "login", login)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "user_id", row.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		respondSignedIn(w, r, deps, row)
	}
}

type RefreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh exchanges a live refresh token for a new pair and retires the old one.
func HandleRefresh(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, customErr := refreshTokenFrom(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		claims, customErr := verifyRefreshToken(r.Context(), deps, token)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		retired, err := deps.DB.BlacklistRefreshToken(r.Context(), claims.Id)
		if err != nil {
			logx.Error(err, "refresh: failed to retire token", "user_id", claims.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if !retired {
			// Lost a race with another exchange of the same token.
			logx.Warn("refresh: token already used", "user_id", claims.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrRefreshTokenInvalid))
			return
		}

		row, err := deps.DB.GetUserByID(r.Context(), claims.ID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrRefreshTokenInvalid))
				return
			}
			logx.Error(err, "refresh: user lookup failed", "user_id", claims.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		respondSignedIn(w, r, deps, row)
	}
}

// HandleLogout blacklists the presented refresh token and clears its cookie.
// An unknown or already retired token still logs out.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, customErr := refreshTokenFrom(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		claims, err := jwt.ParseToken(token, deps.Config.JWTRefreshSecret)
		if err == nil && claims.Kind == jwt.KindRefresh && claims.Id != "" {
			if _, err := deps.DB.BlacklistRefreshToken(r.Context(), claims.Id); err != nil {
				logx.Error(err, "logout: failed to retire token", "user_id", claims.ID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:     RefreshCookieName,
			Value:    "",
			Path:     "/api/auth",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   !deps.Config.IsDevelopment(),
			SameSite: http.SameSiteLaxMode,
		})

		resp.RespondSuccess(w, r, nil)
	}
}

func validPassword(password string) bool {
	n := utf8.RuneCountInString(password)
	return n >= 6 && n <= 50
}

// refreshTokenFrom reads the refresh token from the cookie, falling back to a JSON body.
func refreshTokenFrom(r *http.Request) (string, *errs.CustomError) {
	if cookie, err := r.Cookie(RefreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	var input RefreshInput
	if customErr := req.BindJSON(r, &input); customErr != nil {
		return "", customErr
	}
	if input.RefreshToken == "" {
		return "", errs.NewError(errs.ErrRefreshTokenInvalid)
	}
	return input.RefreshToken, nil
}

func verifyRefreshToken(ctx context.Context, deps *AppDeps, token string) (*jwt.Payload, *errs.CustomError) {
	claims, err := jwt.ParseToken(token, deps.Config.JWTRefreshSecret)
	if err != nil || claims.Kind != jwt.KindRefresh || claims.Id == "" {
		return nil, errs.NewError(errs.ErrRefreshTokenInvalid)
	}

	stored, err := deps.DB.GetRefreshToken(ctx, claims.Id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, errs.NewError(errs.ErrRefreshTokenInvalid)
		}
		logx.Error(err, "refresh: token lookup failed")
		return nil, errs.NewError(errs.ErrUnknown)
	}

	if stored.IsBlacklisted || stored.UserID != claims.ID || time.Now().After(stored.ExpiresAt) {
		logx.Warn("refresh: retired or foreign token presented", "user_id", claims.ID, "blacklisted", stored.IsBlacklisted)
		return nil, errs.NewError(errs.ErrRefreshTokenInvalid)
	}

	return claims, nil
}

// respondSignedIn issues a token pair for row, persists the refresh token and writes the
// sign-in response.
func respondSignedIn(w http.ResponseWriter, r *http.Request, deps *AppDeps, row db.UserRow) {
	access, err := jwt.GenerateToken(&jwt.Payload{
		ID:       row.ID,
		Username: row.Username,
		Role:     row.Role,
		Kind:     jwt.KindAccess,
	}, deps.Config.JWTSecret, jwt.AccessExpiration)
	if err != nil {
		logx.Error(err, "access token generation failed", "user_id", row.ID)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return
	}

	refreshPayload := &jwt.Payload{
		ID:       row.ID,
		Username: row.Username,
		Role:     row.Role,
		Kind:     jwt.KindRefresh,
	}
	refreshPayload.StandardClaims.Id = randx.TokenID()

	refresh, err := jwt.GenerateToken(refreshPayload, deps.Config.JWTRefreshSecret, jwt.RefreshExpiration)
	if err != nil {
		logx.Error(err, "refresh token generation failed", "user_id", row.ID)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return
	}

	expiresAt := time.Unix(refreshPayload.ExpiresAt, 0)
	err = deps.DB.CreateRefreshToken(r.Context(), row.ID, refreshPayload.StandardClaims.Id, limiter.ClientIP(r), expiresAt)
	if err != nil {
		logx.Error(err, "refresh token not persisted", "user_id", row.ID)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refresh,
		Path:     "/api/auth",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   !deps.Config.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	})

	resp.RespondSuccess(w, r, map[string]any{
		"accessToken":  access,
		"refreshToken": refresh,
		"user":         deps.publicUser(row.ToUser()),
	})
}
