package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	authmw "github.com/lingvistik/lingvistik-server/internal/auth/middleware"
	"github.com/lingvistik/lingvistik-server/internal/config"
)

// Google sign-in: the mobile app authenticates with Google, the server
// exchanges the code, verifies the id_token, upserts the user and mints its
// own JWT.

// GET /auth/google/login → redirect to Google OAuth consent.
func GoogleLoginHandler(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := fmt.Sprintf("s-%d", time.Now().UnixNano())
		http.SetCookie(w, &http.Cookie{
			Name:     "lv_oauth_state",
			Value:    state,
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
			Expires:  time.Now().Add(10 * time.Minute),
		})

		q := url.Values{}
		q.Set("client_id", cfg.GoogleClientID)
		q.Set("redirect_uri", cfg.GoogleRedirectURI)
		q.Set("response_type", "code")
		q.Set("scope", "openid email profile")
		q.Set("state", state)
		http.Redirect(w, r, "https://accounts.google.com/o/oauth2/v2/auth?"+q.Encode(), http.StatusFound)
	}
}

// GET /auth/google/callback → exchange code, verify id_token, upsert user,
// return the internal JWT.
func GoogleCallbackHandler(a *authmw.AuthService, db *sql.DB, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("lv_oauth_state"); err != nil || c.Value == "" ||
			c.Value != r.URL.Query().Get("state") {
			http.Error(w, "bad state", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		ti, err := exchangeAndVerify(code, cfg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		role := "student"
		username := ti.Email
		userID := "google|" + ti.Sub
		var existingID, existingRole string
		err = db.QueryRowContext(r.Context(),
			`SELECT id, role FROM users WHERE username=$1`, username).Scan(&existingID, &existingRole)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := db.ExecContext(r.Context(),
				`INSERT INTO users (id, username, role, display_name, created_at) VALUES ($1,$2,$3,$4,$5)`,
				userID, username, role, ti.Name, time.Now().Unix()); err != nil {
				http.Error(w, "login failed", http.StatusInternalServerError)
				return
			}
		case err == nil:
			if existingRole != "" {
				role = existingRole
			}
			userID = existingID
		default:
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}

		tok, err := a.IssueJWT(userID, role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "lv_oauth_state", Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1})
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok})
	}
}

type googleTokenInfo struct {
	Iss   string `json:"iss"`
	Aud   string `json:"aud"`
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func exchangeAndVerify(code string, cfg config.Config) (googleTokenInfo, error) {
	var ti googleTokenInfo

	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", cfg.GoogleClientID)
	form.Set("client_secret", cfg.GoogleClientSecret)
	form.Set("redirect_uri", cfg.GoogleRedirectURI)
	form.Set("grant_type", "authorization_code")

	resp, err := http.PostForm("https://oauth2.googleapis.com/token", form)
	if err != nil {
		return ti, errors.New("token exchange error")
	}
	defer resp.Body.Close()
	var tr struct {
		IDToken string `json:"id_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil || tr.IDToken == "" {
		return ti, errors.New("bad token response")
	}

	// Server-side verification through Google's tokeninfo endpoint.
	tiResp, err := http.Get("https://oauth2.googleapis.com/tokeninfo?id_token=" + url.QueryEscape(tr.IDToken))
	if err != nil {
		return ti, errors.New("tokeninfo fetch error")
	}
	defer tiResp.Body.Close()
	if err := json.NewDecoder(tiResp.Body).Decode(&ti); err != nil {
		return ti, errors.New("tokeninfo parse error")
	}
	if ti.Aud != cfg.GoogleClientID {
		return ti, errors.New("invalid aud")
	}
	if ti.Iss != "accounts.google.com" && ti.Iss != "https://accounts.google.com" {
		return ti, errors.New("invalid iss")
	}
	return ti, nil
}
