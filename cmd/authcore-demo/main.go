// Command authcore-demo runs the engine behind a small JSON API backed by
// the in-memory store. It exists to exercise the full surface end to end;
// a real deployment supplies its own PrincipalStore and Notifier.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"

	authcore "github.com/samudra-sahayak/authcore"
	"github.com/samudra-sahayak/authcore/memstore"
	"github.com/samudra-sahayak/authcore/middleware"
	"github.com/samudra-sahayak/authcore/otp"
)

type settings struct {
	addr          string
	accessSecret  string
	refreshSecret string
	redisAddr     string
	echoCodes     bool
}

func loadSettings() settings {
	k := koanf.New(".")

	if _, err := os.Stat(".env"); err == nil {
		if err := k.Load(file.Provider(".env"), dotenv.Parser()); err != nil {
			log.Fatalf("load .env: %v", err)
		}
	}
	if err := k.Load(env.Provider("AUTHCORE_", ".", nil), nil); err != nil {
		log.Fatalf("load environment: %v", err)
	}

	get := func(key, fallback string) string {
		if v := k.String("AUTHCORE_" + key); v != "" {
			return v
		}
		if v := k.String(key); v != "" {
			return v
		}
		return fallback
	}

	return settings{
		addr:          get("ADDR", ":8085"),
		accessSecret:  get("ACCESS_SECRET", ""),
		refreshSecret: get("REFRESH_SECRET", ""),
		redisAddr:     get("REDIS_ADDR", ""),
		echoCodes:     get("ECHO_CODES", "true") == "true",
	}
}

// logNotifier stands in for an SMTP or SMS gateway. Echoing codes is for
// local testing only.
type logNotifier struct {
	echo bool
}

func (n logNotifier) SendCode(_ context.Context, email, code string, purpose otp.Purpose) error {
	if n.echo {
		log.Printf("notify %s: %s code %s", email, purpose, code)
	} else {
		log.Printf("notify %s: %s code dispatched", email, purpose)
	}
	return nil
}

func main() {
	cfg := loadSettings()
	if cfg.accessSecret == "" || cfg.refreshSecret == "" {
		log.Fatal("AUTHCORE_ACCESS_SECRET and AUTHCORE_REFRESH_SECRET are required")
	}

	builder := authcore.New().
		WithSecrets([]byte(cfg.accessSecret), []byte(cfg.refreshSecret)).
		WithPrincipalStore(memstore.New()).
		WithNotifier(logNotifier{echo: cfg.echoCodes}).
		WithAuditSink(authcore.NewJSONWriterSink(os.Stdout))

	if cfg.redisAddr != "" {
		builder = builder.WithRedis(redis.NewClient(&redis.Options{Addr: cfg.redisAddr}))
	}

	engine, err := builder.Build()
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}
	defer engine.Close()

	srv := &server{engine: engine}

	r := mux.NewRouter()
	api := r.PathPrefix("/api/auth").Subrouter()
	api.HandleFunc("/register", srv.register).Methods(http.MethodPost)
	api.HandleFunc("/login", srv.login).Methods(http.MethodPost)
	api.HandleFunc("/guest", srv.guest).Methods(http.MethodPost)
	api.HandleFunc("/refresh", srv.refresh).Methods(http.MethodPost)
	api.HandleFunc("/logout", srv.logout).Methods(http.MethodPost)
	api.HandleFunc("/verify", srv.verify).Methods(http.MethodPost)
	api.HandleFunc("/verify/resend", srv.resendVerification).Methods(http.MethodPost)
	api.HandleFunc("/forgot-password", srv.forgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/reset-password", srv.resetPassword).Methods(http.MethodPost)
	api.Handle("/me", middleware.Guard(engine)(http.HandlerFunc(srv.me))).Methods(http.MethodGet)

	log.Printf("authcore demo listening on %s", cfg.addr)
	httpSrv := &http.Server{
		Addr:              cfg.addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Fatal(httpSrv.ListenAndServe())
}

type server struct {
	engine *authcore.Engine
}

func (s *server) ctx(r *http.Request) context.Context {
	return authcore.WithClientIP(r.Context(), middleware.ClientIP(r))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var rle *authcore.RateLimitError
	if errors.As(err, &rle) {
		w.Header().Set("Retry-After", strconv.Itoa(rle.RetryAfterSeconds()))
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, authcore.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, authcore.ErrAccountLocked):
		status = http.StatusLocked
	case errors.Is(err, authcore.ErrInvalidCredentials),
		errors.Is(err, authcore.ErrTokenExpired),
		errors.Is(err, authcore.ErrTokenInvalid):
		status = http.StatusUnauthorized
	case errors.Is(err, authcore.ErrVerificationRequired),
		errors.Is(err, authcore.ErrOfficialVerificationPending):
		status = http.StatusForbidden
	case errors.Is(err, authcore.ErrAccountExists),
		errors.Is(err, authcore.ErrAlreadyVerified):
		status = http.StatusConflict
	case errors.Is(err, authcore.ErrPrincipalNotFound):
		status = http.StatusNotFound
	case errors.Is(err, authcore.ErrCodeInvalidOrExpired),
		errors.Is(err, authcore.ErrInvalidIdentifier),
		errors.Is(err, authcore.ErrInvalidArgument),
		errors.Is(err, authcore.ErrPasswordPolicy):
		status = http.StatusBadRequest
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Never leak internals to the client.
		msg = "internal failure"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return false
	}
	return true
}

func principalJSON(p authcore.PrincipalSummary) map[string]any {
	out := map[string]any{
		"id":       p.ID,
		"fullName": p.FullName,
		"email":    p.Email,
		"role":     string(p.Role),
		"verified": p.Verified,
	}
	if p.Phone != "" {
		out["phone"] = p.Phone
	}
	if p.Role == authcore.RoleOfficial {
		out["officialVerified"] = p.OfficialVerified
	}
	if !p.LastLogin.IsZero() {
		out["lastLogin"] = p.LastLogin.UTC().Format(time.RFC3339)
	}
	return out
}

func (s *server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName     string `json:"fullName"`
		Email        string `json:"email"`
		Phone        string `json:"phone"`
		Password     string `json:"password"`
		Role         string `json:"role"`
		OfficialID   string `json:"officialId"`
		Organization string `json:"organization"`
	}
	if !decode(w, r, &req) {
		return
	}

	result, err := s.engine.Register(s.ctx(r), authcore.RegisterRequest{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		Role:         authcore.Role(req.Role),
		OfficialID:   req.OfficialID,
		Organization: req.Organization,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "verification code sent",
		"user":    principalJSON(result.Principal),
	})
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
		Remember   bool   `json:"rememberMe"`
	}
	if !decode(w, r, &req) {
		return
	}

	result, err := s.engine.Login(s.ctx(r), req.Identifier, req.Password, req.Remember)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user":         principalJSON(result.Principal),
	})
}

func (s *server) guest(w http.ResponseWriter, r *http.Request) {
	session, err := s.engine.StartGuestSession(s.ctx(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"guestToken": session.Token,
		"expiresIn":  session.ExpiresIn,
	})
}

func (s *server) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decode(w, r, &req) {
		return
	}

	result, err := s.engine.Refresh(s.ctx(r), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := s.engine.Logout(s.ctx(r), req.RefreshToken); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *server) verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &req) {
		return
	}

	summary, err := s.engine.ConfirmVerification(s.ctx(r), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "account verified",
		"user":    principalJSON(*summary),
	})
}

func (s *server) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := s.engine.ResendVerification(s.ctx(r), req.Identifier); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

func (s *server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := s.engine.RequestPasswordReset(s.ctx(r), req.Identifier); err != nil {
		writeError(w, err)
		return
	}
	// Identical response whether or not the account exists.
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "if the account exists, a reset code has been sent",
	})
}

func (s *server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string `json:"code"`
		NewPassword string `json:"newPassword"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := s.engine.ResetPassword(s.ctx(r), req.Code, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (s *server) me(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, authcore.ErrTokenInvalid)
		return
	}

	p, err := s.engine.PrincipalFromIdentity(r.Context(), ident)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": principalJSON(summaryOf(p))})
}

func summaryOf(p *authcore.Principal) authcore.PrincipalSummary {
	return authcore.PrincipalSummary{
		ID:               p.ID,
		FullName:         p.FullName,
		Email:            p.Email,
		Phone:            p.Phone,
		Role:             p.Role,
		Verified:         p.Verified,
		OfficialVerified: p.OfficialVerified,
		LastLogin:        p.LastLogin,
	}
}
