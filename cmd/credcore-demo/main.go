// Command credcore-demo runs a small HTTP login service on top of the
// credcore engine, with an in-memory user store seeded from the
// environment. It exists to exercise the engine end to end, not to be
// deployed.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/avheli/credcore"
	"github.com/avheli/credcore/password"
)

type settings struct {
	Addr      string `env:"ADDR" envDefault:":8080"`
	RedisAddr string `env:"REDIS_ADDR"`
	// TokenKey is the hex-encoded 32-byte session key. Required.
	TokenKey string `env:"TOKEN_KEY,required"`

	DemoEmail    string `env:"DEMO_EMAIL" envDefault:"demo@example.com"`
	DemoPassword string `env:"DEMO_PASSWORD" envDefault:"Demo-Passw0rd!Only"`
}

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	var cfg settings
	if err := env.Parse(&cfg); err != nil {
		log.Fatal("config", zap.Error(err))
	}
	key, err := hex.DecodeString(cfg.TokenKey)
	if err != nil {
		log.Fatal("TOKEN_KEY must be hex", zap.Error(err))
	}

	var engineCfg credcore.Config
	engineCfg.Token.Keys = [][]byte{key}
	engineCfg.Audit = credcore.AuditConfig{Enabled: true, BufferSize: 256, DropIfFull: true}
	engineCfg.Metrics = credcore.MetricsConfig{Enabled: true, EnableLatency: true}

	provider := newMemoryProvider()

	builder := credcore.New().
		WithConfig(engineCfg).
		WithUserProvider(provider).
		WithAuditSink(&zapSink{log: log.Named("audit")})
	if cfg.RedisAddr != "" {
		builder.WithRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	engine, err := builder.Build()
	if err != nil {
		log.Fatal("engine build", zap.Error(err))
	}
	defer engine.Close()

	if err := seedDemoUser(provider, cfg.DemoEmail, cfg.DemoPassword); err != nil {
		log.Fatal("seed demo user", zap.Error(err))
	}
	log.Info("demo user ready", zap.String("email", cfg.DemoEmail))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	s := &server{engine: engine, log: log}
	r.Post("/login", s.handleLogin)
	r.Post("/refresh", s.handleRefresh)
	r.Get("/session", s.handleSession)
	r.Get("/report", s.handleReport)
	r.Get("/metrics", s.handleMetrics)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serve", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

type server struct {
	engine *credcore.Engine
	log    *zap.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode,omitempty"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	res, err := s.engine.Authenticate(r.Context(), credcore.Credentials{
		Email:    req.Email,
		Password: req.Password,
		MFACode:  req.MFACode,
	}, credcore.ClientInfo{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"accessToken":  res.AccessToken,
			"refreshToken": res.RefreshToken,
		})
	case errors.Is(err, credcore.ErrMFARequired):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"requiresMFA": true})
	case errors.Is(err, credcore.ErrAccountLocked):
		var locked *credcore.AccountLockedError
		retry := 0
		if errors.As(err, &locked) {
			retry = locked.RemainingSeconds
		}
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":             "account locked",
			"retryAfterSeconds": retry,
		})
	case errors.Is(err, credcore.ErrInvalidCredentials), errors.Is(err, credcore.ErrInvalidMFACode):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		s.log.Error("login", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}
	access, err := s.engine.RefreshSession(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accessToken": access})
}

func (s *server) handleSession(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	payload, err := s.engine.ValidateSessionToken(raw)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"userId": payload.UserID,
		"role":   payload.Role,
	})
}

func (s *server) handleReport(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.SecurityReport())
}

func (s *server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.MetricsSnapshot().Counters)
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// zapSink forwards engine security events to structured logs.
type zapSink struct {
	log *zap.Logger
}

func (s *zapSink) Emit(_ context.Context, event credcore.SecurityEvent) {
	s.log.Info(event.Type,
		zap.Time("timestamp", event.Timestamp),
		zap.String("userId", event.UserID),
		zap.String("email", event.Email),
		zap.String("ip", event.IP),
		zap.Bool("success", event.Success),
		zap.String("error", event.Error),
		zap.Any("metadata", event.Metadata),
	)
}

// memoryProvider is the demo's user store.
type memoryProvider struct {
	mu    sync.RWMutex
	users map[string]*credcore.UserRecord
}

func newMemoryProvider() *memoryProvider {
	return &memoryProvider{users: make(map[string]*credcore.UserRecord)}
}

func (p *memoryProvider) FindByEmail(_ context.Context, email string) (*credcore.UserRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, u := range p.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, credcore.ErrUserNotFound
}

func (p *memoryProvider) FindByID(_ context.Context, id string) (*credcore.UserRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if u, ok := p.users[id]; ok {
		return u, nil
	}
	return nil, credcore.ErrUserNotFound
}

func (p *memoryProvider) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := p.users[id]; ok {
		u.LastLoginAt = at
	}
	return nil
}

func (p *memoryProvider) UpdatePasswordHash(_ context.Context, id, hash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := p.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (p *memoryProvider) UpdateMFA(_ context.Context, id string, enabled bool, secret string, hashes [][32]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if u, ok := p.users[id]; ok {
		u.MFAEnabled = enabled
		u.MFASecret = secret
		u.BackupCodeHashes = hashes
	}
	return nil
}

func (p *memoryProvider) put(u *credcore.UserRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[u.ID] = u
}

func seedDemoUser(provider *memoryProvider, email, pw string) error {
	mgr, err := password.NewManager(password.DefaultPolicy(), password.HashConfig{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		return err
	}
	hash, err := mgr.Hash(pw, []string{email})
	if err != nil {
		return err
	}
	provider.put(&credcore.UserRecord{
		ID:           "demo-user",
		Email:        email,
		Role:         "user",
		PasswordHash: hash,
	})
	return nil
}
