package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"carecompanion/internal/adapter/cache"
	"carecompanion/internal/adapter/gemini"
	"carecompanion/internal/adapter/googlefit"
	adapthttp "carecompanion/internal/adapter/http"
	"carecompanion/internal/adapter/memory"
	"carecompanion/internal/adapter/postgres"
	"carecompanion/internal/app"
	"carecompanion/internal/config"
	"carecompanion/internal/domain"
	"carecompanion/internal/logging"
)

func main() {
	var envFile string
	rootCmd := &cobra.Command{
		Use:           "carecompanion",
		Short:         "Patient monitoring and risk scoring API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file")

	rootCmd.AddCommand(serveCmd(&envFile))
	rootCmd.AddCommand(migrateCmd(&envFile))
	rootCmd.AddCommand(scoreCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFormat, "carecompanion")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return runServer(cmd.Context(), cfg, log)
		},
	}
}

func migrateCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}
	run := func(fn func(string) error, done string) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			if err := fn(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println(done)
			return nil
		}
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE:  run(postgres.MigrateUp, "Migrations applied."),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE:  run(postgres.MigrateDown, "Migrations rolled back."),
	})
	return cmd
}

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score [file]",
		Short: "Score one JSON vital record read from file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			var rec domain.VitalRecord
			if err := json.NewDecoder(in).Decode(&rec); err != nil {
				return fmt.Errorf("decode vital record: %w", err)
			}
			res := domain.NewScorer(domain.DefaultScoringConfig()).Compute([]domain.VitalRecord{rec})
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}

// stores bundles the repositories backing the services.
type stores struct {
	users        domain.UserRepository
	vitals       domain.VitalRepository
	risks        domain.RiskAssessmentRepository
	appointments domain.AppointmentRepository
	links        domain.FitnessLinkRepository
	chats        domain.ChatRepository
	close        func() error
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	var s stores
	switch cfg.Store {
	case config.StoreMemory:
		db := memory.New()
		s = stores{users: db, vitals: db, risks: db, appointments: db, links: db, chats: db, close: func() error { return nil }}
		log.Warn("using in-memory store; data is lost on restart")
	default:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		s = stores{users: db, vitals: db, risks: db, appointments: db, links: db, chats: db, close: db.Close}
	}

	if cfg.RedisURL != "" {
		kv, err := cache.NewRedisKV(ctx, cfg.RedisURL)
		if err != nil {
			_ = s.close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		s.risks = cache.NewRiskCache(s.risks, kv, cfg.RiskCacheTTL, log)
		closeDB := s.close
		s.close = func() error { return errors.Join(kv.Close(), closeDB()) }
		log.Info("latest risk cache enabled", zap.Duration("ttl", cfg.RiskCacheTTL))
	}
	return &s, nil
}

func runServer(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	secret := cfg.JWTSecret
	if secret == "" {
		secret = randomSecret()
		log.Warn("JWT_SECRET not set; using an ephemeral secret, tokens will not survive a restart")
	}
	tokens := app.NewTokenIssuer(secret, cfg.TokenTTL())

	risk := app.NewRiskService(st.vitals, st.risks, domain.NewScorer(domain.DefaultScoringConfig()), log)

	var provider app.FitnessProvider
	if cfg.FitnessEnabled() {
		provider = googlefit.New(googlefit.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			BaseURL:      cfg.FitnessBaseURL,
		}, log)
	} else {
		log.Info("google fit integration disabled")
	}

	var model app.ChatModel
	if cfg.ChatEnabled() {
		model = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, log)
	} else {
		log.Info("chat assistant disabled")
	}

	oidcCfg, err := setupOIDC(ctx, cfg)
	if err != nil {
		return err
	}

	svc := adapthttp.Services{
		Auth:         app.NewAuthService(st.users, tokens, log),
		Vitals:       app.NewVitalService(st.vitals, risk, log),
		Risk:         risk,
		Doctor:       app.NewDoctorService(st.users, st.vitals, risk),
		Appointments: app.NewAppointmentService(st.users, st.appointments, log),
		Fitness:      app.NewFitnessService(provider, st.links, tokens, log),
		Chat:         app.NewChatService(model, st.chats, log),
	}
	h := adapthttp.New(svc, adapthttp.Options{
		CORSOrigins: cfg.CORSOrigins,
		FrontendURL: cfg.FrontendURL,
		OIDC:        oidcCfg,
	}, log).Handler()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func setupOIDC(ctx context.Context, cfg *config.Config) (adapthttp.OIDCConfig, error) {
	if !cfg.SSOEnabled() {
		return adapthttp.OIDCConfig{}, nil
	}
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, fmt.Errorf("oidc provider: %w", err)
	}
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
