package adapthttp

import (
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"carecompanion/internal/app"
	"carecompanion/internal/domain"
)

// Services bundles the application services the adapter routes to.
type Services struct {
	Auth         *app.AuthService
	Vitals       *app.VitalService
	Risk         *app.RiskService
	Doctor       *app.DoctorService
	Appointments *app.AppointmentService
	Fitness      *app.FitnessService
	Chat         *app.ChatService
}

// OIDCConfig holds the optional single sign-on provider.
type OIDCConfig struct {
	Enabled      bool
	OAuth2Config *oauth2.Config
	Provider     *oidc.Provider
}

// Options configures the adapter's outer behaviour.
type Options struct {
	CORSOrigins []string
	FrontendURL string
	OIDC        OIDCConfig
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	svc         Services
	cors        []string
	frontendURL string
	oidcConfig  OIDCConfig
	log         *zap.Logger
	registry    *prometheus.Registry
	metrics     *metrics
}

// New creates a Server wired to the given application services. Risk
// assessments are counted on the server's metrics registry.
func New(svc Services, opts Options, log *zap.Logger) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		svc:         svc,
		cors:        opts.CORSOrigins,
		frontendURL: opts.FrontendURL,
		oidcConfig:  opts.OIDC,
		log:         log.Named("http"),
		registry:    reg,
		metrics:     newMetrics(reg),
	}
	if svc.Risk != nil {
		svc.Risk.OnScore(s.metrics.observeRisk)
	}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	handle(api, "/api", "/{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "CareCompanion API live"})
	})
	handle(api, "/api", "/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	handle(api, "/api", "/config", s.handleConfig)

	handle(api, "/api", "/auth/register", s.handleRegister)
	handle(api, "/api", "/auth/login", s.handleLogin)
	handle(api, "/api", "/auth/me", s.requireUser(s.handleMe))
	handle(api, "/api", "/auth/sso/login", s.handleSSOLogin)
	handle(api, "/api", "/auth/sso/callback", s.handleSSOCallback)

	handle(api, "/api", "/vitals", s.requireUser(s.handleVitals))
	handle(api, "/api", "/risk-score/latest", s.requireUser(s.handleRiskLatest))
	handle(api, "/api", "/risk-score/recompute", s.requireUser(s.handleRiskRecompute))
	handle(api, "/api", "/risk-score/history", s.requireUser(s.handleRiskHistory))

	handle(api, "/api", "/doctor/patients", s.requireUser(s.handleDoctorPatients))
	handle(api, "/api", "/doctor/patients/{id}/vitals", s.requireUser(s.handleDoctorPatientVitals))
	handle(api, "/api", "/doctor/patients/{id}/vitals/export", s.requireUser(s.handleDoctorVitalsExport))
	handle(api, "/api", "/doctor/patients/{id}/risk-score", s.requireUser(s.handleDoctorPatientRisk))

	handle(api, "/api", "/appointments", s.requireUser(s.handleAppointments))
	handle(api, "/api", "/appointments/{id}/status", s.requireUser(s.handleAppointmentStatus))

	handle(api, "/api", "/fitness/connect", s.requireUser(s.handleFitnessConnect))
	handle(api, "/api", "/fitness/callback", s.handleFitnessCallback)
	handle(api, "/api", "/vitals/steps", s.requireUser(s.fitnessProxy(domain.MetricSteps, "steps")))
	handle(api, "/api", "/vitals/heartrate", s.requireUser(s.fitnessProxy(domain.MetricHeartRate, "heartRate")))
	handle(api, "/api", "/vitals/sleep", s.requireUser(s.fitnessProxy(domain.MetricSleep, "sleep")))
	handle(api, "/api", "/vitals/oxygen", s.requireUser(s.fitnessProxy(domain.MetricOxygen, "oxygen")))

	handle(api, "/api", "/chat", s.requireUser(s.handleChat))
	handle(api, "/api", "/chat/history", s.requireUser(s.handleChatHistory))

	api.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	})

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", withNoCache(api)))
	handle(root, "", "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP)

	return s.withCORS(s.loggingMiddleware(s.metricsMiddleware(root)))
}
