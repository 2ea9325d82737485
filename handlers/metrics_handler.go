package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coach-plus/backend/repositories"
)

// MetricsHandler exposes per-collection row counts as Prometheus
// gauges, guarded by a static bearer token.
type MetricsHandler struct {
	registry        *prometheus.Registry
	monitoringToken string
	gauges          map[string]prometheus.Gauge
	counters        map[string]func(ctx context.Context) (int, error)
}

func NewMetricsHandler(
	monitoringToken string,
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	membershipRepo repositories.MembershipRepository,
	eventRepo repositories.EventRepository,
	participationRepo repositories.ParticipationRepository,
	newsRepo repositories.NewsRepository,
	invitationRepo repositories.InvitationRepository,
	deviceRepo repositories.DeviceRepository,
	verificationRepo repositories.VerificationRepository,
) *MetricsHandler {
	h := &MetricsHandler{
		registry:        prometheus.NewRegistry(),
		monitoringToken: monitoringToken,
		gauges:          make(map[string]prometheus.Gauge),
		counters:        make(map[string]func(ctx context.Context) (int, error)),
	}

	register := func(name string, count func(ctx context.Context) (int, error)) {
		gauge := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coach_plus_" + name,
			Help: "Number of " + name + " records.",
		})
		h.registry.MustRegister(gauge)
		h.gauges[name] = gauge
		h.counters[name] = count
	}

	register("users", userRepo.Count)
	register("teams", teamRepo.Count)
	register("memberships", membershipRepo.Count)
	register("events", eventRepo.Count)
	register("participations", participationRepo.Count)
	register("news", newsRepo.Count)
	register("invitations", invitationRepo.Count)
	register("devices", deviceRepo.Count)
	register("verifications", verificationRepo.Count)

	return h
}

func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		unauthorizedResponse(w)
		return
	}

	for name, count := range h.counters {
		value, err := count(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to count collection",
				slog.String("collection", name), slog.Any("error", err))
			continue
		}
		h.gauges[name].Set(float64(value))
	}

	promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

func (h *MetricsHandler) authorized(r *http.Request) bool {
	if h.monitoringToken == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.monitoringToken)) == 1
}
