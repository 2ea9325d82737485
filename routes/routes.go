package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/coach-plus/backend/handlers"
	"github.com/coach-plus/backend/middleware"
)

// SetupRoutes wires the REST surface. Paths are stable API; the mobile
// clients hardcode them.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	userHandler *handlers.UserHandler,
	teamHandler *handlers.TeamHandler,
	eventHandler *handlers.EventHandler,
	newsHandler *handlers.NewsHandler,
	membershipHandler *handlers.MembershipHandler,
	invitationHandler *handlers.InvitationHandler,
	metricsHandler *handlers.MetricsHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "x-access-token"},
		MaxAge:         300,
	}))

	router.Route("/users", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.Post("/verification/{token}", userHandler.VerifyEmail)
		r.Put("/password", userHandler.RequestNewPassword)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Get("/me", userHandler.GetMe)
			r.Put("/me/information", userHandler.UpdateInformation)
			r.Put("/me/image", userHandler.UpdateImage)
			r.Put("/me/password", userHandler.UpdatePassword)
			r.Post("/me/verification", userHandler.ResendVerification)
			r.Get("/{userID}/memberships", userHandler.GetUserMemberships)
			r.Post("/{userID}/devices", userHandler.UpsertDevice)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			// Static paths first so they are not swallowed by {teamID}.
			r.Get("/my", teamHandler.GetMyTeams)
			r.Post("/register", teamHandler.RegisterTeam)
			r.Post("/private/join/{token}", teamHandler.JoinPrivateTeam)
			r.Post("/public/join/{teamID}", teamHandler.JoinPublicTeam)

			r.Put("/{teamID}", teamHandler.EditTeam)
			r.Delete("/{teamID}", teamHandler.DeleteTeam)
			r.Get("/{teamID}/members", teamHandler.GetTeamMembers)
			r.Delete("/{teamID}/memberships", teamHandler.LeaveTeam)
			r.Post("/{teamID}/invite", teamHandler.Invite)

			r.Route("/{teamID}/events", func(r chi.Router) {
				r.Get("/", eventHandler.GetEvents)
				r.Post("/", eventHandler.CreateEvent)
				r.Get("/{eventID}", eventHandler.GetEvent)
				r.Put("/{eventID}", eventHandler.UpdateEvent)
				r.Delete("/{eventID}", eventHandler.DeleteEvent)
				r.Post("/{eventID}/reminder", eventHandler.SendReminder)
				r.Get("/{eventID}/participation", eventHandler.GetParticipations)
				r.Put("/{eventID}/participation/{userID}/willAttend", eventHandler.SetWillAttend)
				r.Put("/{eventID}/participation/{userID}/didAttend", eventHandler.SetDidAttend)
				r.Get("/{eventID}/news", newsHandler.GetNews)
				r.Post("/{eventID}/news", newsHandler.CreateNews)
				r.Delete("/{eventID}/news/{newsID}", newsHandler.DeleteNews)
			})
		})

		// Public-team lookup is unauthenticated.
		r.Get("/{teamID}", teamHandler.GetPublicTeam)
	})

	router.Route("/memberships", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/my", membershipHandler.GetMyMemberships)
		r.Get("/{membershipID}", membershipHandler.GetMembership)
		r.Put("/{membershipID}/role", membershipHandler.SetRole)
		r.Delete("/{membershipID}", membershipHandler.RemoveUserFromTeam)
	})

	router.Get("/invitations/{token}", invitationHandler.PreviewInvitation)

	router.Get("/metrics", metricsHandler.Metrics)
}
