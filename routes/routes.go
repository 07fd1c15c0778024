package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/match-archive/docs"
	"github.com/Dosada05/match-archive/handlers"
	"github.com/Dosada05/match-archive/metrics"
	"github.com/Dosada05/match-archive/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers собирает все HTTP-обработчики приложения.
type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Team         *handlers.TeamHandler
	Venue        *handlers.VenueHandler
	Match        *handlers.MatchHandler
	Invite       *handlers.InviteHandler
	Notification *handlers.NotificationHandler
	Merge        *handlers.MergeHandler
	Dashboard    *handlers.DashboardHandler
	Page         *handlers.PageHandler
	WebSocket    *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	AuthLimiter    *middleware.RateLimiter
	Logger         *slog.Logger
}

func SetupRoutes(r chi.Router, h Handlers, opts Options) {
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/api-docs/openapi.json", docs.ServeOpenAPI)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/api-docs/openapi.json")))

	// Публичные страницы и websocket (токен в query).
	r.Get("/teams/{teamID}/archive", h.Page.TeamArchive)
	r.Get("/ws/notifications", h.WebSocket.ServeNotifications)

	authenticate := middleware.Authenticate(opts.JWTSecret)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))

		r.Route("/auth", func(r chi.Router) {
			if opts.AuthLimiter != nil {
				r.Use(opts.AuthLimiter.Middleware)
			}
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Get("/confirm", h.Auth.ConfirmEmail)
			r.Post("/forgot-password", h.Auth.ForgotPassword)
			r.Post("/reset-password", h.Auth.ResetPassword)
		})

		r.Get("/invites/{token}", h.Invite.GetInviteByToken)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", h.User.GetMe)
				r.Patch("/", h.User.UpdateMe)
				r.Post("/onboarding", h.User.CompleteOnboarding)
				r.Post("/avatar", h.User.UploadAvatar)
				r.Get("/dashboard", h.Dashboard.Dashboard)
				r.Get("/teams", h.Team.ListMyTeams)
				r.Get("/record-merges", h.Merge.ListMyRecordMerges)
			})

			r.Route("/users/{userID}", func(r chi.Router) {
				r.Get("/", h.User.GetProfile)
				r.Get("/stats", h.Dashboard.UserStats)
			})

			r.Post("/invites/{token}/accept", h.Invite.AcceptInvite)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notification.List)
				r.Get("/unread-count", h.Notification.UnreadCount)
				r.Post("/read-all", h.Notification.MarkAllRead)
				r.Post("/{notificationID}/read", h.Notification.MarkRead)
			})

			r.Post("/teams", h.Team.CreateTeam)
			r.Route("/teams/{teamID}", func(r chi.Router) {
				r.Get("/", h.Team.GetTeam)
				r.Patch("/", h.Team.UpdateTeam)
				r.Delete("/", h.Team.DeleteTeam)
				r.Post("/emblem", h.Team.UploadEmblem)
				r.Post("/leave", h.Team.LeaveTeam)
				r.Get("/stats", h.Dashboard.TeamStats)

				r.Route("/members", func(r chi.Router) {
					r.Get("/", h.Team.ListMembers)
					r.Post("/guests", h.Team.AddGuest)
					r.Route("/{memberID}", func(r chi.Router) {
						r.Patch("/", h.Team.UpdateMember)
						r.Delete("/", h.Team.RemoveMember)
						r.Put("/role", h.Team.ChangeRole)
						r.Post("/transfer-ownership", h.Team.TransferOwnership)
						r.Post("/approve", h.Team.ApproveMember)
						r.Post("/reject", h.Team.RejectMember)

						r.Post("/merge-offer", h.Merge.CreateRecordOffer)
						r.Post("/merge-claim", h.Merge.CreateRecordClaim)
						r.Post("/merge-direct", h.Merge.DirectMerge)
					})
				})

				r.Route("/invite", func(r chi.Router) {
					r.Get("/", h.Invite.GetTeamInvite)
					r.Post("/", h.Invite.CreateOrRenewInvite)
					r.Delete("/", h.Invite.RevokeInvite)
					r.Post("/email", h.Invite.SendInviteByEmail)
				})

				r.Route("/venues", func(r chi.Router) {
					r.Get("/", h.Venue.ListVenues)
					r.Post("/", h.Venue.CreateVenue)
					r.Get("/{venueID}", h.Venue.GetVenue)
					r.Put("/{venueID}", h.Venue.UpdateVenue)
					r.Delete("/{venueID}", h.Venue.DeleteVenue)
				})

				r.Get("/matches", h.Match.ListMatches)
				r.Post("/matches", h.Match.CreateMatch)

				r.Get("/record-merges", h.Merge.ListTeamRecordMerges)
				r.Get("/team-merges", h.Merge.ListTeamMerges)
				r.Post("/team-merges", h.Merge.CreateTeamMerge)
			})

			r.Route("/matches/{matchID}", func(r chi.Router) {
				r.Get("/", h.Match.GetMatch)
				r.Patch("/", h.Match.UpdateMatch)
				r.Delete("/", h.Match.DeleteMatch)
				r.Post("/cancel", h.Match.CancelMatch)
				r.Put("/result", h.Match.RecordResult)
				r.Get("/attendance", h.Match.ListAttendance)
				r.Put("/attendance", h.Match.SetAttendance)
				r.Get("/records", h.Match.ListRecords)
				r.Put("/records", h.Match.SaveRecords)
			})

			r.Route("/record-merges/{requestID}", func(r chi.Router) {
				r.Post("/approve", h.Merge.ResolveRecordMerge("approve"))
				r.Post("/reject", h.Merge.ResolveRecordMerge("reject"))
				r.Post("/cancel", h.Merge.ResolveRecordMerge("cancel"))
			})

			r.Route("/team-merges/{requestID}", func(r chi.Router) {
				r.Get("/", h.Merge.GetTeamMerge)
				r.Get("/preview", h.Merge.PreviewTeamMerge)
				r.Get("/disputes", h.Merge.ListDisputes)
				r.Post("/accept", h.Merge.ResolveTeamMerge("accept"))
				r.Post("/reject", h.Merge.ResolveTeamMerge("reject"))
				r.Post("/cancel", h.Merge.ResolveTeamMerge("cancel"))
			})

			r.Put("/team-merge-disputes/{disputeID}/score", h.Merge.SubmitDisputeScore)
		})
	})
}
