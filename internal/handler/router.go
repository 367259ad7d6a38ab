package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"chatlink/internal/pkg/auth/jwt"
	"chatlink/internal/pkg/limiter"
	"chatlink/internal/pkg/logx"
	"chatlink/internal/pkg/resp"
)

const (
	AuthRate     = 0.2
	AuthBurst    = 5
	ConnectRate  = 1
	ConnectBurst = 10
)

// Router builds the HTTP routing table. The returned stop function releases the IP
// limiters' sweepers and should run once the server has shut down.
func Router(deps *AppDeps) (http.Handler, func()) {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients send no Origin.
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":  "ok",
			"service": "chatlink",
		}
		if deps.Gateway != nil {
			data["online"] = deps.Gateway.Registry().Count()
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Route("/auth", func(auth chi.Router) {
			auth.With(authLimiter.Middleware).Post("/register", HandleRegister(deps))
			auth.With(authLimiter.Middleware).Post("/login", HandleLogin(deps))
			auth.Post("/refresh", HandleRefresh(deps))
			auth.Post("/logout", HandleLogout(deps))
		})

		api.Group(func(private chi.Router) {
			private.Use(jwt.RequireAuth)

			private.Route("/user", func(user chi.Router) {
				user.Get("/profile", HandleGetUserProfile(deps))
				user.Get("/search", HandleSearchUsers(deps))
				user.Get("/friends", HandleGetFriends(deps))
				user.Post("/avatar", HandleUploadAvatar(deps))
			})

			private.Route("/group", func(group chi.Router) {
				group.Post("/create", HandleCreateGroup(deps))
				group.Get("/my-groups", HandleMyGroups(deps))
				group.Get("/{id}", HandleGetGroup(deps))
				group.Put("/{id}/add-member", HandleAddGroupMember(deps))
				group.Delete("/{id}/remove-member", HandleRemoveGroupMember(deps))
				group.Get("/{id}/messages", HandleGroupMessages(deps))
			})

			private.Get("/chat/history/{peerId}", HandleConversationHistory(deps))

			private.Post("/file/presign-upload", HandlePresignUploadURL(deps))
			private.Get("/file/presign-download", HandlePresignDownloadURL(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(deps, wsUpgrader, connectLimiter))

	stop := func() {
		authLimiter.Stop()
		connectLimiter.Stop()
	}

	return r, stop
}
