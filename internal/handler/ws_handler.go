package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"chatlink/internal/app/chat"
	"chatlink/internal/pkg/auth/jwt"
	"chatlink/internal/pkg/errs"
	"chatlink/internal/pkg/limiter"
	"chatlink/internal/pkg/logx"
	"chatlink/internal/pkg/resp"
)

// HandleWebSocket upgrades the connection, authenticates the bearer token and hands the
// session to the gateway. An invalid token still gets upgraded so the client receives the
// unauthorized event before the close frame.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.Allow(r) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", logx.AnonymizeIP(ip))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		token := jwt.BearerToken(r)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(conn)

		go client.WritePump()

		identity, err := deps.Gateway.Authenticate(token)
		if err != nil {
			logx.Info("WebSocket connection rejected: unauthorized", "session_id", client.ID(), "ip", logx.AnonymizeIP(ip))
			deps.Gateway.Reject(client, err)
			return
		}

		logx.Info("WebSocket connection established", "user_id", identity.ID, "session_id", client.ID())

		// The request context ends with the handler; the session outlives the upgrade.
		deps.Gateway.Serve(context.WithoutCancel(r.Context()), identity, client)
	}
}
