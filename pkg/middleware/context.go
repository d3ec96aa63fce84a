package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sttalk999/sttalk/pkg/requestctx"
)

// HeaderUserID carries the caller when authentication is disabled.
const HeaderUserID = "X-User-ID"

// Context copies request metadata onto the request context and echoes the request id back.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			ctx := req.Context()
			ctx = requestctx.SetRequestID(ctx, requestID)
			ctx = requestctx.SetMethod(ctx, req.Method)
			ctx = requestctx.SetRoute(ctx, c.Path())
			ctx = requestctx.SetRemoteIP(ctx, c.RealIP())
			if userID := req.Header.Get(HeaderUserID); userID != "" {
				ctx = requestctx.SetUserID(ctx, userID)
			}

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
