package middleware

import (
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/sttalk999/sttalk/pkg/requestctx"
)

func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			ctx := req.Context()
			fields := requestctx.Fields(ctx)
			fields["uri"] = req.RequestURI
			fields["status"] = res.Status
			fields["route"] = c.Path()
			fields["user_agent"] = req.UserAgent()
			fields["response_time"] = time.Since(start).String()
			fields["response_size"] = res.Size

			entry := logger.WithContext(ctx).WithFields(fields)
			if res.Status >= 500 {
				entry.Warn("Request")
				return nil
			}
			entry.Info("Request")
			return nil
		}
	}
}
