package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/learntrack/backend/pkg/logger"
)

func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := logger.GenerateRequestID()
		c.Locals("requestID", requestID)
		c.Set("X-Request-ID", requestID)

		err := c.Next()

		statusCode := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				statusCode = fe.Code
			}
		}

		details := map[string]interface{}{
			"method":        c.Method(),
			"path":          c.Path(),
			"status_code":   statusCode,
			"latency_ms":    time.Since(start).Milliseconds(),
			"user_agent":    c.Get("User-Agent"),
			"ip":            c.IP(),
			"request_body":  logger.GetRequestBodySummary(c),
			"response_body": logger.GetResponseSizeSummary(c),
			"request_id":    requestID,
		}

		userID := logger.GetUserIDFromContext(c)
		switch {
		case userID != nil && statusCode >= 500:
			logger.ErrorWithUser(*userID, "http_request", err, details)
		case userID != nil && statusCode >= 400:
			logger.WarnWithUser(*userID, "http_request", details)
		case userID != nil:
			logger.InfoWithUser(*userID, "http_request", details)
		case statusCode >= 500:
			logger.Error("http_request", err, details)
		case statusCode >= 400:
			logger.Warn("http_request", details)
		default:
			logger.Info("http_request", details)
		}

		return err
	}
}

func SecurityLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		statusCode := c.Response().StatusCode()
		var reason string
		switch statusCode {
		case fiber.StatusUnauthorized:
			reason = "unauthenticated"
		case fiber.StatusForbidden:
			reason = "access_denied"
		default:
			return err
		}

		userID := logger.GetUserIDFromContext(c)
		details := map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"ip":     c.IP(),
			"reason": reason,
		}
		if userID != nil {
			logger.WarnWithUser(*userID, reason, details)
		} else {
			logger.Warn(reason, details)
		}

		return err
	}
}
