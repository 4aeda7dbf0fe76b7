package httpserver

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/garagesale/internal/errs"
	"github.com/and161185/garagesale/internal/service"
)

const userIDKey = "gs.userID"

var (
	errNoAuth       = &errs.Error{Kind: errs.ErrUnauthorized, Msg: "no auth"}
	errInvalidToken = &errs.Error{Kind: errs.ErrUnauthorized, Msg: "invalid token"}
)

// accessLog writes one line per request: metadata only, never bodies.
func accessLog(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		if chainErr != nil {
			// run the error handler now so the logged status is the one sent
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("request_id", requestID(c)),
		}
		if id, ok := userID(c); ok {
			fields = append(fields, zap.String("user_id", id.String()))
		}
		log.Info("http", fields...)
		return nil
	}
}

// requireAuth verifies the bearer token and stores the caller id in Locals.
func requireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return errNoAuth
		}
		id, err := auth.Authenticate(tok)
		if err != nil || id == uuid.Nil {
			return errInvalidToken
		}
		c.Locals(userIDKey, id)
		return c.Next()
	}
}

func bearerToken(h string) (string, bool) {
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}

func userID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(userIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func caller(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := userID(c)
	if !ok {
		return uuid.Nil, errNoAuth
	}
	return id, nil
}
