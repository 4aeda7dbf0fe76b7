package httpserver

import (
	"github.com/gofiber/fiber/v2"

	v1 "github.com/and161185/garagesale/api/marketv1"
	"github.com/and161185/garagesale/internal/errs"
)

// classify maps an error kind to its HTTP status and machine-readable code.
func classify(err error) (int, string) {
	switch errs.KindOf(err) {
	case errs.ErrNotFound:
		return fiber.StatusNotFound, "NOT_FOUND"
	case errs.ErrConflict:
		return fiber.StatusConflict, "CONFLICT"
	case errs.ErrAlreadyExists:
		return fiber.StatusConflict, "ALREADY_EXISTS"
	case errs.ErrForbidden:
		return fiber.StatusForbidden, "FORBIDDEN"
	case errs.ErrValidation:
		return fiber.StatusBadRequest, "VALIDATION"
	case errs.ErrUnauthorized:
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errs.ErrRateLimited:
		return fiber.StatusTooManyRequests, "RATE_LIMITED"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "TOO_LARGE"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	return "BAD_REQUEST"
}

func errorBody(msg, code, reqID string) v1.ErrorResponse {
	return v1.ErrorResponse{Error: msg, Code: code, RequestID: reqID}
}

func requestID(c *fiber.Ctx) string {
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
