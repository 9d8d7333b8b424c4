package serverutils

import (
	"errors"

	"voicenote-vector-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns service errors into JSON responses, mapping
// apperror kinds onto HTTP statuses.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := fiber.StatusInternalServerError

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		} else {
			switch apperror.KindOf(err) {
			case apperror.KindEmptyInput:
				status = fiber.StatusBadRequest
			case apperror.KindNotFound:
				status = fiber.StatusNotFound
			case apperror.KindProviderFailure:
				status = fiber.StatusBadGateway
			case apperror.KindStoreFailure:
				status = fiber.StatusServiceUnavailable
			case apperror.KindConfigError:
				status = fiber.StatusInternalServerError
			}
		}

		return ctx.Status(status).JSON(ErrorResponse{
			Success: false,
			Message: err.Error(),
		})
	}
}
