package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/trust-insurance/quotation/internal/rating"
	"github.com/trust-insurance/quotation/internal/store"
	"github.com/trust-insurance/quotation/pkg/model"
)

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, rating.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, store.ErrQuoteNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrInvalidTransition), errors.Is(err, store.ErrQuoteExists):
		return fiber.StatusConflict
	case errors.Is(err, rating.ErrRating):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

// errorBody hides internal failures from the caller.
func errorBody(err error) ErrorResponse {
	var ve *rating.ValidationError
	if errors.As(err, &ve) {
		return ErrorResponse{Error: ve.Message, Field: ve.Field}
	}
	if statusFor(err) == fiber.StatusInternalServerError {
		return ErrorResponse{Error: "internal error"}
	}
	return ErrorResponse{Error: err.Error()}
}

func writeError(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(errorBody(err))
}
