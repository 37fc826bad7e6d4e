package config

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"chat-backend/apperr"
	"chat-backend/config/common"
	"chat-backend/dto/res"
)

func NewFiber(cfg *common.Config) *fiber.App {
	appName := cfg.GetAppConfig()
	return fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		AppName:       appName,
		ErrorHandler:  errorHandler,
	})
}

// errorHandler maps domain errors onto stable HTTP responses so handlers can
// simply return errors from the usecases.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(res.ErrorResponse{
			Status:     fiberErr.Message,
			StatusCode: fiberErr.Code,
			Error:      fiberErr.Message,
			Path:       c.Path(),
		})
	}

	status := apperr.HTTPStatus(err)
	return c.Status(status).JSON(res.ErrorResponse{
		Status:     utils.StatusMessage(status),
		StatusCode: status,
		Kind:       string(apperr.CodeOf(err)),
		Error:      err.Error(),
		Path:       c.Path(),
	})
}
