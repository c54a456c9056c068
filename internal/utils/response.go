package utils

import "github.com/gofiber/fiber/v3"

// SuccessResponse sends a standardized success response
func SuccessResponse(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// CreatedResponse is SuccessResponse with 201
func CreatedResponse(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// PaginatedResponse sends an offset-paginated response
func PaginatedResponse(c fiber.Ctx, data any, limit, offset, total int, extra fiber.Map) error {
	pagination := fiber.Map{
		"limit":    limit,
		"offset":   offset,
		"total":    total,
		"has_more": offset+limit < total,
	}
	body := fiber.Map{
		"success":    true,
		"data":       data,
		"pagination": pagination,
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(body)
}
