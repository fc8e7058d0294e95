package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"talentscreen/cv-evaluator/internal/repositories"
)

const tenantLocalsKey = "tenantID"

// ResolveTenant requires an X-Tenant-ID header carrying a tenant id or slug
// and stores the resolved id in request locals. Every downstream call passes
// the tenant id explicitly; there is no ambient tenant state.
func ResolveTenant(tenantRepo repositories.TenantRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("X-Tenant-ID")
		if header == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "X-Tenant-ID header is required",
			})
		}

		tenant, err := tenantRepo.FindByIDOrSlug(header)
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Invalid tenant",
			})
		}

		c.Locals(tenantLocalsKey, tenant.ID)
		return c.Next()
	}
}

func tenantID(c *fiber.Ctx) uuid.UUID {
	if id, ok := c.Locals(tenantLocalsKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
