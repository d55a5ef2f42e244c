package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"safelens/pkg/utils"
)

const RequestIDKey = "X-Request-ID"

// incoming ids longer than this are replaced
const maxRequestIDLen = 128

// NewRequestIDMiddleware keeps a caller supplied X-Request-ID and otherwise
// mints a ULID. The id is stored in Locals and echoed on the response.
func NewRequestIDMiddleware() fiber.Handler {
	ids := utils.New()

	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDKey)
		if id == "" || len(id) > maxRequestIDLen {
			generated, err := ids.NewULIDFromTimestamp(time.Now())
			if err != nil {
				generated = "unknown"
			}
			id = generated
		}

		c.Locals(RequestIDKey, id)
		c.Set(RequestIDKey, id)
		return c.Next()
	}
}
