package helper

import (
	"github.com/gofiber/fiber/v2"

	"events_backend/internals/helpers/coerce"
)

type Paging struct {
	Page   int
	Limit  int
	Offset int
}

// ResolvePaging membaca ?page= & ?limit= dan normalisasi.
// - defaultLimit: fallback kalau tidak ada/invalid (bukan bilangan bulat positif)
// - maxLimit: batas atas limit (0 = tanpa batas)
func ResolvePaging(c *fiber.Ctx, defaultLimit, maxLimit int) Paging {
	limit := coerce.ParsePositiveInt(c.Query("limit"), defaultLimit)
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	page := coerce.ParsePositiveInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	return Paging{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}
