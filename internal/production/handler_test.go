package production

import (
	"testing"

	"pcbtrack-backend/internal/bom"
	"pcbtrack-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Servis hatalarının HTTP durum kodlarına eşlenmesi; özellikle eşzamanlı
// üretimde düşüm anında kaybeden tarafın 500 değil 409 alması önemli
func TestMapServiceErrorStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrPCBNotFound, fiber.StatusNotFound},
		{ErrEntryNotFound, fiber.StatusNotFound},
		{ErrInvalidQuantity, fiber.StatusBadRequest},
		{bom.ErrEmptyBOM, fiber.StatusBadRequest},
		{stock.ErrInsufficientStock, fiber.StatusConflict},
	}

	for _, c := range cases {
		err := mapServiceError(nil, c.err)

		var fe *fiber.Error
		require.ErrorAs(t, err, &fe, "%v", c.err)
		assert.Equal(t, c.want, fe.Code, "%v", c.err)
	}
}
