package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
)

// UUIDValidator отклоняет запрос с 400, если любой из path-параметров не UUID.
// Пример: router.GET("/listings/:id", UUIDValidator("id"), h.GetListing)
func UUIDValidator(params ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range params {
			if _, err := uuid.Parse(c.Param(name)); err != nil {
				response.Error(c, apperror.New(apperror.ErrCodeBadRequest, "параметр "+name+" должен быть валидным UUID").
					WithDetails(map[string]interface{}{"param": name}))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
