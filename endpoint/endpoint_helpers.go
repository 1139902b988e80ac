package endpoint

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qiuyue/followup-center/middleware"
	"github.com/qiuyue/followup-center/util"
	"gorm.io/gorm"
)

// requireDB fetches the request-scoped DB handle, answering a server error
// when the middleware did not provide one.
func requireDB(c *gin.Context) *gorm.DB {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: fmt.Errorf("db is nil"),
		})
	}
	return db
}

// generateCode mints a short business code with the given prefix for
// records created without an explicit code.
func generateCode(prefix string) string {
	return prefix + strings.ToUpper(uuid.NewString()[:8])
}

// requireParam fetches a path parameter, answering a user error when empty.
func requireParam(c *gin.Context, name, msg string) (string, bool) {
	value := c.Param(name)
	if value == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: msg,
			Err: fmt.Errorf("%s is required", name),
		})
		return "", false
	}
	return value, true
}
