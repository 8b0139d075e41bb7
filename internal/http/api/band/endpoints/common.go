package endpoints

import "github.com/gin-gonic/gin"

// confirmed reads the ?confirm=true flag destructive deletes require.
func confirmed(ctx *gin.Context) bool {
	return ctx.Query("confirm") == "true"
}
