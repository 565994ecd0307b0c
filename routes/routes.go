package routes

import (
	"cellar-service/controllers"
	"cellar-service/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the import pipeline endpoints. Everything under
// /imports is owner-scoped.
func RegisterRoutes(r *gin.Engine, importController *controllers.ImportController) {
	importRoutes := r.Group("/imports")
	importRoutes.Use(middleware.RequireOwner())
	{
		importRoutes.POST("", importController.UploadImport)
		importRoutes.GET("", importController.ListImports)
		importRoutes.GET("/:id", importController.GetImport)
		importRoutes.DELETE("/:id", importController.DeleteImport)
		importRoutes.PUT("/:id/mapping", importController.ConfirmMapping)
		importRoutes.POST("/:id/process", importController.ProcessImport)
	}
}
