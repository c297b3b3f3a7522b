package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/controllers"
)

// RegisterRoutes mounts the import endpoints under /purchase-orders behind auth
func RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc, importController *controllers.PurchaseImportController) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	purchaseOrders := r.Group("/purchase-orders", auth)
	{
		purchaseOrders.POST("/preview-import", importController.PreviewImport)
		purchaseOrders.POST("/import", importController.Import)
		purchaseOrders.GET("/import/template", importController.DownloadTemplate)
		purchaseOrders.GET("/import/jobs/:id", importController.GetImportJob)
		purchaseOrders.GET("/import/runs/:id", importController.GetImportRun)
	}
}
