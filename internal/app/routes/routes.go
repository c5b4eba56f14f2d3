package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/academia/internal/app/controllers"
	"github.com/yigit/academia/internal/app/models"
	"github.com/yigit/academia/internal/middleware"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Health     *controllers.HealthController
	Students   *controllers.EntityController[models.Student]
	Professors *controllers.EntityController[models.Professor]
	Employees  *controllers.EntityController[models.Employee]
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctrls Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/", ctrls.Health.Home)

	// API version group
	v1 := router.Group("/api/v1")
	v1.GET("/health", ctrls.Health.Health)

	// Identity is attached when present but never required
	records := v1.Group("")
	if authMiddleware != nil {
		records.Use(authMiddleware.JWTPassthrough())
	}

	ctrls.Students.RegisterRoutes(records.Group("/students"))
	ctrls.Professors.RegisterRoutes(records.Group("/professors"))
	ctrls.Employees.RegisterRoutes(records.Group("/employees"))
}
