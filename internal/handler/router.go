package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hfiuc/uc-reservation-api/internal/middleware"
	"github.com/hfiuc/uc-reservation-api/internal/service"
)

// RouterDeps bundles everything route registration needs.
type RouterDeps struct {
	Reservations *ReservationHandler
	Analytics    *AnalyticsHandler
	Catalog      *CatalogHandler
	Auth         *AuthHandler
	AuthService  *service.AuthService
}

// Register mounts the API surface under the given prefix. The public group
// serves the booking form; everything else sits behind authentication.
func Register(r *gin.Engine, prefix string, deps RouterDeps) {
	api := r.Group(prefix)

	api.POST("/auth/login", deps.Auth.Login)
	api.POST("/reservations", deps.Reservations.Create)
	api.GET("/campuses", deps.Catalog.ListCampuses)
	api.GET("/rooms", deps.Catalog.ListRooms)
	api.GET("/rooms/:id", deps.Catalog.GetRoom)
	api.GET("/classes", deps.Catalog.ListClasses)

	protected := api.Group("")
	protected.Use(middleware.Auth(deps.AuthService))

	protected.GET("/reservations", deps.Reservations.List)
	protected.GET("/reservations/upcoming", deps.Reservations.Upcoming)
	protected.GET("/reservations/export", deps.Reservations.Export)
	protected.GET("/reservations/:id", deps.Reservations.Get)
	protected.POST("/reservations/:id/decision", deps.Reservations.Decide)

	protected.GET("/analytics/overview", deps.Analytics.Overview)
	protected.GET("/analytics/weekly", deps.Analytics.Weekly)

	protected.POST("/campuses", deps.Catalog.CreateCampus)
	protected.PUT("/campuses/:id", deps.Catalog.UpdateCampus)
	protected.DELETE("/campuses/:id", deps.Catalog.DeleteCampus)

	protected.POST("/rooms", deps.Catalog.CreateRoom)
	protected.PUT("/rooms/:id", deps.Catalog.UpdateRoom)
	protected.DELETE("/rooms/:id", deps.Catalog.DeleteRoom)
	protected.POST("/rooms/:id/policies", deps.Catalog.CreatePolicy)
	protected.GET("/rooms/:id/policies", deps.Catalog.ListPolicies)
	protected.POST("/rooms/:id/approvers", deps.Catalog.AddApprover)
	protected.GET("/rooms/:id/approvers", deps.Catalog.ListApprovers)

	protected.PUT("/policies/:id", deps.Catalog.UpdatePolicy)
	protected.DELETE("/policies/:id", deps.Catalog.DeletePolicy)
	protected.PUT("/approvers/:id/notify", deps.Catalog.SetApproverNotify)
	protected.DELETE("/approvers/:id", deps.Catalog.RemoveApprover)

	protected.POST("/classes", deps.Catalog.CreateClass)
	protected.PUT("/classes/:id", deps.Catalog.UpdateClass)
	protected.DELETE("/classes/:id", deps.Catalog.DeleteClass)

	protected.POST("/admins", deps.Auth.CreateAdmin)
	protected.GET("/admins", deps.Auth.ListAdmins)
	protected.PUT("/admins/:id", deps.Auth.UpdateAdmin)
	protected.DELETE("/admins/:id", deps.Auth.DeleteAdmin)
	protected.GET("/operations", deps.Auth.ListOperations)
}
