package api

import (
	"log"
	stdhttp "net/http"

	intconfig "collegetour/internal/config"
	h "collegetour/internal/http/handlers"
	"collegetour/internal/http/middleware"
	"collegetour/internal/metrics"

	"github.com/gin-gonic/gin"
)

// NewRouter wires every route. Handlers read their dependencies from
// h.Configure, which must run first.
func NewRouter(env intconfig.Env) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	if env.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)

		requireAuth := middleware.Auth(h.TokenParser())

		// Auth
		auth := api.Group("/auth")
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", requireAuth, h.Me)

		// Student registration flow
		user := api.Group("/user", requireAuth, middleware.RequireRoles("student"))
		user.GET("/dashboard", h.StudentDashboard)
		user.GET("/packages", h.StudentPackages)
		user.POST("/select-package", h.SelectPackage)
		user.GET("/extra-places", h.StudentExtraPlaces)
		user.POST("/select-extra-places", h.SelectExtraPlaces)
		user.GET("/buses", h.StudentBuses)
		user.POST("/select-bus", h.SelectBus)
		user.GET("/receipt", h.Receipt)
		user.GET("/receipt.pdf", h.ReceiptPDF)

		// Admin panel
		admin := api.Group("/admin", requireAuth, middleware.RequireRoles("admin"))
		admin.GET("/dashboard", h.AdminDashboard)
		mountUsers(admin.Group("/users"))
		mountColleges(admin.Group("/colleges"))
		mountPlaces(admin.Group("/places"))
		mountPackages(admin.Group("/packages"))
		mountBuses(admin.Group("/buses"))

		export := admin.Group("/export")
		export.GET("/colleges", h.ExportColleges)
		export.POST("/csv", h.ExportCSV)
	}

	return r
}

func mountUsers(g *gin.RouterGroup) {
	g.GET("", h.ListUsers)
	g.POST("", h.CreateUser)
	g.PUT("/:id/reset-password", h.ResetPassword)
	g.PUT("/:id/role", h.UpdateUserRole)
	g.PUT("/:id/payment", h.UpdatePaymentStatus)
	g.POST("/:id/release-seat", h.ReleaseUserSeat)
	g.DELETE("/:id", h.DeleteUser)
}

func mountColleges(g *gin.RouterGroup) {
	g.GET("", h.ListColleges)
	g.POST("", h.CreateCollege)
	g.PUT("/:id", h.UpdateCollege)
	g.DELETE("/:id", h.DeleteCollege)
}

func mountPlaces(g *gin.RouterGroup) {
	g.GET("", h.ListPlaces)
	g.POST("", h.CreatePlace)
	g.PUT("/:id", h.UpdatePlace)
	g.DELETE("/:id", h.DeletePlace)
}

func mountPackages(g *gin.RouterGroup) {
	g.GET("", h.ListPackages)
	g.GET("/:id", h.GetPackage)
	g.POST("", h.CreatePackage)
	g.PUT("/:id", h.UpdatePackage)
	g.DELETE("/:id", h.DeletePackage)
}

func mountBuses(g *gin.RouterGroup) {
	g.GET("", h.ListBuses)
	g.POST("", h.CreateBus)
	g.PUT("/:id", h.UpdateBus)
	g.DELETE("/:id", h.DeleteBus)
}
