package server

import (
	"fmt"
	"os"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()

	// LoggerWithFormatter middleware will write the logs to gin.DefaultWriter
	// By default gin.DefaultWriter = os.Stdout
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = 32 << 20
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	// The in-memory store runs a background cleaner, so tests skip it.
	limitRate := gin.HandlerFunc(func(c *gin.Context) { c.Next() })
	if os.Getenv("GIN_MODE") != "test" {
		store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{Rate: time.Minute, Limit: 3})
		limitRate = limitRateForPasswordReset(store)
	}

	apirouter := router.Group("/api/v1")
	apirouter.POST("/auth/signup", s.handleSignup())
	apirouter.POST("/auth/login", s.handleLogin())
	apirouter.POST("/password/forgot", limitRate, s.HandleForgotPassword())
	apirouter.POST("/password/reset/:token", s.ResetPassword())

	apirouter.GET("/categories", s.handleGetAllCategories())
	apirouter.GET("/stats", s.handleGetDashboardStats())

	// Public reads carry the caller's identity when a token is present so
	// supported/can_edit come back right.
	public := apirouter.Group("/")
	public.Use(s.OptionalAuthorize())
	public.GET("/reports", s.handleListReports())
	public.GET("/reports/:id", s.handleGetReport())
	public.GET("/reports/category/:category", s.handleListReportsByCategory())
	public.GET("/ws/changefeed", s.handleChangefeed())
	public.GET("/ws/map", s.handleLiveMap())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/logout", s.handleLogout())
	authorized.GET("/me", s.handleShowProfile())
	authorized.PUT("/me", s.handleEditUserProfile())
	authorized.POST("/reports", s.handleCreateReport())
	authorized.PUT("/reports/:id", s.handleUpdateReport())
	authorized.DELETE("/reports/:id", s.handleDeleteReport())
	authorized.PUT("/reports/:id/support", s.handleSupportReport())
	authorized.GET("/me/reports", s.handleListMyReports())
}
