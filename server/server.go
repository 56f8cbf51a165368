package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kuidando/kuidando/config"
	"github.com/kuidando/kuidando/db"
	"github.com/kuidando/kuidando/services"
)

// Server holds every dependency the handlers need.
type Server struct {
	Config           *config.Config
	Mail             services.Mailer
	AuthRepository   db.AuthRepository
	ReportRepository db.ReportRepository
	AuthService      services.AuthService
	ReportService    services.ReportService
	Feed             *Hub
	DB               db.GormDB
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests and shuts the changefeed hub down.
func (s *Server) Start() {
	r := s.setupRouter()

	port := s.Config.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	go func() {
		log.Printf("listening on :%d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	if s.Feed != nil {
		s.Feed.Stop()
	}
	log.Println("server exited")
}

// decode binds the JSON body into v using gin's validator bindings.
func decode(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return err
	}
	return nil
}
