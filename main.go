package main

import (
	"log"

	"github.com/kuidando/kuidando/config"
	"github.com/kuidando/kuidando/db"
	"github.com/kuidando/kuidando/mailingservices"
	"github.com/kuidando/kuidando/server"
	"github.com/kuidando/kuidando/services"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	mailgunClient := &mailingservices.Mailgun{}
	mailgunClient.Init()

	gormDB := db.GetDB(conf)
	authRepo := db.NewAuthRepo(gormDB)
	reportRepo := db.NewReportRepo(gormDB)

	feed := server.NewHub()

	authService := services.NewAuthService(authRepo, mailgunClient, conf)
	mediaService, err := services.NewMediaService(conf)
	if err != nil {
		log.Fatalf("media service init: %v", err)
	}
	geocoder := services.NewGeocodingService(conf)
	reportService := services.NewReportService(reportRepo, mediaService, geocoder, feed)

	s := &server.Server{
		Config:           conf,
		Mail:             mailgunClient,
		AuthRepository:   authRepo,
		ReportRepository: reportRepo,
		AuthService:      authService,
		ReportService:    reportService,
		Feed:             feed,
		DB:               db.GormDB{},
	}
	s.Start()
}
