package db

import (
	"fmt"
	"log"

	"github.com/kuidando/kuidando/config"
	"github.com/kuidando/kuidando/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	DB *gorm.DB
}

func GetDB(c *config.Config) *GormDB {
	gormDB := &GormDB{}
	gormDB.Init(c)
	return gormDB
}

func (g *GormDB) Init(c *config.Config) {
	g.DB = getPostgresDB(c)

	if err := migrate(g.DB); err != nil {
		log.Fatalf("unable to run migrations: %v", err)
	}
}

func getPostgresDB(c *config.Config) *gorm.DB {
	postgresDSN := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d TimeZone=America/Lima",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort)

	gormConfig := &gorm.Config{}
	if c.Env != "prod" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		DSN: postgresDSN,
	}), gormConfig)
	if err != nil {
		log.Fatal(err)
	}

	return gormDB
}

// SeedCategories mirrors the compiled-in registry into the categories table
// so report rows have something to join against. The registry is the source
// of truth; rows are upserted, never deleted.
func SeedCategories(db *gorm.DB) error {
	for _, category := range models.Categories {
		if err := db.Where(models.Category{ID: category.ID}).
			Assign(models.Category{Name: category.Name, Icon: category.Icon, Color: category.Color}).
			FirstOrCreate(&category).Error; err != nil {
			return fmt.Errorf("seeding category %s: %w", category.ID, err)
		}
	}
	return nil
}

func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Blacklist{},
		&models.Category{},
		&models.Report{},
		&models.Support{},
	)
	if err != nil {
		return fmt.Errorf("migrations error: %v", err)
	}

	if err := SeedCategories(db); err != nil {
		return fmt.Errorf("seeding categories error: %v", err)
	}

	return nil
}
