package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Debug            bool   `envconfig:"debug"`
	Port             int    `envconfig:"port" default:"8080"`
	Env              string `envconfig:"env"`
	Host             string `envconfig:"host"`
	BaseUrl          string `envconfig:"base_url"`
	PostgresHost     string `envconfig:"postgres_host"`
	PostgresPort     int    `envconfig:"postgres_port"`
	PostgresUser     string `envconfig:"postgres_user"`
	PostgresPassword string `envconfig:"postgres_password"`
	PostgresDB       string `envconfig:"postgres_db"`
	JWTSecret        string `envconfig:"jwt_secret"`
	MailgunApiKey    string `envconfig:"mg_public_api_key"`
	MgDomain         string `envconfig:"mg_domain"`
	MgEmailFrom      string `envconfig:"email_from"`
	AwsRegion        string `envconfig:"aws_region"`
	AwsAccessKeyID   string `envconfig:"aws_access_key_id"`
	AwsSecretKey     string `envconfig:"aws_secret_access_key"`
	S3Bucket         string `envconfig:"s3_bucket"`
	GoogleMapsApiKey string `envconfig:"google_maps_api_key"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			log.Printf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("kuidando", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}
