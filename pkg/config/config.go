package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

func New() Config {
	return Config{
		BasePath: requireEnv("BASE_PATH"),
		// Public site address, used for absolute links in the feeds.
		SiteUrl: requireEnv("SITE_URL"),
		Postgresql: Postgresql{
			Host:         requireEnv("DATABASE_HOST"),
			Port:         requireEnvAsInt("DATABASE_PORT"),
			Username:     requireEnv("DATABASE_USERNAME"),
			Password:     requireEnv("DATABASE_PASSWORD"),
			DatabaseName: requireEnv("DATABASE_NAME"),
		},
		Redis: Redis{
			Host: requireEnv("REDIS_HOST"),
			Port: requireEnvAsInt("REDIS_PORT"),
		},
		RabbitMq: rabbitmq{
			Host:     requireEnv("RABBITMQ_HOST"),
			Port:     requireEnvAsInt("RABBITMQ_PORT"),
			Username: requireEnv("RABBITMQ_USERNAME"),
			Password: requireEnv("RABBITMQ_PASSWORD"),
		},
		Smtp: Smtp{
			Host:     requireEnv("SMTP_HOST"),
			Port:     requireEnvAsInt("SMTP_PORT"),
			Username: requireEnv("SMTP_USERNAME"),
			Password: requireEnv("SMTP_PASSWORD"),
			From:     requireEnv("SMTP_FROM"),
		},
		// Cron expression for the daily publication of the oldest ready
		// request, site-local time.
		PublishSchedule: envOrDefault("PUBLISH_SCHEDULE", "0 12 * * *"),
	}
}

type Config struct {
	BasePath        string
	SiteUrl         string
	Postgresql      Postgresql
	Redis           Redis
	RabbitMq        rabbitmq
	Smtp            Smtp
	PublishSchedule string
}

type Postgresql struct {
	Host         string
	Port         int
	Username     string
	Password     string
	DatabaseName string
}

type Redis struct {
	Host string
	Port int
}

type rabbitmq struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (r rabbitmq) GetUrl() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.Username, r.Password, r.Host, r.Port)
}

type Smtp struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func requireEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Fatalf("Can't find environment variable: %s\n", key)
	}
	return value
}

func requireEnvAsInt(key string) int {
	valueStr := requireEnv(key)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("Can't parse value as integer: %s", err.Error())
	}
	return value
}

func envOrDefault(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
