package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	postgres "github.com/Divam-dev/flower-shop-bot/internal/storage/postgres"
	"github.com/Divam-dev/flower-shop-bot/internal/wayforpay"
)

// Config aggregates runtime configuration grouped by concern.
type Config struct {
	ServiceName string
	HTTP        HTTPConfig
	Restate     RestateConfig
	Kafka       KafkaConfig
	Database    postgres.DatabaseConfig
	WayForPay   WayForPayConfig
}

type HTTPConfig struct {
	Addr string
}

type RestateConfig struct {
	ListenAddr string
	RuntimeURL string
}

type KafkaConfig struct {
	Brokers     []string
	OrdersTopic string
	EmailGroup  string
}

// WayForPayConfig carries the merchant identity and the gateway endpoint.
// The defaults are WayForPay's public sandbox credentials, usable for local
// runs without a real merchant account.
type WayForPayConfig struct {
	MerchantAccount string
	SecretKey       string
	DomainName      string
	ServiceURL      string
	APIURL          string
}

// Merchant converts the config group into the gateway's merchant identity.
func (c WayForPayConfig) Merchant() wayforpay.Merchant {
	return wayforpay.Merchant{
		Account:    c.MerchantAccount,
		SecretKey:  c.SecretKey,
		DomainName: c.DomainName,
		ServiceURL: c.ServiceURL,
	}
}

// Load reads configuration from environment variables, applying sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		ServiceName: getEnv("SERVICE_NAME", "flower-shop-bot"),
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_LISTEN_ADDR", ":3000"),
		},
		Restate: RestateConfig{
			ListenAddr: getEnv("RESTATE_LISTEN_ADDR", ":9081"),
			RuntimeURL: getEnv("RESTATE_RUNTIME_URL", "http://127.0.0.1:8080"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitAndTrim(getEnv("KAFKA_BROKERS", "localhost:9092")),
			OrdersTopic: getEnv("KAFKA_ORDERS_TOPIC", "orders.v1"),
			EmailGroup:  getEnv("KAFKA_EMAIL_GROUP_ID", "email-workers"),
		},
		WayForPay: WayForPayConfig{
			MerchantAccount: getEnv("WAYFORPAY_MERCHANT_ACCOUNT", "test_merch_n1"),
			SecretKey:       getEnv("WAYFORPAY_SECRET_KEY", "flk3409refn54t54t*FNJRET"),
			DomainName:      getEnv("WAYFORPAY_DOMAIN", "www.yourdomain.com"),
			ServiceURL:      getEnv("WAYFORPAY_CALLBACK_URL", "https://yourdomain.com/wfpcallback"),
			APIURL:          getEnv("WAYFORPAY_API_URL", wayforpay.DefaultAPIURL),
		},
	}

	portStr := getEnv("ORDER_DB_PORT", "5432")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Config{}, fmt.Errorf("parse ORDER_DB_PORT: %w", err)
	}

	cfg.Database = postgres.DatabaseConfig{
		Host:     getEnv("ORDER_DB_HOST", "localhost"),
		Port:     port,
		Database: getEnv("ORDER_DB_NAME", "flowershop"),
		User:     getEnv("ORDER_DB_USER", "flowershopadmin"),
		Password: getEnv("ORDER_DB_PASSWORD", ""),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
