package bdd

import (
	"os"
	"testing"

	"github.com/cucumber/godog"
	"github.com/joho/godotenv"
)

func TestMain(m *testing.M) {
	// Load .env.test if present, else .env. Use Overload so test values
	// always override any shell/CI env.
	if _, err := os.Stat(".env.test"); err == nil {
		_ = godotenv.Overload(".env.test")
	} else {
		_ = godotenv.Overload()
	}
	// The suite never touches Kafka, but make any accidental publish fail fast.
	_ = os.Setenv("KAFKA_BROKERS", "127.0.0.1:1")

	os.Exit(m.Run())
}

func TestOrderFlowFeatures(t *testing.T) {
	opts := godog.Options{
		Format: "pretty",
		Paths:  []string{"features"},
		Strict: true,
	}

	suite := godog.TestSuite{
		Name: "flower-shop-bot",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			world := NewShopWorld(t)
			world.Register(sc)
		},
		Options: &opts,
	}

	if suite.Run() != 0 {
		t.Fail()
	}
}
