package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"roomreserve/pkg/auth"
	"roomreserve/pkg/client"
)

const DefaultHealthCheckTimeout = 30 * time.Second

type TestEnv struct {
	MongoURI     string
	DatabaseName string
	ServerURL    string
	JWTSecret    string
}

func NewTestEnv() *TestEnv {
	serverPort := getEnv("TEST_SERVER_PORT", "8080")
	return &TestEnv{
		MongoURI:     getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		ServerURL:    getEnv("TEST_SERVER_URL", fmt.Sprintf("http://localhost:%s", serverPort)),
		JWTSecret:    getEnv("TEST_JWT_SECRET", "integration-secret"),
	}
}

// Setup skips unless INTEGRATION_TESTS=1, since it needs a running reservations service
// backed by the same database.
func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *client.HttpClient) {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run against a live service")
	}

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanReservations(t)

	c := client.NewHttpClient(e.ServerURL)
	if err := c.WaitForHealthy(DefaultHealthCheckTimeout); err != nil {
		t.Fatalf("service is not healthy: %v", err)
	}

	t.Cleanup(func() {
		mongo.CleanReservations(t)
		mongo.Close(t)
	})
	return mongo, c
}

// As returns a client authenticated as principal.
func (e *TestEnv) As(t *testing.T, c *client.HttpClient, principal auth.Principal) *client.HttpClient {
	t.Helper()
	token, err := auth.NewTokenParser(e.JWTSecret).Sign(principal, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return c.WithToken(token)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
