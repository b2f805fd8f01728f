package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs the feature files against a live server. Point
// LIFELINE_E2E_URL at it, e.g. http://localhost:8080.
func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("LIFELINE_E2E_URL")
	if baseURL == "" {
		t.Skip("LIFELINE_E2E_URL not set, skipping end-to-end features")
	}

	tc := NewTestContext(baseURL)

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return ctx, nil
			})
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("end-to-end feature suite failed")
	}
}
