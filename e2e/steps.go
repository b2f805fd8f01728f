package e2e

import (
	"github.com/cucumber/godog"

	"lifeline/e2e/steps/auth"
	"lifeline/e2e/steps/common"
	"lifeline/e2e/steps/donation"
)

// RegisterSteps registers all step definitions from the modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	auth.RegisterSteps(ctx, tc)
	donation.RegisterSteps(ctx, tc)
}
