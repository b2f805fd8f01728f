package auth

import (
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	POST(path string, body any) error
	ResponseField(field string) (any, error)
	LastStatus() int
	LastBody() []byte
	ActAs(actor string)
	SetToken(actor, token string)
}

// RegisterSteps registers registration, login, lockout, and logout steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	ctx.Step(`^a registered donor "([^"]*)" with blood type "([^"]*)"$`, steps.registeredDonor)
	ctx.Step(`^a registered hospital "([^"]*)" named "([^"]*)"$`, steps.registeredHospital)
	ctx.Step(`^I register a donor with email "([^"]*)" and password "([^"]*)"$`, steps.registerDonorWithPassword)
	ctx.Step(`^"([^"]*)" logs in with password "([^"]*)"$`, steps.loginWithPassword)
	ctx.Step(`^"([^"]*)" fails to log in (\d+) times$`, steps.failLoginNTimes)
	ctx.Step(`^"([^"]*)" logs out$`, steps.logout)
	ctx.Step(`^I act as "([^"]*)"$`, steps.actAs)
}

type authSteps struct {
	tc TestContext
}

const defaultPassword = "correct-horse-battery"

func (s *authSteps) register(email string, body map[string]any) error {
	body["email"] = email
	body["password"] = defaultPassword
	if err := s.tc.POST("/v1/auth/register", body); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("registration of %s failed with %d: %s",
			email, s.tc.LastStatus(), s.tc.LastBody())
	}
	return s.login(email, defaultPassword)
}

func (s *authSteps) login(email, password string) error {
	if err := s.tc.POST("/v1/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}); err != nil {
		return err
	}
	if s.tc.LastStatus() != 200 {
		return nil // the scenario asserts on the failure itself
	}
	token, err := s.tc.ResponseField("token")
	if err != nil {
		return err
	}
	s.tc.SetToken(email, fmt.Sprintf("%v", token))
	s.tc.ActAs(email)
	return nil
}

func (s *authSteps) registeredDonor(email, bloodType string) error {
	return s.register(email, map[string]any{
		"role": "donor",
		"donor": map[string]any{
			"blood_type":    bloodType,
			"date_of_birth": "1990-03-14",
		},
	})
}

func (s *authSteps) registeredHospital(email, name string) error {
	return s.register(email, map[string]any{
		"role": "hospital",
		"hospital": map[string]any{
			"hospital_name": name,
		},
	})
}

func (s *authSteps) registerDonorWithPassword(email, password string) error {
	return s.tc.POST("/v1/auth/register", map[string]any{
		"email":    email,
		"password": password,
		"role":     "donor",
		"donor": map[string]any{
			"blood_type":    "O+",
			"date_of_birth": "1990-03-14",
		},
	})
}

func (s *authSteps) loginWithPassword(email, password string) error {
	return s.login(email, password)
}

func (s *authSteps) failLoginNTimes(email string, attempts int) error {
	for i := 0; i < attempts; i++ {
		if err := s.tc.POST("/v1/auth/login", map[string]any{
			"email":    email,
			"password": "definitely-wrong",
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *authSteps) logout(email string) error {
	s.tc.ActAs(email)
	return s.tc.POST("/v1/auth/logout", nil)
}

func (s *authSteps) actAs(email string) error {
	s.tc.ActAs(email)
	return nil
}
