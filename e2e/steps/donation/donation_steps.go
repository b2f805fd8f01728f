package donation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	PATCH(path string, body any) error
	ResponseField(field string) (any, error)
	LastStatus() int
	LastBody() []byte
	ActAs(actor string)
	Save(key, value string)
	Saved(key string) (string, error)
}

// RegisterSteps registers request and donation lifecycle steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &donationSteps{tc: tc}

	ctx.Step(`^"([^"]*)" opens a "([^"]*)" blood request with urgency "([^"]*)"$`, steps.openBloodRequest)
	ctx.Step(`^"([^"]*)" lists their matches$`, steps.listMatches)
	ctx.Step(`^the match list should include the request$`, steps.matchListIncludesRequest)
	ctx.Step(`^"([^"]*)" commits a donation against the request$`, steps.commitDonation)
	ctx.Step(`^"([^"]*)" moves the donation to "([^"]*)"$`, steps.moveDonationTo)
	ctx.Step(`^"([^"]*)" cancels the request$`, steps.cancelRequest)
	ctx.Step(`^the donation status should be "([^"]*)"$`, steps.donationStatusShouldBe)
	ctx.Step(`^"([^"]*)" lists their notifications$`, steps.listNotifications)
}

type donationSteps struct {
	tc TestContext
}

func (s *donationSteps) openBloodRequest(hospital, bloodType, urgency string) error {
	s.tc.ActAs(hospital)
	if err := s.tc.POST("/v1/requests", map[string]any{
		"kind":        "blood",
		"blood_type":  bloodType,
		"urgency":     urgency,
		"quantity":    2,
		"required_by": time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	}); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("request creation failed with %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	requestID, err := s.tc.ResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Save("request_id", fmt.Sprintf("%v", requestID))
	return nil
}

func (s *donationSteps) listMatches(donor string) error {
	s.tc.ActAs(donor)
	return s.tc.GET("/v1/donors/me/matches")
}

func (s *donationSteps) matchListIncludesRequest() error {
	requestID, err := s.tc.Saved("request_id")
	if err != nil {
		return err
	}
	var payload struct {
		Matches []struct {
			RequestID string `json:"request_id"`
		} `json:"matches"`
	}
	if err := json.Unmarshal(s.tc.LastBody(), &payload); err != nil {
		return fmt.Errorf("parse match list: %w", err)
	}
	for _, m := range payload.Matches {
		if m.RequestID == requestID {
			return nil
		}
	}
	return fmt.Errorf("request %s not in match list: %s", requestID, s.tc.LastBody())
}

func (s *donationSteps) commitDonation(donor string) error {
	requestID, err := s.tc.Saved("request_id")
	if err != nil {
		return err
	}
	s.tc.ActAs(donor)
	if err := s.tc.POST("/v1/donations", map[string]any{
		"request_id": requestID,
		"quantity":   1,
	}); err != nil {
		return err
	}
	if s.tc.LastStatus() == 201 {
		donationID, err := s.tc.ResponseField("id")
		if err != nil {
			return err
		}
		s.tc.Save("donation_id", fmt.Sprintf("%v", donationID))
	}
	return nil
}

func (s *donationSteps) moveDonationTo(hospital, status string) error {
	donationID, err := s.tc.Saved("donation_id")
	if err != nil {
		return err
	}
	s.tc.ActAs(hospital)
	return s.tc.PATCH("/v1/donations/"+donationID+"/status", map[string]any{
		"status": status,
	})
}

func (s *donationSteps) cancelRequest(hospital string) error {
	requestID, err := s.tc.Saved("request_id")
	if err != nil {
		return err
	}
	s.tc.ActAs(hospital)
	return s.tc.PATCH("/v1/requests/"+requestID+"/status", map[string]any{
		"status": "cancelled",
	})
}

func (s *donationSteps) donationStatusShouldBe(expected string) error {
	donationID, err := s.tc.Saved("donation_id")
	if err != nil {
		return err
	}
	if err := s.tc.GET("/v1/donations/" + donationID); err != nil {
		return err
	}
	status, err := s.tc.ResponseField("status")
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", status) != expected {
		return fmt.Errorf("expected donation status %q, got %v", expected, status)
	}
	return nil
}

func (s *donationSteps) listNotifications(actor string) error {
	s.tc.ActAs(actor)
	return s.tc.GET("/v1/notifications")
}
