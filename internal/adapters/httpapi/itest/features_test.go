package itest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

func TestFeatures(t *testing.T) {
	if os.Getenv("ITEST_FEATURES") == "" {
		t.Skip("Skipping feature tests. Set ITEST_FEATURES=1 to run.")
	}

	for _, b := range backendsFromEnv(t) {
		t.Run(string(b), func(t *testing.T) {
			ts := newTestServer(t, b)
			suite := godog.TestSuite{
				ScenarioInitializer: func(sc *godog.ScenarioContext) {
					steps := &stepsContext{ts: ts}
					steps.registerSteps(sc)
				},
				Options: &godog.Options{
					Format:   "pretty",
					Paths:    []string{"features"},
					TestingT: t,
				},
			}
			if suite.Run() != 0 {
				t.Fatal("Non-zero status returned, failed to run feature tests")
			}
		})
	}
}

// stepsContext holds state shared between the steps of one scenario.
type stepsContext struct {
	ts         *testServer
	appID      string
	createdIDs []string
	status     int
	body       []byte
}

func (s *stepsContext) registerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the intake API is running$`, func() error { return nil })

	sc.Step(`^I start a new application$`, s.iStartANewApplication)
	sc.Step(`^I start a new application with idempotency key "([^"]*)"$`, s.iStartANewApplicationWithKey)
	sc.Step(`^I save a draft with (\d+) vehicles?$`, s.iSaveADraftWithVehicles)
	sc.Step(`^I submit the application with (\d+) vehicles?$`, s.iSubmitWithVehicles)
	sc.Step(`^I delete the application$`, s.iDeleteTheApplication)
	sc.Step(`^I fetch the application$`, s.iFetchTheApplication)

	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the error code should be "([^"]*)"$`, s.theErrorCodeShouldBe)
	sc.Step(`^the response should include a field error for "([^"]*)"$`, s.theResponseShouldIncludeAFieldErrorFor)
	sc.Step(`^the validation number should be ([\d.]+)$`, s.theValidationNumberShouldBe)
	sc.Step(`^the application should have (\d+) vehicles?$`, s.theApplicationShouldHaveVehicles)
	sc.Step(`^the application status should be "([^"]*)"$`, s.theApplicationStatusShouldBe)
	sc.Step(`^both creates should return the same application$`, s.bothCreatesShouldReturnTheSameApplication)
}

func (s *stepsContext) call(method, path string, body any, headers map[string]string) error {
	status, out, _, err := s.ts.do(method, path, body, headers)
	if err != nil {
		return err
	}
	s.status, s.body = status, out
	return nil
}

func (s *stepsContext) create(headers map[string]string) error {
	if err := s.call(http.MethodPost, "/applications", nil, headers); err != nil {
		return err
	}
	if s.status != http.StatusCreated {
		return fmt.Errorf("create: status %d: %s", s.status, s.body)
	}
	var res createResponse
	if err := json.Unmarshal(s.body, &res); err != nil {
		return err
	}
	s.appID = res.Application.ID
	s.createdIDs = append(s.createdIDs, res.Application.ID)
	return nil
}

func (s *stepsContext) iStartANewApplication() error {
	return s.create(nil)
}

func (s *stepsContext) iStartANewApplicationWithKey(key string) error {
	return s.create(map[string]string{"Idempotency-Key": key})
}

func (s *stepsContext) iSaveADraftWithVehicles(n int) error {
	return s.call(http.MethodPut, "/applications/"+s.appID, completeBody(n), nil)
}

func (s *stepsContext) iSubmitWithVehicles(n int) error {
	return s.call(http.MethodPost, "/applications/"+s.appID+"/submit", completeBody(n), nil)
}

func (s *stepsContext) iDeleteTheApplication() error {
	return s.call(http.MethodDelete, "/applications/"+s.appID, nil, nil)
}

func (s *stepsContext) iFetchTheApplication() error {
	return s.call(http.MethodGet, "/applications/"+s.appID, nil, nil)
}

func (s *stepsContext) theResponseStatusShouldBe(want int) error {
	if s.status != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, s.status, s.body)
	}
	return nil
}

func (s *stepsContext) theErrorCodeShouldBe(want string) error {
	var er errorResponse
	if err := json.Unmarshal(s.body, &er); err != nil {
		return err
	}
	if er.Error.Code != want {
		return fmt.Errorf("expected error code %q, got %q", want, er.Error.Code)
	}
	return nil
}

func (s *stepsContext) theResponseShouldIncludeAFieldErrorFor(field string) error {
	var er errorResponse
	if err := json.Unmarshal(s.body, &er); err != nil {
		return err
	}
	for _, f := range er.Error.Fields {
		if f.Field == field {
			return nil
		}
	}
	return fmt.Errorf("no field error for %q in %s", field, s.body)
}

func (s *stepsContext) theValidationNumberShouldBe(want float64) error {
	var res submitResponse
	if err := json.Unmarshal(s.body, &res); err != nil {
		return err
	}
	if res.ValidationNumber != want {
		return fmt.Errorf("expected validation number %v, got %v", want, res.ValidationNumber)
	}
	return nil
}

func (s *stepsContext) theApplicationShouldHaveVehicles(want int) error {
	var app application
	if err := json.Unmarshal(s.body, &app); err != nil {
		return err
	}
	if len(app.Vehicles) != want {
		return fmt.Errorf("expected %d vehicles, got %d", want, len(app.Vehicles))
	}
	return nil
}

func (s *stepsContext) theApplicationStatusShouldBe(want string) error {
	status, out, _, err := s.ts.do(http.MethodGet, "/applications/"+s.appID, nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("get: status %d: %s", status, out)
	}
	var app application
	if err := json.Unmarshal(out, &app); err != nil {
		return err
	}
	if app.Status != want {
		return fmt.Errorf("expected status %q, got %q", want, app.Status)
	}
	return nil
}

func (s *stepsContext) bothCreatesShouldReturnTheSameApplication() error {
	if len(s.createdIDs) != 2 {
		return fmt.Errorf("expected two creates, got %d", len(s.createdIDs))
	}
	if s.createdIDs[0] != s.createdIDs[1] {
		return fmt.Errorf("expected the same application, got %s and %s", s.createdIDs[0], s.createdIDs[1])
	}
	return nil
}
