// Package test holds black-box smoke tests that exercise the fully wired
// in-memory API end to end.
package test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"lifeline/internal/auth"
	authhandler "lifeline/internal/auth/handler"
	"lifeline/internal/auth/lockout"
	"lifeline/internal/auth/revocation"
	"lifeline/internal/donation"
	donationhandler "lifeline/internal/donation/handler"
	"lifeline/internal/eligibility"
	httpapi "lifeline/internal/http"
	"lifeline/internal/matching"
	matchinghandler "lifeline/internal/matching/handler"
	"lifeline/internal/notification"
	notificationhandler "lifeline/internal/notification/handler"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/request"
	requesthandler "lifeline/internal/request/handler"
	"lifeline/internal/user"
	userhandler "lifeline/internal/user/handler"
	"lifeline/pkg/platform/tx"
	"lifeline/pkg/testutil"
)

// Collectors register on the process-global default registry, so the package
// shares one instance across tests.
var testMetrics = metrics.New()

func newAPI() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	userStore := user.NewInMemory()
	users := user.NewService(userStore, user.WithLogger(logger))
	evaluator := eligibility.New(eligibility.Config{})

	inbox := notification.NewInMemoryInbox()
	publisher := notification.NewPublisher(notification.NewInMemoryOutbox(),
		notification.WithPublisherLogger(logger))

	requestStore := request.NewInMemory()
	donationStore := donation.NewInMemory()

	matcher := matching.NewService(userStore, requestStore, donationStore,
		evaluator, matching.DefaultConfig(), matching.WithLogger(logger))
	requests := request.NewService(requestStore, matcher, users, publisher,
		request.WithLogger(logger))
	donations := donation.NewService(donationStore, users, requests, evaluator,
		tx.NewMemoryRunner(), publisher, donation.WithLogger(logger))
	requests.SetDonationCanceller(donations)

	tokens := auth.NewTokenManager("smoke-signing-key", "lifeline", time.Hour)
	revocations := revocation.NewInMemory()
	lockouts := lockout.NewService(lockout.NewInMemoryStore(), lockout.DefaultConfig(),
		lockout.WithLogger(logger))
	authService := auth.NewService(users, tokens, revocations, lockouts,
		auth.WithLogger(logger), auth.WithNotifier(publisher))

	notifications := notification.NewService(inbox, notification.WithServiceLogger(logger))

	return httpapi.NewRouter(httpapi.Dependencies{
		Logger:         logger,
		Metrics:        testMetrics,
		TokenValidator: auth.NewMiddlewareAdapter(tokens),
		Revocations:    revocations,
		Auth:           authhandler.New(authService, logger),
		Users:          userhandler.New(users, logger),
		Requests:       requesthandler.New(requests, logger),
		Donations:      donationhandler.New(donations, logger),
		Matches:        matchinghandler.New(matcher, logger),
		Notifications:  notificationhandler.New(notifications, logger),
	})
}

func TestDonationFlowSmoke(t *testing.T) {
	api := newAPI()

	login := func(t *testing.T, emailAddr string) string {
		t.Helper()
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/auth/login",
			map[string]any{"email": emailAddr, "password": "correct-horse"})
		rr := testutil.DoRequest(api, req)
		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[struct {
			Token string `json:"token"`
		}](t, rr)
		return resp.Token
	}

	var hospitalToken, donorToken, requestID string

	testutil.Given(t, "a registered hospital and donor", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/auth/register", map[string]any{
			"email":    "clinic@example.com",
			"password": "correct-horse",
			"role":     "hospital",
			"hospital": map[string]any{"hospital_name": "St. Mary"},
		})
		testutil.AssertStatus(t, testutil.DoRequest(api, req), http.StatusCreated)

		req = testutil.NewJSONRequest(t, http.MethodPost, "/v1/auth/register", map[string]any{
			"email":    "donor@example.com",
			"password": "correct-horse",
			"role":     "donor",
			"donor":    map[string]any{"blood_type": "O-", "date_of_birth": "1990-03-14"},
		})
		testutil.AssertStatus(t, testutil.DoRequest(api, req), http.StatusCreated)

		hospitalToken = login(t, "clinic@example.com")
		donorToken = login(t, "donor@example.com")
	})

	testutil.When(t, "the hospital opens a blood request", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/requests", map[string]any{
			"kind":        "blood",
			"blood_type":  "O-",
			"urgency":     "high",
			"quantity":    2,
			"required_by": time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		})
		req.Header.Set("Authorization", "Bearer "+hospitalToken)
		rr := testutil.DoRequest(api, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)

		resp := testutil.UnmarshalResponse[struct {
			ID string `json:"id"`
		}](t, rr)
		requestID = resp.ID
	})

	testutil.Then(t, "the donor sees the request among their matches and commits", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/v1/donors/me/matches")
		req.Header.Set("Authorization", "Bearer "+donorToken)
		rr := testutil.DoRequest(api, req)
		testutil.AssertStatusOK(t, rr)

		matches := testutil.UnmarshalResponse[struct {
			Matches []struct {
				RequestID string `json:"request_id"`
			} `json:"matches"`
		}](t, rr)
		if len(matches.Matches) == 0 {
			t.Fatal("expected at least one match for the donor")
		}

		req = testutil.NewJSONRequest(t, http.MethodPost, "/v1/donations", map[string]any{
			"request_id": requestID,
			"quantity":   1,
		})
		req.Header.Set("Authorization", "Bearer "+donorToken)
		testutil.AssertStatus(t, testutil.DoRequest(api, req), http.StatusCreated)
	})
}
