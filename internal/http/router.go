// Package httpapi assembles the HTTP surface: the middleware chain, the
// versioned API tree, and the role-gated route groups. Handlers stay in their
// feature packages; this package only mounts them.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	authhandler "lifeline/internal/auth/handler"
	donationhandler "lifeline/internal/donation/handler"
	matchinghandler "lifeline/internal/matching/handler"
	notificationhandler "lifeline/internal/notification/handler"
	"lifeline/internal/platform/metrics"
	requesthandler "lifeline/internal/request/handler"
	userhandler "lifeline/internal/user/handler"
	id "lifeline/pkg/domain"
	authmw "lifeline/pkg/platform/middleware/auth"
	devicemw "lifeline/pkg/platform/middleware/device"
	metadatamw "lifeline/pkg/platform/middleware/metadata"
	requestmw "lifeline/pkg/platform/middleware/request"
	requesttimemw "lifeline/pkg/platform/middleware/requesttime"
	versionmw "lifeline/pkg/platform/middleware/version"
)

// Dependencies carries everything the router mounts. All fields are required.
type Dependencies struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	TokenValidator authmw.JWTValidator
	Revocations    authmw.TokenRevocationChecker

	Auth          *authhandler.Handler
	Users         *userhandler.Handler
	Requests      *requesthandler.Handler
	Donations     *donationhandler.Handler
	Matches       *matchinghandler.Handler
	Notifications *notificationhandler.Handler
}

// NewRouter builds the full route tree.
//
// Layout:
//
//	/healthz, /metrics            unauthenticated operational endpoints
//	/v1/auth/register, /v1/auth/login   public
//	/v1/...                       authenticated, then role-gated per group
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(requestmw.RequestID)
	r.Use(requesttimemw.Middleware)
	r.Use(metadatamw.ClientMetadata)
	r.Use(devicemw.Middleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(deps.Metrics.Middleware)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(versionmw.ExtractVersion(id.APIVersionV1))

		deps.Auth.Register(v1)

		v1.Group(func(authed chi.Router) {
			authed.Use(authmw.RequireAuth(deps.TokenValidator, deps.Revocations, deps.Logger))
			authed.Use(versionmw.ValidateTokenVersion(deps.Logger))

			deps.Auth.RegisterAuthenticated(authed)
			deps.Users.Register(authed)
			deps.Requests.Register(authed)
			deps.Donations.Register(authed)
			deps.Notifications.Register(authed)

			authed.Group(func(donor chi.Router) {
				donor.Use(authmw.RequireRole(deps.Logger, id.RoleDonor))
				deps.Donations.RegisterDonor(donor)
				deps.Matches.RegisterDonor(donor)
			})

			authed.Group(func(hospital chi.Router) {
				hospital.Use(authmw.RequireRole(deps.Logger, id.RoleHospital))
				deps.Requests.RegisterHospital(hospital)
				deps.Matches.RegisterHospital(hospital)
			})

			// Donation status transitions are also open to admins, who may
			// fix up records across hospitals.
			authed.Group(func(clinical chi.Router) {
				clinical.Use(authmw.RequireRole(deps.Logger, id.RoleHospital, id.RoleAdmin))
				deps.Donations.RegisterHospital(clinical)
			})

			authed.Group(func(admin chi.Router) {
				admin.Use(authmw.RequireRole(deps.Logger, id.RoleAdmin))
				deps.Users.RegisterAdmin(admin)
			})
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
