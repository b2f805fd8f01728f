package auth

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lifeline/contracts/events"
	"lifeline/internal/auth/device"
	"lifeline/internal/auth/lockout"
	"lifeline/internal/auth/revocation"
	"lifeline/internal/user"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/requestcontext"
)

const minPasswordLength = 8

// Users is the slice of the user service the auth flows need.
type Users interface {
	Create(ctx context.Context, u *user.User) error
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// Notifier publishes domain events; failures must not block the caller.
type Notifier interface {
	Emit(ctx context.Context, kind string, payload any)
}

// Service implements registration, login, and logout.
type Service struct {
	users       Users
	tokens      *TokenManager
	revocations revocation.Store
	lockouts    *lockout.Service
	notifier    Notifier
	logger      *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithNotifier sets the event publisher.
func WithNotifier(notifier Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

// NewService constructs the auth service.
func NewService(users Users, tokens *TokenManager, revocations revocation.Store, lockouts *lockout.Service, opts ...Option) *Service {
	s := &Service{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
		lockouts:    lockouts,
		notifier:    noopNotifier{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type noopNotifier struct{}

func (noopNotifier) Emit(context.Context, string, any) {}

// Register creates a donor or hospital account. Admin accounts are
// provisioned out of band and cannot self-register.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*user.User, error) {
	if len(input.Password) < minPasswordLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}
	if input.Role == id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin accounts cannot be self-registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	u, err := user.NewUser(
		id.NewUserID(),
		input.Email,
		string(hash),
		input.Name,
		input.Phone,
		input.Role,
		input.Donor,
		input.Hospital,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.notifier.Emit(ctx, events.KindMilestone, events.Milestone{
		UserID:      u.ID.String(),
		Achievement: "registration",
	})
	s.logger.InfoContext(ctx, "account registered",
		"user_id", u.ID.String(),
		"role", u.Role.String(),
	)
	return u, nil
}

// BootstrapAdmin provisions the admin account named in configuration. An
// empty email disables the bootstrap, and an existing account is left
// untouched so restarts are idempotent.
func (s *Service) BootstrapAdmin(ctx context.Context, emailAddr, password string) error {
	if emailAddr == "" {
		return nil
	}
	if len(password) < minPasswordLength {
		return dErrors.Newf(dErrors.CodeValidation, "admin password must be at least %d characters", minPasswordLength)
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return nil
	} else if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	u, err := user.NewUser(id.NewUserID(), emailAddr, string(hash), "", "",
		id.RoleAdmin, nil, nil, requestcontext.Now(ctx))
	if err != nil {
		return err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "admin account bootstrapped", "user_id", u.ID.String())
	return nil
}

// Login verifies the credentials and issues a token. Unknown emails and wrong
// passwords both count toward the lockout and return the same error, so the
// response does not reveal which emails are registered.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ip := requestcontext.ClientIP(ctx)
	if err := s.lockouts.Check(ctx, email, ip); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, s.failLogin(ctx, email, ip)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, s.failLogin(ctx, email, ip)
	}

	if err := s.lockouts.Clear(ctx, email, ip); err != nil {
		s.logger.WarnContext(ctx, "failed to clear login lockout", "error", err)
	}

	issued, err := s.tokens.Issue(u.ID, u.Role, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "login succeeded",
		"user_id", u.ID.String(),
		"role", u.Role.String(),
	)
	return &LoginResult{
		Token:      issued.Token,
		ExpiresAt:  issued.ExpiresAt,
		User:       u,
		DeviceName: device.ParseUserAgent(requestcontext.UserAgent(ctx)),
	}, nil
}

func (s *Service) failLogin(ctx context.Context, email, ip string) error {
	if err := s.lockouts.RecordFailure(ctx, email, ip); err != nil {
		s.logger.ErrorContext(ctx, "failed to record login failure", "error", err)
	}
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}

// Logout blacklists the token's jti for its remaining lifetime. An already
// expired token is a no-op.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.tokens.ValidateToken(rawToken)
	if err != nil {
		return err
	}
	if claims.ExpiresAt == nil || claims.ID == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	ttl := claims.ExpiresAt.Time.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}

	s.logger.InfoContext(ctx, "token revoked",
		"user_id", claims.Subject,
		"expires_in", ttl.Round(time.Second).String(),
	)
	return nil
}
