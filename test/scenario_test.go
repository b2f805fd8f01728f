package test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lifeline/contracts/events"
	"lifeline/internal/donation"
	"lifeline/internal/eligibility"
	"lifeline/internal/matching"
	"lifeline/internal/request"
	"lifeline/internal/user"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/tx"
	"lifeline/pkg/requestcontext"
)

type capturingNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (n *capturingNotifier) Emit(_ context.Context, kind string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
}

func (n *capturingNotifier) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, k := range n.kinds {
		if k == kind {
			c++
		}
	}
	return c
}

// TestCriticalRequestScenario walks the whole domain once at service level:
// a critical O+ request is opened, the compatible donor is matched while the
// incompatible one is excluded, the donation runs to completion, and the
// cooldown blocks an immediate repeat.
func TestCriticalRequestScenario(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &capturingNotifier{}

	userStore := user.NewInMemory()
	users := user.NewService(userStore, user.WithLogger(logger))
	evaluator := eligibility.New(eligibility.Config{})

	requestStore := request.NewInMemory()
	donationStore := donation.NewInMemory()
	matcher := matching.NewService(userStore, requestStore, donationStore,
		evaluator, matching.DefaultConfig(), matching.WithLogger(logger))
	requests := request.NewService(requestStore, matcher, users, notifier,
		request.WithLogger(logger))
	donations := donation.NewService(donationStore, users, requests, evaluator,
		tx.NewMemoryRunner(), notifier, donation.WithLogger(logger))
	requests.SetDonationCanceller(donations)

	newUser := func(emailAddr string, role id.Role, donorProfile *user.DonorProfile, hospitalProfile *user.HospitalProfile) id.UserID {
		u, err := user.NewUser(id.NewUserID(), emailAddr, "hash", "", "", role,
			donorProfile, hospitalProfile, now)
		require.NoError(t, err)
		require.NoError(t, users.Create(ctx, u))
		return u.ID
	}

	oPos, aNeg := id.BloodOPos, id.BloodANeg
	hospitalID := newUser("er@hospital.example", id.RoleHospital, nil,
		&user.HospitalProfile{HospitalName: "City General"})
	matchingDonor := newUser("opos@example.com", id.RoleDonor,
		&user.DonorProfile{BloodType: &oPos, Available: true}, nil)
	newUser("aneg@example.com", id.RoleDonor,
		&user.DonorProfile{BloodType: &aNeg, Available: true}, nil)

	req, err := requests.Create(ctx, request.CreateInput{
		HospitalID: hospitalID,
		Kind:       id.KindBlood,
		BloodType:  &oPos,
		Urgency:    id.UrgencyCritical,
		Quantity:   2,
		RequiredBy: now.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, 1, notifier.count(events.KindRequestBroadcast))

	// Only the O+ donor is a candidate; A- cannot donate to O+.
	candidates, err := matcher.FindCandidateDonors(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, matchingDonor, candidates[0].Donor.ID)

	created, err := donations.Create(ctx, matchingDonor, req.ID, 1, "")
	require.NoError(t, err)
	require.Equal(t, donation.StatusPending, created.Status)
	require.Equal(t, 1, notifier.count(events.KindMatchFound))

	// A second commitment while the first is still active is a conflict.
	_, err = donations.Create(ctx, matchingDonor, req.ID, 1, "")
	require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = donations.UpdateStatus(ctx, created.ID,
		donation.Transition{Target: donation.StatusCompleted}, hospitalID, id.RoleHospital)
	require.NoError(t, err)

	// Completion anchors the donor's cooldown, so an immediate repeat is
	// ineligible rather than conflicting.
	donor, err := users.Get(ctx, matchingDonor)
	require.NoError(t, err)
	require.NotNil(t, donor.Donor.LastDonationAt)
	require.True(t, donor.Donor.LastDonationAt.Equal(now))

	_, err = donations.Create(ctx, matchingDonor, req.ID, 1, "")
	require.True(t, dErrors.HasCode(err, dErrors.CodeIneligible))
}
