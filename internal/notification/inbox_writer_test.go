package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lifeline/contracts/events"
	"lifeline/internal/platform/kafka/consumer"
	id "lifeline/pkg/domain"
)

type InboxWriterSuite struct {
	suite.Suite

	inbox  *InMemoryInbox
	writer *InboxWriter
	now    time.Time
}

func TestInboxWriterSuite(t *testing.T) {
	suite.Run(t, new(InboxWriterSuite))
}

func (s *InboxWriterSuite) SetupTest() {
	s.inbox = NewInMemoryInbox()
	s.writer = NewInboxWriter(s.inbox, discardLogger())
	s.now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InboxWriterSuite) envelope(eventID, kind string, payload any) *consumer.Message {
	raw, err := json.Marshal(payload)
	s.Require().NoError(err)
	env := events.Envelope{ID: eventID, Kind: kind, OccurredAt: s.now, Payload: raw}
	value, err := json.Marshal(env)
	s.Require().NoError(err)
	return &consumer.Message{Topic: events.Topic, Key: []byte(eventID), Value: value}
}

func (s *InboxWriterSuite) inboxOf(userID id.UserID) []*Notification {
	rows, err := s.inbox.ListByUser(context.Background(), userID, ListFilter{})
	s.Require().NoError(err)
	return rows
}

func (s *InboxWriterSuite) TestMatchFound() {
	hospital := id.NewUserID()
	msg := s.envelope("ev-1", events.KindMatchFound, events.MatchFound{
		HospitalUserID: hospital.String(),
		DonorID:        id.NewUserID().String(),
		DonorName:      "Dana Reyes",
		BloodType:      "O+",
		Quantity:       2,
	})
	s.Require().NoError(s.writer.Handle(context.Background(), msg))

	rows := s.inboxOf(hospital)
	s.Require().Len(rows, 1)
	s.Equal("Donor match found", rows[0].Title)
	s.Contains(rows[0].Body, "Dana Reyes")
	s.Contains(rows[0].Body, "O+")
	s.Equal(events.KindMatchFound, rows[0].Kind)
	s.False(rows[0].Read)
	s.Equal(s.now, rows[0].CreatedAt)
}

func (s *InboxWriterSuite) TestRequestBroadcastFansOut() {
	donorA := id.NewUserID()
	donorB := id.NewUserID()
	msg := s.envelope("ev-2", events.KindRequestBroadcast, events.RequestBroadcast{
		DonorIDs:     []string{donorA.String(), donorB.String()},
		RequestID:    id.NewRequestID().String(),
		HospitalName: "City General",
		RequestKind:  "blood",
		BloodType:    "O+",
		Urgency:      "high",
		RequiredBy:   s.now.Add(72 * time.Hour),
	})
	s.Require().NoError(s.writer.Handle(context.Background(), msg))

	for _, donorID := range []id.UserID{donorA, donorB} {
		rows := s.inboxOf(donorID)
		s.Require().Len(rows, 1)
		s.Equal("Donation request near you", rows[0].Title)
		s.Contains(rows[0].Body, "City General")
		s.Contains(rows[0].Body, "O+ blood")
		s.Contains(rows[0].Body, "high urgency")
	}
}

func (s *InboxWriterSuite) TestDonationStatusChangedNotifiesBothSides() {
	donor := id.NewUserID()
	hospital := id.NewUserID()
	msg := s.envelope("ev-3", events.KindDonationStatusChanged, events.DonationStatusChanged{
		DonationID:     id.NewDonationID().String(),
		DonorID:        donor.String(),
		HospitalUserID: hospital.String(),
		OldStatus:      "pending",
		NewStatus:      "scheduled",
	})
	s.Require().NoError(s.writer.Handle(context.Background(), msg))

	for _, userID := range []id.UserID{donor, hospital} {
		rows := s.inboxOf(userID)
		s.Require().Len(rows, 1)
		s.Contains(rows[0].Body, "pending")
		s.Contains(rows[0].Body, "scheduled")
	}
}

func (s *InboxWriterSuite) TestMilestone() {
	donor := id.NewUserID()
	msg := s.envelope("ev-4", events.KindMilestone, events.Milestone{
		UserID:      donor.String(),
		Achievement: "5 donations",
	})
	s.Require().NoError(s.writer.Handle(context.Background(), msg))

	rows := s.inboxOf(donor)
	s.Require().Len(rows, 1)
	s.Equal("Milestone reached", rows[0].Title)
	s.Contains(rows[0].Body, "5 donations")
}

func (s *InboxWriterSuite) TestRequestCancelledNotifiesDonors() {
	donor := id.NewUserID()
	msg := s.envelope("ev-5", events.KindRequestCancelled, events.RequestCancelled{
		RequestID:      id.NewRequestID().String(),
		HospitalUserID: id.NewUserID().String(),
		DonorIDs:       []string{donor.String()},
	})
	s.Require().NoError(s.writer.Handle(context.Background(), msg))

	rows := s.inboxOf(donor)
	s.Require().Len(rows, 1)
	s.Equal("Request cancelled", rows[0].Title)
}

func (s *InboxWriterSuite) TestRedeliveryIsIdempotent() {
	hospital := id.NewUserID()
	msg := s.envelope("ev-6", events.KindMatchFound, events.MatchFound{
		HospitalUserID: hospital.String(),
		DonorID:        id.NewUserID().String(),
	})
	s.Require().NoError(s.writer.Handle(context.Background(), msg))
	s.Require().NoError(s.writer.Handle(context.Background(), msg))

	s.Len(s.inboxOf(hospital), 1)
}

func (s *InboxWriterSuite) TestMalformedEnvelopeIsCommitted() {
	msg := &consumer.Message{Topic: events.Topic, Value: []byte("not json")}
	s.NoError(s.writer.Handle(context.Background(), msg))
}

func (s *InboxWriterSuite) TestUnknownKindIsCommitted() {
	msg := s.envelope("ev-7", "telepathy", struct{}{})
	s.NoError(s.writer.Handle(context.Background(), msg))
}

type failingInbox struct {
	InMemoryInbox
}

func (f *failingInbox) Insert(context.Context, *Notification) error {
	return errors.New("connection reset")
}

func (s *InboxWriterSuite) TestStoreFailureLeavesRecordUncommitted() {
	writer := NewInboxWriter(&failingInbox{}, discardLogger())
	msg := s.envelope("ev-8", events.KindMilestone, events.Milestone{
		UserID: id.NewUserID().String(),
	})
	s.Error(writer.Handle(context.Background(), msg))
}
