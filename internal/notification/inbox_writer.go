package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"lifeline/contracts/events"
	"lifeline/internal/platform/kafka/consumer"
	id "lifeline/pkg/domain"
)

// InboxWriter consumes notification events and materializes one inbox row
// per recipient. Malformed envelopes and unknown kinds are logged and
// committed rather than redelivered forever; store failures are returned so
// the record stays uncommitted and comes back on the next poll.
type InboxWriter struct {
	inbox  InboxStore
	logger *slog.Logger
}

// NewInboxWriter constructs an InboxWriter over the given store.
func NewInboxWriter(inbox InboxStore, logger *slog.Logger) *InboxWriter {
	return &InboxWriter{inbox: inbox, logger: logger}
}

// Handle implements consumer.Handler.
func (w *InboxWriter) Handle(ctx context.Context, msg *consumer.Message) error {
	var env events.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		w.logger.ErrorContext(ctx, "malformed event envelope, skipping",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	rows, err := w.notificationsFor(env)
	if err != nil {
		w.logger.ErrorContext(ctx, "unroutable event, skipping",
			"kind", env.Kind,
			"event_id", env.ID,
			"error", err,
		)
		return nil
	}

	for _, n := range rows {
		if err := w.inbox.Insert(ctx, n); err != nil {
			return fmt.Errorf("insert notification for %s: %w", n.UserID, err)
		}
	}
	return nil
}

func (w *InboxWriter) notificationsFor(env events.Envelope) ([]*Notification, error) {
	switch env.Kind {
	case events.KindMatchFound:
		var p events.MatchFound
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		donor := p.DonorName
		if donor == "" {
			donor = "A donor"
		}
		body := fmt.Sprintf("%s committed to your request", donor)
		if p.BloodType != "" {
			body = fmt.Sprintf("%s committed %d unit(s) of %s to your request", donor, p.Quantity, p.BloodType)
		}
		return w.single(env, p.HospitalUserID, "Donor match found", body)

	case events.KindRequestBroadcast:
		var p events.RequestBroadcast
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		hospital := p.HospitalName
		if hospital == "" {
			hospital = "A hospital"
		}
		what := p.RequestKind
		if p.BloodType != "" {
			what = p.BloodType + " blood"
		} else if p.OrganType != "" {
			what = "a " + p.OrganType
		}
		body := fmt.Sprintf("%s needs %s (%s urgency) by %s",
			hospital, what, p.Urgency, p.RequiredBy.Format("Jan 2"))

		rows := make([]*Notification, 0, len(p.DonorIDs))
		for _, rawID := range p.DonorIDs {
			n, err := w.build(env, rawID, "Donation request near you", body)
			if err != nil {
				return nil, err
			}
			rows = append(rows, n)
		}
		return rows, nil

	case events.KindMilestone:
		var p events.Milestone
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		return w.single(env, p.UserID, "Milestone reached",
			fmt.Sprintf("Congratulations on your %s!", p.Achievement))

	case events.KindDonationStatusChanged:
		var p events.DonationStatusChanged
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		body := fmt.Sprintf("Donation moved from %s to %s", p.OldStatus, p.NewStatus)
		donorRow, err := w.build(env, p.DonorID, "Donation status updated", body)
		if err != nil {
			return nil, err
		}
		hospitalRow, err := w.build(env, p.HospitalUserID, "Donation status updated", body)
		if err != nil {
			return nil, err
		}
		return []*Notification{donorRow, hospitalRow}, nil

	case events.KindRequestCancelled:
		var p events.RequestCancelled
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		rows := make([]*Notification, 0, len(p.DonorIDs))
		for _, rawID := range p.DonorIDs {
			n, err := w.build(env, rawID, "Request cancelled",
				"A request you volunteered for was cancelled by the hospital")
			if err != nil {
				return nil, err
			}
			rows = append(rows, n)
		}
		return rows, nil

	default:
		return nil, fmt.Errorf("unknown event kind %q", env.Kind)
	}
}

func (w *InboxWriter) single(env events.Envelope, rawUserID, title, body string) ([]*Notification, error) {
	n, err := w.build(env, rawUserID, title, body)
	if err != nil {
		return nil, err
	}
	return []*Notification{n}, nil
}

func (w *InboxWriter) build(env events.Envelope, rawUserID, title, body string) (*Notification, error) {
	userID, err := id.ParseUserID(rawUserID)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	return NewNotification(env.ID, userID, env.Kind, title, body, env.OccurredAt)
}
