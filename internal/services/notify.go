package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventboard/internal/domain"
)

const notifyTimeout = 30 * time.Second

// DecisionNotifier emails requesters about moderation outcomes. Delivery is
// best effort and runs off the request goroutine; failures are logged and
// never surface to the moderating call.
type DecisionNotifier struct {
	userRepo domain.UserRepository
	mailer   domain.Mailer
	logger   *slog.Logger
}

// NewDecisionNotifier creates a DecisionNotifier with the given directory,
// mailer, and logger.
func NewDecisionNotifier(userRepo domain.UserRepository, mailer domain.Mailer, logger *slog.Logger) *DecisionNotifier {
	return &DecisionNotifier{
		userRepo: userRepo,
		mailer:   mailer,
		logger:   logger,
	}
}

// NotifyModerated announces the result of one moderation batch to the
// affected requesters.
func (n *DecisionNotifier) NotifyModerated(event *domain.Event, result *domain.RequestModerationResult) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		for _, req := range result.ConfirmedRequests {
			n.send(ctx, event, req, "confirmed")
		}
		for _, req := range result.RejectedRequests {
			n.send(ctx, event, req, "rejected")
		}
	}()
}

func (n *DecisionNotifier) send(ctx context.Context, event *domain.Event, req *domain.ParticipationRequest, decision string) {
	user, err := n.userRepo.GetByID(ctx, req.RequesterID)
	if err != nil {
		n.logger.Warn("decision notification skipped", "request_id", req.ID, "err", err)
		return
	}
	subject := fmt.Sprintf("Your participation request for %q was %s", event.Title, decision)
	text := fmt.Sprintf("Hi %s,\n\nyour request to participate in %q on %s was %s.\n",
		user.Name, event.Title, event.EventDate.Format("2006-01-02 15:04"), decision)
	if err := n.mailer.Send(user.Email, subject, "", text); err != nil {
		n.logger.Warn("decision notification failed", "request_id", req.ID, "email", user.Email, "err", err)
	}
}
