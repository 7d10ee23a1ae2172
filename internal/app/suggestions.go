package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/hangout/internal/adapters/repository"
	"github.com/okian/hangout/internal/domain/model"
	"github.com/okian/hangout/internal/domain/resolution"
	"github.com/okian/hangout/internal/domain/scoring"
	"github.com/okian/hangout/pkg/logger"
	"github.com/okian/hangout/pkg/metrics"
)

// SuggestionView is a queued suggestion with its score breakdown.
type SuggestionView struct {
	model.Suggestion
	Quality scoring.Quality `json:"quality"`
	Perfect bool            `json:"perfect_match"`
}

// Resolution is the result of Accept or Decline.
type Resolution struct {
	Suggestion  model.Suggestion    `json:"suggestion"`
	Decision    resolution.Decision `json:"decision"`
	Joined      bool                `json:"joined"`
	PointsDelta int64               `json:"points_delta"`
	Points      int64               `json:"points"`
}

// Suggestions returns the user's pending suggestions, oldest first.
func (s *Service) Suggestions(ctx context.Context, user string) ([]SuggestionView, error) {
	u, err := s.collections(ctx, user)
	if err != nil {
		return nil, err
	}
	views := make([]SuggestionView, 0, len(u.Suggestions))
	for _, sg := range u.Suggestions {
		views = append(views, SuggestionView{
			Suggestion: sg,
			Quality:    scoring.QualityOf(sg.MatchPercentage),
			Perfect:    sg.MatchPercentage == 100,
		})
	}
	return views, nil
}

// Joined returns the events the user has accepted.
func (s *Service) Joined(ctx context.Context, user string) ([]model.CatalogEvent, error) {
	u, err := s.collections(ctx, user)
	if err != nil {
		return nil, err
	}
	return u.Joined, nil
}

// Points returns the user's ledger balance.
func (s *Service) Points(ctx context.Context, user string) (int64, error) {
	user, err := s.checkUser(user)
	if err != nil {
		return 0, err
	}
	return s.ledger.Get(ctx, user)
}

// Accept joins the suggested event, credits the reward and archives the request.
func (s *Service) Accept(ctx context.Context, user, suggestionID string) (Resolution, error) {
	return s.resolve(ctx, user, suggestionID, resolution.Accept)
}

// Decline drops the suggestion and archives the request.
func (s *Service) Decline(ctx context.Context, user, suggestionID string) (Resolution, error) {
	return s.resolve(ctx, user, suggestionID, resolution.Decline)
}

func (s *Service) resolve(ctx context.Context, user, suggestionID string, d resolution.Decision) (Resolution, error) {
	user, err := s.checkUser(user)
	if err != nil {
		return Resolution{}, err
	}

	var out resolution.Outcome
	err = s.store.UpdateCollections(ctx, user, func(u model.UserCollections) (model.UserCollections, error) {
		o, err := resolution.Resolve(u, suggestionID, d, s.acceptReward)
		if err != nil {
			return u, err
		}
		out = o
		return o.Collections, nil
	})
	if err != nil {
		if errors.Is(err, resolution.ErrSuggestionNotFound) {
			metrics.RecordResolution(string(d), "not_found")
			return Resolution{}, err
		}
		metrics.RecordResolution(string(d), "error")
		return Resolution{}, fmt.Errorf("resolve suggestion %s: %w", suggestionID, err)
	}

	res := Resolution{
		Suggestion:  out.Suggestion,
		Decision:    out.Decision,
		Joined:      out.Joined,
		PointsDelta: out.PointsDelta,
	}

	detail := fmt.Sprintf("%s suggestion %s", d, suggestionID)
	var creditErr error
	if out.PointsDelta != 0 {
		total, err := s.ledger.Add(ctx, user, out.PointsDelta)
		if err != nil {
			metrics.RecordErrorByComponent("ledger", "add")
			s.logger.Error(ctx, "points not credited",
				logger.String("user", user),
				logger.String("suggestionId", suggestionID),
				logger.Int64("delta", out.PointsDelta),
				logger.Error(err),
			)
			creditErr = fmt.Errorf("credit points: %w", err)
			detail += fmt.Sprintf("; %d points not credited", out.PointsDelta)
		} else {
			res.Points = total
			metrics.RecordPointsAwarded(out.PointsDelta)
		}
	} else if total, err := s.ledger.Get(ctx, user); err == nil {
		res.Points = total
	}

	if err := s.store.ArchiveRequest(ctx, out.Suggestion.RequestID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn(ctx, "archive request",
			logger.String("requestId", out.Suggestion.RequestID),
			logger.Error(err),
		)
	}

	action := model.AuditDeclined
	if d == resolution.Accept {
		action = model.AuditAccepted
	}
	s.queue.Record(ctx, model.AuditEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Actor:     user,
		Requester: user,
		RequestID: out.Suggestion.RequestID,
		EventID:   out.Suggestion.Event.ID,
		At:        s.now().UTC(),
		Detail:    detail,
	})

	if creditErr != nil {
		metrics.RecordResolution(string(d), "partial")
		return res, creditErr
	}
	metrics.RecordResolution(string(d), "ok")
	s.logger.Info(ctx, "suggestion resolved",
		logger.String("user", user),
		logger.String("suggestionId", suggestionID),
		logger.String("decision", string(d)),
		logger.Bool("joined", out.Joined),
		logger.Int64("points", res.Points),
	)
	return res, nil
}

func (s *Service) collections(ctx context.Context, user string) (model.UserCollections, error) {
	user, err := s.checkUser(user)
	if err != nil {
		return model.UserCollections{}, err
	}
	return s.store.GetCollections(ctx, user)
}

func (s *Service) checkUser(user string) (string, error) {
	if err := s.ensureStarted(); err != nil {
		return "", err
	}
	user = strings.TrimSpace(user)
	if user == "" {
		return "", ErrInvalidUser
	}
	return user, nil
}
