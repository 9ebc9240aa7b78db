package pipeline

import (
	"context"
	"errors"
	"fmt"

	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/observability"
	"example.com/wellness/internal/retry"
)

// Reclassifier changes the type of an activity on the remote account and reports the type the remote
// currently holds.
type Reclassifier interface {
	Reclassify(ctx context.Context, activityID int64, to domain.ActivityType) error
	ActivityType(ctx context.Context, activityID int64) (domain.ActivityType, error)
}

// ReclassifyRule rewrites activities of FromTypeID to To.
type ReclassifyRule struct {
	FromTypeID int
	To         domain.ActivityType
}

type reclassifyOutcome int

const (
	reclassifySkipped reclassifyOutcome = iota
	reclassifyApplied
	reclassifyTimedOut
)

func (s *Service) ruleFor(act domain.Activity) (ReclassifyRule, bool) {
	if s.reclassifier == nil {
		return ReclassifyRule{}, false
	}
	for _, rule := range s.rules {
		if rule.FromTypeID == act.Type.TypeID && rule.To.TypeID != act.Type.TypeID {
			return rule, true
		}
	}
	return ReclassifyRule{}, false
}

// reclassify submits the remote type change and waits until the remote reports it. On timeout the
// activity keeps its original type and the batch continues.
func (s *Service) reclassify(ctx context.Context, act domain.Activity) (domain.Activity, reclassifyOutcome, error) {
	rule, ok := s.ruleFor(act)
	if !ok {
		return act, reclassifySkipped, nil
	}

	err := s.awaitReclassified(ctx, act.ActivityID, rule.To)
	switch {
	case err == nil:
		observability.RecordReclassification("applied")
		s.logger.Info("activity reclassified",
			"activity_id", act.ActivityID,
			"from_type", act.Type.TypeKey,
			"to_type", rule.To.TypeKey,
		)
		act.OriginalTypeID = act.Type.TypeID
		act.Type = rule.To
		act.TypeCorrected = true
		return act, reclassifyApplied, nil
	case errors.Is(err, domain.ErrReclassificationTimeout):
		observability.RecordReclassification("timeout")
		s.logger.Warn("reclassification timed out, keeping original type",
			"activity_id", act.ActivityID,
			"type", act.Type.TypeKey,
			"timeout", s.reclassifyTimeout,
		)
		return act, reclassifyTimedOut, nil
	default:
		observability.RecordReclassification("failed")
		return act, reclassifySkipped, fmt.Errorf("reclassify activity %d: %w", act.ActivityID, err)
	}
}

// awaitReclassified bounds the submit and the confirmation poll by one reclassify timeout.
func (s *Service) awaitReclassified(ctx context.Context, activityID int64, to domain.ActivityType) error {
	boundCtx, cancel := context.WithTimeout(ctx, s.reclassifyTimeout)
	defer cancel()

	err := s.reclassifier.Reclassify(boundCtx, activityID, to)
	if err == nil {
		_, err = retry.Await(boundCtx, func(ctx context.Context) (domain.ActivityType, bool, error) {
			current, err := s.reclassifier.ActivityType(ctx, activityID)
			if err != nil {
				return current, false, err
			}
			return current, current.TypeID == to.TypeID, nil
		}, s.reclassifyTimeout, s.pollInterval)
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, retry.ErrTimeout) || (ctx.Err() == nil && boundCtx.Err() != nil) {
		return fmt.Errorf("%w: activity %d", domain.ErrReclassificationTimeout, activityID)
	}
	return err
}

// ReclassifyStored applies rule to every stored activity of rule.FromTypeID and reconciles the corrected
// rows in one batch. Activities that time out are left unchanged.
func (s *Service) ReclassifyStored(ctx context.Context, rule ReclassifyRule) (BatchResult, error) {
	if s.reclassifier == nil {
		return BatchResult{}, errors.New("no reclassifier configured")
	}

	var (
		pending []domain.Activity
		after   *domain.Cursor
	)
	for {
		page, next, err := s.store.Activities(ctx, domain.ActivityFilter{
			TypeIDs: []int{rule.FromTypeID},
			After:   after,
			Limit:   100,
		})
		if err != nil {
			return BatchResult{}, fmt.Errorf("list activities: %w", err)
		}
		pending = append(pending, page...)
		if next == nil {
			break
		}
		after = next
	}

	scoped := *s
	scoped.rules = []ReclassifyRule{rule}

	var (
		result    BatchResult
		corrected []domain.Activity
	)
	for _, act := range pending {
		updated, outcome, err := scoped.reclassify(ctx, act)
		if err != nil {
			observability.RecordBatchFailure("reclassify")
			return BatchResult{}, err
		}
		switch outcome {
		case reclassifyApplied:
			result.Reclassified++
			corrected = append(corrected, updated)
		case reclassifyTimedOut:
			result.TimedOut++
		}
	}
	if len(corrected) == 0 {
		s.logger.Info("no activities reclassified", "from_type_id", rule.FromTypeID, "candidates", len(pending))
		return result, nil
	}
	return s.apply(ctx, result, normalized{activities: corrected})
}
