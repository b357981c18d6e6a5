package moderation

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/listo-ph/listo/internal/auth"
	"github.com/listo-ph/listo/internal/model"
)

// Action is a review operation that can be applied to many reports at once.
type Action string

const (
	ActionValidate Action = "validate"
	ActionArchive  Action = "archive"
	ActionPenalize Action = "penalize"
	ActionDelete   Action = "delete"
)

// ParseAction accepts the action names used on the command line.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionValidate, ActionArchive, ActionPenalize, ActionDelete:
		return a, nil
	}
	return "", eris.Errorf("moderation: unknown action %q", s)
}

// Failure records why one id in a batch was not processed.
type Failure struct {
	ID  string `json:"id"`
	Err string `json:"error"`
}

// BatchSummary reports the outcome of Apply.
type BatchSummary struct {
	Action Action    `json:"action"`
	Done   []string  `json:"done"`
	Failed []Failure `json:"failed,omitempty"`
}

// Apply runs action on every id in order. A failed id is recorded and the batch continues.
// ActionDelete is the admin delete used for the mischievous-report queue; it does not penalize.
func (s *Service) Apply(ctx context.Context, sess auth.Session, action Action, ids []string) (BatchSummary, error) {
	sum := BatchSummary{Action: action}
	if err := sess.Require(auth.Admin); err != nil {
		return sum, err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		var err error
		switch action {
		case ActionValidate:
			err = s.Validate(ctx, sess, id, nil)
		case ActionArchive:
			err = s.Archive(ctx, sess, id, nil)
		case ActionPenalize:
			err = s.Penalize(ctx, sess, id)
		case ActionDelete:
			err = s.remove(ctx, id)
		default:
			return sum, eris.Errorf("moderation: unknown action %q", action)
		}
		if err != nil {
			sum.Failed = append(sum.Failed, Failure{ID: id, Err: err.Error()})
			continue
		}
		sum.Done = append(sum.Done, id)
	}
	return sum, nil
}

func (s *Service) remove(ctx context.Context, id string) error {
	return eris.Wrapf(s.store.DeleteIncident(ctx, model.CollectionReports, id), "moderation: delete %s", id)
}
