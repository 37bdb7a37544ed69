package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"liquid-home-console/internal/domain/model"
	"liquid-home-console/internal/ports"
)

var (
	ErrEmptyCondition   = errors.New("condition text is empty")
	ErrMissingAction    = errors.New("no action selected")
	ErrCapacityExceeded = fmt.Errorf("rule limit of %d reached", model.MaxRules)
)

// PersistenceError reports a backend failure while creating or deleting a rule.
// The local rule list is unchanged when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s rule: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Registry is the ordered, bounded list of rules. With a backend every change
// is confirmed remotely before it is applied locally.
type Registry struct {
	mu      sync.Mutex
	rules   []model.Rule
	pending int
	backend ports.ConfigBackend
	newID   func() string
}

// NewRegistry creates a registry. A nil backend keeps rules in memory only.
func NewRegistry(backend ports.ConfigBackend) *Registry {
	return &Registry{backend: backend, newID: NewRuleID}
}

// NewRuleID generates a local rule id in the backend's format.
func NewRuleID() string {
	return "rule-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Seed replaces the rule list with the rules fetched at startup.
func (r *Registry) Seed(rules []model.Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = r.rules[:0]
	for _, rule := range rules {
		if len(r.rules) == model.MaxRules {
			log.Warnf("backend returned %d rules, keeping the first %d", len(rules), model.MaxRules)
			break
		}
		r.rules = append(r.rules, rule)
	}
}

// List returns the rules in insertion order.
func (r *Registry) List() []model.Rule {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

func (r *Registry) Get(id string) (model.Rule, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(id); i >= 0 {
		return r.rules[i], true
	}
	return model.Rule{}, false
}

// Add validates and appends a rule. A slot is reserved while the backend call
// is in flight so concurrent adds can never exceed MaxRules.
func (r *Registry) Add(ctx context.Context, conditionText, actionID string) (model.Rule, error) {
	condition := strings.TrimSpace(conditionText)
	if condition == "" {
		return model.Rule{}, ErrEmptyCondition
	}
	action := strings.TrimSpace(actionID)
	if action == "" {
		return model.Rule{}, ErrMissingAction
	}

	r.mu.Lock()
	if len(r.rules)+r.pending >= model.MaxRules {
		r.mu.Unlock()
		return model.Rule{}, ErrCapacityExceeded
	}
	if r.backend == nil {
		rule := model.Rule{ID: r.newID(), ConditionText: condition, ActionID: action}
		r.rules = append(r.rules, rule)
		r.mu.Unlock()
		log.WithField("rule", rule.ID).Info("rule added")
		return rule, nil
	}
	r.pending++
	r.mu.Unlock()

	rule, err := r.backend.CreateRule(ctx, condition, action)

	r.mu.Lock()
	r.pending--
	if err != nil {
		r.mu.Unlock()
		log.WithError(err).Warn("backend rejected new rule")
		return model.Rule{}, &PersistenceError{Op: "create", Err: err}
	}
	if rule.ID == "" {
		rule.ID = r.newID()
	}
	if len(r.rules) >= model.MaxRules {
		r.mu.Unlock()
		r.compensate(rule.ID)
		return model.Rule{}, ErrCapacityExceeded
	}
	r.rules = append(r.rules, rule)
	r.mu.Unlock()

	log.WithField("rule", rule.ID).Info("rule added")
	return rule, nil
}

// compensate removes a rule the backend accepted but the registry had no room for.
func (r *Registry) compensate(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), compensateTimeout)
	defer cancel()
	if err := r.backend.DeleteRule(ctx, id); err != nil {
		log.WithError(err).WithField("rule", id).Warn("could not remove surplus rule from backend")
	}
}

// Delete removes the rule with id. Unknown ids are a no-op. With a backend the
// rule is removed locally only after the backend confirmed the removal; a
// backend that no longer knows the rule counts as confirmation.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	known := r.indexOf(id) >= 0
	r.mu.Unlock()
	if !known {
		return nil
	}

	if r.backend != nil {
		if err := r.backend.DeleteRule(ctx, id); err != nil && !errors.Is(err, ports.ErrRuleNotFound) {
			log.WithError(err).WithField("rule", id).Warn("backend rejected rule removal")
			return &PersistenceError{Op: "delete", Err: err}
		}
	}

	r.mu.Lock()
	if i := r.indexOf(id); i >= 0 {
		r.rules = append(r.rules[:i], r.rules[i+1:]...)
	}
	r.mu.Unlock()
	log.WithField("rule", id).Info("rule deleted")
	return nil
}

func (r *Registry) indexOf(id string) int {
	for i, rule := range r.rules {
		if rule.ID == id {
			return i
		}
	}
	return -1
}
