package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"liquid-home-console/internal/domain/model"
	"liquid-home-console/internal/ports"
)

var log = logrus.WithField("prefix", "store")

var ErrUnknownAction = errors.New("unknown action id")

// JSONConfigRepository is a ConfigBackend kept in a local JSON file, used
// when the console runs without the vision backend.
type JSONConfigRepository struct {
	filepath string
	mu       sync.RWMutex
}

type fileConfig struct {
	Actions []model.Action `json:"actions"`
	Rules   []model.Rule   `json:"rules"`
}

// Internal structure for migration
type legacyConfig struct {
	Rules []legacyRule `json:"rules"`
}

type legacyRule struct {
	ID            string `json:"id"`
	ConditionText string `json:"conditionText"`
	ActionID      string `json:"actionId"`
}

func NewJSONConfigRepository(filepath string) *JSONConfigRepository {
	return &JSONConfigRepository{filepath: filepath}
}

func (r *JSONConfigRepository) FetchConfig(ctx context.Context) (model.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, err := r.load()
	if err != nil {
		return model.Snapshot{}, err
	}
	return model.Snapshot{Actions: cfg.Actions, Rules: cfg.Rules}, nil
}

func (r *JSONConfigRepository) CreateRule(ctx context.Context, conditionText, actionID string) (model.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.load()
	if err != nil {
		return model.Rule{}, err
	}

	condition := strings.TrimSpace(conditionText)
	action := strings.TrimSpace(actionID)
	if condition == "" {
		return model.Rule{}, errors.New("condition_text must be a non-empty string")
	}
	if _, ok := model.NewVocabulary(cfg.Actions).Lookup(action); !ok {
		return model.Rule{}, fmt.Errorf("%w %q", ErrUnknownAction, action)
	}

	rule := model.Rule{
		ID:            "rule-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		ConditionText: condition,
		ActionID:      action,
	}
	cfg.Rules = append(cfg.Rules, rule)
	if err := r.save(cfg); err != nil {
		return model.Rule{}, err
	}
	log.WithField("rule", rule.ID).Debug("rule stored")
	return rule, nil
}

func (r *JSONConfigRepository) DeleteRule(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.load()
	if err != nil {
		return err
	}
	kept := cfg.Rules[:0]
	for _, rule := range cfg.Rules {
		if rule.ID != id {
			kept = append(kept, rule)
		}
	}
	if len(kept) == len(cfg.Rules) {
		return fmt.Errorf("rule %s: %w", id, ports.ErrRuleNotFound)
	}
	cfg.Rules = kept
	return r.save(cfg)
}

// load reads the file. A missing file yields the default actions and no rules.
func (r *JSONConfigRepository) load() (*fileConfig, error) {
	data, err := os.ReadFile(r.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileConfig{Actions: model.DefaultActions(), Rules: []model.Rule{}}, nil
		}
		return nil, err
	}

	var cfg fileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.filepath, err)
	}
	if len(cfg.Actions) == 0 {
		cfg.Actions = model.DefaultActions()
	}
	r.migrate(data, &cfg)
	return &cfg, nil
}

// migrate fills rules written with the older camelCase field names.
func (r *JSONConfigRepository) migrate(data []byte, cfg *fileConfig) {
	var legacy legacyConfig
	if err := json.Unmarshal(data, &legacy); err != nil || len(legacy.Rules) != len(cfg.Rules) {
		return
	}
	for i, old := range legacy.Rules {
		rule := &cfg.Rules[i]
		if rule.ConditionText == "" && old.ConditionText != "" {
			rule.ConditionText = old.ConditionText
		}
		if rule.ActionID == "" && old.ActionID != "" {
			rule.ActionID = old.ActionID
		}
		if rule.ID == "" {
			rule.ID = old.ID
		}
	}
}

func (r *JSONConfigRepository) save(cfg *fileConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.filepath, data, 0644)
}

var _ ports.ConfigBackend = (*JSONConfigRepository)(nil)
