package service

import (
	"context"

	"liquid-home-console/internal/domain/model"
	"liquid-home-console/internal/ports"
)

// Bootstrapper fetches the vocabulary and rules once at startup.
type Bootstrapper struct {
	backend ports.ConfigBackend
}

func NewBootstrapper(backend ports.ConfigBackend) *Bootstrapper {
	return &Bootstrapper{backend: backend}
}

// LoadInitial never fails: any backend error yields an empty snapshot so the
// console stays usable.
func (b *Bootstrapper) LoadInitial(ctx context.Context) model.Snapshot {
	if b.backend == nil {
		return model.Snapshot{}
	}
	snap, err := b.backend.FetchConfig(ctx)
	if err != nil {
		log.WithError(err).Warn("could not load initial config, continuing with no actions and no rules")
		return model.Snapshot{}
	}
	log.Infof("loaded %d actions and %d rules", len(snap.Actions), len(snap.Rules))
	return snap
}
