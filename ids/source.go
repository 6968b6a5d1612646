package ids

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"context"
	"fmt"
	"sync"

	"github.com/npillmayer/arbor/model"
)

// IDSource hands out batches of fresh IDs, e.g. a model repository.
type IDSource interface {
	ProvideIDs(ctx context.Context, count int) ([]string, error)
}

// DefaultBatchSize is the number of IDs Batched requests at once.
const DefaultBatchSize = 4096

// Batched is a provider handing out IDs from an IDSource, requesting them in batches.
// Each call of ID for a node without an ID consumes a fresh ID.
type Batched struct {
	mx        sync.Mutex
	ctx       context.Context
	src       IDSource
	batchSize int
	available []string
}

// AssignFromSource creates a provider taking its IDs from src. A batchSize
// of 0 selects DefaultBatchSize.
func AssignFromSource(ctx context.Context, src IDSource, batchSize int) *Batched {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Batched{ctx: ctx, src: src, batchSize: batchSize}
}

// ID is part of interface Provider.
func (b *Batched) ID(n *model.Node) (string, error) {
	if n.HasID() {
		return n.ID(), nil
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	if len(b.available) == 0 {
		ids, err := b.src.ProvideIDs(b.ctx, b.batchSize)
		if err != nil {
			return "", nodeError(n, fmt.Errorf("%w: %w", ErrIDGeneration, err))
		}
		if len(ids) == 0 {
			return "", nodeError(n, fmt.Errorf("%w: ID source is exhausted", ErrIDGeneration))
		}
		tracer().Debugf("received %d IDs from source", len(ids))
		b.available = ids
	}
	id := b.available[0]
	b.available = b.available[1:]
	return id, nil
}
