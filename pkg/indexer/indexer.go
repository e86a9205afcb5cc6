// Copyright 2025 Grug Framework
//
// The indexer hook: a synchronous, side-effect-only collaborator invoked
// after each block is committed. It must not observe uncommitted state and
// must not feed data back into the chain; failures are logged by the caller
// and never invalidate a block.

package indexer

import "github.com/grugnet/grug/pkg/types"

// Indexer receives each committed block together with its outcome.
type Indexer interface {
	IndexBlock(block *types.Block, outcome *types.BlockOutcome) error
	Close() error
}

// Null is the default no-op indexer.
type Null struct{}

func (Null) IndexBlock(*types.Block, *types.BlockOutcome) error { return nil }
func (Null) Close() error                                       { return nil }

// Memory keeps indexed blocks in memory, for tests.
type Memory struct {
	Blocks   []types.Block
	Outcomes []types.BlockOutcome
}

func (m *Memory) IndexBlock(block *types.Block, outcome *types.BlockOutcome) error {
	m.Blocks = append(m.Blocks, *block)
	m.Outcomes = append(m.Outcomes, *outcome)
	return nil
}

func (m *Memory) Close() error { return nil }
