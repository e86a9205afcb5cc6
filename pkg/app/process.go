// Copyright 2025 Grug Framework
//
// The message processor: dispatches one built-in message variant to its
// handler. Each handler produces a tree of events and may trigger further
// nested work through submessages.

package app

import (
	"fmt"

	"github.com/grugnet/grug/pkg/types"
)

// processMsg executes one message on the frame's storage, returning the
// handler's event. The caller decides what a failure means (abort the tx
// step, abort the submessage scope, ...).
func (a *App) processMsg(ctx execCtx, sender types.Addr, msg types.Message) (types.Event, error) {
	if ctx.msgDepth > MaxMessageDepth {
		return types.Event{}, types.ErrExceedMaxMessageDepth
	}
	switch {
	case msg.Configure != nil:
		return a.doConfigure(ctx, sender, *msg.Configure)
	case msg.Transfer != nil:
		return a.doTransfer(ctx, sender, *msg.Transfer, true)
	case msg.Upload != nil:
		return a.doUpload(ctx, sender, *msg.Upload)
	case msg.Instantiate != nil:
		return a.doInstantiate(ctx, sender, *msg.Instantiate)
	case msg.Execute != nil:
		return a.doExecute(ctx, sender, *msg.Execute)
	case msg.Migrate != nil:
		return a.doMigrate(ctx, sender, *msg.Migrate)
	default:
		return types.Event{}, fmt.Errorf("empty message")
	}
}
