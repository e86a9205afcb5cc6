// Copyright 2025 Grug Framework
//
// Handlers for chain-level messages: Configure and Upload.

package app

import (
	"bytes"
	"fmt"

	"github.com/grugnet/grug/pkg/types"
)

// doConfigure replaces chain config fields and/or app-config entries. Only
// the current owner may call; a Null app-config value deletes the key.
func (a *App) doConfigure(ctx execCtx, sender types.Addr, msg types.MsgConfigure) (types.Event, error) {
	evt := evtConfigure(sender)

	cfg, err := loadConfig(ctx.storage)
	if err != nil {
		return evt, err
	}
	if !ctx.genesis {
		if cfg.Owner == nil || *cfg.Owner != sender {
			return evt, fmt.Errorf("%w: sender is not the chain owner", types.ErrUnauthorized)
		}
	}

	if msg.Cfg != nil {
		if err := saveConfig(ctx.storage, *msg.Cfg); err != nil {
			return evt, err
		}
		// The cron schedule derives from the config; rebuild it.
		if err := a.rescheduleCronjobs(ctx, *msg.Cfg); err != nil {
			return evt, err
		}
		evt = evt.AddAttribute("updated", "config")
	}

	for key, value := range msg.AppCfgs {
		if isJSONNull(value) {
			if err := ctx.storage.Remove(appConfigKey(key)); err != nil {
				return evt, err
			}
		} else {
			if err := ctx.storage.Write(appConfigKey(key), value); err != nil {
				return evt, err
			}
		}
	}
	return evt, nil
}

func isJSONNull(raw types.Json) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// doUpload stores code bytes under their hash. Idempotent: re-uploading an
// existing code is a no-op, not an error.
func (a *App) doUpload(ctx execCtx, sender types.Addr, msg types.MsgUpload) (types.Event, error) {
	codeHash := types.HashOf(msg.Code)
	evt := evtUpload(sender, codeHash)

	if !ctx.genesis {
		cfg, err := loadConfig(ctx.storage)
		if err != nil {
			return evt, err
		}
		if !cfg.Permissions.Upload.Allows(sender) {
			return evt, fmt.Errorf("%w: sender may not upload code", types.ErrUnauthorized)
		}
	}

	exists, err := codeExists(ctx.storage, codeHash)
	if err != nil {
		return evt, err
	}
	if exists {
		return evt.AddAttribute("noop", "code already stored"), nil
	}
	if err := saveCode(ctx.storage, codeHash, msg.Code); err != nil {
		return evt, err
	}
	return evt, nil
}
