// Copyright 2025 Grug Framework
//
// Typed event constructors for the message handlers and pipelines.

package app

import (
	"fmt"

	"github.com/grugnet/grug/pkg/types"
)

func evtConfigure(sender types.Addr) types.Event {
	return types.NewEvent(types.EvtTypeConfigure,
		types.Attr("sender", sender.String()),
	)
}

func evtTransfer(from, to types.Addr, coins types.Coins) types.Event {
	return types.NewEvent(types.EvtTypeTransfer,
		types.Attr("from", from.String()),
		types.Attr("to", to.String()),
		types.Attr("coins", coins.String()),
	)
}

func evtUpload(sender types.Addr, codeHash types.Hash) types.Event {
	return types.NewEvent(types.EvtTypeUpload,
		types.Attr("sender", sender.String()),
		types.Attr("code_hash", codeHash.String()),
	)
}

func evtInstantiate(sender, contract types.Addr, codeHash types.Hash) types.Event {
	return types.NewEvent(types.EvtTypeInstantiate,
		types.Attr("sender", sender.String()),
		types.Attr("contract", contract.String()),
		types.Attr("code_hash", codeHash.String()),
	)
}

func evtExecute(sender, contract types.Addr, funds types.Coins) types.Event {
	return types.NewEvent(types.EvtTypeExecute,
		types.Attr("sender", sender.String()),
		types.Attr("contract", contract.String()),
		types.Attr("funds", funds.String()),
	)
}

func evtMigrate(sender, contract types.Addr, newCodeHash types.Hash) types.Event {
	return types.NewEvent(types.EvtTypeMigrate,
		types.Attr("sender", sender.String()),
		types.Attr("contract", contract.String()),
		types.Attr("new_code_hash", newCodeHash.String()),
	)
}

func evtReceive(from, contract types.Addr, coins types.Coins) types.Event {
	return types.NewEvent(types.EvtTypeReceive,
		types.Attr("from", from.String()),
		types.Attr("contract", contract.String()),
		types.Attr("coins", coins.String()),
	)
}

func evtReply(contract types.Addr, ok bool) types.Event {
	return types.NewEvent(types.EvtTypeReply,
		types.Attr("contract", contract.String()),
		types.Attr("inner_ok", fmt.Sprintf("%t", ok)),
	)
}

func evtCron(contract types.Addr) types.Event {
	return types.NewEvent(types.EvtTypeCron,
		types.Attr("contract", contract.String()),
	)
}

func evtAuthenticate(sender types.Addr) types.Event {
	return types.NewEvent(types.EvtTypeAuth,
		types.Attr("sender", sender.String()),
	)
}

func evtBackrun(sender types.Addr) types.Event {
	return types.NewEvent(types.EvtTypeBackrun,
		types.Attr("sender", sender.String()),
	)
}

func evtWithholdFee(taxman types.Addr) types.Event {
	return types.NewEvent(types.EvtTypeWithhold,
		types.Attr("taxman", taxman.String()),
	)
}

func evtFinalizeFee(taxman types.Addr) types.Event {
	return types.NewEvent(types.EvtTypeFinalize,
		types.Attr("taxman", taxman.String()),
	)
}

// evtGuest wraps the attributes a contract returned from an entry point.
func evtGuest(contract types.Addr, entry string, attrs []types.Attribute) types.Event {
	evt := types.NewEvent(types.EvtTypeGuest,
		types.Attr("contract", contract.String()),
		types.Attr("entry_point", entry),
	)
	evt.Attributes = append(evt.Attributes, attrs...)
	return evt
}
