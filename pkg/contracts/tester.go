// Copyright 2025 Grug Framework
//
// The tester contract: exercises every mechanism the execution core offers,
// for integration tests. Not deployed on real chains.

package contracts

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/grugnet/grug/pkg/types"
	"github.com/grugnet/grug/pkg/vm"
)

// TesterExecuteMsg is the execute sum of the tester contract.
type TesterExecuteMsg struct {
	// Loop writes a counter key over and over, burning gas until the limit
	// trips.
	Loop *struct {
		Iterations uint64 `json:"iterations"`
	} `json:"loop,omitempty"`
	// Fail returns an error without touching state.
	Fail *struct{} `json:"fail,omitempty"`
	// Write stores a value.
	Write *struct {
		Key   types.Binary `json:"key"`
		Value types.Binary `json:"value"`
	} `json:"write,omitempty"`
	// WriteThenFail stores a value, then errors, so the write must revert.
	WriteThenFail *struct {
		Key   types.Binary `json:"key"`
		Value types.Binary `json:"value"`
	} `json:"write_then_fail,omitempty"`
	// Emit returns submessages verbatim.
	Emit *struct {
		SubMsgs []types.SubMessage `json:"sub_msgs"`
	} `json:"emit,omitempty"`
}

// TesterQueryMsg is the query sum of the tester contract.
type TesterQueryMsg struct {
	// Read returns a stored value.
	Read *struct {
		Key types.Binary `json:"key"`
	} `json:"read,omitempty"`
	// Recurse queries the chain through the querier the given number of
	// levels deep.
	Recurse *struct {
		Contract types.Addr `json:"contract"`
		Depth    uint32     `json:"depth"`
	} `json:"recurse,omitempty"`
	// ForbiddenWrite tries to mutate state from the query context.
	ForbiddenWrite *struct{} `json:"forbidden_write,omitempty"`
	// Reply returns the last recorded reply callback.
	Reply *struct{} `json:"reply,omitempty"`
}

var (
	testerReplyKey = []byte("last_reply")
	testerCronKey  = []byte("cron_runs")
)

// NewTester builds the native tester contract.
func NewTester() *vm.NativeContract {
	return &vm.NativeContract{
		Name:        "tester",
		Instantiate: wrap1(testerInstantiate),
		Execute:     wrap1(testerExecute),
		Receive:     wrap1(testerReceive),
		Reply:       wrap2(testerReply),
		CronExecute: wrap1(testerCron),
		Query:       wrapQuery(testerQuery),
	}
}

// testerCron bumps a run counter so tests can observe the schedule.
func testerCron(deps *vm.Deps, _ types.Context, _ []byte) (types.Response, error) {
	var runs uint64
	raw, err := deps.Storage.Read(testerCronKey)
	if err != nil {
		return types.Response{}, err
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &runs); err != nil {
			return types.Response{}, err
		}
	}
	runs++
	out, err := json.Marshal(runs)
	if err != nil {
		return types.Response{}, err
	}
	if err := deps.Storage.Write(testerCronKey, out); err != nil {
		return types.Response{}, err
	}
	return types.NewResponse().AddAttribute("runs", fmt.Sprintf("%d", runs)), nil
}

func testerInstantiate(*vm.Deps, types.Context, []byte) (types.Response, error) {
	return types.NewResponse(), nil
}

func testerReceive(*vm.Deps, types.Context, []byte) (types.Response, error) {
	return types.NewResponse(), nil
}

func testerExecute(deps *vm.Deps, _ types.Context, msg []byte) (types.Response, error) {
	var exec TesterExecuteMsg
	if err := json.Unmarshal(msg, &exec); err != nil {
		return types.Response{}, types.SerdeError{What: "tester execute msg", Inner: err}
	}
	switch {
	case exec.Loop != nil:
		var counter [8]byte
		for i := uint64(0); i < exec.Loop.Iterations; i++ {
			counter[0] = byte(i)
			if err := deps.Storage.Write([]byte("loop"), counter[:]); err != nil {
				return types.Response{}, err
			}
		}
		return types.NewResponse().AddAttribute("looped", fmt.Sprintf("%d", exec.Loop.Iterations)), nil

	case exec.Fail != nil:
		return types.Response{}, errors.New("deliberate failure")

	case exec.Write != nil:
		if err := deps.Storage.Write(exec.Write.Key, exec.Write.Value); err != nil {
			return types.Response{}, err
		}
		return types.NewResponse(), nil

	case exec.WriteThenFail != nil:
		if err := deps.Storage.Write(exec.WriteThenFail.Key, exec.WriteThenFail.Value); err != nil {
			return types.Response{}, err
		}
		return types.Response{}, errors.New("deliberate failure after write")

	case exec.Emit != nil:
		resp := types.NewResponse()
		for _, sub := range exec.Emit.SubMsgs {
			resp = resp.AddSubMessage(sub)
		}
		return resp, nil

	default:
		return types.Response{}, errors.New("unknown tester execute message")
	}
}

// testerReply records the callback so tests can assert on it.
func testerReply(deps *vm.Deps, _ types.Context, payload, result []byte) (types.Response, error) {
	record, err := json.Marshal(map[string]json.RawMessage{
		"payload": payload,
		"result":  result,
	})
	if err != nil {
		return types.Response{}, err
	}
	if err := deps.Storage.Write(testerReplyKey, record); err != nil {
		return types.Response{}, err
	}
	return types.NewResponse(), nil
}

func testerQuery(deps *vm.Deps, _ types.Context, msg []byte) (types.Json, error) {
	var query TesterQueryMsg
	if err := json.Unmarshal(msg, &query); err != nil {
		return nil, types.SerdeError{What: "tester query", Inner: err}
	}
	switch {
	case query.Read != nil:
		value, err := deps.Storage.Read(query.Read.Key)
		if err != nil {
			return nil, err
		}
		return json.Marshal(types.Binary(value))

	case query.Recurse != nil:
		if query.Recurse.Depth == 0 {
			return json.Marshal("bottom")
		}
		inner, err := json.Marshal(TesterQueryMsg{Recurse: &struct {
			Contract types.Addr `json:"contract"`
			Depth    uint32     `json:"depth"`
		}{Contract: query.Recurse.Contract, Depth: query.Recurse.Depth - 1}})
		if err != nil {
			return nil, err
		}
		resp, err := deps.Querier.QueryChain(types.Query{WasmSmart: &types.QueryWasmSmart{
			Contract: query.Recurse.Contract,
			Msg:      inner,
		}})
		if err != nil {
			return nil, err
		}
		return resp.WasmSmart, nil

	case query.ForbiddenWrite != nil:
		// The storage provider must reject this with ImmutableState.
		if err := deps.Storage.Write([]byte("sneaky"), []byte("write")); err != nil {
			return nil, err
		}
		return json.Marshal("wrote")

	case query.Reply != nil:
		value, err := deps.Storage.Read(testerReplyKey)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, errors.New("no reply recorded")
		}
		return value, nil

	default:
		return nil, errors.New("unknown tester query")
	}
}
