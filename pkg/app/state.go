// Copyright 2025 Grug Framework
//
// Chain-state key layout and typed accessors. Everything lives in the
// logical state keyspace, next to (but disjoint from) the per-contract
// namespaces, which start with "w".
//
// ====== Key Layout ======
//
//	chain_id                     -> string
//	config                       -> Config JSON
//	app_config/<key>             -> arbitrary JSON
//	last_block                   -> BlockInfo JSON
//	code/<hash>                  -> raw code bytes
//	account/<addr>               -> Account JSON
//	cron/<u64 BE time><addr>     -> empty (next-run schedule index)
//	"w"<addr><user key>          -> contract-owned data

package app

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/grugnet/grug/pkg/store"
	"github.com/grugnet/grug/pkg/types"
)

var (
	keyChainID      = []byte("chain_id")
	keyConfig       = []byte("config")
	keyLastBlock    = []byte("last_block")
	prefixAppConfig = []byte("app_config/")
	prefixCode      = []byte("code/")
	prefixAccount   = []byte("account/")
	prefixCron      = []byte("cron/")
)

func appConfigKey(key string) []byte {
	return store.Concat(prefixAppConfig, []byte(key))
}

func codeKey(hash types.Hash) []byte {
	return store.Concat(prefixCode, hash.Bytes())
}

func accountKey(addr types.Addr) []byte {
	return store.Concat(prefixAccount, addr.Bytes())
}

func cronKey(at types.Timestamp, addr types.Addr) []byte {
	out := make([]byte, 0, len(prefixCron)+8+types.AddrLen)
	out = append(out, prefixCron...)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(at))
	out = append(out, ts[:]...)
	return append(out, addr.Bytes()...)
}

func parseCronKey(key []byte) (types.Timestamp, types.Addr, error) {
	body := key[len(prefixCron):]
	if len(body) != 8+types.AddrLen {
		return 0, types.Addr{}, fmt.Errorf("malformed cron key of length %d", len(key))
	}
	at := types.Timestamp(binary.BigEndian.Uint64(body[:8]))
	addr, err := types.AddrFromBytes(body[8:])
	return at, addr, err
}

func loadChainID(storage store.Storage) (string, error) {
	raw, err := storage.Read(keyChainID)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", types.NotFoundError{Kind: "chain id", Key: string(keyChainID)}
	}
	return string(raw), nil
}

func saveChainID(storage store.Storage, chainID string) error {
	return storage.Write(keyChainID, []byte(chainID))
}

func loadConfig(storage store.Storage) (types.Config, error) {
	raw, err := storage.Read(keyConfig)
	if err != nil {
		return types.Config{}, err
	}
	if raw == nil {
		return types.Config{}, types.NotFoundError{Kind: "config", Key: string(keyConfig)}
	}
	var cfg types.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return types.Config{}, types.SerdeError{What: "config", Inner: err}
	}
	return cfg, nil
}

func saveConfig(storage store.Storage, cfg types.Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return storage.Write(keyConfig, raw)
}

func loadLastBlock(storage store.Storage) (types.BlockInfo, error) {
	raw, err := storage.Read(keyLastBlock)
	if err != nil {
		return types.BlockInfo{}, err
	}
	if raw == nil {
		return types.BlockInfo{}, types.NotFoundError{Kind: "block info", Key: string(keyLastBlock)}
	}
	var info types.BlockInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return types.BlockInfo{}, types.SerdeError{What: "block info", Inner: err}
	}
	return info, nil
}

func saveLastBlock(storage store.Storage, info types.BlockInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return storage.Write(keyLastBlock, raw)
}

func loadAccount(storage store.Storage, addr types.Addr) (types.Account, error) {
	raw, err := storage.Read(accountKey(addr))
	if err != nil {
		return types.Account{}, err
	}
	if raw == nil {
		return types.Account{}, types.NotFoundError{Kind: "account", Key: addr.String()}
	}
	var acct types.Account
	if err := json.Unmarshal(raw, &acct); err != nil {
		return types.Account{}, types.SerdeError{What: "account", Inner: err}
	}
	return acct, nil
}

func accountExists(storage store.Storage, addr types.Addr) (bool, error) {
	raw, err := storage.Read(accountKey(addr))
	if err != nil {
		return false, err
	}
	return raw != nil, nil
}

func saveAccount(storage store.Storage, addr types.Addr, acct types.Account) error {
	raw, err := json.Marshal(acct)
	if err != nil {
		return err
	}
	return storage.Write(accountKey(addr), raw)
}

func loadCode(storage store.Storage, hash types.Hash) ([]byte, error) {
	raw, err := storage.Read(codeKey(hash))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, types.NotFoundError{Kind: "code", Key: hash.String()}
	}
	return raw, nil
}

func codeExists(storage store.Storage, hash types.Hash) (bool, error) {
	raw, err := storage.Read(codeKey(hash))
	if err != nil {
		return false, err
	}
	return raw != nil, nil
}

func saveCode(storage store.Storage, hash types.Hash, code []byte) error {
	return storage.Write(codeKey(hash), code)
}
