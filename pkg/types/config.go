// Copyright 2025 Grug Framework
//
// Chain-level configuration: the owner, the privileged bank and taxman
// contracts, cronjob schedules, and upload/instantiate permissions.

package types

import (
	"encoding/json"
	"fmt"
)

// Permission controls who may perform a gated action (upload, instantiate).
type Permission struct {
	// Exactly one of the following is set.
	Nobody     bool
	Everybody  bool
	Somebodies []Addr
}

func PermissionNobody() Permission {
	return Permission{Nobody: true}
}

func PermissionEverybody() Permission {
	return Permission{Everybody: true}
}

func PermissionSomebodies(addrs ...Addr) Permission {
	return Permission{Somebodies: addrs}
}

// Allows reports whether the given sender passes this permission.
func (p Permission) Allows(sender Addr) bool {
	switch {
	case p.Everybody:
		return true
	case p.Nobody:
		return false
	default:
		for _, a := range p.Somebodies {
			if a == sender {
				return true
			}
		}
		return false
	}
}

// Tagged JSON form: "nobody" | "everybody" | {"somebodies": [...]}.
func (p Permission) MarshalJSON() ([]byte, error) {
	switch {
	case p.Nobody:
		return json.Marshal("nobody")
	case p.Everybody:
		return json.Marshal("everybody")
	default:
		return json.Marshal(map[string][]Addr{"somebodies": p.Somebodies})
	}
}

func (p *Permission) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "nobody":
			*p = PermissionNobody()
		case "everybody":
			*p = PermissionEverybody()
		default:
			return fmt.Errorf("unknown permission %q", s)
		}
		return nil
	}
	var tagged struct {
		Somebodies []Addr `json:"somebodies"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if tagged.Somebodies == nil {
		return fmt.Errorf("invalid permission: %s", string(data))
	}
	*p = Permission{Somebodies: tagged.Somebodies}
	return nil
}

// Permissions groups the gated actions.
type Permissions struct {
	Upload      Permission `json:"upload"`
	Instantiate Permission `json:"instantiate"`
}

// Config is the chain-level configuration, stored in chain state and
// replaceable only by the owner via the Configure message.
type Config struct {
	// Owner may send Configure messages. None means the config is frozen.
	Owner *Addr `json:"owner"`
	// Bank is the contract implementing token transfers and balance queries.
	Bank Addr `json:"bank"`
	// Taxman is the contract implementing fee withholding and finalization.
	Taxman Addr `json:"taxman"`
	// Cronjobs maps contract addresses to their invocation periods. A zero
	// period means the contract runs in the after-block phase of every block.
	Cronjobs map[Addr]Duration `json:"cronjobs"`
	// Permissions gate code upload and account instantiation.
	Permissions Permissions `json:"permissions"`
}
