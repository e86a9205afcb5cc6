// Copyright 2025 Grug Framework
//
// The gas schedule for host functions. Every host call charges a flat cost;
// storage reads, writes, iteration and hashing add a size-proportional
// component, so a transaction's total consumption bounds the work it can
// cause.

package vm

const (
	// Entry-point invocation.
	GasCallFlat = 1_000

	// Storage.
	GasReadFlat      = 100
	GasReadPerByte   = 1
	GasWriteFlat     = 200
	GasWritePerByte  = 3
	GasRemoveFlat    = 200
	GasScanFlat      = 150
	GasIterNextFlat  = 50
	GasIterPerByte   = 1

	// Queries.
	GasQueryFlat = 500

	// Cryptography.
	GasHashFlat            = 25
	GasHashPerByte         = 1
	GasSecp256k1Verify     = 3_000
	GasSecp256k1Recover    = 5_000
	GasSecp256r1Verify     = 4_000
	GasEd25519Verify       = 2_000
	GasEd25519PerBatchItem = 1_500

	// Misc.
	GasAddrDerive = 100
	GasDebugFlat  = 10
)
