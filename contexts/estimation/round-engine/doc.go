// Package roundengine implements the estimation round engine inside the
// estimation context.
//
// The module owns the story estimation lifecycle (pending -> voting ->
// revealed -> final), the per-round vote ledger with its pre-reveal
// visibility contract, vote statistics and consensus classification, and the
// role-based permission rules gating every transition. Round events reach
// connected clients through outbox-backed workers. Business rules live in
// the domain/application layers; infrastructure stays behind ports and
// adapters.
package roundengine
