// Package queue defines message payloads exchanged over the message broker
// and the background consumer that archives them.
package queue

// PrizeAwardedEvent is published after a redemption completes and its award
// row is persisted.  It carries enough for downstream consumers to log or
// feed analytics without querying the primary database.  Only hashes leave
// the service; neither the plaintext code nor the client address appears.
type PrizeAwardedEvent struct {
	SpinID     string `json:"spin_id"`
	CodeHash   string `json:"code_hash"`
	PrizeCents int    `json:"prize_cents"`
	ClientHash string `json:"client_hash"`
	AwardedAt  string `json:"awarded_at"`
}
