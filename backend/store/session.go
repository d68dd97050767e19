package store

import "time"

// WalletRecord holds the verified on-chain state of a single address within a
// session. TotalPoints, Tier and IsMinter come from the staking capability and
// are passed through untouched.
type WalletRecord struct {
	Address        string
	NFTBalance     int
	StakedTokenIDs []uint64
	TotalPoints    int64
	Tier           int
	IsMinter       bool
}

// TotalNFTs is the sum of direct-held and staked tokens. It is the sole value
// fed into role decisions.
func (w WalletRecord) TotalNFTs() int {
	return w.NFTBalance + len(w.StakedTokenIDs)
}

// Session links a Discord identity to zero or more verified wallet addresses.
// Records are owned by the SessionStore; store operations return detached
// snapshots, so mutating a returned session has no effect on stored state.
type Session struct {
	ID           string
	DiscordID    string
	Username     string
	Wallets      []WalletRecord
	CreatedAt    time.Time
	LastActivity time.Time
}

// Wallet returns the wallet record for the given address, matched
// case-insensitively.
func (s *Session) Wallet(address string) (WalletRecord, bool) {
	for _, w := range s.Wallets {
		if equalAddress(w.Address, address) {
			return w, true
		}
	}
	return WalletRecord{}, false
}

// clone makes a copy safe to read outside the store lock. Wallet records are
// only ever replaced wholesale, so the inner token id slices can be shared.
func (s *Session) clone() *Session {
	c := *s
	c.Wallets = append([]WalletRecord(nil), s.Wallets...)
	return &c
}
