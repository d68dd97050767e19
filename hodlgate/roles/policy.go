// Package roles applies the Discord role policy derived from a user's total
// NFT holdings.
package roles

// Role thresholds. Totals at or above a threshold grant the role; below it
// the role is revoked if held.
const (
	VerifiedThreshold = 1
	EliteThreshold    = 10
)

const (
	VerifiedRoleName = "verified"
	EliteRoleName    = "elite"
)

// Decision is the target role set for a given holdings total.
type Decision struct {
	Verified bool
	Elite    bool
}

// Decide maps a total NFT count onto the target role set.
func Decide(totalNFTs int) Decision {
	return Decision{
		Verified: totalNFTs >= VerifiedThreshold,
		Elite:    totalNFTs >= EliteThreshold,
	}
}

// Roles lists the names of the roles the decision grants, for completion
// reporting.
func (d Decision) Roles() []string {
	roles := make([]string, 0, 2)
	if d.Verified {
		roles = append(roles, VerifiedRoleName)
	}
	if d.Elite {
		roles = append(roles, EliteRoleName)
	}
	return roles
}
