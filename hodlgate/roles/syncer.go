package roles

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

// Syncer reconciles a guild member's verification roles with a holdings
// total via the Discord REST API.
type Syncer struct {
	client         bot.Client
	guildID        snowflake.ID
	verifiedRoleID snowflake.ID
	eliteRoleID    snowflake.ID
}

func NewSyncer(client bot.Client, guildID, verifiedRoleID, eliteRoleID snowflake.ID) *Syncer {
	return &Syncer{
		client:         client,
		guildID:        guildID,
		verifiedRoleID: verifiedRoleID,
		eliteRoleID:    eliteRoleID,
	}
}

// Apply grants and revokes roles so the member matches the policy decision
// for totalNFTs. Returns the role names the member holds afterwards.
func (s *Syncer) Apply(ctx context.Context, userID string, totalNFTs int) ([]string, error) {
	id, err := snowflake.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid discord user id %q: %w", userID, err)
	}

	member, err := s.client.Rest().GetMember(s.guildID, id, rest.WithCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member %s: %w", userID, err)
	}

	held := make(map[snowflake.ID]bool, len(member.RoleIDs))
	for _, roleID := range member.RoleIDs {
		held[roleID] = true
	}

	decision := Decide(totalNFTs)
	targets := []struct {
		roleID snowflake.ID
		name   string
		want   bool
	}{
		{s.verifiedRoleID, VerifiedRoleName, decision.Verified},
		{s.eliteRoleID, EliteRoleName, decision.Elite},
	}

	for _, target := range targets {
		switch {
		case target.want && !held[target.roleID]:
			if err := s.client.Rest().AddMemberRole(s.guildID, id, target.roleID, rest.WithCtx(ctx)); err != nil {
				return nil, fmt.Errorf("failed to grant %s role to %s: %w", target.name, userID, err)
			}
			slog.Info("Role granted",
				slog.String("type", "relay"),
				slog.String("user_id", userID),
				slog.String("role", target.name))
		case !target.want && held[target.roleID]:
			if err := s.client.Rest().RemoveMemberRole(s.guildID, id, target.roleID, rest.WithCtx(ctx)); err != nil {
				return nil, fmt.Errorf("failed to revoke %s role from %s: %w", target.name, userID, err)
			}
			slog.Info("Role revoked",
				slog.String("type", "relay"),
				slog.String("user_id", userID),
				slog.String("role", target.name))
		}
	}

	return decision.Roles(), nil
}
