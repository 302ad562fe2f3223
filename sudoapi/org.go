package sudoapi

import (
	"context"
	"fmt"

	"github.com/AlmonerProjects/almoner"
)

func (s *BaseAPI) OrgProfile(ctx context.Context, orgID int) (*almoner.OrgProfile, error) {
	prof, err := s.orgProfileCache.Get(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("couldn't get org profile: %w", err)
	}
	return prof, nil
}
