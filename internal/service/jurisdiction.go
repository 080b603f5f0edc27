package service

import (
	"context"
	"fmt"

	"SafeWalk/internal/model"
	"SafeWalk/internal/store"
)

// JurisdictionService 辖区匹配
type JurisdictionService struct {
	store store.Store
}

func NewJurisdictionService(st store.Store) *JurisdictionService {
	return &JurisdictionService{store: st}
}

// Match 返回辖区覆盖该点的全部机构
// 点可能同时落在多个重叠辖区内，全部通知，不做单一归属
func (s *JurisdictionService) Match(ctx context.Context, lat, lng float64) ([]*model.GovAuthority, error) {
	authorities, err := s.store.ListActiveAuthorities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list authorities: %w", err)
	}

	var matched []*model.GovAuthority
	for _, a := range authorities {
		if Contains(lat, lng, a.Latitude, a.Longitude, a.RadiusMeters) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}
