package service

import (
	"context"
	"errors"
	"fmt"

	"SafeWalk/internal/model"
	"SafeWalk/internal/model/dto"
	"SafeWalk/internal/store"
	pkgerrors "SafeWalk/pkg/errors"
	"SafeWalk/utils"
)

// GeoService 安全区与辖区机构的管理面
type GeoService struct {
	store store.Store
}

func NewGeoService(st store.Store) *GeoService {
	return &GeoService{store: st}
}

func validateCircle(lat, lng, radius float64) error {
	if !utils.ValidateCoordinate(lat, lng) {
		return pkgerrors.CoordinateInvalid
	}
	if !utils.ValidateRadius(radius) {
		return pkgerrors.RadiusOutOfRange
	}
	return nil
}

func (s *GeoService) CreateSafeLocation(ctx context.Context, userID int64, req dto.SafeLocationRequest) (*model.SafeLocation, error) {
	if err := validateCircle(req.Latitude, req.Longitude, req.RadiusMeters); err != nil {
		return nil, err
	}

	loc := &model.SafeLocation{
		UserID:        userID,
		Name:          req.Name,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		RadiusMeters:  req.RadiusMeters,
		AutoStartWalk: req.AutoStartWalk,
		AutoStopWalk:  req.AutoStopWalk,
		IsActive:      true,
	}
	if err := s.store.CreateSafeLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to create safe location: %w", err)
	}
	return loc, nil
}

func (s *GeoService) UpdateSafeLocation(ctx context.Context, userID, id int64, req dto.SafeLocationRequest) (*model.SafeLocation, error) {
	if err := validateCircle(req.Latitude, req.Longitude, req.RadiusMeters); err != nil {
		return nil, err
	}

	loc, err := s.store.GetSafeLocation(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.SafeLocationMissing
		}
		return nil, fmt.Errorf("failed to load safe location: %w", err)
	}
	if loc.UserID != userID {
		return nil, pkgerrors.SafeLocationMissing
	}

	loc.Name = req.Name
	loc.Latitude = req.Latitude
	loc.Longitude = req.Longitude
	loc.RadiusMeters = req.RadiusMeters
	loc.AutoStartWalk = req.AutoStartWalk
	loc.AutoStopWalk = req.AutoStopWalk

	if err := s.store.UpdateSafeLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to update safe location: %w", err)
	}
	return loc, nil
}

func (s *GeoService) DeleteSafeLocation(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteSafeLocation(ctx, userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return pkgerrors.SafeLocationMissing
		}
		return fmt.Errorf("failed to delete safe location: %w", err)
	}
	return nil
}

func (s *GeoService) ListSafeLocations(ctx context.Context, userID int64) ([]*model.SafeLocation, error) {
	return s.store.ListActiveSafeLocations(ctx, userID)
}

func (s *GeoService) CreateAuthority(ctx context.Context, ownerID int64, req dto.AuthorityRequest) (*model.GovAuthority, error) {
	if !utils.ValidateCoordinate(req.Latitude, req.Longitude) {
		return nil, pkgerrors.CoordinateInvalid
	}
	// 辖区半径不受安全区 10~200m 限制，只要求为正
	if req.RadiusMeters <= 0 {
		return nil, pkgerrors.RadiusOutOfRange
	}
	if req.ContactPhone != "" && !utils.ValidatePhone(req.ContactPhone) {
		return nil, pkgerrors.PhoneInvalid
	}

	a := &model.GovAuthority{
		OwnerID:      ownerID,
		Name:         req.Name,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		IsActive:     true,
	}
	if err := s.store.CreateAuthority(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create authority: %w", err)
	}
	return a, nil
}

func (s *GeoService) UpdateAuthority(ctx context.Context, ownerID, id int64, req dto.AuthorityRequest) (*model.GovAuthority, error) {
	if !utils.ValidateCoordinate(req.Latitude, req.Longitude) {
		return nil, pkgerrors.CoordinateInvalid
	}
	if req.RadiusMeters <= 0 {
		return nil, pkgerrors.RadiusOutOfRange
	}
	if req.ContactPhone != "" && !utils.ValidatePhone(req.ContactPhone) {
		return nil, pkgerrors.PhoneInvalid
	}

	a, err := s.store.GetAuthority(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.AuthorityNotFound
		}
		return nil, fmt.Errorf("failed to load authority: %w", err)
	}
	if a.OwnerID != ownerID {
		return nil, pkgerrors.AuthorityNotFound
	}

	a.Name = req.Name
	a.Latitude = req.Latitude
	a.Longitude = req.Longitude
	a.RadiusMeters = req.RadiusMeters
	a.ContactPhone = req.ContactPhone
	a.ContactEmail = req.ContactEmail

	if err := s.store.UpdateAuthority(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to update authority: %w", err)
	}
	return a, nil
}

func (s *GeoService) DeleteAuthority(ctx context.Context, ownerID, id int64) error {
	if err := s.store.DeleteAuthority(ctx, ownerID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return pkgerrors.AuthorityNotFound
		}
		return fmt.Errorf("failed to delete authority: %w", err)
	}
	return nil
}
