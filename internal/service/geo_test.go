package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SafeWalk/internal/model/dto"
	pkgerrors "SafeWalk/pkg/errors"
)

func TestCreateAuthorityValidation(t *testing.T) {
	env := newTestEnv(t)
	geo := NewGeoService(env.store)
	ctx := context.Background()

	cases := []struct {
		name string
		req  dto.AuthorityRequest
		want pkgerrors.Definition
	}{
		{"latitude out of range", dto.AuthorityRequest{Name: "Watch", Latitude: 91, Longitude: 0, RadiusMeters: 5000}, pkgerrors.CoordinateInvalid},
		{"radius not positive", dto.AuthorityRequest{Name: "Watch", Latitude: 0, Longitude: 0, RadiusMeters: 0}, pkgerrors.RadiusOutOfRange},
		// 电话格式错误要报 PHONE_INVALID，不能混用坐标错误码
		{"malformed phone", dto.AuthorityRequest{Name: "Watch", Latitude: 0, Longitude: 0, RadiusMeters: 5000, ContactPhone: "12345"}, pkgerrors.PhoneInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := geo.CreateAuthority(ctx, 1, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateAuthorityPhoneOptional(t *testing.T) {
	env := newTestEnv(t)
	geo := NewGeoService(env.store)
	ctx := context.Background()

	// 电话可以留空，填了才校验
	a, err := geo.CreateAuthority(ctx, 1, dto.AuthorityRequest{
		Name:         "District Watch",
		Latitude:     52.52,
		Longitude:    13.405,
		RadiusMeters: 5000,
	})
	require.NoError(t, err)
	assert.True(t, a.IsActive)

	a, err = geo.CreateAuthority(ctx, 1, dto.AuthorityRequest{
		Name:         "Hotline Watch",
		Latitude:     52.52,
		Longitude:    13.405,
		RadiusMeters: 5000,
		ContactPhone: "13800138000",
	})
	require.NoError(t, err)
	assert.Equal(t, "13800138000", a.ContactPhone)
}

func TestUpdateAuthorityRejectsMalformedPhone(t *testing.T) {
	env := newTestEnv(t)
	geo := NewGeoService(env.store)
	ctx := context.Background()

	a, err := geo.CreateAuthority(ctx, 1, dto.AuthorityRequest{
		Name:         "District Watch",
		Latitude:     52.52,
		Longitude:    13.405,
		RadiusMeters: 5000,
	})
	require.NoError(t, err)

	_, err = geo.UpdateAuthority(ctx, 1, a.ID, dto.AuthorityRequest{
		Name:         "District Watch",
		Latitude:     52.52,
		Longitude:    13.405,
		RadiusMeters: 5000,
		ContactPhone: "not-a-phone",
	})
	assert.ErrorIs(t, err, pkgerrors.PhoneInvalid)
}
