package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pawmart/pawmart-api/internal/domains/settings/adapters/memory"
	"github.com/pawmart/pawmart-api/internal/domains/settings/domain"
	"github.com/pawmart/pawmart-api/internal/domains/settings/ports"
)

func TestSet_TypedValues(t *testing.T) {
	svc := NewService(memory.NewRepository())
	ctx := context.Background()
	admin := uuid.New()

	cases := []struct {
		key   string
		value string
		typ   domain.Type
		want  any
	}{
		{"site_name", "PawMart", domain.TypeString, "PawMart"},
		{"default_delivery_fee", "25", domain.TypeInteger, int64(25)},
		{"maintenance_mode", "false", domain.TypeBoolean, false},
	}
	for _, tc := range cases {
		setting, err := svc.Set(ctx, ports.SetInput{Key: tc.key, Value: tc.value, Type: tc.typ, UpdatedBy: &admin})
		require.NoError(t, err)
		typed, err := setting.TypedValue()
		require.NoError(t, err)
		require.Equal(t, tc.want, typed)
		require.NotNil(t, setting.UpdatedBy)
		require.Equal(t, admin, *setting.UpdatedBy)
	}

	jsonSetting, err := svc.Set(ctx, ports.SetInput{
		Key:   "delivery_windows",
		Value: `{"weekday":["09:00","18:00"]}`,
		Type:  domain.TypeJSON,
	})
	require.NoError(t, err)
	typed, err := jsonSetting.TypedValue()
	require.NoError(t, err)
	require.Contains(t, typed, "weekday")
}

func TestSet_RejectsIncompatibleValues(t *testing.T) {
	svc := NewService(memory.NewRepository())
	ctx := context.Background()

	_, err := svc.Set(ctx, ports.SetInput{Key: "fee", Value: "not-a-number", Type: domain.TypeInteger})
	require.ErrorIs(t, err, domain.ErrIncompatibleValue)

	_, err = svc.Set(ctx, ports.SetInput{Key: "flag", Value: "maybe", Type: domain.TypeBoolean})
	require.ErrorIs(t, err, domain.ErrIncompatibleValue)

	_, err = svc.Set(ctx, ports.SetInput{Key: "doc", Value: "{broken", Type: domain.TypeJSON})
	require.ErrorIs(t, err, domain.ErrIncompatibleValue)

	_, err = svc.Set(ctx, ports.SetInput{Key: "   ", Value: "x", Type: domain.TypeString})
	require.ErrorIs(t, err, domain.ErrInvalidKey)

	_, err = svc.Set(ctx, ports.SetInput{Key: "k", Value: "x", Type: domain.Type("float")})
	require.ErrorIs(t, err, domain.ErrInvalidType)
}

func TestSet_KeepsExistingType(t *testing.T) {
	svc := NewService(memory.NewRepository())
	ctx := context.Background()

	_, err := svc.Set(ctx, ports.SetInput{Key: "fee", Value: "25", Type: domain.TypeInteger})
	require.NoError(t, err)

	// Omitted type inherits the stored one and still validates the value.
	updated, err := svc.Set(ctx, ports.SetInput{Key: "fee", Value: "30"})
	require.NoError(t, err)
	require.Equal(t, domain.TypeInteger, updated.Type)

	_, err = svc.Set(ctx, ports.SetInput{Key: "fee", Value: "thirty"})
	require.ErrorIs(t, err, domain.ErrIncompatibleValue)

	// Explicitly switching an existing setting's type is refused.
	_, err = svc.Set(ctx, ports.SetInput{Key: "fee", Value: "30", Type: domain.TypeString})
	require.ErrorIs(t, err, domain.ErrIncompatibleValue)
}

func TestAllAndGet(t *testing.T) {
	svc := NewService(memory.NewRepository())
	ctx := context.Background()

	_, err := svc.Set(ctx, ports.SetInput{Key: "b_key", Value: "2", Type: domain.TypeInteger})
	require.NoError(t, err)
	_, err = svc.Set(ctx, ports.SetInput{Key: "a_key", Value: "1", Type: domain.TypeInteger})
	require.NoError(t, err)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "a_key", all[0].Key)

	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, ports.ErrNotFound)
}
