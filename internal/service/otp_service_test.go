package service

import (
	"context"
	"errors"
	"testing"

	"quickbook/internal/config"
	"quickbook/internal/models"
	"quickbook/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRandomCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := randomCode()
		require.NoError(t, err)
		assert.Len(t, code, models.OTPLength)
	}
}

func TestOTPService(t *testing.T) {
	ctx := context.Background()
	const email = "asha@jadeglobal.com"

	newService := func() (*OTPService, *repository.MemoryOTPStore, *mockMailer) {
		store := repository.NewMemoryOTPStore()
		mailer := new(mockMailer)
		svc := NewOTPService(store, mailer, config.OTPConfig{}, testLogger())
		svc.code = func() (string, error) { return "042042", nil }
		return svc, store, mailer
	}

	t.Run("RequestAndVerify", func(t *testing.T) {
		svc, store, mailer := newService()
		mailer.On("SendOTP", mock.Anything, email, "042042", models.OTPTTL).Return(nil).Once()

		require.NoError(t, svc.Request(ctx, " Asha@JadeGlobal.com"))
		mailer.AssertExpectations(t)

		assert.ErrorIs(t, svc.Verify(ctx, email, "000000"), ErrInvalidOTP)
		require.NoError(t, svc.Verify(ctx, email, "042042"))

		verified, err := store.IsVerified(ctx, email)
		require.NoError(t, err)
		assert.True(t, verified)

		assert.ErrorIs(t, svc.Verify(ctx, email, "042042"), ErrInvalidOTP, "codes are single use")
	})

	t.Run("RejectsForeignDomain", func(t *testing.T) {
		svc, _, mailer := newService()
		assert.ErrorIs(t, svc.Request(ctx, "asha@gmail.com"), ErrValidation)
		mailer.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("RateLimited", func(t *testing.T) {
		svc, _, mailer := newService()
		mailer.On("SendOTP", mock.Anything, email, "042042", models.OTPTTL).Return(nil).Times(models.OTPRequestLimit)

		for i := 0; i < models.OTPRequestLimit; i++ {
			require.NoError(t, svc.Request(ctx, email))
		}
		assert.ErrorIs(t, svc.Request(ctx, email), ErrRateLimited)
		mailer.AssertExpectations(t)
	})

	t.Run("MailFailureDropsCode", func(t *testing.T) {
		svc, store, mailer := newService()
		mailer.On("SendOTP", mock.Anything, email, "042042", models.OTPTTL).Return(errors.New("smtp down")).Once()

		assert.Error(t, svc.Request(ctx, email))
		code, err := store.GetOTP(ctx, email)
		require.NoError(t, err)
		assert.Empty(t, code)
	})

	t.Run("EmptyCode", func(t *testing.T) {
		svc, _, _ := newService()
		assert.ErrorIs(t, svc.Verify(ctx, email, ""), ErrInvalidOTP)
	})
}
