package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staylane/internal/domain/booking"
)

func TestParseBookingMetadata(t *testing.T) {
	cases := []struct {
		name     string
		metadata map[string]string
		want     booking.BookingID
		err      error
	}{
		{"present", map[string]string{"bookingId": "b-1"}, "b-1", nil},
		{"trimmed", map[string]string{"bookingId": "  b-2 "}, "b-2", nil},
		{"extra keys ignored", map[string]string{"bookingId": "b-3", "source": "web"}, "b-3", nil},
		{"missing", map[string]string{"booking_id": "b-4"}, "", ErrMetadataMissing},
		{"blank", map[string]string{"bookingId": " "}, "", ErrMetadataMissing},
		{"nil bag", nil, "", ErrMetadataMissing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseBookingMetadata(tc.metadata)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.BookingID)
		})
	}
}

func TestBookingMetadataMap(t *testing.T) {
	assert.Equal(t, map[string]string{"bookingId": "b-9"}, BookingMetadata{BookingID: "b-9"}.Map())
}

func TestSessionComplete(t *testing.T) {
	assert.True(t, (&Session{Status: StatusComplete}).Complete())
	assert.False(t, (&Session{Status: StatusOpen}).Complete())
	assert.False(t, (&Session{Status: "processing"}).Complete())
	assert.False(t, (*Session)(nil).Complete())
}

func TestReturnURL(t *testing.T) {
	assert.Equal(t,
		"https://stay.example/api/v1/payments/confirm?session_id={CHECKOUT_SESSION_ID}",
		ReturnURL("https://stay.example/", "/api/v1/payments/confirm"))
}

func TestParseSessionID(t *testing.T) {
	_, err := ParseSessionID("   ")
	assert.ErrorIs(t, err, ErrSessionIDRequired)

	id, err := ParseSessionID(" cs_test_1 ")
	require.NoError(t, err)
	assert.Equal(t, SessionID("cs_test_1"), id)
}
