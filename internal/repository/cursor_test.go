package repository

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuschat/pkg/apperrors"
)

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC),
		ID:        uuid.New(),
	}

	decoded, err := DecodeCursor(original.Encode())
	require.NoError(t, err)
	assert.True(t, decoded.CreatedAt.Equal(original.CreatedAt))
	assert.Equal(t, original.ID, decoded.ID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"not base64":   "!!!not-base64!!!",
		"no separator": base64.RawURLEncoding.EncodeToString([]byte("justonefield")),
		"bad nanos":    base64.RawURLEncoding.EncodeToString([]byte("abc:" + uuid.NewString())),
		"bad uuid":     base64.RawURLEncoding.EncodeToString([]byte("123456789:not-a-uuid")),
		"empty":        "",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCursor(token)
			assert.ErrorIs(t, err, apperrors.ErrInvalidCursor)
		})
	}
}

func TestCursorForMessage(t *testing.T) {
	id := uuid.New()
	at := time.Now()
	c := CursorForMessage(at, id)
	assert.Equal(t, id, c.ID)
	assert.Equal(t, at, c.CreatedAt)
}

func TestDirectionValid(t *testing.T) {
	assert.True(t, DirectionBefore.Valid())
	assert.True(t, DirectionAfter.Valid())
	assert.False(t, Direction("sideways").Valid())
}
