package api

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWrapClassifiesErrors(t *testing.T) {
	_, parseErr := time.Parse(time.RFC3339, "yesterday")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"network failure", errors.New("connection refused"), KindTransport},
		{"bad timestamp", parseErr, KindData},
		{"wrapped bad timestamp", fmt.Errorf("decode: %w", parseErr), KindData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrap("op", tt.err)
			require.Equal(t, tt.want, KindOf(err))
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestKindOf_ForeignError(t *testing.T) {
	require.Equal(t, KindTransport, KindOf(errors.New("boom")))
	require.False(t, IsData(nil))
	require.False(t, IsNotFound(nil))
}

func TestErrorMessage(t *testing.T) {
	err := dataError("list comments of #42", "comment %d has no author", 7)
	require.EqualError(t, err, "list comments of #42: comment 7 has no author")
	require.True(t, IsData(fmt.Errorf("outer: %w", err)))
}
