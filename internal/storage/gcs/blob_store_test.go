package gcs

import (
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	require.ErrorContains(t, err, "storage client is required")

	_, err = New(&storage.Client{}, Config{})
	require.ErrorContains(t, err, "bucket name is required")
}

func TestObjectName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		rel    string
		want   string
	}{
		{name: "no prefix", rel: "run/team-1.json", want: "run/team-1.json"},
		{name: "prefix", prefix: "showcase", rel: "run/team-1.json", want: "showcase/run/team-1.json"},
		{name: "slashes trimmed", prefix: "/showcase/", rel: "/run/team-1.json", want: "showcase/run/team-1.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store, err := New(&storage.Client{}, Config{Bucket: "b", Prefix: tt.prefix})
			require.NoError(t, err)
			assert.Equal(t, tt.want, store.ObjectName(tt.rel))
		})
	}
}
