package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/stretchr/testify/require"
)

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf, "alice", model.StorageLimit/2, model.StorageLimit)
	require.Equal(t, "alice: 26214400 of 52428800 bytes used (50.0%)\n", buf.String())
}

func TestPrintPhotos(t *testing.T) {
	var buf bytes.Buffer
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	printPhotos(&buf, []model.Photo{
		{ID: 2, ObjectKey: "b.png", ContentType: model.PNG, SizeBytes: 10, Polygons: model.Polygons{{}, {}}, CreatedAt: created},
		{ID: 1, ObjectKey: "a.jpg", ContentType: model.JPEG, SizeBytes: 20, CreatedAt: created.Add(-time.Hour)},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "ID"))
	require.Contains(t, lines[1], "b.png")
	require.Contains(t, lines[1], "2024-05-01T12:00:00Z")
	require.Regexp(t, `^1\s+a\.jpg\s+image/jpeg\s+20\s+0\s+`, lines[2])
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("STORE_BACKEND", "memory")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "alice", "--ttl", "1h"})
	require.NoError(t, rootCmd.Execute())

	token := strings.TrimSpace(out.String())
	require.Len(t, strings.Split(token, "."), 3)
}
