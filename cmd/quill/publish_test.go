package main

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsePublishFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("publish", pflag.ContinueOnError)
	addPublishFlags(f)
	require.NoError(t, f.Parse(args))
	return f
}

func TestPublishRequest_OnlyChangedFlags(t *testing.T) {
	req, err := publishRequest(parsePublishFlags(t))
	require.NoError(t, err)
	assert.Nil(t, req.Title)
	assert.Nil(t, req.Slug)
	assert.Nil(t, req.Tags)
	assert.Nil(t, req.Categories)
	assert.Nil(t, req.Draft)
	assert.Nil(t, req.Date)
	assert.False(t, req.KeepDate)
}

func TestPublishRequest_Overrides(t *testing.T) {
	req, err := publishRequest(parsePublishFlags(t,
		"--title", "Hello",
		"--tags", "go,xmlrpc",
		"--categories", "Dev",
		"--draft",
		"--date", "2024-05-01 10:30",
		"--keep-date",
	))
	require.NoError(t, err)

	require.NotNil(t, req.Title)
	assert.Equal(t, "Hello", *req.Title)
	assert.Nil(t, req.Slug)
	assert.Equal(t, []string{"go", "xmlrpc"}, req.Tags)
	assert.Equal(t, []string{"Dev"}, req.Categories)
	require.NotNil(t, req.Draft)
	assert.True(t, *req.Draft)
	require.NotNil(t, req.Date)
	assert.True(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local).Equal(*req.Date))
	assert.True(t, req.KeepDate)
}

func TestPublishRequest_EmptySlugClears(t *testing.T) {
	req, err := publishRequest(parsePublishFlags(t, "--slug="))
	require.NoError(t, err)
	require.NotNil(t, req.Slug)
	assert.Empty(t, *req.Slug)
}

func TestPublishRequest_BadDate(t *testing.T) {
	_, err := publishRequest(parsePublishFlags(t, "--date", "soon"))
	assert.Error(t, err)
}
