package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/folio-site/folio-backend/internal/aquarium"
	"github.com/folio-site/folio-backend/logger"
	"github.com/folio-site/folio-backend/pkg/feedbackapi"
	"github.com/folio-site/folio-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func init() {
	logger.IsTest = true
}

func testOptions(t *testing.T, client *MockClient) *options {
	t.Helper()
	return &options{
		apiURL:  "http://gateway.test",
		logFile: filepath.Join(t.TempDir(), "aquarium.log"),
		newClient: func(baseURL string) (feedbackapi.ClientInterface, error) {
			assert.Equal(t, "http://gateway.test", baseURL)
			return client, nil
		},
	}
}

func execute(t *testing.T, opts *options, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(opts)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestSubmitCommand(t *testing.T) {
	client := new(MockClient)
	req := types.FeedbackCreate{Name: "Ada", Email: "ada@x.com", Message: "hi"}
	client.On("Create", mock.Anything, req).Return(&types.Feedback{ID: "1", Name: "Ada"}, nil)

	stdout, _, err := execute(t, testOptions(t, client),
		"submit", "--name", "Ada", "--email", "ada@x.com", "--message", "hi")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Thanks, Ada!")
	client.AssertExpectations(t)
}

func TestSubmitCommandFailureIsGeneric(t *testing.T) {
	client := new(MockClient)
	client.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("upstream exploded"))

	stdout, stderr, err := execute(t, testOptions(t, client),
		"submit", "--name", "Ada", "--email", "ada@x.com", "--message", "hi")
	require.ErrorIs(t, err, errReported)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, submitFailedMessage)
	assert.NotContains(t, stderr, "upstream exploded")
}

func TestSubmitCommandRequiresFlags(t *testing.T) {
	client := new(MockClient)

	_, _, err := execute(t, testOptions(t, client), "submit", "--name", "Ada")
	require.Error(t, err)
	client.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListCommand(t *testing.T) {
	client := new(MockClient)
	client.On("List", mock.Anything).Return([]types.Feedback{
		{ID: "2", Name: "Grace", Email: "grace@x.com", Message: "hello", CreatedAt: time.Now()},
		{ID: "1", Name: "Ada", Email: "ada@x.com", Message: "hi", CreatedAt: time.Now()},
	}, nil)

	stdout, _, err := execute(t, testOptions(t, client), "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Grace <grace@x.com>")
	assert.Contains(t, stdout, "  hi")
	assert.Less(t, bytes.Index([]byte(stdout), []byte("Grace")), bytes.Index([]byte(stdout), []byte("Ada")))
}

func TestListCommandEmpty(t *testing.T) {
	client := new(MockClient)
	client.On("List", mock.Anything).Return([]types.Feedback{}, nil)

	stdout, _, err := execute(t, testOptions(t, client), "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No feedback yet.")
}

func TestListCommandError(t *testing.T) {
	client := new(MockClient)
	client.On("List", mock.Anything).Return(nil, errors.New("down"))

	_, _, err := execute(t, testOptions(t, client), "list")
	assert.ErrorContains(t, err, "failed to list feedback")
}

func TestDeleteCommand(t *testing.T) {
	client := new(MockClient)
	client.On("Delete", mock.Anything, "abc").Return(nil)

	stdout, _, err := execute(t, testOptions(t, client), "delete", "abc")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted abc")

	_, _, err = execute(t, testOptions(t, client), "delete")
	assert.Error(t, err)
	client.AssertNumberOfCalls(t, "Delete", 1)
}

func TestPhysicsOption(t *testing.T) {
	opts := testOptions(t, new(MockClient))

	cfg, err := opts.physics()
	require.NoError(t, err)
	assert.Equal(t, 40.0, cfg.Radius)

	opts.tuning = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = opts.physics()
	assert.Error(t, err)
}

func TestTuningCommand(t *testing.T) {
	opts := testOptions(t, new(MockClient))

	stdout, _, err := execute(t, opts, "tuning")
	require.NoError(t, err)

	var cfg aquarium.Config
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &cfg))
	assert.Equal(t, aquarium.DefaultConfig(), cfg)
	assert.Contains(t, stdout, "tick: 30ms")

	path := filepath.Join(t.TempDir(), "tuning.yaml")
	_, _, err = execute(t, opts, "tuning", "--out", path)
	require.NoError(t, err)

	loaded, err := aquarium.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, aquarium.DefaultConfig(), loaded)
}
