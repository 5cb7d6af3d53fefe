package tools

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, id ID, inv Invocation) (string, error) {
	args := m.Called(ctx, id, inv)
	return args.String(0), args.Error(1)
}

func newTestClient(runner Runner) *Client {
	return NewClient(runner, ClientConfig{Via: "api", ModelType: "mistral", ProbeTimeout: time.Second}, zerolog.Nop())
}

func TestClientSummarize(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything, Summarizer, Invocation{Args: []string{"https://example.com", "Summarize"}}).
		Return("Short summary.", nil).Once()

	out, err := newTestClient(runner).Summarize(context.Background(), "https://example.com", "Summarize")
	require.NoError(t, err)
	require.Equal(t, "Short summary.", out)
	runner.AssertExpectations(t)
}

func TestClientAsk_ContextOnStdin(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything, Asker, Invocation{Args: []string{"what?"}, Stdin: "the document"}).
		Return("an answer", nil).Once()

	out, err := newTestClient(runner).Ask(context.Background(), "what?", "the document")
	require.NoError(t, err)
	require.Equal(t, "an answer", out)
	runner.AssertExpectations(t)
}

func captureArgMatcher(url string) func(Invocation) bool {
	return func(inv Invocation) bool {
		return len(inv.Args) == 4 && inv.Args[0] == "--capture-file" && inv.Args[2] == "--json" && inv.Args[3] == url
	}
}

func TestClientBookmark_Success(t *testing.T) {
	runner := &MockRunner{}
	var capturePath string
	runner.On("Run", mock.Anything, Bookmarker, mock.MatchedBy(captureArgMatcher("https://example.com"))).
		Run(func(args mock.Arguments) {
			capturePath = args.Get(2).(Invocation).Args[1]
			require.NoError(t, os.WriteFile(capturePath, []byte("full page text"), 0o600))
		}).
		Return(`{"link":"https://example.com","title":"T","description":"D","keywords":["x","y"]}`, nil).Once()

	result, err := newTestClient(runner).Bookmark(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "https://example.com", result.Bookmark.Link)
	require.Equal(t, "T", result.Bookmark.Title)
	require.Equal(t, "D", result.Bookmark.Description)
	require.JSONEq(t, `["x","y"]`, string(result.Bookmark.Keywords))
	require.Equal(t, "full page text", result.FullText)

	_, statErr := os.Stat(capturePath)
	require.True(t, os.IsNotExist(statErr), "capture file should be removed")
	runner.AssertExpectations(t)
}

func TestClientBookmark_MalformedOutput(t *testing.T) {
	runner := &MockRunner{}
	var capturePath string
	runner.On("Run", mock.Anything, Bookmarker, mock.MatchedBy(captureArgMatcher("https://example.com"))).
		Run(func(args mock.Arguments) {
			capturePath = args.Get(2).(Invocation).Args[1]
			require.NoError(t, os.WriteFile(capturePath, []byte("captured"), 0o600))
		}).
		Return("Sure! Here is your JSON:", nil).Once()

	_, err := newTestClient(runner).Bookmark(context.Background(), "https://example.com")
	var malformed *MalformedOutputError
	require.True(t, errors.As(err, &malformed))
	require.Equal(t, "Sure! Here is your JSON:", malformed.Raw)
	require.Equal(t, "captured", malformed.FullText)

	_, statErr := os.Stat(capturePath)
	require.True(t, os.IsNotExist(statErr))
}

func TestClientBookmark_MissingLink(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything, Bookmarker, mock.Anything).Return(`{"title":"T"}`, nil).Once()

	_, err := newTestClient(runner).Bookmark(context.Background(), "https://example.com")
	var malformed *MalformedOutputError
	require.True(t, errors.As(err, &malformed))
}

func TestClientBookmark_ToolFailureRemovesCapture(t *testing.T) {
	runner := &MockRunner{}
	var capturePath string
	runner.On("Run", mock.Anything, Bookmarker, mock.Anything).
		Run(func(args mock.Arguments) {
			capturePath = args.Get(2).(Invocation).Args[1]
		}).
		Return("", &ExecutionError{Tool: Bookmarker, ExitCode: 1, Err: errors.New("exit status 1")}).Once()

	_, err := newTestClient(runner).Bookmark(context.Background(), "https://example.com")
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	_, statErr := os.Stat(capturePath)
	require.True(t, os.IsNotExist(statErr))
}

func TestClientListModels(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything, ModelLister, Invocation{Args: []string{"--via", "api", "--list-models"}}).
		Return(" alpha \nbeta\n\n", nil).Once()

	models, err := newTestClient(runner).ListModels(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta"}, models)
}

func TestClientLoadModel(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything, ModelLoader, Invocation{Args: []string{"--via", "api", "--load-model", "beta"}}).
		Return("loaded beta", nil).Once()

	out, err := newTestClient(runner).LoadModel(context.Background(), "beta")
	require.NoError(t, err)
	require.Equal(t, "loaded beta", out)
}

func TestClientActiveModelName(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything, ModelName, Invocation{Args: []string{"--via", "api", "--get-model-name"}}).
		Return("mixtral-8x7b\n", nil).Once()
	require.Equal(t, "mixtral-8x7b", newTestClient(runner).ActiveModelName(context.Background()))
}

func TestClientActiveModelName_FallsBack(t *testing.T) {
	failing := &MockRunner{}
	failing.On("Run", mock.Anything, ModelName, mock.Anything).Return("", errors.New("boom")).Once()
	require.Equal(t, "mistral?", newTestClient(failing).ActiveModelName(context.Background()))

	empty := &MockRunner{}
	empty.On("Run", mock.Anything, ModelName, mock.Anything).Return("  \n", nil).Once()
	require.Equal(t, "mistral?", newTestClient(empty).ActiveModelName(context.Background()))
}

func TestClientFreeGPUMemory(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Run", mock.Anything, GPUProbe, Invocation{}).Return("11264 MiB\n", nil).Once()
	require.Equal(t, "11264 MiB", newTestClient(runner).FreeGPUMemory(context.Background()))

	failing := &MockRunner{}
	failing.On("Run", mock.Anything, GPUProbe, Invocation{}).Return("", errors.New("no gpu")).Once()
	require.Equal(t, "0", newTestClient(failing).FreeGPUMemory(context.Background()))
}
