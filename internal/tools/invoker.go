package tools

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/klotz/summarizer-service/internal/config"
	"github.com/klotz/summarizer-service/internal/metrics"
)

type ID string

const (
	Summarizer  ID = "summarizer"
	Asker       ID = "asker"
	Bookmarker  ID = "bookmarker"
	ModelLister ID = "model-lister"
	ModelLoader ID = "model-loader"
	ModelName   ID = "model-name"
	GPUProbe    ID = "gpu-probe"
	Status      ID = "status"
)

// AllIDs lists every tool in display order.
var AllIDs = []ID{Summarizer, Asker, Bookmarker, ModelLister, ModelLoader, ModelName, GPUProbe, Status}

type Invocation struct {
	Args  []string
	Stdin string
}

// Runner spawns exactly one external process per call and returns its stdout.
type Runner interface {
	Run(ctx context.Context, id ID, inv Invocation) (string, error)
}

var commandContext = exec.CommandContext

const waitDelay = 2 * time.Second

type Invoker struct {
	binaries map[ID]string
	timeout  time.Duration
	log      zerolog.Logger
}

func NewInvoker(cfg config.Config, log zerolog.Logger) *Invoker {
	return &Invoker{
		binaries: Binaries(cfg),
		timeout:  cfg.ToolTimeout,
		log:      log,
	}
}

// Binaries maps each tool id to the program configured for it. The model
// tools share the via binary and differ only in flags.
func Binaries(cfg config.Config) map[ID]string {
	return map[ID]string{
		Summarizer:  cfg.SummarizeBin,
		Asker:       cfg.AskBin,
		Bookmarker:  cfg.ScuttleBin,
		ModelLister: cfg.ViaBin,
		ModelLoader: cfg.ViaBin,
		ModelName:   cfg.ViaBin,
		GPUProbe:    cfg.NvfreeBin,
		Status:      cfg.StatusBin,
	}
}

func (i *Invoker) Run(ctx context.Context, id ID, inv Invocation) (string, error) {
	bin := strings.TrimSpace(i.binaries[id])
	if bin == "" {
		return "", &ExecutionError{Tool: id, ExitCode: -1, Err: errors.New("no binary configured")}
	}
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	cmd := commandContext(ctx, bin, inv.Args...)
	cmd.WaitDelay = waitDelay
	if inv.Stdin != "" {
		cmd.Stdin = strings.NewReader(inv.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	i.log.Debug().Str("tool", string(id)).Str("bin", bin).Strs("args", inv.Args).Msg("tool.start")
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	if err == nil {
		metrics.RecordToolCall(string(id), "ok", elapsed.Seconds())
		return stdout.String(), nil
	}

	execErr := &ExecutionError{Tool: id, ExitCode: -1, Stderr: stderr.String(), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		execErr.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		execErr.Err = ctxErr
	}
	status := "error"
	if errors.Is(execErr.Err, context.DeadlineExceeded) {
		status = "timeout"
	}
	metrics.RecordToolCall(string(id), status, elapsed.Seconds())
	i.log.Warn().
		Str("tool", string(id)).
		Int("exit_code", execErr.ExitCode).
		Str("stderr", strings.TrimSpace(execErr.Stderr)).
		Dur("elapsed", elapsed).
		Err(execErr.Err).
		Msg("tool.failed")
	return "", execErr
}

// Availability resolves every configured binary on PATH.
func Availability(cfg config.Config) map[ID]error {
	results := make(map[ID]error, len(AllIDs))
	binaries := Binaries(cfg)
	for _, id := range AllIDs {
		_, err := exec.LookPath(binaries[id])
		results[id] = err
	}
	return results
}
