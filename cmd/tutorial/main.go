package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"tutorial-orchestrator/internal/genai"
	"tutorial-orchestrator/internal/media"
	"tutorial-orchestrator/internal/platform/config"
	"tutorial-orchestrator/internal/platform/logger"
	"tutorial-orchestrator/internal/platform/metrics"
	"tutorial-orchestrator/internal/shell"
	"tutorial-orchestrator/internal/speech"
	"tutorial-orchestrator/internal/status"
	"tutorial-orchestrator/internal/tutorial"

	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 5 * time.Second

func main() {
	app := &cli.App{
		Name:  "tutorial",
		Usage: "record an automated coding tutorial with live typing and narration",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "topic", Usage: "topic to build the tutorial around", Required: true},
			&cli.StringFlag{Name: "kernel", Value: "python3", Usage: "jupyter kernel name (python3, ir, julia, rust, xcpp17, bash)"},
			&cli.StringFlag{Name: "narration", Value: "after", Usage: "narration mode: 'after' or 'parallel'"},
			&cli.BoolFlag{Name: "force-approve", Usage: "approve generated segments without manual review"},
			&cli.StringFlag{Name: "output-dir", Value: "tutorial_data", Usage: "directory for run artifacts"},
			&cli.StringSliceFlag{Name: "path", Usage: "workspace path with purpose as 'path=purpose'; repeatable"},
			&cli.IntFlag{Name: "retry-budget", Value: tutorial.DefaultRetryBudget, Usage: "max regeneration attempts per segment"},
			&cli.Int64Flag{Name: "typing-seed", Usage: "seed for the typing delay sampler (0 uses the clock)"},
			&cli.StringFlag{Name: "listen", Usage: "optional address for the run status endpoint, e.g. :8080"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	_ = config.Load()
	log := logger.New(config.GetEnv("LOG_LEVEL", "info"), config.GetEnv("LOG_FORMAT", "text"))

	googleKey := config.GetEnv("GOOGLE_API_KEY", "")
	ttsKey := config.GetEnv("ELEVENLABS_API_KEY", "")
	voiceID := config.GetEnv("ELEVENLABS_VOICE_ID", "")
	if googleKey == "" || ttsKey == "" || voiceID == "" {
		return errors.New("GOOGLE_API_KEY, ELEVENLABS_API_KEY, and ELEVENLABS_VOICE_ID must be set")
	}

	mode, ok := tutorial.ParseNarrationMode(c.String("narration"))
	if !ok {
		return fmt.Errorf("invalid narration mode %q (want 'after' or 'parallel')", c.String("narration"))
	}
	policy := tutorial.ApprovalManual
	if c.Bool("force-approve") {
		policy = tutorial.ApprovalForce
	}
	paths, err := parsePaths(c.StringSlice("path"))
	if err != nil {
		return err
	}
	kernel := c.String("kernel")

	run := tutorial.NewTutorialRun(c.String("topic"), mode, policy)
	runDir := filepath.Join(c.String("output-dir"), run.ID)
	audioDir := filepath.Join(runDir, "audio")
	videoDir := filepath.Join(runDir, "video")
	for _, dir := range []string{audioDir, videoDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	log.Info("run starting",
		slog.String("run_id", run.ID),
		slog.String("topic", run.Topic),
		slog.String("narration", string(mode)),
		slog.String("kernel", kernel))

	session, err := shell.OpenConsoleSession(kernel, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("closing console", slog.String("error", cerr.Error()))
		}
	}()

	if err := shell.Fullscreen(session.WindowID()); err != nil {
		return err
	}
	time.Sleep(2 * time.Second)
	geo, err := shell.WindowGeometry(session.WindowID())
	if err != nil {
		return err
	}

	recorder := media.NewRecorder(videoDir, config.GetEnv("DISPLAY", ":0"),
		media.Region{X: geo.X, Y: geo.Y, Width: geo.Width, Height: geo.Height},
		config.GetEnvInt("CAPTURE_FPS", media.DefaultFPS), log)
	capture := tutorial.NewCaptureController(recorder)

	synth := speech.NewElevenLabs(ttsKey, voiceID, audioDir, media.NewFFprobe(), log)
	narration := tutorial.NewNarrationRecorder(synth, media.NewFFplay(), log)

	chat := genai.NewClient(googleKey, config.GetEnv("GEMINI_MODEL", ""))
	gen := genai.NewGenerator(chat, genai.NewPromptBuilder(kernel, run.Topic, paths), log)

	seed := c.Int64("typing-seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	delay := tutorial.NewTypingDelay(seed,
		config.GetEnvDuration("TYPING_DELAY", 100*time.Millisecond),
		config.GetEnvDuration("TYPING_JITTER", 60*time.Millisecond))
	typist := tutorial.NewTypingSimulator(delay, false, strings.Contains(kernel, "python"))

	met := metrics.New()
	orch := tutorial.NewOrchestrator(gen, tutorial.NewGate(policy, os.Stdin, os.Stdout), typist, session, capture, narration, tutorial.Options{
		RetryBudget: c.Int("retry-budget"),
		Padding:     config.GetEnvDuration("SEGMENT_PADDING", 10*time.Second),
		Logger:      log,
		Metrics:     met,
	})

	if addr := c.String("listen"); addr != "" {
		srv := status.New(addr, orch.Snapshot, met, func() {
			met.SetCaptureOpen(capture.OpenCount())
		}, log)
		srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if serr := srv.Shutdown(ctx); serr != nil {
				log.Warn("status server shutdown", slog.String("error", serr.Error()))
			}
		}()
	}

	// SIGINT/SIGTERM cancel the context; the orchestrator unwinds cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orch.Run(ctx, run); err != nil {
		return err
	}
	if run.State == tutorial.StateAborted {
		log.Info("run aborted, no artifact produced", slog.String("run_id", run.ID))
		return nil
	}

	return writeAssembly(run, runDir, log)
}

func writeAssembly(run *tutorial.TutorialRun, runDir string, log *slog.Logger) error {
	asm, err := tutorial.BuildAssembly(run)
	if err != nil {
		return err
	}

	plan, err := json.MarshalIndent(asm, "", "  ")
	if err != nil {
		return err
	}
	planPath := filepath.Join(runDir, "mux_plan.json")
	if err := os.WriteFile(planPath, plan, 0o644); err != nil {
		return err
	}

	concatPath := filepath.Join(runDir, "capture.ffconcat")
	if err := os.WriteFile(concatPath, []byte(tutorial.ConcatManifest(run.Intervals)), 0o644); err != nil {
		return err
	}

	log.Info("tutorial assembled",
		slog.String("run_id", run.ID),
		slog.Int("segments", len(run.Segments)),
		slog.Bool("degraded", run.Degraded),
		slog.String("mux_plan", planPath),
		slog.String("concat", concatPath))
	return nil
}

func parsePaths(raw []string) ([]genai.PathInfo, error) {
	out := make([]genai.PathInfo, 0, len(raw))
	for _, r := range raw {
		path, purpose, ok := strings.Cut(r, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --path %q (want 'path=purpose')", r)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("path %s: %w", abs, err)
		}
		out = append(out, genai.PathInfo{Path: abs, Purpose: purpose})
	}
	return out, nil
}
