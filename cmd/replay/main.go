package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/command"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/config"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/engine"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/evidence"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/scenario"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/system"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/telemetry"
)

// Set with -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

func main() {
	if command.IsReducerProcess() {
		os.Exit(command.ServeReducer(os.Stdin, os.Stdout, os.Stderr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("[-] Configuration error: %v", err)
	}

	if err := run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		log.Fatalf("[-] Replay failed: %v", err)
	}
}

// parseConfig reads the environment and lets flags override it.
func parseConfig(fs *flag.FlagSet, args []string) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	fs.StringVar(&cfg.ScenePath, "scene", cfg.ScenePath, "Scene YAML (default: newest file in -scene-dir)")
	fs.StringVar(&cfg.SceneDir, "scene-dir", cfg.SceneDir, "Directory searched when -scene is empty")
	fs.StringVar(&cfg.CommandsPath, "commands", cfg.CommandsPath, "JSON array of commands to replay over the scene")
	fs.Float64Var(&cfg.At, "at", cfg.At, "Report envelopes at this timeline time in seconds (-1: the live scene)")
	fs.BoolVar(&cfg.Sample, "sample", cfg.Sample, "Report envelopes for every frame of the timeline")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "Sampling rate for -sample (0: the scene's own)")
	fs.Float64Var(&cfg.PixelScale, "pixel-scale", cfg.PixelScale, "Pixels per meter for exported geometry (0: meters)")
	fs.Float64Var(&cfg.PixelOriginX, "pixel-origin-x", cfg.PixelOriginX, "Pixel X of the world origin")
	fs.Float64Var(&cfg.PixelOriginY, "pixel-origin-y", cfg.PixelOriginY, "Pixel Y of the world origin")
	fs.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "Report YAML path (default: stdout)")
	fs.StringVar(&cfg.SavePath, "save", cfg.SavePath, "Write the resulting scene here; a directory gets a timestamped name")
	fs.StringVar(&cfg.QRPath, "qr", cfg.QRPath, "Write a QR code PNG of the report digest")
	fs.StringVar(&cfg.AuditPath, "audit", cfg.AuditPath, "Append command audit records (JSON lines)")
	fs.DurationVar(&cfg.CommandTimeout, "timeout", cfg.CommandTimeout, "Deadline for a single command")
	fs.StringVar(&cfg.Isolation, "isolation", cfg.Isolation, "Run each command's reducer in a child \"process\" or a \"goroutine\"")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Worker goroutines (0: one per CPU)")
	fs.BoolVar(&cfg.ShowStats, "stats", cfg.ShowStats, "Print a performance report")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}
	cfg.BuildVersion = buildVersion

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config, out, errOut io.Writer) (err error) {
	start := time.Now()

	scenePath := cfg.ScenePath
	if scenePath == "" {
		latest, err := scenario.FindLatest(cfg.SceneDir)
		if err != nil {
			return fmt.Errorf("%w. Put a scene into %s", err, cfg.SceneDir)
		}
		scenePath = latest
		log.Printf("[*] Selected scene: %s", scenePath)
	}

	doc, err := scenario.Read(scenePath)
	if err != nil {
		return err
	}

	var cmds []command.Command
	if cfg.CommandsPath != "" {
		if cmds, err = command.ReadFile(cfg.CommandsPath); err != nil {
			return err
		}
	}

	shutdown, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Printf("[!] Tracing disabled: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if serr := shutdown(sctx); serr != nil {
			log.Printf("[!] Trace flush failed: %v", serr)
		}
	}()

	exec := command.NewExecutor(cfg.CommandTimeout, cfg.MaxPayloadBytes)
	if cfg.Isolation == config.IsolationProcess {
		exec.Runner = command.ProcessRunner{}
	}
	if cfg.AuditPath != "" {
		var f *os.File
		if f, err = openAppend(cfg.AuditPath); err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, f.Close())
		}()
		exec.Sink = command.NewWriterSink(f)
	}

	project := engine.NewProject(&cfg, exec)
	report, final, err := project.Run(ctx, doc, cmds)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return err
	}
	if cfg.OutputPath == "" {
		if _, err := out.Write(data); err != nil {
			return err
		}
	} else {
		if err := writeFile(cfg.OutputPath, data); err != nil {
			return err
		}
		log.Printf("[+] Report written: %s", cfg.OutputPath)
	}

	if cfg.QRPath != "" {
		png, err := evidence.QRCode(report.Digest, evidence.DefaultQRSize)
		if err != nil {
			return err
		}
		if err := writeFile(cfg.QRPath, png); err != nil {
			return err
		}
		log.Printf("[+] Digest QR code written: %s", cfg.QRPath)
	}

	if cfg.SavePath != "" {
		path := cfg.SavePath
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = scenario.GeneratePath(path, time.Now())
		}
		if err := scenario.Write(scenario.FromState(doc.Name, final), path); err != nil {
			return err
		}
		log.Printf("[+] Scene saved: %s", path)
	}

	if cfg.ShowStats {
		stats, err := system.CollectStats()
		if err != nil {
			log.Printf("[!] Incomplete host stats: %v", err)
		}
		system.PrintReport(errOut, cfg.BuildVersion, stats, time.Since(start).Seconds(), len(report.Frames))
	}

	log.Printf("[+++] Done. Report digest: sha256:%s", report.Digest)
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}
