package main

import (
	"flag"
	"fmt"
	"os"

	"fortio.org/cli"
	"go.uber.org/zap"

	"moto-viewer/internal/commands"
	"moto-viewer/internal/config"
	"moto-viewer/internal/debug"
	"moto-viewer/internal/fonts"
	"moto-viewer/internal/graphics"
	"moto-viewer/internal/loader"
	"moto-viewer/internal/logger"
	"moto-viewer/internal/session"
	"moto-viewer/internal/terminal"
	"moto-viewer/internal/ui"
	"moto-viewer/internal/ui/style"
)

func main() {
	os.Exit(Main())
}

func Main() int {
	configPath := flag.String("config", config.DefaultPath, "Path to the viewer config `file`")
	assetsDir := flag.String("assets", "", "Override the models `directory`")
	listModels := flag.Bool("ls", false, "List the model catalog and exit")
	writeConfig := flag.Bool("write-config", false, "Write the effective config to -config and exit")
	cli.ArgsHelp = "[model]  (catalog id or label, or a path under the models directory)"
	cli.MinArgs = 0
	cli.MaxArgs = 1
	cli.Main()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}
	if *assetsDir != "" {
		cfg.Assets.Dir = *assetsDir
	}
	if *listModels {
		for _, m := range cfg.Assets.Models {
			fmt.Printf("%-12s %s\n", m.ID, m.Label)
		}
		return 0
	}
	if *writeConfig {
		if err := config.Save(*configPath, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			return 1
		}
		return 0
	}

	lg, err := logger.New(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log:", err)
		return 1
	}
	defer lg.Close()
	log := lg.Zap()
	log.Info("starting", zap.String("config", *configPath))

	return run(cfg, lg, log)
}

func run(cfg config.Config, lg *logger.Logger, log *zap.Logger) int {
	models := make([]ui.Model, 0, len(cfg.Assets.Models))
	for _, m := range cfg.Assets.Models {
		models = append(models, ui.Model{ID: m.ID, Label: m.Label})
	}
	sheet, _ := style.ParseString(ui.DefaultCSS)
	engine := ui.New(sheet)
	if cfg.Overlay.Stylesheet != "" {
		if err := engine.LoadCSS(cfg.Overlay.Stylesheet); err != nil {
			log.Warn("stylesheet not loaded; using the built-in one", zap.Error(err))
		}
	}
	overlay := ui.NewOverlay(engine, models)

	opts, err := cfg.SessionOptions()
	if err != nil {
		log.Error("session options", zap.Error(err))
		return 1
	}
	opts.OnNotice = overlay.Notify

	reg := loader.NewRegistry(cfg.Assets.Dir,
		loader.WithDefaultExtension(cfg.Assets.DefaultExtension),
		loader.WithLogger(log.Named("loader")))
	log.Info("model catalog", zap.String("dir", reg.AssetsDir()), zap.Int("models", len(models)))
	renderer := graphics.NewRenderer(log.Named("graphics"))
	renderer.GridVisible = !cfg.Overlay.HideGrid
	sess := session.New(opts, reg, renderer, log.Named("session"))
	defer sess.Dispose()

	hud := debug.New()
	hud.ShowFPS = cfg.Overlay.ShowFPS
	cmds := commands.NewRegistry()
	term := terminal.New(lg, cmds)
	commands.RegisterViewer(cmds, commands.Viewer{
		Session: sess,
		Models:  cfg.Assets.Models,
		Print:   term.Print,
		SetGrid: func(on bool) { renderer.GridVisible = on },
		SetFPS:  func(on bool) { hud.ShowFPS = on },
	})

	if flag.NArg() > 0 {
		term.Submit(fmt.Sprintf("load %q", flag.Arg(0)))
	} else if id := cfg.InitialModel(); id != "" {
		_ = sess.SelectModel(id)
	}

	var (
		input   graphics.Input
		started bool
	)
	blocked := func(x, y float32) bool {
		return (term.IsOpen() && y >= term.Top()) || overlay.Captures(sess, x, y)
	}
	frame := func() {
		if !started {
			started = true
			if cfg.Overlay.Font != "" {
				if path, err := fonts.Find(cfg.Overlay.Font); err != nil {
					log.Warn("font not found", zap.String("font", cfg.Overlay.Font))
				} else if err := engine.LoadFont(path); err != nil {
					log.Warn("font not loaded", zap.String("path", path), zap.Error(err))
				}
				term.SetFont(engine.Font())
				hud.SetFont(engine.Font())
			}
			overlay.InitStyle()
		}

		term.Update()
		input.Poll(sess, blocked)
		sess.Frame()

		if id, ok := overlay.Draw(sess, !term.IsOpen()); ok {
			_ = sess.SelectModel(id)
		}
		term.Draw()
		hud.Draw(stats(sess))
	}

	graphics.Run(graphics.Window{
		Title:     cfg.Window.Title,
		Width:     cfg.Window.Width,
		Height:    cfg.Window.Height,
		TargetFPS: cfg.Window.TargetFPS,
	}, frame, renderer.Unload)
	log.Info("window closed", zap.Uint64("frames", sess.Viewport().Frames()))
	return 0
}

func stats(s *session.Session) debug.Stats {
	st := debug.Stats{
		Model:     s.Manager().Identifier(),
		Selected:  s.Selection().Len(),
		Loading:   s.Manager().Pending(),
		Discarded: s.Manager().Discarded(),
	}
	if root := s.Current(); root != nil {
		st.Parts = len(root.Parts())
	}
	return st
}
