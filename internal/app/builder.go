package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"radsim/internal/agent"
	"radsim/internal/audit"
	"radsim/internal/chat"
	"radsim/internal/commands"
	"radsim/internal/config"
	"radsim/internal/logging"
	"radsim/internal/permission"
	"radsim/internal/provider"
	"radsim/internal/provider/anthropic"
	"radsim/internal/provider/gemini"
	"radsim/internal/provider/ollama"
	"radsim/internal/router"
	"radsim/internal/security"
	"radsim/internal/tools"
	"radsim/internal/ui"
)

// Options are the command-line choices that shape an App.
type Options struct {
	WorkDir     string
	DataDir     string // sessions, audit log; defaults to config.DataDir()
	Version     string
	AutoConfirm bool
	Resume      bool // continue the most recent session
	Markdown    bool // render final answers instead of streaming raw text
	In          io.Reader
	Out         io.Writer
}

// Builder constructs App instances step by step.
type Builder struct {
	cfg  *config.Config
	opts Options
	ctx  context.Context

	providers *provider.Registry
	router    *router.Router
	perms     *permission.Manager
	registry  *tools.Registry
	store     *chat.Store
	session   *agent.Session
	audit     *audit.Logger
	input     *ui.Input
	printer   *ui.Printer
	confirmer tools.Confirmer
	renderer  *ui.Renderer
}

// NewBuilder creates a new Builder with the given config and options.
func NewBuilder(ctx context.Context, cfg *config.Config, opts Options) *Builder {
	if opts.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.WorkDir = wd
		}
	}
	if cfg.Tools.WorkDir != "" {
		opts.WorkDir = cfg.Tools.WorkDir
	}
	if opts.DataDir == "" {
		opts.DataDir = config.DataDir()
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Builder{cfg: cfg, opts: opts, ctx: ctx}
}

// Build constructs the App. Provider and tool setup errors are fatal;
// session and audit problems only disable those features.
func (b *Builder) Build() (*App, error) {
	if err := b.initProviders(); err != nil {
		return nil, err
	}
	b.router = router.New(b.cfg.Router, b.providers)

	if err := b.initTools(); err != nil {
		return nil, err
	}
	if err := b.initSession(); err != nil {
		return nil, err
	}
	b.initAudit()
	b.initUI()

	return b.assembleApp(), nil
}

// initProviders creates an adapter for every provider with credentials.
func (b *Builder) initProviders() error {
	var adapters []provider.Adapter
	p := b.cfg.Providers

	if b.cfg.HasCredentials(config.ProviderClaude) {
		adapters = append(adapters, anthropic.New(anthropic.Config{
			APIKey:      p.Claude.APIKey,
			BaseURL:     p.Claude.BaseURL,
			HTTPTimeout: p.HTTPTimeout,
		}))
	}
	if b.cfg.HasCredentials(config.ProviderGemini) {
		a, err := gemini.New(b.ctx, p.Gemini.APIKey)
		if err != nil {
			logging.Warn("gemini adapter unavailable", "error", err)
		} else {
			adapters = append(adapters, a)
		}
	}
	if b.cfg.HasCredentials(config.ProviderOllama) {
		a, err := ollama.New(ollama.Config{
			BaseURL:     p.Ollama.BaseURL,
			APIKey:      p.Ollama.APIKey,
			HTTPTimeout: p.HTTPTimeout,
		})
		if err != nil {
			logging.Warn("ollama adapter unavailable", "error", err)
		} else {
			adapters = append(adapters, a)
		}
	}

	if len(adapters) == 0 {
		return config.ErrMissingAuth
	}

	reg, err := provider.NewRegistry(adapters...)
	if err != nil {
		return err
	}
	b.providers = reg
	logging.Debug("providers ready", "adapters", reg.Names())
	return nil
}

// initTools creates the tool registry confined to the work directory.
func (b *Builder) initTools() error {
	guard, err := security.NewPathGuard(b.opts.WorkDir)
	if err != nil {
		return fmt.Errorf("invalid work directory: %w", err)
	}

	b.perms = permission.NewManager(permission.NewRulesFromConfig(b.cfg.Tools.Rules))
	b.registry = tools.NewRegistry(
		tools.WithPermissions(b.perms),
		tools.WithTimeout(b.cfg.Tools.Timeout),
		tools.WithMaxResultChars(b.cfg.Tools.MaxResultChars),
	)
	if err := tools.RegisterBuiltins(b.registry, guard, tools.BuiltinOptions{
		ShellTimeout: b.cfg.Tools.ShellTimeout,
	}); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}
	b.registry.Freeze()
	return nil
}

// initSession opens the session store and starts or resumes a session.
func (b *Builder) initSession() error {
	if b.cfg.Session.Enabled {
		dir := b.cfg.Session.Dir
		if dir == "" {
			dir = filepath.Join(b.opts.DataDir, "sessions")
		}
		store, err := chat.NewStore(dir)
		if err != nil {
			logging.Warn("session persistence disabled", "error", err)
		} else {
			b.store = store
		}
	}

	if b.opts.Resume && b.store != nil {
		session, err := agent.ResumeSession(b.store)
		if err != nil {
			return fmt.Errorf("failed to resume session: %w", err)
		}
		b.session = session
		return nil
	}
	b.session = agent.NewSession(b.store)
	return nil
}

func (b *Builder) initAudit() {
	logger, err := audit.NewLogger(b.opts.DataDir, audit.Config{
		Enabled:      b.cfg.Audit.Enabled,
		MaxResultLen: audit.DefaultConfig().MaxResultLen,
	})
	if err != nil {
		logging.Warn("audit log disabled", "error", err)
		logger, _ = audit.NewLogger("", audit.Config{})
	}
	b.audit = logger
}

func (b *Builder) initUI() {
	styles := ui.DefaultStyles()
	b.input = ui.NewInput(b.opts.In)
	b.printer = ui.NewPrinter(b.opts.Out, styles, !b.opts.Markdown)
	b.renderer = ui.NewRenderer(100)

	if b.opts.AutoConfirm || b.cfg.Tools.AutoConfirm {
		b.confirmer = tools.AutoConfirm
	} else {
		b.confirmer = ui.NewConfirmer(b.input, b.opts.Out, b.perms, styles)
	}
}

func (b *Builder) assembleApp() *App {
	budget := agent.NewBudget(b.cfg.Agent.MaxSessionInputTokens, b.cfg.Agent.MaxSessionOutputTokens)
	loop := agent.New(b.session, b.router, b.registry, b.cfg.Agent,
		agent.WithConfirmer(b.confirmer),
		agent.WithHandler(b.printer.Handler()),
		agent.WithAudit(b.audit),
		agent.WithBudget(budget),
	)

	return &App{
		cfg:      b.cfg,
		opts:     b.opts,
		router:   b.router,
		perms:    b.perms,
		store:    b.store,
		loop:     loop,
		budget:   budget,
		input:    b.input,
		printer:  b.printer,
		renderer: b.renderer,
		commands: commands.NewHandler(),
	}
}
