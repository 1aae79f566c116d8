package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awein/winnow/agent"
	"github.com/awein/winnow/command"
	"github.com/awein/winnow/compact"
	"github.com/awein/winnow/config"
	"github.com/awein/winnow/contextfiles"
	"github.com/awein/winnow/llm"
	"github.com/awein/winnow/session"
)

func main() {
	sessionFlag := flag.String("s", "", "Session name to create or use")
	resumeFlag := flag.String("r", "", "Resume a session by name")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}

	mgr := session.NewManager(session.DefaultDir)

	var sess *session.Session
	sessionName := *sessionFlag

	if *resumeFlag != "" {
		sessionName = *resumeFlag
		sess, err = mgr.Load(sessionName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resuming session '%s': %+v\n", sessionName, err)
			os.Exit(1)
		}
		fmt.Printf("Resuming session: %s\n", sessionName)
	} else {
		if sessionName == "" {
			sessionName = defaultSessionName()
		}
		sess, err = mgr.New(sessionName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating session '%s': %+v\n", sessionName, err)
			os.Exit(1)
		}
		fmt.Printf("Starting new session: %s\n", sessionName)

		if len(cfg.ContextFiles) > 0 {
			ctxMsgs, err := contextfiles.Load(".", cfg.ContextFiles)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading context files: %+v\n", err)
				os.Exit(1)
			}
			contextfiles.Inject(sess, ctxMsgs)
		}
		if err := sess.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving session '%s': %+v\n", sessionName, err)
			os.Exit(1)
		}
	}

	// Initialize LLM Client
	provider := cfg.LLMClient
	if provider == "" {
		provider = "mock"
	}
	client, err := llm.NewClient(context.Background(), provider, cfg.Model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing LLM client: %+v\n", err)
		os.Exit(1)
	}

	estimator, err := compact.NewEstimator(cfg.Compaction.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing token estimator: %+v\n", err)
		os.Exit(1)
	}

	// An omitted retain_tail_count keeps the default; zero in the engine
	// config means retain nothing, which must be asked for explicitly.
	engineCfg := compact.DefaultConfig()
	if cfg.Compaction.WindowBudget != 0 {
		engineCfg.WindowBudget = cfg.Compaction.WindowBudget
	}
	if cfg.Compaction.TriggerFraction != 0 {
		engineCfg.TriggerFraction = cfg.Compaction.TriggerFraction
	}
	if cfg.Compaction.RetainTailCount != 0 {
		engineCfg.RetainTailCount = cfg.Compaction.RetainTailCount
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	engine, err := compact.New(engineCfg, estimator, client, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing compaction engine: %+v\n", err)
		os.Exit(1)
	}

	commands := command.NewRegistry()
	mustRegister(commands, command.NewCompactCommand(engine, mgr))
	mustRegister(commands, command.NewStatusCommand(engine, mgr))
	mustRegister(commands, command.NewQuitCommand())
	mustRegister(commands, command.Template("explain", "Explain the following in simple terms: {input}"))

	a := agent.New(cfg, mgr, sess, client, engine, commands)

	initialPrompt := strings.Join(flag.Args(), " ")
	fmt.Println("Winnow is ready. Type your prompt.")
	if err := a.Run(context.Background(), initialPrompt); err != nil {
		fmt.Fprintf(os.Stderr, "Agent stopped with an error: %+v\n", err)
		os.Exit(1)
	}
}

func mustRegister(r *command.Registry, c command.Command) {
	if err := r.Register(c); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering command: %+v\n", err)
		os.Exit(1)
	}
}

func defaultSessionName() string {
	wd, err := os.Getwd()
	if err != nil {
		wd = "winnow"
	}
	dirName := filepath.Base(wd)
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return fmt.Sprintf("%s_%s", dirName, timestamp)
}
