// Command hrassist is an interactive HR assistant for managing time off.
// It drives a tool-calling LLM loop over an in-memory leave balance store:
// the model can check the balance, propose time off requests, and record
// them after the employee confirms.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"

	"hrassist/pkg/agent"
	agentmetrics "hrassist/pkg/agent/middleware/metrics"
	"hrassist/pkg/agent/toolloop"
	"hrassist/pkg/config"
	"hrassist/pkg/contextmgr"
	"hrassist/pkg/eventlog"
	"hrassist/pkg/logx"
	"hrassist/pkg/metrics"
	"hrassist/pkg/store"
	"hrassist/pkg/timeoff"
	"hrassist/pkg/tools"
	"hrassist/pkg/tracker"
	"hrassist/pkg/version"
)

const configDirName = ".hrassist"

// session labels all metrics and log events for one assistant run.
type session struct {
	id string
}

func (s *session) GetSessionID() string { return s.id }

func main() {
	configPath := flag.String("config", "hrassist.yaml", "path to the YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	saveSecrets := flag.Bool("save-secrets", false, "encrypt API keys from the environment into the secrets file and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("hrassist " + version.String())
		return
	}

	logx.SetDebug(*debug)
	logger := logx.NewLogger("hrassist")

	if *saveSecrets {
		if err := runSaveSecrets(); err != nil {
			logger.Error("Failed to save secrets: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := run(logger, *configPath, *debug); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(logger *logx.Logger, configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := loadSecrets(); err != nil {
		return err
	}

	st, err := store.OpenInMemory(cfg.Balance.TotalDays, cfg.Balance.UsedDays)
	if err != nil {
		return fmt.Errorf("failed to open balance store: %w", err)
	}
	defer st.Close()

	service := timeoff.NewService(st, timeoff.SystemClock())

	tools.Seal()
	provider := tools.NewProvider(tools.AssistantContext{Service: service}, tools.AssistantTools)

	sess := &session{id: uuid.New().String()}
	logger.Info("Starting session %s (model: %s)", sess.id, cfg.Model)

	promRecorder := agentmetrics.NewPrometheusRecorder()
	internal := agentmetrics.NewInternalRecorder()
	recorder := agentmetrics.MultiRecorder{promRecorder, internal}

	factory := agent.NewClientFactoryWithRecorder(cfg, recorder)
	client, err := factory.CreateClient(sess, logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	var logWriter *eventlog.Writer
	if cfg.EventLog.Enabled {
		logWriter, err = eventlog.NewWriter(cfg.EventLog.Dir)
		if err != nil {
			return fmt.Errorf("failed to open event log: %w", err)
		}
		defer logWriter.Close()
		writeSessionEvent(logWriter, sess.id, "start")
		defer writeSessionEvent(logWriter, sess.id, "stop")
	}

	observer := buildObserver(sess, promRecorder, internal, logWriter)

	if cfg.Metrics.ListenAddr != "" {
		go serveMetrics(logger, cfg.Metrics.ListenAddr)
	}

	cm := contextmgr.NewContextManager()
	cm.AddSystemMessage(cfg.SystemPrompt + "\n\n" + provider.GenerateToolDocumentation())

	loop := toolloop.NewWithObserver(client, logger, observer)
	observer.OnEvent(tracker.Event{Init: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repl(ctx, logger, cfg, cm, loop, provider, sess, logWriter, debug)

	printSessionSummary(ctx, logger, cfg, internal, sess.id)
	return nil
}

// repl reads employee input line by line and drives one tool loop per turn.
func repl(
	ctx context.Context,
	logger *logx.Logger,
	cfg config.Config,
	cm *contextmgr.ContextManager,
	loop *toolloop.ToolLoop,
	provider *tools.ToolProvider,
	sess *session,
	logWriter *eventlog.Writer,
	debug bool,
) {
	fmt.Println("HR assistant ready. Type your request, or /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		default:
		}

		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return
		case line == "/context":
			fmt.Println(cm.GetContextSummary())
			continue
		}

		writeMessageEvent(logWriter, sess.id, "user", line)

		reply, err := loop.Run(ctx, &toolloop.Config{
			ContextManager: cm,
			ToolProvider:   provider,
			MaxIterations:  cfg.MaxIterations,
			MaxTokens:      cfg.MaxTokens,
			Temperature:    cfg.Temperature,
			DebugLogging:   debug,
			InitialPrompt:  line,
		})
		if err != nil {
			logger.Error("Turn failed: %v", err)
			fmt.Println("assistant> Sorry, I ran into a problem. Please try again.")
			continue
		}

		writeMessageEvent(logWriter, sess.id, "assistant", reply)
		fmt.Printf("assistant> %s\n", reply)

		if err := cm.CompactIfNeeded(); err != nil {
			logger.Warn("Context compaction failed: %v", err)
		}
	}
}

// buildObserver assembles the tracker chain: console reporting, tool call
// metrics, and optional event log persistence.
func buildObserver(
	sess *session,
	promRecorder agentmetrics.Recorder,
	internal *agentmetrics.InternalRecorder,
	logWriter *eventlog.Writer,
) tracker.Observer {
	observers := tracker.Multi{
		tracker.NewConsole(),
		tracker.ObserverFunc(func(evt tracker.Event) {
			// Each invocation produces two events; count on the starting one.
			if evt.ToolName != "" && evt.ToolResult == "" {
				promRecorder.IncToolCall(evt.ToolName)
				internal.ObserveToolCall(sess.id)
			}
		}),
	}

	if logWriter != nil {
		observers = append(observers, tracker.ObserverFunc(func(evt tracker.Event) {
			if evt.ToolName == "" {
				return
			}
			kind := eventlog.KindToolCall
			if evt.ToolResult != "" {
				kind = eventlog.KindToolResult
			}
			e := eventlog.NewEvent(sess.id, kind)
			e.ToolName = evt.ToolName
			e.Content = evt.ToolResult
			e.IsError = evt.ToolError
			_ = logWriter.WriteEvent(e)
		}))
	}

	return observers
}

func serveMetrics(logger *logx.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("Serving Prometheus metrics on %s/metrics", addr)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Metrics server failed: %v", err)
	}
}

// printSessionSummary reports token usage and estimated cost for the session.
// The in-memory recorder is authoritative; an external Prometheus, when
// configured, is consulted for the cross-restart view.
func printSessionSummary(
	ctx context.Context,
	logger *logx.Logger,
	cfg config.Config,
	internal *agentmetrics.InternalRecorder,
	sessionID string,
) {
	sm := internal.GetSessionMetrics(sessionID)
	if sm == nil {
		return
	}

	fmt.Println()
	fmt.Println("Session summary")
	fmt.Printf("  requests:   %d\n", sm.RequestCount)
	fmt.Printf("  tool calls: %d\n", sm.ToolCallCount)
	fmt.Printf("  tokens:     %d prompt + %d completion = %d\n",
		sm.PromptTokens, sm.CompletionTokens, sm.TotalTokens)
	fmt.Printf("  est. cost:  $%.4f\n", sm.TotalCost)

	if cfg.Metrics.PrometheusURL == "" {
		return
	}

	svc, err := metrics.NewQueryService(cfg.Metrics.PrometheusURL)
	if err != nil {
		logger.Warn("Prometheus query unavailable: %v", err)
		return
	}
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	remote, err := svc.GetSessionMetrics(queryCtx, sessionID)
	if err != nil {
		logger.Warn("Prometheus session query failed: %v", err)
		return
	}
	fmt.Printf("  prometheus: %d tokens, $%.4f\n", remote.TotalTokens, remote.TotalCost)
}

func writeMessageEvent(logWriter *eventlog.Writer, sessionID, role, content string) {
	if logWriter == nil {
		return
	}
	evt := eventlog.NewEvent(sessionID, eventlog.KindMessage)
	evt.Role = role
	evt.Content = content
	_ = logWriter.WriteEvent(evt)
}

func writeSessionEvent(logWriter *eventlog.Writer, sessionID, phase string) {
	if logWriter == nil {
		return
	}
	evt := eventlog.NewEvent(sessionID, eventlog.KindSession)
	evt.Content = phase
	_ = logWriter.WriteEvent(evt)
}

// loadSecrets decrypts the secrets file when present, prompting for the
// password. Without a secrets file, API keys come from the environment.
func loadSecrets() error {
	if !config.SecretsFileExists(configDirName) {
		return nil
	}

	fmt.Print("Secrets file password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	secrets, err := config.DecryptSecretsFile(configDirName, string(password))
	for i := range password {
		password[i] = 0
	}
	if err != nil {
		return fmt.Errorf("failed to decrypt secrets: %w", err)
	}

	config.SetDecryptedSecrets(secrets)
	return nil
}

// runSaveSecrets encrypts the provider API keys currently in the environment
// into the secrets file.
func runSaveSecrets() error {
	secrets := make(map[string]string)
	for _, envVar := range []string{config.EnvAnthropicAPIKey, config.EnvOpenAIAPIKey, config.EnvGoogleAPIKey} {
		if value := os.Getenv(envVar); value != "" {
			secrets[envVar] = value
		}
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no API keys found in the environment")
	}

	password, err := promptNewPassword()
	if err != nil {
		return err
	}

	if err := config.EncryptSecretsFile(configDirName, password, secrets); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}

	fmt.Printf("Saved %d key(s) to %s/secrets.json.enc\n", len(secrets), configDirName)
	return nil
}

// promptNewPassword prompts for a password with confirmation.
func promptNewPassword() (string, error) {
	const maxAttempts = 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Print("Enter a password for the secrets file: ")
		first, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		fmt.Print("Confirm password: ")
		second, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		match := string(first) == string(second)
		password := string(first)
		for i := range first {
			first[i] = 0
		}
		for i := range second {
			second[i] = 0
		}

		if !match {
			if attempt < maxAttempts {
				fmt.Println("Passwords do not match. Please try again.")
				continue
			}
			return "", fmt.Errorf("passwords do not match after %d attempts", maxAttempts)
		}
		if password == "" {
			return "", fmt.Errorf("password must not be empty")
		}
		return password, nil
	}
	return "", fmt.Errorf("failed to obtain password")
}
