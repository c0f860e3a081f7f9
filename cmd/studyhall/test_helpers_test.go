package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"studyhall/internal/config"
	"studyhall/internal/daemon"
	"studyhall/internal/flashcards"
	"studyhall/internal/generator"
	"studyhall/internal/logging"
	"studyhall/internal/server"
	"studyhall/internal/testsupport"
)

type fakeGenerator struct{}

func (fakeGenerator) Enabled() bool { return true }

func (fakeGenerator) Flashcards(_ context.Context, title, _ string, count int) ([]generator.Card, error) {
	cards := make([]generator.Card, count)
	for i := range cards {
		cards[i] = generator.Card{
			Question:   fmt.Sprintf("%s question %d?", title, i+1),
			Answer:     fmt.Sprintf("Answer %d", i+1),
			Difficulty: flashcards.DifficultyEasy,
		}
	}
	return cards, nil
}

func (fakeGenerator) Summarize(context.Context, string, string) (string, error) {
	return "Cells divide by mitosis.", nil
}

func (fakeGenerator) Answer(_ context.Context, _, _ string, _ []flashcards.ChatMessage, question string) (string, error) {
	return "answer to " + question, nil
}

// Quiz returns count two-option questions whose first option is correct.
func (fakeGenerator) Quiz(_ context.Context, title, _ string, count int, _ flashcards.Difficulty) ([]generator.Question, error) {
	questions := make([]generator.Question, count)
	for i := range questions {
		questions[i] = generator.Question{
			Question:      fmt.Sprintf("%s quiz %d?", title, i+1),
			Options:       []string{fmt.Sprintf("right %d", i+1), fmt.Sprintf("wrong %d", i+1)},
			CorrectAnswer: fmt.Sprintf("right %d", i+1),
			Explanation:   fmt.Sprintf("Because %d.", i+1),
		}
	}
	return questions, nil
}

func (fakeGenerator) Explain(_ context.Context, _, _, concept string) (string, error) {
	return "explanation of " + concept, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	configPath string
	baseDir    string
	token      string
}

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("STUDYHALL_API_URL", "")
	t.Setenv("STUDYHALL_API_TOKEN", "")
	t.Setenv("STUDYHALL_JWT_SECRET", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	return home
}

// setupCLITestEnv starts a development backend and writes a client config
// pointing at it with a token for "alice".
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	isolateEnv(t)

	cfg := testsupport.NewConfig(t)
	d, err := daemon.New(context.Background(), cfg, logging.NewNop(), daemon.WithGenerator(fakeGenerator{}))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	select {
	case <-d.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("daemon exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("daemon did not become ready")
	}
	t.Cleanup(func() {
		cancel()
		<-done
		d.Close()
	})

	auth, err := server.NewAuthenticator(cfg.Server.JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	token, err := auth.Mint("alice")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	base := t.TempDir()
	env := &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		configPath: filepath.Join(base, "config.toml"),
		baseDir:    base,
		token:      token,
	}
	writeTestConfig(t, env.configPath, cfg, "http://"+d.Addr(), token)
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config, baseURL, token string) {
	t.Helper()
	content := fmt.Sprintf(`[api]
base_url = %q
token = %q
timeout_seconds = 5

[cache]
path = %q

[documents]
poll_interval_seconds = 1
max_polls = 30

[server]
data_dir = %q
jwt_secret = %q

[logging]
dir = %q
`, baseURL, token, cfg.Cache.Path, cfg.Server.DataDir, cfg.Server.JWTSecret, cfg.Logging.Dir)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func mustRunCLI(t *testing.T, configPath string, args ...string) string {
	t.Helper()
	out, stderr, err := runCLI(t, configPath, "", args...)
	if err != nil {
		t.Fatalf("studyhall %s: %v (stderr: %s)", strings.Join(args, " "), err, stderr)
	}
	return out
}

func decodeJSON[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return v
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
