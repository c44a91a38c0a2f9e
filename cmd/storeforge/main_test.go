package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangwenmai/storeforge/internal/config"
	"github.com/yangwenmai/storeforge/internal/engine"
	"github.com/yangwenmai/storeforge/internal/model"
)

// stubEnv points the CLI at a temp database with every external service stubbed.
func stubEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(dir, "cli.db"))
	t.Setenv("STORAGE_PATH", filepath.Join(dir, "media"))
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LEONARDO_API_KEY", "")
	t.Setenv("SHOPIFY_SHOP_DOMAIN", "")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("S3_BUCKET", "")
	t.Setenv("ENHANCE_QUALITY", "false")
	t.Setenv("ENHANCE_STYLE", "false")
	t.Setenv("WORKER_INTERVAL", "10ms")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	original := version
	version = "1.2.3"
	defer func() { version = original }()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "storeforge version 1.2.3")
}

func TestEnqueueRunAndStatus(t *testing.T) {
	stubEnv(t)
	defer func() { enqueueRun = false }()

	out, err := execute(t, "enqueue", "https://www.ebay.com/itm/123", "--name", "Bottle Co", "--run")
	require.NoError(t, err, out)
	assert.Contains(t, out, "(ebay)")

	id := regexp.MustCompile(`Queued store (\S+)`).FindStringSubmatch(out)
	require.Len(t, id, 2, out)

	jsonStart := strings.Index(out, "{")
	require.GreaterOrEqual(t, jsonStart, 0, out)
	var p model.Progress
	require.NoError(t, json.Unmarshal([]byte(out[jsonStart:]), &p))
	assert.Equal(t, model.StatusCompleted, p.Status)
	assert.Equal(t, 100, p.GenerationProgress)

	enqueueRun = false
	out, err = execute(t, "status", id[1])
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "completed"`)
}

func TestStatus_UnknownStore(t *testing.T) {
	stubEnv(t)
	_, err := execute(t, "status", "nope")
	assert.Error(t, err)
}

func TestPublish_NotConfigured(t *testing.T) {
	stubEnv(t)
	_, err := execute(t, "publish", "any")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHOPIFY_SHOP_DOMAIN")
}

func TestNewModelClient(t *testing.T) {
	hc := http.DefaultClient
	tests := []struct {
		provider string
		want     any
	}{
		{"claude", &engine.ClaudeClient{}},
		{"gemini", &engine.GeminiClient{}},
		{"ollama", &engine.OllamaClient{}},
		{"openai", &engine.OpenAIClient{}},
		{"", &engine.OpenAIClient{}},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			got := newModelClient(config.Config{LLMProvider: tt.provider}, hc)
			assert.IsType(t, tt.want, got)
		})
	}
}
