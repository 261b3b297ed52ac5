// Package tokenizer counts tokens with locally cached tokenizer files.
//
// Each supported model has a directory under the tokenizer root holding a
// tiktoken rank file and a small JSON config:
//
//	<root>/deepseek-r1-tokenizer/tokenizer.tiktoken
//	<root>/deepseek-r1-tokenizer/tokenizer_config.json   {"encoding":"cl100k_base","add_bos_token":true}
//
// The encoding name only selects the split pattern and special tokens; the
// ranks always come from the model's own file. Nothing is ever downloaded.
package tokenizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	ranksFile  = "tokenizer.tiktoken"
	configFile = "tokenizer_config.json"
)

type modelSpec struct {
	dir string
	// specialTokens mirrors add_special_tokens at encode time.
	specialTokens bool
}

// supported maps normalized model names to their tokenizer directory.
var supported = map[string]modelSpec{
	"deepseekr1": {dir: "deepseek-r1-tokenizer", specialTokens: true},
	"deepseekv3": {dir: "deepseek-v3-tokenizer", specialTokens: false},
}

var requiredFiles = []string{ranksFile, configFile}

type fileConfig struct {
	Encoding    string `json:"encoding"`
	AddBOSToken bool   `json:"add_bos_token"`
}

type encoder struct {
	enc *tiktoken.Tiktoken
	bos int
}

// Counter counts tokens for the supported models.
type Counter struct {
	dir      string
	logger   *slog.Logger
	encoders map[string]*encoder
}

// New validates dir and loads every supported tokenizer. Missing directories
// or files are fatal; a tokenizer that fails to load only disables its model.
func New(dir string, logger *slog.Logger) (*Counter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := validateDir(dir); err != nil {
		return nil, err
	}
	c := &Counter{dir: dir, logger: logger, encoders: make(map[string]*encoder, len(supported))}
	for name, spec := range supported {
		enc, err := load(filepath.Join(dir, spec.dir), spec)
		if err != nil {
			logger.Warn("loading tokenizer failed", "model", name, "dir", spec.dir, "error", err)
			continue
		}
		c.encoders[name] = enc
	}
	return c, nil
}

func validateDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("tokenizer directory %s: %w", dir, err)
	}
	for _, spec := range supported {
		modelDir := filepath.Join(dir, spec.dir)
		if st, err := os.Stat(modelDir); err != nil || !st.IsDir() {
			return fmt.Errorf("tokenizer directory %s: not a directory", modelDir)
		}
		var missing []string
		for _, f := range requiredFiles {
			if st, err := os.Stat(filepath.Join(modelDir, f)); err != nil || st.IsDir() {
				missing = append(missing, f)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%s is missing %s; download the tokenizer files into %s",
				spec.dir, strings.Join(missing, ", "), modelDir)
		}
	}
	return nil
}

func load(modelDir string, spec modelSpec) (*encoder, error) {
	raw, err := os.ReadFile(filepath.Join(modelDir, configFile))
	if err != nil {
		return nil, err
	}
	var cfg fileConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configFile, err)
	}
	if cfg.Encoding == "" {
		return nil, errors.New("tokenizer config has no encoding")
	}

	enc, err := newEncoding(cfg.Encoding, filepath.Join(modelDir, ranksFile))
	if err != nil {
		return nil, err
	}
	e := &encoder{enc: enc}
	if spec.specialTokens && cfg.AddBOSToken {
		e.bos = 1
	}
	return e, nil
}

// Normalize folds a model name to the lookup key: lower case, no '-' or '_'.
func Normalize(model string) string {
	return strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(model)))
}

// Count returns the token count of text for model, or 0 when the model is
// unsupported or its tokenizer did not load.
func (c *Counter) Count(model, text string) int {
	if c == nil {
		return 0
	}
	name := Normalize(model)
	if _, ok := supported[name]; !ok {
		c.logger.Debug("unsupported tokenizer model", "model", model)
		return 0
	}
	e := c.encoders[name]
	if e == nil {
		c.logger.Debug("tokenizer not loaded", "model", model)
		return 0
	}
	return len(e.enc.Encode(text, nil, nil)) + e.bos
}

// Available lists the models whose tokenizer loaded.
func (c *Counter) Available() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.encoders))
	for name := range c.encoders {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
