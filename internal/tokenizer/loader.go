package tokenizer

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// template is the split pattern and special tokens of a named encoding.
// The mergeable ranks always come from the model's own rank file.
type template struct {
	pattern string
	special map[string]int
}

const (
	gpt2Pattern   = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`
	cl100kPattern = `(?i:'s|'t|'re|'ve|'m|'ll|'d)|[^\r\n\p{L}\p{N}]?\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]+|\s+(?!\S)|\s+`
	o200kPattern  = `[^\r\n\p{L}\p{N}]?[\p{Lu}\p{Lt}\p{Lm}\p{Lo}\p{M}]*[\p{Ll}\p{Lm}\p{Lo}\p{M}]+(?i:'s|'t|'re|'ve|'m|'ll|'d)?` +
		`|[^\r\n\p{L}\p{N}]?[\p{Lu}\p{Lt}\p{Lm}\p{Lo}\p{M}]+[\p{Ll}\p{Lm}\p{Lo}\p{M}]*(?i:'s|'t|'re|'ve|'m|'ll|'d)?` +
		`|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n/]*|\s*[\r\n]+|\s+(?!\S)|\s+`
)

var templates = map[string]template{
	tiktoken.MODEL_CL100K_BASE: {cl100kPattern, map[string]int{
		tiktoken.ENDOFTEXT:   100257,
		tiktoken.FIM_PREFIX:  100258,
		tiktoken.FIM_MIDDLE:  100259,
		tiktoken.FIM_SUFFIX:  100260,
		tiktoken.ENDOFPROMPT: 100276,
	}},
	tiktoken.MODEL_O200K_BASE: {o200kPattern, map[string]int{
		tiktoken.ENDOFTEXT:   199999,
		tiktoken.ENDOFPROMPT: 200018,
	}},
	tiktoken.MODEL_P50K_BASE: {gpt2Pattern, map[string]int{tiktoken.ENDOFTEXT: 50256}},
	tiktoken.MODEL_R50K_BASE: {gpt2Pattern, map[string]int{tiktoken.ENDOFTEXT: 50256}},
}

// newEncoding builds a tiktoken encoder over ranksPath. Every model gets its
// own instance; tiktoken's process-wide encoding cache is never consulted.
func newEncoding(encoding, ranksPath string) (*tiktoken.Tiktoken, error) {
	tmpl, ok := templates[encoding]
	if !ok {
		return nil, fmt.Errorf("unknown encoding %q", encoding)
	}
	ranks, err := readRanks(ranksPath)
	if err != nil {
		return nil, err
	}
	bpe, err := tiktoken.NewCoreBPE(ranks, tmpl.special, tmpl.pattern)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", encoding, err)
	}
	specialSet := make(map[string]any, len(tmpl.special))
	for tok := range tmpl.special {
		specialSet[tok] = true
	}
	return tiktoken.NewTiktoken(bpe, &tiktoken.Encoding{
		Name:           encoding,
		PatStr:         tmpl.pattern,
		MergeableRanks: ranks,
		SpecialTokens:  tmpl.special,
	}, specialSet), nil
}

// readRanks parses "<base64 token> <rank>" lines.
func readRanks(file string) (map[string]int, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ranks := make(map[string]int)
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tok, rank, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%s:%d: malformed rank line", file, n)
		}
		b, err := base64.StdEncoding.DecodeString(tok)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", file, n, err)
		}
		r, err := strconv.Atoi(rank)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", file, n, err)
		}
		ranks[string(b)] = r
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ranks, nil
}
