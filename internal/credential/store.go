package credential

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvKey is the key holding one candidate cookie per line in the credential file.
const EnvKey = "YUANBAO_COOKIE"

// ReadCandidates returns every YUANBAO_COOKIE value in path, in file order.
// A missing file yields no candidates and no error.
func ReadCandidates(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open credential file: %w", err)
	}
	defer f.Close()

	prefix := EnvKey + "="
	var out []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		val := strings.TrimSpace(line)[len(prefix):]
		out = append(out, strings.Trim(val, `"'`))
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("read credential file: %w", err)
	}
	return out, nil
}

// SaveAccountInfo writes the account JSON to path, indented with four spaces.
// Key order is kept as the server sent it; \uXXXX escapes in strings are
// written out as UTF-8 characters.
func SaveAccountInfo(path string, info AccountInfo) error {
	if len(info.Raw) == 0 {
		return fmt.Errorf("save account info: empty payload")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, info.Raw, "", "    "); err != nil {
		return fmt.Errorf("format account info: %w", err)
	}
	out, err := unescapeStrings(buf.Bytes())
	if err != nil {
		return fmt.Errorf("format account info: %w", err)
	}
	out = append(out, '\n')
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create account info dir: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("write account info: %w", err)
	}
	return nil
}

// unescapeStrings rewrites every JSON string literal in doc that contains a
// \u escape, leaving everything else byte for byte.
func unescapeStrings(doc []byte) ([]byte, error) {
	out := make([]byte, 0, len(doc))
	for i := 0; i < len(doc); i++ {
		if doc[i] != '"' {
			out = append(out, doc[i])
			continue
		}
		end := i + 1
		for end < len(doc) && doc[end] != '"' {
			if doc[end] == '\\' {
				end++
			}
			end++
		}
		if end >= len(doc) {
			return nil, fmt.Errorf("unterminated string at offset %d", i)
		}
		lit := doc[i : end+1]
		i = end
		if !bytes.Contains(lit, []byte(`\u`)) {
			out = append(out, lit...)
			continue
		}
		var s string
		if err := json.Unmarshal(lit, &s); err != nil {
			return nil, err
		}
		var enc bytes.Buffer
		e := json.NewEncoder(&enc)
		e.SetEscapeHTML(false)
		if err := e.Encode(s); err != nil {
			return nil, err
		}
		out = append(out, bytes.TrimSuffix(enc.Bytes(), []byte("\n"))...)
	}
	return out, nil
}
