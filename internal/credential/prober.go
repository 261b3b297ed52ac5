// Package credential finds a working Yuanbao session cookie.
package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/MingriLingran/yuanbao-chat/internal/metrics"
	"github.com/MingriLingran/yuanbao-chat/internal/useragent"
)

// ErrNoCredential means no candidate cookie validated (or none were found).
var ErrNoCredential = errors.New("no valid yuanbao cookie")

// DefaultUserInfoURL is the account-info endpoint used to validate cookies.
const DefaultUserInfoURL = "https://yuanbao.tencent.com/api/getuserinfo"

// statusActive is the account status of a live session.
const statusActive = 2

const maxProbeBody = 1 << 20

// AccountInfo is the account description returned by a successful probe.
// Raw keeps the body exactly as received.
type AccountInfo struct {
	UserID string
	Status int
	Raw    json.RawMessage
}

// ParseAccountInfo reports whether body describes an active session.
func ParseAccountInfo(body []byte) (AccountInfo, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return AccountInfo{}, false
	}
	rawID, ok := fields["userId"]
	if !ok {
		return AccountInfo{}, false
	}
	rawStatus, ok := fields["status"]
	if !ok {
		return AccountInfo{}, false
	}
	var status float64
	if err := json.Unmarshal(rawStatus, &status); err != nil || status != statusActive {
		return AccountInfo{}, false
	}

	info := AccountInfo{Status: statusActive, Raw: append(json.RawMessage(nil), body...)}
	var id string
	if err := json.Unmarshal(rawID, &id); err == nil {
		info.UserID = id
	} else {
		info.UserID = string(rawID)
	}
	return info, true
}

// Prober validates cookies against the account-info endpoint.
type Prober struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
	Agents     useragent.Picker
	Logger     *slog.Logger
}

// NewProber creates a prober with defaults filled in.
func NewProber(url string, timeout time.Duration, agents useragent.Picker, logger *slog.Logger) *Prober {
	if url == "" {
		url = DefaultUserInfoURL
	}
	if agents == nil {
		agents = useragent.New(nil, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		URL:        url,
		Timeout:    timeout,
		HTTPClient: &http.Client{},
		Agents:     agents,
		Logger:     logger,
	}
}

// Probe checks one cookie. Any failure along the way just makes it invalid.
func (p *Prober) Probe(ctx context.Context, cookie string) (AccountInfo, bool) {
	info, err := p.probe(ctx, cookie)
	switch {
	case err != nil:
		metrics.ProbeTotal.WithLabelValues("error").Inc()
		p.Logger.Warn("cookie probe failed", "cookie", Mask(cookie), "error", err)
		return AccountInfo{}, false
	case info == nil:
		metrics.ProbeTotal.WithLabelValues("invalid").Inc()
		p.Logger.Debug("cookie rejected", "cookie", Mask(cookie))
		return AccountInfo{}, false
	}
	metrics.ProbeTotal.WithLabelValues("valid").Inc()
	return *info, true
}

func (p *Prober) probe(ctx context.Context, cookie string) (*AccountInfo, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Cookie", cookie)
	req.Header.Set("User-Agent", p.Agents.Pick())

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return nil, fmt.Errorf("read userinfo: %w", err)
	}
	info, ok := ParseAccountInfo(body)
	if !ok {
		return nil, nil
	}
	return &info, nil
}

// FindValid probes candidates in order and returns the first live one.
func (p *Prober) FindValid(ctx context.Context, candidates []string) (string, AccountInfo, error) {
	for i, cookie := range candidates {
		if err := ctx.Err(); err != nil {
			return "", AccountInfo{}, err
		}
		if info, ok := p.Probe(ctx, cookie); ok {
			p.Logger.Info("found valid cookie", "index", i, "user_id", info.UserID)
			return cookie, info, nil
		}
	}
	return "", AccountInfo{}, ErrNoCredential
}

// Options controls Find.
type Options struct {
	// CookieFile is the key=value file holding YUANBAO_COOKIE lines.
	CookieFile string
	// Extra candidates are tried before the ones in CookieFile.
	Extra []string
	// UserInfoFile receives the account JSON when Save is set.
	UserInfoFile string
	Save         bool
}

// Find reads candidates, probes them and optionally persists the account info.
// An unreadable credential file degrades to "no candidates".
func (p *Prober) Find(ctx context.Context, opts Options) (string, AccountInfo, error) {
	candidates := append([]string(nil), opts.Extra...)
	fromFile, err := ReadCandidates(opts.CookieFile)
	if err != nil {
		p.Logger.Error("reading credential file", "path", opts.CookieFile, "error", err)
	}
	candidates = append(candidates, fromFile...)
	if len(candidates) == 0 {
		return "", AccountInfo{}, ErrNoCredential
	}

	cookie, info, err := p.FindValid(ctx, candidates)
	if err != nil {
		return "", AccountInfo{}, err
	}
	if opts.Save && opts.UserInfoFile != "" {
		if err := SaveAccountInfo(opts.UserInfoFile, info); err != nil {
			p.Logger.Warn("saving account info", "path", opts.UserInfoFile, "error", err)
		}
	}
	return cookie, info, nil
}

// Mask shortens a cookie for logs.
func Mask(cookie string) string {
	if len(cookie) <= 8 {
		return "***"
	}
	return cookie[:4] + "..." + cookie[len(cookie)-4:]
}
