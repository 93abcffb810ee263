// Package scrub removes credentials from generated summaries before they
// are committed to a repository. Detection uses the gitleaks default rule
// set.
package scrub

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/kbsync/internal/logging"
)

// Redaction replaces every detected secret.
const Redaction = "[REDACTED]"

// Config configures a Scrubber.
type Config struct {
	Enabled bool
	// Allow lists regexes whose matches are never treated as secrets.
	Allow []string
}

// Finding describes one detected secret. The secret itself is not kept.
type Finding struct {
	RuleID string
	Line   int
}

// Result is the outcome of scrubbing one text.
type Result struct {
	Text     string
	Findings []Finding
}

// Redacted reports whether anything was replaced.
func (r Result) Redacted() bool {
	return len(r.Findings) > 0
}

// RuleIDs returns the distinct rules that matched, sorted.
func (r Result) RuleIDs() []string {
	seen := make(map[string]struct{}, len(r.Findings))
	ids := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		if _, ok := seen[f.RuleID]; !ok {
			seen[f.RuleID] = struct{}{}
			ids = append(ids, f.RuleID)
		}
	}
	sort.Strings(ids)
	return ids
}

// Scrubber redacts secrets. It is safe for concurrent use: the parsed
// rule set is shared and each call gets its own detector.
type Scrubber struct {
	enabled bool
	rules   gitleaksConfig.Config
	log     *logging.Logger
}

// New loads the default gitleaks rules and applies cfg.Allow.
func New(cfg Config, log *logging.Logger) (*Scrubber, error) {
	if log == nil {
		log = logging.NewNop()
	}
	s := &Scrubber{enabled: cfg.Enabled, log: log.Named("scrub")}
	if !cfg.Enabled {
		return s, nil
	}

	base, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load gitleaks rules: %w", err)
	}
	s.rules = base.Config

	if len(cfg.Allow) > 0 {
		allow := &gitleaksConfig.Allowlist{Description: "kbsync allow list"}
		for _, pattern := range cfg.Allow {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid allow pattern %q: %w", pattern, err)
			}
			allow.Regexes = append(allow.Regexes, (*gitleaksRegexp.Regexp)(re))
		}
		s.rules.Allowlists = append(s.rules.Allowlists, allow)
	}
	return s, nil
}

// Enabled reports whether scrubbing is active.
func (s *Scrubber) Enabled() bool {
	return s.enabled
}

// Scrub returns text with every detected secret replaced by Redaction.
func (s *Scrubber) Scrub(ctx context.Context, text string) Result {
	if !s.enabled || text == "" {
		return Result{Text: text}
	}

	found := detect.NewDetector(s.rules).DetectString(text)
	if len(found) == 0 {
		return Result{Text: text}
	}

	findings := make([]Finding, 0, len(found))
	secrets := make([]string, 0, len(found))
	for _, f := range found {
		findings = append(findings, Finding{RuleID: f.RuleID, Line: f.StartLine})
		if f.Secret != "" {
			secrets = append(secrets, f.Secret)
		}
	}

	// Longest first so a secret containing another is replaced whole.
	sort.Slice(secrets, func(i, j int) bool { return len(secrets[i]) > len(secrets[j]) })
	for _, secret := range secrets {
		text = strings.ReplaceAll(text, secret, Redaction)
	}

	res := Result{Text: text, Findings: findings}
	s.log.Warn(ctx, "redacted secrets from summary",
		zap.Int("count", len(findings)),
		zap.Strings("rules", res.RuleIDs()),
	)
	return res
}
