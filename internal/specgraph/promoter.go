package specgraph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UsageStats tracks a JIT node's invocation history toward promotion.
type UsageStats struct {
	Usage       int
	Successes   int
}

// SuccessRate returns Successes/Usage, or 0 if never invoked.
func (u UsageStats) SuccessRate() float64 {
	if u.Usage == 0 {
		return 0
	}
	return float64(u.Successes) / float64(u.Usage)
}

// RollbackToken captures a hashed pre-promotion file snapshot so a
// promotion can be undone bit-for-bit.
type RollbackToken struct {
	ID        string
	Hash      string
	Files     map[string][]byte // path -> prior contents; absent key means the file did not previously exist
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token's default 7-day TTL has lapsed as of now.
func (t RollbackToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

const defaultRollbackTTL = 7 * 24 * time.Hour

// Promoter tracks per-node usage/success and performs promotion: writing a
// spec under specRoot and a compiled implementation under implRoot.
type Promoter struct {
	mu            sync.Mutex
	specRoot      string
	implRoot      string
	usageN        int
	successSigma  float64
	stats         map[string]*UsageStats
}

// NewPromoter constructs a Promoter requiring at least usageThreshold
// invocations at or above successThreshold success rate before promotion
// is allowed.
func NewPromoter(specRoot, implRoot string, usageThreshold int, successThreshold float64) *Promoter {
	return &Promoter{
		specRoot:     specRoot,
		implRoot:     implRoot,
		usageN:       usageThreshold,
		successSigma: successThreshold,
		stats:        make(map[string]*UsageStats),
	}
}

// RecordInvocation tallies usage and success for a node path.
func (p *Promoter) RecordInvocation(path string, succeeded bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stats[path]
	if !ok {
		s = &UsageStats{}
		p.stats[path] = s
	}
	s.Usage++
	if succeeded {
		s.Successes++
	}
}

// Eligible reports whether path has crossed the usage/success threshold.
func (p *Promoter) Eligible(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stats[path]
	if !ok {
		return false
	}
	return s.Usage >= p.usageN && s.SuccessRate() >= p.successSigma
}

// contextSegment splits "world.orchard" into ("world", "orchard") for
// spec-root layout purposes.
func contextSegment(path string) (context, entity string) {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[:i], path[i+1:]
		}
	}
	return path, ""
}

// Promote writes specText under spec_root/<context>/<entity>.md and
// implText under impl_root/<path with dots as slashes>.go, returning a
// RollbackToken capturing whatever was there before (nil contents if the
// files are new). Refuses if the node is not yet Eligible.
func (p *Promoter) Promote(path, specText, implText string) (*RollbackToken, error) {
	if !p.Eligible(path) {
		return nil, fmt.Errorf("specgraph: %s has not crossed the promotion threshold", path)
	}

	ctx, entity := contextSegment(path)
	specPath := filepath.Join(p.specRoot, ctx, entity+".md")
	implPath := filepath.Join(p.implRoot, filepath.FromSlash(pathToImplRelative(path))+".go")

	prior := map[string][]byte{}
	for _, fp := range []string{specPath, implPath} {
		data, err := os.ReadFile(fp)
		if err != nil {
			prior[fp] = nil // did not exist before promotion
			continue
		}
		prior[fp] = data
	}

	if err := atomicWrite(specPath, []byte(specText)); err != nil {
		return nil, fmt.Errorf("write spec: %w", err)
	}
	if err := atomicWrite(implPath, []byte(implText)); err != nil {
		return nil, fmt.Errorf("write impl: %w", err)
	}

	now := time.Now()
	token := &RollbackToken{
		ID:        uuid.NewString(),
		Hash:      hashFiles(prior),
		Files:     prior,
		IssuedAt:  now,
		ExpiresAt: now.Add(defaultRollbackTTL),
	}
	return token, nil
}

// Rollback restores every file captured in token to its prior state,
// deleting files that did not exist before promotion, and verifies the
// restored set hashes back to token.Hash.
func Rollback(token *RollbackToken) error {
	for path, contents := range token.Files {
		if contents == nil {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("rollback remove %s: %w", path, err)
			}
			continue
		}
		if err := atomicWrite(path, contents); err != nil {
			return fmt.Errorf("rollback restore %s: %w", path, err)
		}
	}

	restored := map[string][]byte{}
	for path := range token.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			restored[path] = nil
			continue
		}
		restored[path] = data
	}
	if hashFiles(restored) != token.Hash {
		return fmt.Errorf("rollback: restored file set does not match the recorded hash")
	}
	return nil
}

func pathToImplRelative(path string) string {
	out := make([]byte, 0, len(path))
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			out = append(out, '/')
		} else {
			out = append(out, path[i])
		}
	}
	return string(out)
}

// atomicWrite writes data to a temp file in the same directory, then
// renames over the destination, matching the write-swap-rename pattern
// used for content-addressed blob writes elsewhere in the ecosystem.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// hashFiles produces a stable digest of a path->contents snapshot.
func hashFiles(files map[string][]byte) string {
	h := sha256.New()
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		h.Write([]byte(p))
		h.Write(files[p])
	}
	return hex.EncodeToString(h.Sum(nil))
}
