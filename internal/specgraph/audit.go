package specgraph

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DriftStatus names the four outcomes the drift auditor can report for a
// spec/impl pair.
type DriftStatus string

const (
	Aligned  DriftStatus = "ALIGNED"
	SpecOnly DriftStatus = "SPEC_ONLY"
	ImplOnly DriftStatus = "IMPL_ONLY"
	Mismatch DriftStatus = "MISMATCH"
)

// DiscoveryReport lists every spec and impl file found under the two roots,
// keyed by the node path they declare.
type DiscoveryReport struct {
	SpecPaths map[string]string // node path -> spec file path
	ImplPaths map[string]string // node path -> impl file path
}

// AuditEntry reports one node path's drift status and, for MISMATCH, which
// sections disagreed.
type AuditEntry struct {
	Path       string
	Status     DriftStatus
	Mismatches []string
}

// AuditReport is the full, deterministically ordered set of audit entries.
type AuditReport struct {
	Entries []AuditEntry
}

// FullAudit walks specRoot for `*.md` files and implRoot for `*.go` files,
// reflects each, and reports alignment per node path. Deterministic: two
// calls against the same trees produce the same AuditReport.
func FullAudit(specRoot, implRoot string) (*DiscoveryReport, *AuditReport, error) {
	discovery := &DiscoveryReport{SpecPaths: map[string]string{}, ImplPaths: map[string]string{}}

	err := filepath.WalkDir(specRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		parsed, parseErr := ParseSpec(string(data))
		if parseErr != nil || parsed.Path == "" {
			return nil
		}
		discovery.SpecPaths[parsed.Path] = path
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, nil, err
	}

	err = filepath.WalkDir(implRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		reflected := Reflect(string(data))
		if reflected.Path == "" {
			return nil
		}
		discovery.ImplPaths[reflected.Path] = path
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, nil, err
	}

	allPaths := map[string]struct{}{}
	for p := range discovery.SpecPaths {
		allPaths[p] = struct{}{}
	}
	for p := range discovery.ImplPaths {
		allPaths[p] = struct{}{}
	}

	sorted := make([]string, 0, len(allPaths))
	for p := range allPaths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	report := &AuditReport{}
	for _, path := range sorted {
		specFile, hasSpec := discovery.SpecPaths[path]
		implFile, hasImpl := discovery.ImplPaths[path]

		switch {
		case hasSpec && !hasImpl:
			report.Entries = append(report.Entries, AuditEntry{Path: path, Status: SpecOnly})
		case !hasSpec && hasImpl:
			report.Entries = append(report.Entries, AuditEntry{Path: path, Status: ImplOnly})
		default:
			specData, _ := os.ReadFile(specFile)
			implData, _ := os.ReadFile(implFile)
			specParsed, _ := ParseSpec(string(specData))
			implParsed := Reflect(string(implData))

			mismatches := diffSections(specParsed, implParsed)
			if len(mismatches) == 0 {
				report.Entries = append(report.Entries, AuditEntry{Path: path, Status: Aligned})
			} else {
				report.Entries = append(report.Entries, AuditEntry{Path: path, Status: Mismatch, Mismatches: mismatches})
			}
		}
	}
	return discovery, report, nil
}

func diffSections(spec, impl *ParsedSpec) []string {
	var mismatches []string

	specAspects := aspectNameSet(spec.Aspects)
	implAspects := aspectNameSet(impl.Aspects)
	if !setsEqual(specAspects, implAspects) {
		mismatches = append(mismatches, "aspects")
	}
	return mismatches
}

func aspectNameSet(aspects []AspectSpec) map[string]struct{} {
	s := make(map[string]struct{}, len(aspects))
	for _, a := range aspects {
		s[a.Name] = struct{}{}
	}
	return s
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
