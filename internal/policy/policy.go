package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/apivet/apivet/internal/models"
)

// Policy defines enforcement rules for triage results, typically
// committed to a repo as .apivet-policy.yaml and evaluated in CI.
type Policy struct {
	Version string `yaml:"version"`
	Rules   Rules  `yaml:"rules"`
}

// Rules contains all configurable policy rules.
type Rules struct {
	MaxFindings *int     `yaml:"max_findings,omitempty"`
	MaxHigh     *int     `yaml:"max_high,omitempty"`
	MaxMedium   *int     `yaml:"max_medium,omitempty"`
	ForbidRules []string `yaml:"forbid_rules,omitempty"`
	IgnorePaths []string `yaml:"ignore_paths,omitempty"`
}

// Violation is a single policy failure.
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result holds the outcome of a policy check.
type Result struct {
	Pass       bool        `json:"pass"`
	Violations []Violation `json:"violations"`
}

// LoadFromFile reads a policy file. A missing file means no policy.
func LoadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read policy: %w", err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}

	return &p, nil
}

// FindPolicyFile searches for a policy file in the current directory
// and parent directories up to the filesystem root.
func FindPolicyFile() string {
	names := []string{".apivet-policy.yaml", ".apivet-policy.yml"}

	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Evaluate checks a report against the policy rules. Findings on
// ignored path prefixes never count toward limits.
func (p *Policy) Evaluate(report *models.Report) *Result {
	if p == nil {
		return &Result{Pass: true}
	}

	findings := p.filterIgnored(report.Findings)

	var violations []Violation

	if p.Rules.MaxFindings != nil && len(findings) > *p.Rules.MaxFindings {
		violations = append(violations, Violation{
			Rule:    "max_findings",
			Message: fmt.Sprintf("total findings %d exceeds limit %d", len(findings), *p.Rules.MaxFindings),
		})
	}

	if p.Rules.MaxHigh != nil {
		count := countBySeverity(findings, models.SeverityHigh)
		if count > *p.Rules.MaxHigh {
			violations = append(violations, Violation{
				Rule:    "max_high",
				Message: fmt.Sprintf("high findings %d exceeds limit %d", count, *p.Rules.MaxHigh),
			})
		}
	}

	if p.Rules.MaxMedium != nil {
		count := countBySeverity(findings, models.SeverityMedium)
		if count > *p.Rules.MaxMedium {
			violations = append(violations, Violation{
				Rule:    "max_medium",
				Message: fmt.Sprintf("medium findings %d exceeds limit %d", count, *p.Rules.MaxMedium),
			})
		}
	}

	// Iterating the declared list keeps violation order stable.
	for _, forbidden := range p.Rules.ForbidRules {
		count := 0
		for _, f := range findings {
			if string(f.Rule) == forbidden {
				count++
			}
		}
		if count > 0 {
			violations = append(violations, Violation{
				Rule:    "forbid_rules",
				Message: fmt.Sprintf("forbidden rule %q produced %d findings", forbidden, count),
			})
		}
	}

	return &Result{
		Pass:       len(violations) == 0,
		Violations: violations,
	}
}

func (p *Policy) filterIgnored(findings []models.Finding) []models.Finding {
	if len(p.Rules.IgnorePaths) == 0 {
		return findings
	}

	kept := make([]models.Finding, 0, len(findings))
	for _, f := range findings {
		if !p.ignored(f.Path) {
			kept = append(kept, f)
		}
	}
	return kept
}

func (p *Policy) ignored(path string) bool {
	for _, prefix := range p.Rules.IgnorePaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func countBySeverity(findings []models.Finding, severity models.Severity) int {
	count := 0
	for _, f := range findings {
		if f.Severity == severity {
			count++
		}
	}
	return count
}
