package terminal

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPolicy controls which environment variables a spawned process inherits.
// Deny entries are exact variable names; DenyPrefixes match any variable
// starting with the prefix. Set entries are forced into every environment
// after filtering.
type EnvPolicy struct {
	Deny         []string          `yaml:"deny"`
	DenyPrefixes []string          `yaml:"deny_prefixes"`
	Set          map[string]string `yaml:"set"`
}

// DefaultEnvPolicy returns the built-in policy. It strips variables the
// hosting application leaks into its own environment so spawned shells do
// not inherit them.
func DefaultEnvPolicy() EnvPolicy {
	return EnvPolicy{
		Deny: []string{
			"NODE_OPTIONS",
			"ELECTRON_RUN_AS_NODE",
			"ELECTRON_NO_ATTACH_CONSOLE",
		},
		DenyPrefixes: []string{
			"npm_",
			"ELECTRON_",
		},
	}
}

// LoadEnvPolicy reads a YAML policy file and merges it over the defaults.
// A missing file is not an error; the defaults are returned unchanged.
func LoadEnvPolicy(path string) (EnvPolicy, error) {
	policy := DefaultEnvPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return policy, nil
		}
		return policy, fmt.Errorf("read env policy %s: %w", path, err)
	}

	var extra EnvPolicy
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return policy, fmt.Errorf("parse env policy %s: %w", path, err)
	}

	policy.Deny = append(policy.Deny, extra.Deny...)
	policy.DenyPrefixes = append(policy.DenyPrefixes, extra.DenyPrefixes...)
	if len(extra.Set) > 0 {
		if policy.Set == nil {
			policy.Set = make(map[string]string, len(extra.Set))
		}
		for k, v := range extra.Set {
			policy.Set[k] = v
		}
	}
	return policy, nil
}

// Sanitize builds a process environment from base, dropping denied
// variables, then overlays extra and the policy's forced values. The
// result is sorted KEY=VALUE form suitable for exec. It is a pure
// function of its inputs.
func (p EnvPolicy) Sanitize(base, extra map[string]string) []string {
	merged := make(map[string]string, len(base)+len(extra)+len(p.Set))
	for k, v := range base {
		if p.denied(k) {
			continue
		}
		merged[k] = v
	}
	// Caller-supplied variables win over the inherited environment and
	// are not subject to the deny rules.
	for k, v := range extra {
		merged[k] = v
	}
	for k, v := range p.Set {
		merged[k] = v
	}

	result := make([]string, 0, len(merged))
	for k, v := range merged {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

func (p EnvPolicy) denied(key string) bool {
	for _, d := range p.Deny {
		if key == d {
			return true
		}
	}
	for _, prefix := range p.DenyPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// environMap converts os.Environ-style KEY=VALUE pairs into a map.
// Malformed entries without '=' are skipped.
func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		m[kv[:i]] = kv[i+1:]
	}
	return m
}
