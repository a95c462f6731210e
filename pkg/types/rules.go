package types

import "time"

// Rule is the subset of an alert rule needed to prove the API key works.
type Rule struct {
	ID    string `json:"id"`
	Alert string `json:"alert"`
	State string `json:"state"`
}

// RulesResponse is the envelope of GET /api/v1/rules.
type RulesResponse struct {
	Status string `json:"status"`
	Data   *struct {
		Rules []Rule `json:"rules"`
	} `json:"data"`
}

// RuleCount returns the number of rules, treating a missing payload as zero.
func (r *RulesResponse) RuleCount() int {
	if r == nil || r.Data == nil {
		return 0
	}
	return len(r.Data.Rules)
}

// ConnectionResult is the outcome of probing the rules endpoint.
type ConnectionResult struct {
	Success      bool
	ResponseTime time.Duration
	Status       string
	RuleCount    int
	BaseURL      string
	Error        string
}
