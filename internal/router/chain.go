package router

import (
	"encoding/json"
	"fmt"
	"sort"

	"radsim/internal/config"
	"radsim/internal/logging"
	"radsim/internal/provider"
)

// Candidate is one (provider, model) pair the router may try.
type Candidate struct {
	Provider string
	Model    string

	// EstimatedCost is in USD for the current request. Meaningful only when
	// PriceKnown is set.
	EstimatedCost float64
	PriceKnown    bool
}

func (c Candidate) String() string {
	return c.Provider + "/" + c.Model
}

func (c Candidate) key() string {
	return c.Provider + "\x00" + c.Model
}

// Pricing maps model names to USD per 1M tokens.
type Pricing map[string]config.Price

// Cost returns the USD cost of in input and out output tokens on model.
// ok is false when the model has no price.
func (p Pricing) Cost(model string, in, out int) (cost float64, ok bool) {
	price, ok := p[model]
	if !ok {
		return 0, false
	}
	return float64(in)*price.Input/1e6 + float64(out)*price.Output/1e6, true
}

// EstimateTokens approximates the input size of req at four characters per
// token, counting the system prompt, every turn and the tool schemas.
func EstimateTokens(req *provider.Request) int {
	chars := len(req.System)
	for _, turn := range req.Turns {
		chars += len(turn.Text)
		for _, call := range turn.ToolCalls {
			chars += len(call.Name) + jsonLen(call.Args)
		}
		for _, r := range turn.Results {
			chars += len(r.Text())
		}
	}
	for _, tool := range req.Tools {
		chars += len(tool.Name) + len(tool.Description) + jsonLen(tool.Schema)
	}
	return chars / 4
}

func jsonLen(v map[string]any) int {
	if len(v) == 0 {
		return 0
	}
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(data)
}

// BuildChain returns the candidates for req in the order they will be tried:
// the primary, then the fallbacks ordered by the configured strategy. Pairs
// are never repeated, pairs whose provider has no adapter are skipped, and
// pairs with an open health breaker are skipped unless every pair is open.
func (r *Router) BuildChain(req *provider.Request) []Candidate {
	chain, _ := r.buildChain(req)
	return chain
}

// buildChain is BuildChain that also reports whether the chain was filtered
// by health. When every pair is open the full chain comes back ungated.
func (r *Router) buildChain(req *provider.Request) ([]Candidate, bool) {
	in := EstimateTokens(req)
	out := r.cfg.ExpectedOutputTokens
	if out <= 0 {
		out = config.DefaultExpectedOutputTokens
	}

	seen := make(map[string]bool)
	var all []Candidate
	for _, ref := range r.cfg.Chain() {
		c := Candidate{Provider: ref.Provider, Model: ref.Model}
		if seen[c.key()] {
			continue
		}
		seen[c.key()] = true

		if _, ok := r.registry.Get(c.Provider); !ok {
			logging.Warn("skipping route candidate without adapter", "candidate", c.String())
			continue
		}
		c.EstimatedCost, c.PriceKnown = r.pricing.Cost(c.Model, in, out)
		all = append(all, c)
	}

	if len(all) > 1 && r.cfg.Strategy != config.StrategyOrdered {
		fallbacks := all[1:]
		// unknown prices sort last; ties keep configured order
		sort.SliceStable(fallbacks, func(i, j int) bool {
			a, b := fallbacks[i], fallbacks[j]
			if a.PriceKnown != b.PriceKnown {
				return a.PriceKnown
			}
			return a.EstimatedCost < b.EstimatedCost
		})
	}

	healthy := make([]Candidate, 0, len(all))
	for _, c := range all {
		if r.health.Available(c) {
			healthy = append(healthy, c)
		}
	}
	if len(healthy) == 0 {
		return all, false
	}
	return healthy, true
}

// Describe formats a chain for display.
func Describe(chain []Candidate) []string {
	lines := make([]string, 0, len(chain))
	for i, c := range chain {
		cost := "unknown"
		if c.PriceKnown {
			cost = fmt.Sprintf("$%.6f", c.EstimatedCost)
		}
		lines = append(lines, fmt.Sprintf("%d. %s (est. %s)", i+1, c, cost))
	}
	return lines
}
