// Package strategy resolves the versioned planners the engine runs, by name.
package strategy

import (
	"fmt"
	"sort"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"ladderbot/src/ladder"
)

// Planner names.
const (
	BuyChannelV1          = "channel-v1"
	SellLadderV1          = "ladder-v1"
	SellAvgExitV1         = "avg-exit-v1"
	ConsolidatePairwiseV1 = "pairwise-v1"
)

type Config struct {
	Buy         string `envconfig:"STRATEGY_BUY" default:"channel-v1"`
	Sell        string `envconfig:"STRATEGY_SELL" default:"ladder-v1"`
	Consolidate string `envconfig:"STRATEGY_CONSOLIDATE" default:"pairwise-v1"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// BuyPlanner builds BUY ladders.
type BuyPlanner interface {
	Name() string
	PlanBuy(in ladder.BuyInput, p ladder.BuyParams, r ladder.Rand) ladder.BuyPlan
}

// SellPlanner builds SELL exits. ReplacesOpenSells reports whether the caller must cancel
// every open SELL first and hand their released quantity back through FreeBase.
type SellPlanner interface {
	Name() string
	ReplacesOpenSells() bool
	PlanSell(in ladder.SellInput, p ladder.SellParams) ladder.SellPlan
}

// Consolidator plans one side's consolidation.
type Consolidator interface {
	Name() string
	Plan(in ladder.ConsolidateInput, p ladder.ConsolidateParams) ladder.ConsolidationPlan
}

// Set is the trio of planners an engine runs.
type Set struct {
	Buy         BuyPlanner
	Sell        SellPlanner
	Consolidate Consolidator
}

// Registry maps planner names to implementations.
type Registry struct {
	logger        *logrus.Entry
	buys          map[string]BuyPlanner
	sells         map[string]SellPlanner
	consolidators map[string]Consolidator
}

// NewRegistry returns a registry holding every built-in planner.
func NewRegistry(logger *logrus.Entry) *Registry {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	r := &Registry{
		logger:        logger,
		buys:          map[string]BuyPlanner{},
		sells:         map[string]SellPlanner{},
		consolidators: map[string]Consolidator{},
	}
	r.buys[BuyChannelV1] = channelBuy{}
	r.sells[SellLadderV1] = ladderSell{}
	r.sells[SellAvgExitV1] = avgExitSell{}
	r.consolidators[ConsolidatePairwiseV1] = pairwise{}
	return r
}

func (r *Registry) Buy(name string) (BuyPlanner, error) {
	p, ok := r.buys[name]
	if !ok {
		return nil, fmt.Errorf("buy strategy %q not found (known: %v)", name, keys(r.buys))
	}
	return p, nil
}

func (r *Registry) Sell(name string) (SellPlanner, error) {
	p, ok := r.sells[name]
	if !ok {
		return nil, fmt.Errorf("sell strategy %q not found (known: %v)", name, keys(r.sells))
	}
	return p, nil
}

func (r *Registry) Consolidator(name string) (Consolidator, error) {
	p, ok := r.consolidators[name]
	if !ok {
		return nil, fmt.Errorf("consolidate strategy %q not found (known: %v)", name, keys(r.consolidators))
	}
	return p, nil
}

// Resolve looks up all three planners named in cfg.
func (r *Registry) Resolve(cfg Config) (Set, error) {
	var set Set
	var err error

	if set.Buy, err = r.Buy(cfg.Buy); err != nil {
		r.logger.WithError(err).Error("failed to resolve buy strategy")
		return Set{}, err
	}
	if set.Sell, err = r.Sell(cfg.Sell); err != nil {
		r.logger.WithError(err).Error("failed to resolve sell strategy")
		return Set{}, err
	}
	if set.Consolidate, err = r.Consolidator(cfg.Consolidate); err != nil {
		r.logger.WithError(err).Error("failed to resolve consolidate strategy")
		return Set{}, err
	}

	r.logger.WithFields(logrus.Fields{
		"buy":         set.Buy.Name(),
		"sell":        set.Sell.Name(),
		"consolidate": set.Consolidate.Name(),
	}).Info("strategies resolved")
	return set, nil
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type channelBuy struct{}

func (channelBuy) Name() string { return BuyChannelV1 }

func (channelBuy) PlanBuy(in ladder.BuyInput, p ladder.BuyParams, r ladder.Rand) ladder.BuyPlan {
	return ladder.PlanBuy(in, p, r)
}

type ladderSell struct{}

func (ladderSell) Name() string            { return SellLadderV1 }
func (ladderSell) ReplacesOpenSells() bool { return false }

func (ladderSell) PlanSell(in ladder.SellInput, p ladder.SellParams) ladder.SellPlan {
	return ladder.PlanSell(in, p)
}

type pairwise struct{}

func (pairwise) Name() string { return ConsolidatePairwiseV1 }

func (pairwise) Plan(in ladder.ConsolidateInput, p ladder.ConsolidateParams) ladder.ConsolidationPlan {
	return ladder.PlanConsolidation(in, p)
}
