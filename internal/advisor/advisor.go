// Package advisor produces short research tips for the current growing
// conditions. Tips are derived from rules and may be rephrased by an LLM
// when one is configured; any LLM failure falls back to the rule text.
package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"greensim/internal/cerebras"
	"greensim/internal/photosynthesis"
	"greensim/internal/sim"
)

// Source values for Advice.Source.
const (
	SourceRules = "rules"
	SourceLLM   = "llm"
)

// Factor names reported in Advice.Limiting.
const (
	FactorLight       = "light"
	FactorCO2         = "co2"
	FactorTemperature = "temperature"
)

// Chatter is the subset of the cerebras client the advisor needs.
type Chatter interface {
	Chat(ctx context.Context, req cerebras.ChatRequest) (*cerebras.ChatResponse, error)
}

// Advice is one tip for the Scientist's Corner.
type Advice struct {
	Tip      string `json:"tip"`
	Limiting string `json:"limiting_factor"`
	Source   string `json:"source"`
	Fact     string `json:"fact"`
}

type Advisor struct {
	chat    Chatter
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New returns an advisor. A nil chat restricts it to rule-based tips.
func New(chat Chatter, model string, timeout time.Duration, logger *slog.Logger) *Advisor {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Advisor{chat: chat, model: model, timeout: timeout, logger: logger}
}

// Advise builds a tip for the given conditions and state.
func (a *Advisor) Advise(ctx context.Context, in photosynthesis.Inputs, out photosynthesis.Outputs, st sim.State) Advice {
	limiting := LimitingFactor(out.Factors)
	adv := Advice{
		Tip:      RuleTip(in.Clamped(), out, limiting),
		Limiting: limiting,
		Source:   SourceRules,
		Fact:     Fact(st.NextTick),
	}
	if a.chat == nil {
		return adv
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.chat.Chat(ctx, cerebras.ChatRequest{
		Model: a.model,
		Messages: []cerebras.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(in.Clamped(), out, st, adv.Tip)},
		},
		Temperature: 0.4,
		MaxTokens:   120,
	})
	if err != nil {
		a.logger.Warn("advisor llm unavailable, using rule tip", "error", err)
		return adv
	}
	text, err := resp.Content()
	if err != nil {
		a.logger.Warn("advisor llm returned no text, using rule tip", "error", err)
		return adv
	}

	a.logger.Debug("advisor llm tip", "elapsed_ms", time.Since(start).Milliseconds(), "tokens", resp.Usage.TotalTokens)
	adv.Tip = text
	adv.Source = SourceLLM
	return adv
}

const systemPrompt = `You are a friendly plant biology teacher. Rewrite the given research tip for a student in one or two short sentences. Keep the concrete numbers. Do not use markdown.`

func userPrompt(in photosynthesis.Inputs, out photosynthesis.Outputs, st sim.State, tip string) string {
	return fmt.Sprintf(
		"Conditions: CO2 %.0f ppm, temperature %.1f C, light %.0f%%. Status: %s. Efficiency %.0f%%. Health %.0f, growth %.1f (%s).\nTip: %s",
		in.CO2PPM, in.TemperatureC, in.LightPct, out.Status, out.Efficiency*100, st.Health, st.Growth, st.Stage(), tip,
	)
}

// LimitingFactor names the factor furthest below its own ceiling.
func LimitingFactor(f photosynthesis.Factors) string {
	limiting, worst := FactorLight, f.Light
	if r := f.CO2 / 1.5; r < worst {
		limiting, worst = FactorCO2, r
	}
	if f.Temperature < worst {
		limiting = FactorTemperature
	}
	return limiting
}

// RuleTip explains what would raise efficiency the most.
func RuleTip(in photosynthesis.Inputs, out photosynthesis.Outputs, limiting string) string {
	switch out.Status {
	case photosynthesis.StatusHeatStress:
		return fmt.Sprintf("At %.0f°C the stomata close to save water. Cool the air toward 25°C to reopen them.", in.TemperatureC)
	case photosynthesis.StatusColdStress:
		return fmt.Sprintf("At %.0f°C the enzymes barely move. Warm the air toward 25°C.", in.TemperatureC)
	}

	switch limiting {
	case FactorLight:
		return fmt.Sprintf("Light is the bottleneck at %.0f%%. More sunlight gives the biggest boost, with diminishing returns near 100%%.", in.LightPct)
	case FactorCO2:
		return fmt.Sprintf("CO₂ is the bottleneck at %.0f ppm. Uptake keeps rising until about 1350 ppm.", in.CO2PPM)
	default:
		return fmt.Sprintf("Temperature is the bottleneck at %.0f°C. Plants absorb the most carbon around 25°C.", in.TemperatureC)
	}
}

var facts = []string{
	"A single tree can absorb 48 lbs of CO2 per year.",
	"Phytoplankton in the ocean produce 50% of Earth's oxygen!",
	"Plants use green light the least, reflecting it back to our eyes.",
	"The Amazon Rainforest is often called the 'Lungs of the Planet'.",
}

// Fact rotates through the trivia list.
func Fact(n int) string {
	if n < 0 {
		n = -n
	}
	return facts[n%len(facts)]
}
