// Package linguistic turns a cognitive state into spoken NPC dialogue. The
// retention band gates the linguistic register (Kornell et al., 2011; Parks &
// Yonelinas, 2009), a ranked list of Gemini models supplies the wording, and
// band-keyed templates answer when no model can.
package linguistic

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"made/internal/memory"
)

// Register is the linguistic style an utterance must carry.
type Register int

const (
	// RegisterDirect is clear, precise recall. Retention above the
	// transition threshold while still in the fast phase.
	RegisterDirect Register = iota
	// RegisterReconstructive is hedged, speculative recall. Slow phase, or
	// retention below the transition threshold.
	RegisterReconstructive
	// RegisterGist is vague, detail-free recall. Retention below the
	// reconstruction floor.
	RegisterGist
)

func (r Register) String() string {
	switch r {
	case RegisterDirect:
		return "Direct Recall"
	case RegisterReconstructive:
		return "Reconstructive"
	default:
		return "Gist"
	}
}

// RegisterFor selects the register for a retention value and decay phase.
// The gist check runs first so deep decay always reads as gist, whatever
// the phase.
func RegisterFor(retention float64, phase memory.Phase) Register {
	if retention < memory.ReconstructionFloor {
		return RegisterGist
	}
	if phase == memory.PhaseSlow || retention < memory.TransitionThreshold {
		return RegisterReconstructive
	}
	return RegisterDirect
}

func styleGuide(r Register) string {
	switch r {
	case RegisterGist:
		return "Use Gist-only language. Do not provide specific details. Sound vague and focus only on the general idea. Example: 'I don't have the details, but the general idea was...'"
	case RegisterReconstructive:
		return "Use Reconstructive language. Sound uncertain and speculative. Use fillers like 'I think', 'maybe', 'if I recall correctly'. Example: 'If I recall correctly, I think it was...'"
	default:
		return "Use Direct Recall language. Sound clear, precise, and certain about the facts. Example: 'I clearly remember it happened at...'"
	}
}

// Request carries the cognitive state an utterance must reflect.
type Request struct {
	Memory          string
	Retention       float64
	Phase           memory.Phase
	ConfidenceLabel string
}

// Response is the generated utterance plus how it was produced.
type Response struct {
	Text     string
	Register Register
	Model    string
	Fallback bool
}

// Generator is the single-attempt text generation client.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
	Configured() bool
}

// Dispatcher walks a ranked model list per utterance. A quota rejection
// aborts the walk immediately; any other model error moves to the next
// entry; an exhausted list lands on the band-keyed fallback templates.
type Dispatcher struct {
	client    Generator
	models    []string
	templates *TemplateSet
	logger    *zap.Logger
	pick      func(n int) int
}

// NewDispatcher creates a dispatcher. A nil client or a client without an
// API key disables the model walk and every request lands on the templates.
func NewDispatcher(client Generator, models []string, templates *TemplateSet, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if templates == nil {
		templates = NewTemplateSet(logger)
	}
	return &Dispatcher{
		client:    client,
		models:    models,
		templates: templates,
		logger:    logger,
		pick:      rand.IntN,
	}
}

// Generate produces an utterance for the request. It never fails: the
// fallback tables answer whenever the model walk cannot.
func (d *Dispatcher) Generate(ctx context.Context, req Request) Response {
	register := RegisterFor(req.Retention, req.Phase)

	if d.client == nil || !d.client.Configured() {
		return d.fallback(req, register)
	}

	prompt := buildPrompt(req, register)

	for _, model := range d.models {
		text, err := d.client.Generate(ctx, model, prompt)
		if err == nil {
			d.logger.Debug("utterance generated",
				zap.String("model", model),
				zap.String("register", register.String()))
			return Response{Text: text, Register: register, Model: model}
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Quota() {
			d.logger.Warn("quota exceeded, aborting model walk",
				zap.String("model", model), zap.Error(err))
			break
		}

		d.logger.Debug("model failed, trying next",
			zap.String("model", model), zap.Error(err))
	}

	return d.fallback(req, register)
}

func (d *Dispatcher) fallback(req Request, register Register) Response {
	d.logger.Info("api bypass active, simulating neural output",
		zap.String("band", req.ConfidenceLabel))

	lines := d.templates.Lines(req.ConfidenceLabel)
	text := Fill(lines[d.pick(len(lines))], req.Memory)
	return Response{Text: text, Register: register, Fallback: true}
}

// buildPrompt renders the NPC prompt. The displayed retention is capped at
// 100% so priority-modulated values above 1.0 do not leak into dialogue.
func buildPrompt(req Request, register Register) string {
	retValue := req.Retention
	if retValue > 1.0 {
		retValue = 1.0
	}

	var b strings.Builder
	b.WriteString("You are an AI NPC in a high-fidelity simulation.\n")
	b.WriteString("Your current cognitive state is:\n")
	fmt.Fprintf(&b, "- Memory Retention: %.1f%%\n", retValue*100)
	fmt.Fprintf(&b, "- Confidence Level: %s\n", req.ConfidenceLabel)
	fmt.Fprintf(&b, "- Decay Phase: %s\n\n", req.Phase)
	fmt.Fprintf(&b, "Style Guide: %s\n\n", styleGuide(register))
	fmt.Fprintf(&b, "Memory to recall: %q\n\n", req.Memory)
	b.WriteString("Response requirements:\n")
	b.WriteString("1. Stay in character as a futuristic NPC.\n")
	b.WriteString("2. Do NOT mention your retention percentage or confidence level explicitly in the spoken text.\n")
	b.WriteString("3. Reflect the required linguistic style perfectly based on the Style Guide.\n")
	b.WriteString("4. Keep the response concise (1-2 sentences).\n\n")
	b.WriteString("NPC Response:")
	return b.String()
}
