// Package tutor writes step-by-step explanations of an exercise with an
// LLM. Without a provider, or when the call fails, it returns the
// explanation stored with the exercise.
package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mathmaster/mathmaster/internal/llm"
	"github.com/mathmaster/mathmaster/internal/logger"
	"github.com/mathmaster/mathmaster/internal/topic"
)

// Sources of an Explanation.
const (
	SourceAI        = "ai"
	SourceGenerator = "generator"
)

type Config struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func DefaultConfig() Config {
	return Config{MaxTokens: 800, Temperature: 0.2, Timeout: 20 * time.Second}
}

// Input describes the exercise to explain.
type Input struct {
	Topic         topic.Topic
	Difficulty    topic.Difficulty
	Question      string
	CorrectAnswer string

	// StudentAnswer is empty when the student has not answered yet.
	StudentAnswer string

	// Fallback is the generator's explanation.
	Fallback string
}

type Explanation struct {
	Source  string   `json:"source"`
	Summary string   `json:"summary"`
	Steps   []string `json:"steps,omitempty"`
	Tip     string   `json:"tip,omitempty"`
}

type Service struct {
	provider llm.Provider
	cfg      Config
	log      *logger.Logger
}

// NewService returns a tutor. provider may be nil.
func NewService(provider llm.Provider, cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{provider: provider, cfg: cfg, log: log}
}

// Enabled reports whether explanations come from a model.
func (s *Service) Enabled() bool {
	return s.provider != nil
}

type explanationOutput struct {
	Summary string   `json:"summary"`
	Steps   []string `json:"steps"`
	Tip     string   `json:"tip"`
}

// Explain never fails; model errors degrade to the stored explanation.
func (s *Service) Explain(ctx context.Context, in Input) Explanation {
	fallback := Explanation{Source: SourceGenerator, Summary: in.Fallback}
	if s.provider == nil {
		return fallback
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	ctx = llm.WithPurpose(ctx, "explanation")

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(in),
		Schema:      ExplanationSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		s.log.Warn("tutor explanation failed, using generator text", "topic", in.Topic, "error", err)
		return fallback
	}

	var out explanationOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		s.log.Warn("tutor explanation unreadable", "error", err)
		return fallback
	}
	return Explanation{Source: SourceAI, Summary: out.Summary, Steps: out.Steps, Tip: out.Tip}
}

const systemPrompt = `Eres un tutor de matemáticas paciente para estudiantes de secundaria. Explicas en español, con pasos cortos y numerados, sin LaTeX. Usa los mismos símbolos que el enunciado (×, ÷, ², /).`

func buildPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tema: %s\n", in.Topic.DisplayName())
	fmt.Fprintf(&b, "Dificultad: %s\n", in.Difficulty)
	fmt.Fprintf(&b, "Ejercicio: %s\n", in.Question)
	fmt.Fprintf(&b, "Respuesta correcta: %s\n", in.CorrectAnswer)
	if in.StudentAnswer != "" && in.StudentAnswer != in.CorrectAnswer {
		fmt.Fprintf(&b, "Respuesta del estudiante: %s\n", in.StudentAnswer)
	}
	b.WriteString(`
Instrucciones:
1. Resume en una o dos oraciones la idea clave para resolver el ejercicio.
2. Resuelve el ejercicio paso a paso hasta llegar exactamente a la respuesta correcta.
3. Si el estudiante respondió mal, indica el error más probable que cometió.
4. Termina con un consejo breve para ejercicios similares.`)
	return b.String()
}

// ExplanationSchema is the structured output requested from the model.
var ExplanationSchema = &llm.Schema{
	Name:        "exercise-explanation",
	Description: "Step-by-step explanation of a math exercise",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "Key idea in one or two sentences",
			},
			"steps": map[string]any{
				"type":        "array",
				"description": "Ordered solution steps",
				"items":       map[string]any{"type": "string"},
			},
			"tip": map[string]any{
				"type":        "string",
				"description": "Short advice for similar exercises",
			},
		},
		"required":             []any{"summary", "steps", "tip"},
		"additionalProperties": false,
	},
}
