package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cascade/internal/api/models"
	"cascade/pkg"
)

// Metric weights and flag floors. Scores are 0-100 with 100 best; a metric
// at or below its floor raises a flag.
const (
	weightHallucination = 0.5
	weightDataQuality   = 0.3
	weightComplexity    = 0.2

	floorHallucination = 40
	floorDataQuality   = 30
	floorComplexity    = 20

	neutralScore = 50
)

const (
	MetricHallucination = "hallucination"
	MetricDataQuality   = "dataQuality"
	MetricComplexity    = "complexity"

	FlagHallucinationRisk = "hallucination_risk"
	FlagInsufficientData  = "insufficient_data_quality"
	FlagComplexityMiss    = "complexity_mismatch"
)

// Toggles selects which sub-evaluations run.
type Toggles struct {
	Hallucination bool
	DataQuality   bool
	Complexity    bool
}

// AllMetrics enables every sub-evaluation.
func AllMetrics() Toggles {
	return Toggles{Hallucination: true, DataQuality: true, Complexity: true}
}

// TogglesFrom maps a node's evaluation config; nil config enables everything.
func TogglesFrom(config *models.EvalToggles) Toggles {
	return Toggles{
		Hallucination: config.HallucinationEnabled(),
		DataQuality:   config.DataQualityEnabled(),
		Complexity:    config.ComplexityEnabled(),
	}
}

// Evaluator runs weighted quality evaluations on generated text.
type Evaluator struct {
	llm    LLMClient
	model  string
	logger zerolog.Logger
}

func NewEvaluator(llm LLMClient, model string, logger zerolog.Logger) *Evaluator {
	return &Evaluator{llm: llm, model: model, logger: logger}
}

// Evaluate runs the enabled sub-evaluations in parallel and aggregates a
// weighted overall score. A sub-evaluation that cannot be parsed degrades to
// a neutral score instead of failing the evaluation.
func (slf *Evaluator) Evaluate(ctx context.Context, prompt, reference, response string, toggles Toggles) *models.EvaluationRecord {
	record := &models.EvaluationRecord{EvaluatedAt: time.Now()}

	var wg sync.WaitGroup
	var hallucination, dataQuality, complexity models.MetricScore

	if toggles.Hallucination {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hallucination = slf.scoreMetric(ctx, hallucinationInstruction, prompt, reference, response)
		}()
	}
	if toggles.DataQuality {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dataQuality = slf.scoreMetric(ctx, dataQualityInstruction, prompt, reference, response)
		}()
	}
	if toggles.Complexity {
		wg.Add(1)
		go func() {
			defer wg.Done()
			complexity = slf.scoreMetric(ctx, complexityInstruction, prompt, reference, response)
		}()
	}
	wg.Wait()

	var weightedSum, totalWeight float64

	if toggles.Hallucination {
		record.Hallucination = &hallucination
		weightedSum += weightHallucination * float64(hallucination.Score)
		totalWeight += weightHallucination
		if hallucination.Score <= floorHallucination {
			record.Flags = append(record.Flags, FlagHallucinationRisk)
		}
	}
	if toggles.DataQuality {
		record.DataQuality = &dataQuality
		weightedSum += weightDataQuality * float64(dataQuality.Score)
		totalWeight += weightDataQuality
		if dataQuality.Score <= floorDataQuality {
			record.Flags = append(record.Flags, FlagInsufficientData)
		}
	}
	if toggles.Complexity {
		record.Complexity = &complexity
		weightedSum += weightComplexity * float64(complexity.Score)
		totalWeight += weightComplexity
		if complexity.Score <= floorComplexity {
			record.Flags = append(record.Flags, FlagComplexityMiss)
		}
	}

	if totalWeight > 0 {
		record.OverallScore = int(math.Round(weightedSum / totalWeight))
	}

	return record
}

const (
	hallucinationInstruction = `You are a hallucination-risk evaluator. Judge how well the response stays grounded in the provided reference data, with 100 meaning fully grounded and 0 meaning entirely fabricated.`
	dataQualityInstruction   = `You are a data-quality evaluator. Judge whether the reference data was sufficient to support the response, with 100 meaning fully sufficient and 0 meaning the data could not support it at all.`
	complexityInstruction    = `You are a complexity evaluator. Judge whether the response's complexity is appropriate for the prompt, with 100 meaning perfectly matched and 0 meaning wildly mismatched.`
)

type metricResponse struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

func (slf *Evaluator) scoreMetric(ctx context.Context, instruction, prompt, reference, response string) models.MetricScore {
	content := fmt.Sprintf(`%s

### PROMPT:
%s

### REFERENCE DATA:
%s

### RESPONSE:
%s

Score the response from 0 to 100 and explain your reasoning.`, instruction, prompt, reference, response)

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score":     map[string]any{"type": "number"},
			"reasoning": map[string]any{"type": "string"},
		},
		"required": []string{"score", "reasoning"},
	}

	resp, err := slf.llm.Chat(ctx, pkg.ChatRequest{
		Model:       slf.model,
		Messages:    []pkg.ChatMessage{{Role: "user", Content: content}},
		Temperature: 0,
		Format:      schema,
	})
	if err != nil {
		slf.logger.Error().Err(err).Msg("Evaluation call failed")
		return models.MetricScore{Score: neutralScore, Reasoning: "parsing failed"}
	}

	var parsed metricResponse
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		return models.MetricScore{Score: neutralScore, Reasoning: "parsing failed"}
	}

	score := int(math.Round(parsed.Score))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return models.MetricScore{Score: score, Reasoning: parsed.Reasoning}
}
