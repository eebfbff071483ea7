package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/nlp"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/repositories"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/services/workqueue"
)

// EnrichmentTask sends an origin snapshot's text to the external analysis
// service and persists the structured result. It runs detached from the
// request that created it: a failure is logged by the queue and absorbed,
// the request stays usable with enrichment fields empty, and there is no
// automatic retry.
type EnrichmentTask struct {
	workqueue.BaseTask

	origin         *models.SosOrigin
	nlpClient      *nlp.Client
	enrichmentRepo repositories.EnrichmentRepository
	sosRepo        repositories.SosRepository
	logger         *zap.Logger
}

// NewEnrichmentTask creates a task that enriches one origin snapshot.
func NewEnrichmentTask(
	origin *models.SosOrigin,
	nlpClient *nlp.Client,
	enrichmentRepo repositories.EnrichmentRepository,
	sosRepo repositories.SosRepository,
	logger *zap.Logger,
) *EnrichmentTask {
	return &EnrichmentTask{
		BaseTask:       workqueue.NewBaseTask("enrich-sos"),
		origin:         origin,
		nlpClient:      nlpClient,
		enrichmentRepo: enrichmentRepo,
		sosRepo:        sosRepo,
		logger:         logger.Named("enrichment"),
	}
}

func (t *EnrichmentTask) Execute(ctx context.Context) error {
	result, err := t.nlpClient.ProcessText(ctx, t.origin.Description)
	if err != nil {
		return fmt.Errorf("failed to process text for origin %s: %w", t.origin.ID, err)
	}

	category := models.SosType(result.LLMCategory)
	if !models.ValidSosType(category) {
		category = models.SosTypeOther
	}

	fix := &models.SosAIFixed{
		SosOriginID: t.origin.ID,
		ModelName:   result.ModelName,
		LLMName:     result.LLMName,
		ModelText:   result.ModelText,
		LLMText:     result.LLMText,
		LLMCategory: category,
		Confidence:  result.Confidence,
		LLMScore:    result.LLMScore,
	}
	if err := t.enrichmentRepo.Insert(ctx, fix); err != nil {
		return fmt.Errorf("failed to store enrichment result: %w", err)
	}

	if err := t.sosRepo.SetLLMScore(ctx, t.origin.SosRequestID, result.LLMScore); err != nil {
		return fmt.Errorf("failed to write llm score: %w", err)
	}

	t.logger.Info("Request enriched",
		zap.String("sos_id", t.origin.SosRequestID.String()),
		zap.String("category", string(category)),
		zap.Float64("llm_score", result.LLMScore))
	return nil
}

var _ workqueue.Task = (*EnrichmentTask)(nil)
