package pipeline

import (
	"time"

	"github.com/dinefind/core/internal/models"
)

// failureResponse builds the envelope for a run that ends without
// results. Assist is mandatory whenever the failure reason is set.
func (p *Pipeline) failureResponse(rc *runContext, reason models.FailureReason, assist *models.Assist) *models.SearchResponse {
	return &models.SearchResponse{
		RequestID: rc.req.RequestID,
		SessionID: rc.req.SessionID,
		Results:   []models.PlaceResult{},
		Meta: models.SearchMeta{
			DurationMs:    time.Since(rc.startedAt).Milliseconds(),
			FailureReason: reason,
		},
		Assist: assist,
	}
}

// plainResponse is the early-exit envelope for STOP and CLARIFY gates:
// no failure reason, no results, assist explaining why.
func (p *Pipeline) plainResponse(rc *runContext, assist *models.Assist) *models.SearchResponse {
	return &models.SearchResponse{
		RequestID: rc.req.RequestID,
		SessionID: rc.req.SessionID,
		Results:   []models.PlaceResult{},
		Meta: models.SearchMeta{
			DurationMs:    time.Since(rc.startedAt).Milliseconds(),
			FailureReason: models.FailureNone,
		},
		Assist: assist,
	}
}

func assistNotFood() *models.Assist {
	return &models.Assist{
		Type:    models.AssistSuggest,
		Message: "I can only help with finding restaurants and food. Try asking for a dish, a cuisine or a place to eat.",
		SuggestedActions: []string{
			"pizza near me",
			"sushi in Tel Aviv",
		},
	}
}

func assistClarifyQuery() *models.Assist {
	return &models.Assist{
		Type:    models.AssistClarify,
		Message: "What would you like to eat, and where? For example a dish plus a city or neighborhood.",
		SuggestedActions: []string{
			"burgers in Haifa",
			"breakfast near me",
		},
	}
}

func assistShareLocation() *models.Assist {
	return &models.Assist{
		Type:             models.AssistClarify,
		Message:          "To search near you I need your location. Share it, or name a city or area instead.",
		SuggestedActions: []string{"share location", "search by city"},
	}
}

func assistRetry() *models.Assist {
	return &models.Assist{
		Type:    models.AssistConfirm,
		Message: "Something went wrong while searching. Try again in a moment.",
	}
}

func assistBroaden() *models.Assist {
	return &models.Assist{
		Type:             models.AssistSuggest,
		Message:          "No places matched. Try a wider area or fewer constraints.",
		SuggestedActions: []string{"remove filters", "search a nearby city"},
	}
}

func assistLiveDataUnavailable() *models.Assist {
	return &models.Assist{
		Type:    models.AssistConfirm,
		Message: "Live opening hours are unavailable for these places right now, so I cannot confirm what is open. Search without the open-now filter?",
		SuggestedActions: []string{
			"search without open now",
		},
	}
}
