package intent

import (
	"context"
	"fmt"
	"regexp"

	"github.com/dinefind/core/internal/models"
	"github.com/dinefind/core/internal/pkg/llm"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type openAtOutput struct {
	Day      int     `json:"day"`
	Time     string  `json:"time"`
	Timezone *string `json:"timezone"`
}

func (o *openAtOutput) validate() error {
	if o.Day < 0 || o.Day > 6 {
		return fmt.Errorf("day %d out of range", o.Day)
	}
	if !clockPattern.MatchString(o.Time) {
		return fmt.Errorf("time %q is not HH:mm", o.Time)
	}
	return nil
}

func (o *openAtOutput) toModel() *models.OpenAt {
	return &models.OpenAt{Day: o.Day, Time: o.Time, Timezone: strval(o.Timezone)}
}

type openBetweenOutput struct {
	Day      int     `json:"day"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Timezone *string `json:"timezone"`
}

func (o *openBetweenOutput) validate() error {
	if o.Day < 0 || o.Day > 6 {
		return fmt.Errorf("day %d out of range", o.Day)
	}
	if !clockPattern.MatchString(o.Start) || !clockPattern.MatchString(o.End) {
		return fmt.Errorf("range %q-%q is not HH:mm", o.Start, o.End)
	}
	return nil
}

func (o *openBetweenOutput) toModel() *models.OpenBetween {
	return &models.OpenBetween{Day: o.Day, Start: o.Start, End: o.End, Timezone: strval(o.Timezone)}
}

func validateOpenState(state *string) error {
	if state == nil {
		return nil
	}
	switch *state {
	case "OPEN_NOW", "OPEN_AT", "OPEN_BETWEEN":
		return nil
	default:
		// "closed" and friends are unsupported upstream and stripped here
		return fmt.Errorf("openState %q out of range", *state)
	}
}

type baseFiltersOutput struct {
	Language    string             `json:"language"`
	OpenState   *string            `json:"openState"`
	OpenAt      *openAtOutput      `json:"openAt"`
	OpenBetween *openBetweenOutput `json:"openBetween"`
	RegionHint  *string            `json:"regionHint"`
}

func (o *baseFiltersOutput) Validate() error {
	if err := validateOpenState(o.OpenState); err != nil {
		return err
	}
	if o.OpenAt != nil {
		if err := o.OpenAt.validate(); err != nil {
			return err
		}
	}
	if o.OpenBetween != nil {
		if err := o.OpenBetween.validate(); err != nil {
			return err
		}
	}
	return nil
}

type requirementsOutput struct {
	Accessible *bool `json:"accessible"`
	Parking    *bool `json:"parking"`
}

type postConstraintsOutput struct {
	OpenState    *string            `json:"openState"`
	OpenAt       *openAtOutput      `json:"openAt"`
	OpenBetween  *openBetweenOutput `json:"openBetween"`
	PriceLevel   *int               `json:"priceLevel"`
	Kosher       *bool              `json:"kosher"`
	Requirements requirementsOutput `json:"requirements"`
}

func (o *postConstraintsOutput) Validate() error {
	if err := validateOpenState(o.OpenState); err != nil {
		return err
	}
	if o.OpenAt != nil {
		if err := o.OpenAt.validate(); err != nil {
			return err
		}
	}
	if o.OpenBetween != nil {
		if err := o.OpenBetween.validate(); err != nil {
			return err
		}
	}
	if o.PriceLevel != nil && (*o.PriceLevel < 1 || *o.PriceLevel > 4) {
		return fmt.Errorf("priceLevel %d out of range", *o.PriceLevel)
	}
	return nil
}

// ExtractBaseFilters runs the base extractor under the filter deadline.
// On failure the caller substitutes the all-null default; the error is
// reported for logging only.
func (s *Service) ExtractBaseFilters(ctx context.Context, req models.SearchRequest, meta llm.Meta) (models.BaseFilters, error) {
	meta.Stage = "filters_base"
	meta.PromptVersion = baseFiltersPromptVersion
	meta.PromptHash = baseFiltersPromptHash

	filterCtx, cancel := context.WithTimeout(ctx, s.cfg.FilterTimeout())
	defer cancel()

	system, prompt := buildBaseFiltersPrompt(req.Query, req.RegionHint)
	var out baseFiltersOutput
	err := s.llm.CompleteJSON(filterCtx, llm.Request{
		System: system,
		Prompt: prompt,
		Schema: baseFiltersSchema,
		Meta:   meta,
	}, &out)
	if err != nil {
		return models.BaseFilters{}, err
	}

	filters := models.BaseFilters{
		Language:   normalizeLanguageTag(out.Language),
		RegionHint: normalizeRegion(strval(out.RegionHint)),
	}
	if out.OpenState != nil {
		filters.OpenState = models.OpenState(*out.OpenState)
	}
	if out.OpenAt != nil {
		filters.OpenAt = out.OpenAt.toModel()
	}
	if out.OpenBetween != nil {
		filters.OpenBetween = out.OpenBetween.toModel()
	}
	return filters, nil
}

// ExtractPostConstraints runs the post-constraint extractor under the
// filter deadline. Same failure contract as the base extractor.
func (s *Service) ExtractPostConstraints(ctx context.Context, req models.SearchRequest, meta llm.Meta) (models.PostConstraints, error) {
	meta.Stage = "filters_post"
	meta.PromptVersion = postConstraintsPromptVersion
	meta.PromptHash = postConstraintsPromptHash

	filterCtx, cancel := context.WithTimeout(ctx, s.cfg.FilterTimeout())
	defer cancel()

	system, prompt := buildPostConstraintsPrompt(req.Query, req.RegionHint)
	var out postConstraintsOutput
	err := s.llm.CompleteJSON(filterCtx, llm.Request{
		System: system,
		Prompt: prompt,
		Schema: postConstraintsSchema,
		Meta:   meta,
	}, &out)
	if err != nil {
		return models.PostConstraints{}, err
	}

	constraints := models.PostConstraints{
		PriceLevel: out.PriceLevel,
		Kosher:     out.Kosher,
		Requirements: models.Requirements{
			Accessible: out.Requirements.Accessible,
			Parking:    out.Requirements.Parking,
		},
	}
	if out.OpenState != nil {
		constraints.OpenState = models.OpenState(*out.OpenState)
	}
	if out.OpenAt != nil {
		constraints.OpenAt = out.OpenAt.toModel()
	}
	if out.OpenBetween != nil {
		constraints.OpenBetween = out.OpenBetween.toModel()
	}
	return constraints, nil
}
