package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/contentagent/models"
	"github.com/mohammad-safakhou/contentagent/provider"
)

// PreferenceStore loads organization-wide prompt settings.
type PreferenceStore interface {
	GetOrgPreference(ctx context.Context, orgID string) (models.OrgPreference, error)
}

// Validation is the verdict on a form submission.
type Validation struct {
	Valid    bool     `json:"valid"`
	Feedback []string `json:"feedback"`
}

// FormValidator checks form data against the organization's validation rules.
type FormValidator struct {
	gen   provider.Generator
	store PreferenceStore
	model string
}

func NewFormValidator(gen provider.Generator, st PreferenceStore, model string) *FormValidator {
	return &FormValidator{gen: gen, store: st, model: model}
}

func (v *FormValidator) Validate(ctx context.Context, orgID string, fd models.FormData) (Validation, error) {
	pref, err := v.store.GetOrgPreference(ctx, orgID)
	if err != nil {
		return Validation{}, fmt.Errorf("org preference: %w", err)
	}
	raw, err := v.gen.Complete(ctx, provider.CompletionRequest{
		Model:  v.model,
		Prompt: validationPrompt(pref.CheckFormDataPrompt, fd),
		JSON:   true,
	})
	if err != nil {
		return Validation{}, fmt.Errorf("validate form data: %w", err)
	}
	var out Validation
	if err := decodeContract(validationContract, raw, &out); err != nil {
		return Validation{}, fmt.Errorf("validate form data: %w", err)
	}
	feedback := out.Feedback[:0]
	for _, f := range out.Feedback {
		if f = strings.TrimSpace(f); f != "" {
			feedback = append(feedback, f)
		}
	}
	out.Feedback = feedback
	return out, nil
}
