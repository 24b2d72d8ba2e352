package faq

import (
	"github.com/valpere/FAQScrapexter/internal/utils"
)

// Sentinels match by error code, so errors.Is also accepts errors built with
// the same code and extra context.
var (
	// ErrPanelNotFound is returned when every resolution strategy came up empty.
	ErrPanelNotFound error = utils.NewError(utils.ErrCodePanelNotFound, "answer panel not found").Build()
	// ErrActivationFailed marks a click on a control that could not be applied.
	ErrActivationFailed error = utils.NewError(utils.ErrCodeActivationFailed, "control activation failed").Build()
	// ErrControlVanished marks a control that no longer resolves in a fresh snapshot.
	ErrControlVanished error = utils.NewError(utils.ErrCodeControlVanished, "control no longer present").Build()
)

func activationError(c Control, err error) error {
	return utils.NewError(utils.ErrCodeActivationFailed, "control activation failed").
		WithCause(err).
		WithContext("selector", c.Selector).
		WithContext("index", c.Index).
		Build()
}

func documentError(op string, err error) error {
	return utils.NewError(utils.ErrCodeDocumentFailed, "document "+op+" failed").
		WithCause(err).
		WithUserMessage("The page could not be read. Check the browser or the HTML input.").
		Build()
}

func configError(msg string, err error) error {
	return utils.NewError(utils.ErrCodeInvalidConfig, msg).
		WithCause(err).
		Build()
}
