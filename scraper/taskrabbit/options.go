package taskrabbit

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/chromedp/chromedp"

	"taskrabbit-scraper/models"
	"taskrabbit-scraper/utils"
)

// optionHandler sets one kind of booking-flow control to value.
type optionHandler func(s *Session, ctx context.Context, kind models.OptionKind, value string) error

var optionHandlers = map[models.OptionKind]optionHandler{
	models.OptionFurnitureType:       applyChoice,
	models.OptionSize:                applyChoice,
	models.OptionVehicleRequirements: applyChoice,
	models.OptionTaskDetails:         applyText,
}

// ApplyOption sets the control for step.Kind to step.Value and moves the
// flow on. It returns ErrOptionNotFound when no control of that kind is
// on the page and ErrOptionApply when the value cannot be set.
func (s *Session) ApplyOption(ctx context.Context, step models.OptionStep) error {
	h, ok := optionHandlers[step.Kind]
	if !ok {
		return stepErr("option "+string(step.Kind), ErrOptionNotFound, fmt.Errorf("unsupported kind %q", step.Kind))
	}

	stepCtx, cancel := s.step(ctx, s.browser.StepTimeout)
	defer cancel()

	if err := h(s, stepCtx, step.Kind, step.Value); err != nil {
		return err
	}
	utils.Debug("Applied %s = %q", step.Kind, step.Value)
	return nil
}

// applyChoice clicks the radio, chip or button whose text contains value.
func applyChoice(s *Session, ctx context.Context, kind models.OptionKind, value string) error {
	name := "option " + string(kind)
	choices := choiceXPaths(value)

	// The control is present once its question or any candidate choice
	// renders.
	if _, err := s.mark(ctx, slices.Concat(questionXPaths[kind], choices)); err != nil {
		return stepErr(name, ErrOptionNotFound, err)
	}

	sel, found, err := s.markOnce(ctx, choices)
	if err != nil {
		return stepErr(name, ErrOptionApply, err)
	}
	if !found {
		return stepErr(name, ErrOptionApply, fmt.Errorf("no choice matching %q", value))
	}
	if err := s.click(ctx, sel); err != nil {
		return stepErr(name, ErrOptionApply, err)
	}

	if _, err := s.clickOptional(ctx, continueXPaths); err != nil {
		return stepErr(name, ErrOptionApply, err)
	}
	return nil
}

// applyText fills the task details field and checks the value stuck.
func applyText(s *Session, ctx context.Context, kind models.OptionKind, value string) error {
	name := "option " + string(kind)

	sel, err := s.mark(ctx, taskDetailsXPaths)
	if err != nil {
		return stepErr(name, ErrOptionNotFound, err)
	}
	if err := s.typeInto(ctx, sel, value); err != nil {
		return stepErr(name, ErrOptionApply, err)
	}

	var got string
	if err := chromedp.Run(ctx, chromedp.Value(sel, &got, chromedp.ByQuery)); err != nil {
		return stepErr(name, ErrOptionApply, err)
	}
	if strings.TrimSpace(got) != strings.TrimSpace(value) {
		return stepErr(name, ErrOptionApply, fmt.Errorf("field holds %q", got))
	}

	if _, err := s.clickOptional(ctx, continueXPaths); err != nil {
		return stepErr(name, ErrOptionApply, err)
	}
	return nil
}
