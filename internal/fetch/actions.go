package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"

	"webpeel/internal/model"
)

const (
	defaultActionTimeoutMs = 5000
	defaultWaitMs          = 1000
	totalActionBudget      = 30 * time.Second
)

var keyMap = map[string]input.Key{
	"enter":      input.Enter,
	"tab":        input.Tab,
	"escape":     input.Escape,
	"backspace":  input.Backspace,
	"arrowdown":  input.ArrowDown,
	"arrowup":    input.ArrowUp,
	"arrowleft":  input.ArrowLeft,
	"arrowright": input.ArrowRight,
	"pagedown":   input.PageDown,
	"pageup":     input.PageUp,
	"end":        input.End,
	"home":       input.Home,
	"space":      input.Space,
}

// NormalizeAction fills defaults and canonicalizes the action type.
// Unknown types are rejected.
func NormalizeAction(a model.Action) (model.Action, error) {
	a.Type = strings.ToLower(strings.TrimSpace(a.Type))
	switch a.Type {
	case "fill":
		a.Type = "type"
	case "waitfor", "waitforselector":
		a.Type = "waitForSelector"
	}

	switch a.Type {
	case "click", "type", "press", "scroll", "select", "hover", "waitForSelector", "screenshot":
	case "wait":
		if a.Ms <= 0 {
			a.Ms = defaultWaitMs
		}
	default:
		return a, fmt.Errorf("unsupported action type %q", a.Type)
	}

	if a.TimeoutMs < 0 {
		a.TimeoutMs = 0
	}
	return a, nil
}

// ExecuteActions runs the caller's actions sequentially under a total
// budget. A failed action is fatal unless it carries its own timeout
// override, in which case its failure is absorbed once the override
// elapses. Returns a screenshot when a screenshot action ran.
func ExecuteActions(ctx context.Context, page *rod.Page, actions []model.Action) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, totalActionBudget)
	defer cancel()

	var screenshot []byte

	for i, raw := range actions {
		action, err := NormalizeAction(raw)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}

		if ctx.Err() != nil {
			return nil, &TimeoutError{URL: "actions"}
		}

		timeout := time.Duration(defaultActionTimeoutMs) * time.Millisecond
		if action.TimeoutMs > 0 {
			timeout = time.Duration(action.TimeoutMs) * time.Millisecond
		}

		shot, err := executeOne(ctx, page, action, timeout)
		if shot != nil {
			screenshot = shot
		}
		if err != nil {
			if toleratedActionFailure(action, err) {
				log.Debug().Err(err).Str("type", action.Type).Int("index", i).Msg("action timeout override elapsed, continuing")
				continue
			}
			return nil, fmt.Errorf("action %d (%s): %w", i, action.Type, err)
		}
	}

	return screenshot, nil
}

// toleratedActionFailure reports whether a failed action is absorbed:
// only when it carried its own timeout override and that deadline is
// what elapsed. A selector or input failure is always fatal.
func toleratedActionFailure(a model.Action, err error) bool {
	return a.TimeoutMs > 0 && errors.Is(err, context.DeadlineExceeded)
}

func executeOne(ctx context.Context, page *rod.Page, a model.Action, timeout time.Duration) ([]byte, error) {
	p := page.Timeout(timeout)

	switch a.Type {
	case "wait":
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(a.Ms) * time.Millisecond):
		}
		return nil, nil

	case "click":
		el, err := p.Element(a.Selector)
		if err != nil {
			return nil, err
		}
		return nil, el.Click(proto.InputMouseButtonLeft, 1)

	case "type":
		el, err := p.Element(a.Selector)
		if err != nil {
			return nil, err
		}
		if err := el.SelectAllText(); err == nil {
			_ = el.Input("")
		}
		return nil, el.Input(a.Value)

	case "press":
		key, ok := keyMap[strings.ToLower(a.Key)]
		if !ok {
			return nil, fmt.Errorf("unsupported key %q", a.Key)
		}
		return nil, p.Keyboard.Type(key)

	case "scroll":
		if strings.EqualFold(a.To, "bottom") {
			_, err := p.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
			return nil, err
		}
		amount := float64(a.Amount)
		if amount == 0 {
			amount = 600
		}
		if strings.EqualFold(a.Direction, "up") {
			amount = -amount
		}
		return nil, p.Mouse.Scroll(0, amount, 10)

	case "select":
		el, err := p.Element(a.Selector)
		if err != nil {
			return nil, err
		}
		return nil, el.Select([]string{a.Value}, true, rod.SelectorTypeText)

	case "hover":
		el, err := p.Element(a.Selector)
		if err != nil {
			return nil, err
		}
		return nil, el.Hover()

	case "waitForSelector":
		_, err := p.Element(a.Selector)
		return nil, err

	case "screenshot":
		return p.Screenshot(false, nil)
	}

	return nil, fmt.Errorf("unsupported action type %q", a.Type)
}
