package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
)

// MarkKind selects the outline style applied by a Marker.
type MarkKind int

const (
	MarkNormal MarkKind = iota
	MarkError
)

func (k MarkKind) String() string {
	if k == MarkError {
		return "error"
	}
	return "normal"
}

// Marker draws attention to an element in the live page.
type Marker interface {
	Mark(ctx context.Context, el browser.Element, kind MarkKind) error
}

type outlineStyle struct {
	color string
	hold  time.Duration
}

var outlineStyles = map[MarkKind]outlineStyle{
	MarkNormal: {color: "magenta", hold: 300 * time.Millisecond},
	MarkError:  {color: "red", hold: 800 * time.Millisecond},
}

// OutlineMarker scrolls the node into view and outlines it. The revert is
// scheduled inside the page, so Mark returns without waiting for it.
type OutlineMarker struct{}

// Mark is a no-op when no node currently matches el.
func (OutlineMarker) Mark(ctx context.Context, el browser.Element, kind MarkKind) error {
	err := el.Evaluate(ctx, outlineScript(kind))
	if errors.Is(err, browser.ErrNotFound) {
		return nil
	}
	return err
}

func outlineScript(kind MarkKind) string {
	style, ok := outlineStyles[kind]
	if !ok {
		style = outlineStyles[MarkNormal]
	}
	return fmt.Sprintf(`(node) => {
  node.scrollIntoView({block: "center", inline: "nearest"});
  const prev = node.style.outline;
  node.style.outline = "3px solid %s";
  setTimeout(() => { node.style.outline = prev; }, %d);
}`, style.color, style.hold.Milliseconds())
}

// NopMarker never touches the page.
type NopMarker struct{}

func (NopMarker) Mark(context.Context, browser.Element, MarkKind) error { return nil }
