// Package flows composes page-object steps into the login journeys the
// suite exercises. Actions live apart from the assertions so a BDD "When"
// and "Then" can call them separately.
package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/sauce-e2e/internal/data"
	"github.com/xkilldash9x/sauce-e2e/internal/pages"
)

// ErrNoErrorMessage is returned when the error banner is shown but empty.
var ErrNoErrorMessage = errors.New("login error banner is empty")

// MessageMismatchError reports an error banner that lacks the expected text.
type MessageMismatchError struct {
	Want string
	Got  string
}

func (e *MessageMismatchError) Error() string {
	return fmt.Sprintf("login error %q does not contain %q", e.Got, e.Want)
}

// LoginDo opens the login page and submits creds. It asserts nothing.
func LoginDo(ctx context.Context, login *pages.LoginPage, creds data.Credentials) error {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"open login page", login.Goto},
		{"fill username", func(ctx context.Context) error { return login.FillUsername(ctx, creds.Username) }},
		{"fill password", func(ctx context.Context) error { return login.FillPassword(ctx, creds.Password) }},
		{"submit", login.ClickLogin},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("login: %s: %w", step.name, err)
		}
	}
	return nil
}

// AssertLoginSuccess checks that the inventory is shown.
func AssertLoginSuccess(ctx context.Context, login *pages.LoginPage) error {
	if err := login.WaitForInventoryVisible(ctx); err != nil {
		return fmt.Errorf("expected a successful login: %w", err)
	}
	return nil
}

// AssertLoginError checks that a non-empty error banner is shown. When
// expected is not empty the banner must contain it.
func AssertLoginError(ctx context.Context, login *pages.LoginPage, expected string) error {
	text, err := login.ErrorText(ctx)
	if err != nil {
		return fmt.Errorf("expected a login error: %w", err)
	}
	if text == "" {
		return ErrNoErrorMessage
	}
	if expected != "" && !strings.Contains(text, expected) {
		return &MessageMismatchError{Want: expected, Got: text}
	}
	return nil
}

// Verify runs c end to end: it logs in with the case credentials and checks
// the outcome the case expects.
func Verify(ctx context.Context, login *pages.LoginPage, c data.Case) error {
	if err := LoginDo(ctx, login, c.Creds); err != nil {
		return err
	}
	if c.Outcome.Succeeds() {
		return AssertLoginSuccess(ctx, login)
	}
	return AssertLoginError(ctx, login, c.ExpectedError)
}
