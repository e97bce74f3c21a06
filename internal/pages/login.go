// Package pages holds page objects for the SauceDemo storefront.
package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/sauce-e2e/internal/actions"
	"github.com/xkilldash9x/sauce-e2e/internal/browser"
)

// Actor is the slice of the action facade the page objects drive.
// *actions.Actions satisfies it.
type Actor interface {
	Navigate(ctx context.Context, url string, opts *actions.NavigateOptions) error
	Click(ctx context.Context, target browser.Target, opts *actions.ActionOptions) error
	Fill(ctx context.Context, target browser.Target, value string, opts *actions.ActionOptions) error
	WaitForState(ctx context.Context, target browser.Target, opts *actions.WaitOptions) (browser.Element, error)
}

const (
	UsernameInput      browser.Selector = `[data-test="username"]`
	PasswordInput      browser.Selector = `[data-test="password"]`
	LoginButton        browser.Selector = `[data-test="login-button"]`
	InventoryContainer browser.Selector = `#inventory_container`
	ErrorBanner        browser.Selector = `[data-test="error"]`
)

// readTimeout bounds reading text from an element already known to be visible.
const readTimeout = 5 * time.Second

// LoginPage is the storefront landing page with the login form.
type LoginPage struct {
	act     Actor
	baseURL string
}

// NewLoginPage binds the page to act. baseURL is the storefront root.
func NewLoginPage(act Actor, baseURL string) *LoginPage {
	return &LoginPage{act: act, baseURL: baseURL}
}

// Goto opens the login page.
func (p *LoginPage) Goto(ctx context.Context) error {
	return p.act.Navigate(ctx, p.baseURL, &actions.NavigateOptions{
		Log:      actions.LogAll,
		LogLabel: "goto-login",
	})
}

// FillUsername replaces the username field's content.
func (p *LoginPage) FillUsername(ctx context.Context, username string) error {
	return p.act.Fill(ctx, UsernameInput, username, &actions.ActionOptions{
		Clear:    true,
		Log:      actions.LogAll,
		LogLabel: "username",
	})
}

func (p *LoginPage) FillPassword(ctx context.Context, password string) error {
	return p.act.Fill(ctx, PasswordInput, password, &actions.ActionOptions{
		Log:      actions.LogAll,
		LogLabel: "password",
	})
}

func (p *LoginPage) ClickLogin(ctx context.Context) error {
	return p.act.Click(ctx, LoginButton, &actions.ActionOptions{
		Log:      actions.LogAll,
		LogLabel: "loginButton",
	})
}

// WaitForInventoryVisible blocks until the product list is shown.
func (p *LoginPage) WaitForInventoryVisible(ctx context.Context) error {
	_, err := p.act.WaitForState(ctx, InventoryContainer, &actions.WaitOptions{
		State:    browser.StateVisible,
		LogLabel: "inventory",
	})
	return err
}

// ErrorText waits for the error banner and returns its trimmed text.
func (p *LoginPage) ErrorText(ctx context.Context) (string, error) {
	el, err := p.act.WaitForState(ctx, ErrorBanner, &actions.WaitOptions{
		State:    browser.StateVisible,
		LogLabel: "error",
	})
	if err != nil {
		return "", err
	}
	text, err := el.TextContent(ctx, readTimeout)
	if err != nil {
		return "", fmt.Errorf("failed to read error banner: %w", err)
	}
	return strings.TrimSpace(text), nil
}
