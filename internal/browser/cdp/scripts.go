package cdp

import (
	"fmt"

	json "github.com/json-iterator/go"
)

// probe is the element snapshot returned by probeScript.
type probe struct {
	Found    bool   `json:"found"`
	Visible  bool   `json:"visible"`
	Enabled  bool   `json:"enabled"`
	Editable bool   `json:"editable"`
	Text     string `json:"text"`
}

// quote renders s as a JavaScript string literal.
func quote(s string) string {
	out, _ := json.MarshalToString(s)
	return out
}

// probeScript inspects the first node matching selector without waiting.
func probeScript(selector string) string {
	return fmt.Sprintf(`(() => {
  const node = document.querySelector(%s);
  if (!node) return {found: false};
  const style = window.getComputedStyle(node);
  const rect = node.getBoundingClientRect();
  const visible = style.visibility !== "hidden" && rect.width > 0 && rect.height > 0;
  const disabled = !!node.disabled || node.getAttribute("aria-disabled") === "true";
  const editable = !disabled && !node.readOnly &&
    (node.isContentEditable || ["INPUT", "TEXTAREA", "SELECT"].includes(node.tagName));
  return {found: true, visible, enabled: !disabled, editable, text: node.textContent || ""};
})()`, quote(selector))
}

// clearScript empties an input through the native value setter and fires an
// input event, so framework-managed fields see the change.
func clearScript(selector string) string {
	return fmt.Sprintf(`(() => {
  const node = document.querySelector(%s);
  if (!node) return false;
  const proto = node instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
  const setter = Object.getOwnPropertyDescriptor(proto, "value").set;
  setter.call(node, "");
  node.dispatchEvent(new Event("input", {bubbles: true}));
  return true;
})()`, quote(selector))
}

// applyScript calls fn with the first node matching selector. It evaluates to
// false when there is no such node.
func applyScript(selector, fn string) string {
	return fmt.Sprintf(`(() => {
  const node = document.querySelector(%s);
  if (!node) return false;
  (%s)(node);
  return true;
})()`, quote(selector), fn)
}
