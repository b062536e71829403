package site

import (
	"fmt"
	"strings"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ScrollThreshold is the offset past which the navbar switches to its
// scrolled style.
const ScrollThreshold = 50

// Navigation actions accepted by Apply.
const (
	ActionToggleTheme = "toggle-theme"
	ActionOpenMenu    = "open-menu"
	ActionCloseMenu   = "close-menu"
	ActionScroll      = "scroll"
)

// NavState is the navbar's state. Transitions return a new value and never
// mutate the receiver.
type NavState struct {
	Theme    Theme
	Scrolled bool
	MenuOpen bool
}

// ParseTheme accepts "light" or "dark" in any case.
func ParseTheme(s string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, true
	case ThemeDark:
		return ThemeDark, true
	}
	return "", false
}

// InitialTheme picks the stored preference first, then the browser's
// Sec-CH-Prefers-Color-Scheme hint, then light.
func InitialTheme(stored, hint string) Theme {
	if t, ok := ParseTheme(stored); ok {
		return t
	}
	if t, ok := ParseTheme(strings.Trim(hint, `"`)); ok {
		return t
	}
	return ThemeLight
}

func NewNavState(theme Theme) NavState {
	if theme != ThemeDark {
		theme = ThemeLight
	}
	return NavState{Theme: theme}
}

func (s NavState) Dark() bool {
	return s.Theme == ThemeDark
}

func (s NavState) WithTheme(t Theme) NavState {
	s.Theme = t
	return s
}

func (s NavState) ToggleTheme() NavState {
	if s.Theme == ThemeDark {
		return s.WithTheme(ThemeLight)
	}
	return s.WithTheme(ThemeDark)
}

func (s NavState) OpenMenu() NavState {
	s.MenuOpen = true
	return s
}

func (s NavState) CloseMenu() NavState {
	s.MenuOpen = false
	return s
}

// ScrolledTo applies a scroll offset in pixels.
func (s NavState) ScrolledTo(y int) NavState {
	s.Scrolled = y > ScrollThreshold
	return s
}

// IsAction reports whether Apply accepts action.
func IsAction(action string) bool {
	switch action {
	case ActionToggleTheme, ActionOpenMenu, ActionCloseMenu, ActionScroll:
		return true
	}
	return false
}

// Apply dispatches a named action. y is only used by ActionScroll.
func (s NavState) Apply(action string, y int) (NavState, error) {
	switch action {
	case ActionToggleTheme:
		return s.ToggleTheme(), nil
	case ActionOpenMenu:
		return s.OpenMenu(), nil
	case ActionCloseMenu:
		return s.CloseMenu(), nil
	case ActionScroll:
		return s.ScrolledTo(y), nil
	}
	return s, fmt.Errorf("unknown navigation action %q", action)
}
