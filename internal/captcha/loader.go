// Package captcha tracks the hCaptcha widget script for a rendered page.
//
// Every page render owns a Loader. The Loader records whether the widget
// script has been attached, so repeated load requests during one render (the
// contact section and a re-rendered form fragment both ask for it) produce a
// single script tag.
package captcha

import (
	"sync"
)

// ScriptURL is the hCaptcha widget script.
const ScriptURL = "https://js.hcaptcha.com/1/api.js?recaptchacompat=off"

// Script is a script tag to emit into the page.
type Script struct {
	Src   string
	Async bool
	Defer bool
}

// Widget is a captcha placeholder element on the page.
type Widget struct {
	ID      string
	SiteKey string
}

// Document collects the script tags of one page render.
type Document struct {
	mu      sync.Mutex
	scripts []Script
}

func (d *Document) AddScript(s Script) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scripts = append(d.scripts, s)
}

// Scripts returns the script tags in insertion order.
func (d *Document) Scripts() []Script {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Script, len(d.scripts))
	copy(out, d.scripts)
	return out
}

// Count returns how many tags load src.
func (d *Document) Count(src string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.scripts {
		if s.Src == src {
			n++
		}
	}
	return n
}

// Loader attaches the widget script at most once.
type Loader struct {
	siteKey string

	mu     sync.Mutex
	loaded bool
}

func NewLoader(siteKey string) *Loader {
	return &Loader{siteKey: siteKey}
}

// Load attaches the script to doc unless it was already loaded. It reports
// whether a tag was added.
func (l *Loader) Load(doc *Document) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded {
		return false
	}
	doc.AddScript(Script{Src: ScriptURL, Async: true, Defer: true})
	l.loaded = true
	return true
}

func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

func (l *Loader) SiteKey() string {
	return l.siteKey
}

// FillSiteKeys gives every widget without a site key the loader's key.
func (l *Loader) FillSiteKeys(widgets []Widget) []Widget {
	out := make([]Widget, len(widgets))
	for i, w := range widgets {
		if w.SiteKey == "" {
			w.SiteKey = l.siteKey
		}
		out[i] = w
	}
	return out
}
