package server

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/captcha"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/pageview"
	"github.com/Zachkp/portfolio/internal/site"
)

//go:embed templates/*.html
var templateFS embed.FS

func loadTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"year":  func() int { return time.Now().Year() },
		"lines": func(s string) string { return strings.Join(strings.Fields(s), " ") },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// formView is what the contact form partial renders.
type formView struct {
	ViewID     string
	Fields     contact.Fields
	Status     string
	Phase      string
	Kind       string
	Widgets    []captcha.Widget
	Configured bool
}

// navView is what the navbar partial renders.
type navView struct {
	ViewID   string
	Owner    string
	State    site.NavState
	Sections []site.Section
}

func newNavView(v *pageview.View, owner string) navView {
	return navView{
		ViewID:   v.ID,
		Owner:    owner,
		State:    v.Nav(),
		Sections: site.Sections,
	}
}

// newFormView renders the form of v. It never carries the captcha script:
// the form is swapped in place, so the script lives on the page around it.
func newFormView(v *pageview.View) formView {
	fv := formView{
		ViewID:  v.ID,
		Widgets: v.Captcha.FillSiteKeys([]captcha.Widget{{ID: "contact-captcha"}}),
	}
	if v.Contact != nil {
		st := v.Contact.Status()
		fv.Fields = v.Contact.Fields()
		fv.Status = st.Line()
		fv.Phase = st.Phase.String()
		if st.Phase == contact.PhaseDone {
			fv.Kind = st.Result.Kind.String()
		}
		fv.Configured = v.Contact.Configured()
	}
	return fv
}

// pageScripts loads the captcha script into v and returns the scripts the
// page must emit. Only the render that loaded it gets a non-empty list.
func pageScripts(v *pageview.View) []captcha.Script {
	if !v.Captcha.Load(v.Doc) {
		return nil
	}
	return v.Doc.Scripts()
}

func pageData(v *pageview.View, content site.Content) gin.H {
	return gin.H{
		"scripts": pageScripts(v),
		"title":   content.Owner + " | " + content.Role,
		"content": content,
		"nav":     newNavView(v, content.Owner),
		"form":    newFormView(v),
		"dark":    v.Nav().Dark(),
	}
}
