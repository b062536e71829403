package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/api"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/pageview"
)

// ContactRequest is the JSON body of /api/contact.
type ContactRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Message      string `json:"message"`
	CaptchaToken string `json:"captcha_token"`
	ViewID       string `json:"view_id,omitempty"`
}

// ContactResponse reports a submission outcome.
type ContactResponse struct {
	Outcome string `json:"outcome"`
	Message string `json:"message"`
	ViewID  string `json:"view_id"`
}

// Handle contact form submission with HTMX. The outcome is always rendered
// as a status line inside the form, so this never answers with an error code.
func (s *Server) submitContactForm(c *gin.Context) {
	var fields contact.Fields
	if err := c.ShouldBind(&fields); err != nil {
		s.logger.Warn("Unreadable contact form: %v", err)
	}

	v := s.viewFor(c, c.PostForm(viewIDField))
	res := v.Contact.Submit(c.Request.Context(), fields, c.PostForm(contact.CaptchaField))
	s.recordSubmission(v, res)

	c.HTML(http.StatusOK, "contact-form.html", newFormView(v))
}

// submitContactJSON is the same flow for API clients.
func (s *Server) submitContactJSON(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.HandleAPIError(c, err, http.StatusBadRequest, api.ErrCodeBadRequest, "Invalid request body")
		return
	}

	v := s.viewFor(c, req.ViewID)
	res := v.Contact.Submit(c.Request.Context(), contact.Fields{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}, req.CaptchaToken)
	s.recordSubmission(v, res)

	body := ContactResponse{
		Outcome: res.Kind.String(),
		Message: res.StatusLine(),
		ViewID:  v.ID,
	}

	switch res.Kind {
	case contact.KindSuccess:
		api.HandleSuccess(c, body)
	case contact.KindValidationError:
		c.JSON(http.StatusUnprocessableEntity, api.NewErrorResponse(api.ErrCodeValidation, body.Message, body))
	default:
		c.JSON(http.StatusBadGateway, api.NewErrorResponse(api.ErrCodeBadGateway, body.Message, body))
	}
}

// contactRateLimited answers an over-limit HTMX submission with the form
// and a status line instead of JSON.
func (s *Server) contactRateLimited(c *gin.Context) {
	v := s.viewFor(c, c.PostForm(viewIDField))
	fv := newFormView(v)
	fv.Status = "Too many messages. Please wait a moment and try again."
	fv.Kind = "rate_limited"
	c.HTML(http.StatusOK, "contact-form.html", fv)
}

func (s *Server) recordSubmission(v *pageview.View, res contact.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.RecordSubmission(ctx, v.ID, res.Kind.String()); err != nil {
		s.logger.Error("Error recording submission outcome: %v", err)
	}
}
