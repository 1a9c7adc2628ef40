package services

import (
	"context"

	"github.com/diewo77/invoice-relay/i18n"
	"github.com/diewo77/invoice-relay/internal/delivery"
	"github.com/diewo77/invoice-relay/internal/models"
	"github.com/diewo77/invoice-relay/internal/render"
	"go.uber.org/zap"
)

// Action is a user-triggered pipeline run.
type Action string

const (
	ActionDownload Action = "download"
	ActionSend     Action = "send"
	ActionPreview  Action = "preview"
	ActionPrint    Action = "print"
	ActionSave     Action = "save"
)

// Result is what an action produced. PDF is set for download and preview.
type Result struct {
	Action   Action           `json:"action"`
	Channel  string           `json:"channel,omitempty"`
	Invoice  models.Invoice   `json:"invoice"`
	Filename string           `json:"filename,omitempty"`
	Location string           `json:"location,omitempty"`
	PDF      []byte           `json:"-"`
	Outcome  delivery.Outcome `json:"-"`
	Message  string           `json:"message"`
	// Warnings are persistence failures that did not stop the action.
	Warnings []string `json:"warnings,omitempty"`
}

// Save validates and persists the current invoice.
func (s *InvoiceService) Save(ctx context.Context) (*Result, error) {
	return s.run(ctx, ActionSave, "")
}

// Download saves the PDF locally and returns its bytes.
func (s *InvoiceService) Download(ctx context.Context) (*Result, error) {
	return s.run(ctx, ActionDownload, delivery.ChannelLocal)
}

// Preview renders the PDF without dispatching it.
func (s *InvoiceService) Preview(ctx context.Context) (*Result, error) {
	return s.run(ctx, ActionPreview, "")
}

// Print sends the PDF to the printer channel.
func (s *InvoiceService) Print(ctx context.Context) (*Result, error) {
	return s.run(ctx, ActionPrint, delivery.ChannelPrint)
}

// Send pushes the PDF through one relay channel. Local and print have their
// own actions and are refused here.
func (s *InvoiceService) Send(ctx context.Context, channel string) (*Result, error) {
	switch channel {
	case delivery.ChannelWebhook, delivery.ChannelEmail:
		return s.run(ctx, ActionSend, channel)
	}
	return nil, &UnknownChannelError{Name: channel}
}

func (s *InvoiceService) run(ctx context.Context, action Action, channel string) (*Result, error) {
	lang := i18n.LangFrom(ctx)
	var ch delivery.Channel
	if channel != "" {
		var ok bool
		if ch, ok = s.channels[channel]; !ok {
			return nil, &UnknownChannelError{Name: channel}
		}
	}

	inv := s.Current()
	res := &Result{Action: action, Channel: channel, Invoice: inv}
	log := s.log.With(zap.String("action", string(action)), zap.String("invoice", inv.InvoiceNumber))

	if vr := Validate(inv); !vr.Valid {
		log.Info("validation failed", zap.Strings("fields", vr.Violations.Fields()))
		return nil, newValidationError(lang, vr)
	}

	if err := s.persist(ctx, inv); err != nil {
		log.Error("persist failed", zap.Error(err))
		if action == ActionSave {
			return nil, err
		}
		res.Warnings = append(res.Warnings, i18n.Tf(lang, "persistence_failed", err.Error()))
	}
	if action == ActionSave {
		res.Message = i18n.Tf(lang, "invoice_saved", inv.InvoiceNumber)
		return res, nil
	}

	pdf, err := s.renderer.Render(ctx, render.NewSurface(s.company, lang, s.now()), inv)
	if err != nil {
		log.Error("render failed", zap.Error(err))
		return res, &RenderError{Err: err}
	}
	res.Filename = render.Filename(inv)
	if action == ActionPreview || action == ActionDownload {
		res.PDF = pdf
	}
	if ch == nil {
		return res, nil
	}

	out := ch.Deliver(ctx, delivery.Artifact{Filename: res.Filename, PDF: pdf}, inv)
	res.Outcome = out
	res.Message = out.Summary()
	if done, ok := out.(delivery.Success); ok {
		res.Location = done.Location
	}
	if f, failed := delivery.AsFailure(out); failed {
		log.Warn("delivery failed", zap.String("channel", channel), zap.String("kind", string(f.Kind)), zap.Int("status", f.Status))
		return res, &DeliveryError{Channel: channel, Failure: f}
	}
	log.Info("delivered", zap.String("channel", channel))
	return res, nil
}

// persist checkpoints the draft, upserts the invoice and, when it has a name
// and an email, the client. Every write is attempted.
func (s *InvoiceService) persist(ctx context.Context, inv models.Invoice) error {
	var errs []error
	if err := s.drafts.SaveDraft(ctx, inv); err != nil {
		errs = append(errs, &PersistenceError{Op: "save draft", Err: err})
	}
	if err := s.invoices.UpsertInvoice(ctx, inv); err != nil {
		errs = append(errs, &PersistenceError{Op: "save invoice", Err: err})
	}
	if inv.Client.Bookable() {
		if _, err := s.clients.UpsertClient(ctx, inv.Client); err != nil {
			errs = append(errs, &PersistenceError{Op: "save client", Err: err})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

func newValidationError(lang string, vr ValidationResult) *ValidationError {
	return &ValidationError{Violations: vr.Violations, Reasons: vr.Reasons(lang)}
}
