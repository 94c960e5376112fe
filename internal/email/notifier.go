package email

import (
	"context"
	"errors"

	"dronemarket_backend/internal/events"
	"dronemarket_backend/internal/logger"
)

// Notifier - events.Publisher, который пишет письма адресатам событий с шаблоном.
// События без шаблона пропускаются.
type Notifier struct {
	mailer    Mailer
	templates *TemplateManager
}

func NewNotifier(mailer Mailer, templates *TemplateManager) *Notifier {
	if templates == nil {
		templates = NewTemplateManager()
	}
	return &Notifier{mailer: mailer, templates: templates}
}

func (n *Notifier) Publish(ctx context.Context, ev events.Event) error {
	if !n.templates.Has(ev.Name) {
		return nil
	}

	var errs []error
	for _, r := range ev.Recipients {
		if r.Email == "" {
			continue
		}
		data := TemplateData{"Name": r.Name}
		for k, v := range ev.Data {
			data[k] = v
		}

		subject, body, err := n.templates.Render(ev.Name, data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := n.mailer.Send(ctx, &Message{To: r.Email, ToName: r.Name, Subject: subject, HTMLBody: body}); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.CtxDebug(ctx, "notification email sent", "event", ev.Name, "user_id", r.UserID)
	}
	return errors.Join(errs...)
}
