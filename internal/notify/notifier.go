package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/psicopps/ppsadmin/internal/model"
	"github.com/psicopps/ppsadmin/internal/store"
)

// SelectionNotifier tells a student they were selected for an internship,
// over web push and email. Either channel may be absent; whichever channels
// exist are all attempted and the first hard failure is returned.
type SelectionNotifier struct {
	push   *PushService
	email  *EmailClient
	subs   *store.PushStore
	logger *slog.Logger
}

func NewSelectionNotifier(push *PushService, email *EmailClient, subs *store.PushStore, logger *slog.Logger) *SelectionNotifier {
	return &SelectionNotifier{
		push:   push,
		email:  email,
		subs:   subs,
		logger: logger,
	}
}

// NotifySelection implements seleccion.Notifier.
func (n *SelectionNotifier) NotifySelection(ctx context.Context, student model.Student, launch model.Launch, schedule string) error {
	title := "¡Fuiste seleccionado para una PPS!"
	body := fmt.Sprintf("Fuiste seleccionado para la PPS %q (%s). Horario: %s.",
		launch.NombrePPS, launch.Orientacion, schedule)

	var firstErr error

	if n.push != nil {
		subs, err := n.subs.ListByStudent(student.ID)
		if err != nil {
			firstErr = fmt.Errorf("list push subscriptions: %w", err)
		}
		for i := range subs {
			sub := &subs[i]
			err := n.push.Send(ctx, sub, Payload{
				Title: title,
				Body:  body,
				Tag:   fmt.Sprintf("seleccion-%d", launch.ID),
			})
			if errors.Is(err, ErrExpired) {
				if delErr := n.subs.DeleteByEndpoint(sub.Endpoint); delErr != nil {
					n.logger.Error("drop expired subscription", "error", delErr)
				}
				continue
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	if n.email != nil && n.email.Enabled() && student.Correo != "" {
		if err := n.email.Send(ctx, student.Correo, title, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
