// internal/infra/telegram/obligation_handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"obligation_reminder_bot/internal/app"
	"obligation_reminder_bot/internal/domain/obligation"
	"obligation_reminder_bot/internal/domain/owner"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Inline button identifiers. The callback payload is the obligation UUID.
const (
	btnPaidUnique   = "ob_paid"
	btnToggleUnique = "ob_toggle"
	btnCloseUnique  = "ob_close"
)

const addUsage = "Uso: /add <banco> <últimos 4> <día de corte> <días para pagar> [monthly|bimonthly|annually] [mes]"

// parseAddArgs expects: <title> <reference> <trigger_day> <offset_days> [frequency] [target_month].
// Range checks are left to the domain validator.
func parseAddArgs(args []string) (app.NewObligationInput, error) {
	var in app.NewObligationInput
	if len(args) < 4 || len(args) > 6 {
		return in, errors.New(addUsage)
	}
	in.Title = args[0]
	in.Reference = args[1]

	var err error
	if in.TriggerDay, err = strconv.Atoi(args[2]); err != nil {
		return in, errors.New("el día de corte debe ser un número")
	}
	if in.DeadlineOffsetDays, err = strconv.Atoi(args[3]); err != nil {
		return in, errors.New("los días para pagar deben ser un número")
	}

	in.Frequency = obligation.FrequencyMonthly
	if len(args) >= 5 {
		in.Frequency = obligation.Frequency(strings.ToLower(args[4]))
	}
	if len(args) == 6 {
		if in.TargetMonth, err = strconv.Atoi(args[5]); err != nil {
			return in, errors.New("el mes debe ser un número del 1 al 12")
		}
	}
	return in, nil
}

func renderCard(v app.ObligationView) string {
	o := v.Obligation
	var b strings.Builder
	b.WriteString("💳 " + o.Title)
	if o.Reference != "" {
		b.WriteString(" **** " + o.Reference)
	}
	b.WriteString(fmt.Sprintf("\nCorte: día %d · Pago: día %d", o.TriggerDay, o.DeadlineDay()))
	switch o.Frequency {
	case obligation.FrequencyBimonthly:
		b.WriteString(fmt.Sprintf(" · Bimestral (mes %d)", o.TargetMonth))
	case obligation.FrequencyAnnually:
		b.WriteString(fmt.Sprintf(" · Anual (mes %d)", o.TargetMonth))
	}
	b.WriteString("\n" + v.Grace.String())
	return b.String()
}

// planLimitMessage names the limit the service applied, which may be the
// default rather than the owner's stored value.
func planLimitMessage(err error) string {
	var limitErr *obligation.PlanLimitError
	if errors.As(err, &limitErr) {
		return fmt.Sprintf("Alcanzaste el límite de tu plan (%d tarjetas activas).", limitErr.Limit)
	}
	return "Alcanzaste el límite de tarjetas activas de tu plan."
}

func cardMarkup(o *obligation.Obligation) *telebot.ReplyMarkup {
	m := &telebot.ReplyMarkup{}
	if o.IsClosed() {
		return m
	}
	id := o.ID.String()
	toggleLabel := "⏸ Pausar"
	if o.Status == obligation.StatusPaused {
		toggleLabel = "▶️ Reanudar"
	}
	m.Inline(m.Row(
		m.Data("✅ Pagada", btnPaidUnique, id),
		m.Data(toggleLabel, btnToggleUnique, id),
		m.Data("🗑 Cerrar", btnCloseUnique, id),
	))
	return m
}

// RegisterObligationHandlers wires the owner-facing commands and the inline
// card buttons.
func RegisterObligationHandlers(ctx context.Context, b *telebot.Bot, obligationService *app.ObligationService, ownerRepo owner.Repository, baseLogger *logrus.Entry) {
	handlerGroupLogger := baseLogger.WithField("handler_group", "obligations")

	// resolveOwner replies on its own when the sender cannot act.
	resolveOwner := func(c telebot.Context, logCtx *logrus.Entry) (*owner.Owner, bool) {
		o, err := ownerRepo.GetByTelegramID(ctx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, owner.ErrOwnerNotFound) {
				logCtx.Info("Unregistered user")
				_ = c.Send("No estás registrado. Pide al administrador que te agregue.")
				return nil, false
			}
			logCtx.WithError(err).Error("Failed to look up owner")
			_ = c.Send("Ocurrió un error al verificar tu cuenta. Intenta más tarde.")
			return nil, false
		}
		return o, true
	}

	b.Handle("/add", func(c telebot.Context) error {
		logCtx := handlerGroupLogger.WithFields(logrus.Fields{"command": "/add", "sender_id": c.Sender().ID})
		ownr, ok := resolveOwner(c, logCtx)
		if !ok {
			return nil
		}

		in, err := parseAddArgs(c.Args())
		if err != nil {
			return c.Send(err.Error())
		}

		created, err := obligationService.Create(ctx, ownr.ID, in)
		if err != nil {
			switch {
			case errors.Is(err, obligation.ErrPlanLimitReached):
				return c.Send(planLimitMessage(err))
			case errors.Is(err, obligation.ErrMalformedObligation):
				return c.Send("Datos inválidos. " + addUsage)
			default:
				logCtx.WithError(err).Error("Failed to create obligation")
				return c.Send("Ocurrió un error al guardar la tarjeta.")
			}
		}
		view := obligationService.View(created)
		return c.Send("Tarjeta registrada.\n\n"+renderCard(view), cardMarkup(created))
	})

	b.Handle("/cards", func(c telebot.Context) error {
		logCtx := handlerGroupLogger.WithFields(logrus.Fields{"command": "/cards", "sender_id": c.Sender().ID})
		ownr, ok := resolveOwner(c, logCtx)
		if !ok {
			return nil
		}

		views, err := obligationService.ListForOwner(ctx, ownr.ID)
		if err != nil {
			logCtx.WithError(err).Error("Failed to list obligations")
			return c.Send("Ocurrió un error al obtener tus tarjetas.")
		}
		if len(views) == 0 {
			return c.Send("No tienes tarjetas registradas. Usa /add para agregar una.")
		}
		for _, v := range views {
			if err := c.Send(renderCard(v), cardMarkup(v.Obligation)); err != nil {
				logCtx.WithError(err).Warn("Failed to send card")
			}
		}
		return nil
	})

	type action func(ctx context.Context, ownerID, id uuid.UUID) (*obligation.Obligation, error)
	handleButton := func(unique, doneText string, act action) {
		b.Handle(&telebot.Btn{Unique: unique}, func(c telebot.Context) error {
			logCtx := handlerGroupLogger.WithFields(logrus.Fields{
				"callback":  unique,
				"sender_id": c.Sender().ID,
			})
			id, err := uuid.Parse(c.Callback().Data)
			if err != nil {
				logCtx.WithField("data", c.Callback().Data).Warn("Invalid callback payload")
				return c.Respond(&telebot.CallbackResponse{Text: "Acción inválida."})
			}
			ownr, ok := resolveOwner(c, logCtx)
			if !ok {
				return c.Respond()
			}

			updated, err := act(ctx, ownr.ID, id)
			if err != nil {
				switch {
				case errors.Is(err, obligation.ErrObligationClosed):
					return c.Respond(&telebot.CallbackResponse{Text: "Esta tarjeta ya está cerrada."})
				case errors.Is(err, obligation.ErrObligationNotFound):
					return c.Respond(&telebot.CallbackResponse{Text: "Tarjeta no encontrada."})
				default:
					logCtx.WithError(err).Error("Failed to apply card action")
					return c.Respond(&telebot.CallbackResponse{Text: "Ocurrió un error."})
				}
			}

			if err := c.Edit(renderCard(obligationService.View(updated)), cardMarkup(updated)); err != nil {
				logCtx.WithError(err).Warn("Failed to refresh card message")
			}
			return c.Respond(&telebot.CallbackResponse{Text: doneText})
		})
	}

	handleButton(btnPaidUnique, "Marcada como pagada", obligationService.MarkPaid)
	handleButton(btnToggleUnique, "Estado actualizado", obligationService.Toggle)
	handleButton(btnCloseUnique, "Tarjeta cerrada", obligationService.Close)
}
