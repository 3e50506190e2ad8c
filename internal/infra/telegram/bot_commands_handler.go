// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"obligation_reminder_bot/internal/domain/owner"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	adminTelegramID int64,
	ownerRepo owner.Repository,
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID == adminTelegramID {
			logCtx.Info("User identified as Admin")
			return c.Send(fmt.Sprintf("¡Hola, administrador %s! Estoy listo. Usa /help para ver los comandos.", c.Sender().FirstName))
		}

		known, err := ownerRepo.GetByTelegramID(ctx, senderID)
		if err == nil {
			logCtx.WithField("owner_id", known.ID).Info("User identified as Owner")
			return c.Send(fmt.Sprintf("¡Hola, %s! Te avisaré el día de corte de cada una de tus tarjetas. Usa /help para ver cómo registrarlas.", known.Name))
		} else if !errors.Is(err, owner.ErrOwnerNotFound) {
			logCtx.WithError(err).Error("Error checking owner for /start command")
			return c.Send("Ocurrió un error al verificar tu cuenta. Intenta más tarde.")
		}

		logCtx.Info("User is unknown")
		return c.Send(fmt.Sprintf("¡Hola! Soy un bot de recordatorios de pago. Pide al administrador que te registre con tu ID de Telegram: %d", senderID))
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if senderID == adminTelegramID {
			logCtx.Info("User identified as Admin, sending admin help.")
			return c.Send(adminHelpText(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
		}

		_, err := ownerRepo.GetByTelegramID(ctx, senderID)
		if err == nil {
			return c.Send(ownerHelpText(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
		} else if !errors.Is(err, owner.ErrOwnerNotFound) {
			logCtx.WithError(err).Error("Error checking owner for /help command")
			return c.Send("Ocurrió un error al verificar tu cuenta. Intenta más tarde.")
		}

		logCtx.Info("User is unknown, sending restricted help.")
		return c.Send("No tienes comandos disponibles. Pide al administrador que te registre.")
	})
}

func adminHelpText() string {
	var helpText strings.Builder
	helpText.WriteString("Comandos de administrador:\n\n")
	helpText.WriteString("`/add_owner <TelegramID> <Nombre> [límite]`\n - Registrar un usuario.\n\n")
	helpText.WriteString("`/set_plan <TelegramID> <límite>`\n - Cambiar cuántas tarjetas activas puede tener.\n\n")
	helpText.WriteString("`/owners`\n - Listar usuarios registrados.\n\n")
	helpText.WriteString("`/run_check`\n - Ejecutar la revisión diaria ahora.\n\n")
	helpText.WriteString("`/help`\n - Mostrar este mensaje.")
	return helpText.String()
}

func ownerHelpText() string {
	var helpText strings.Builder
	helpText.WriteString("`/add <banco> <últimos 4> <día de corte> <días para pagar> [monthly|bimonthly|annually] [mes]`\n")
	helpText.WriteString(" - Registrar una tarjeta. Ejemplo: `/add Banorte 1234 10 20`\n\n")
	helpText.WriteString("`/cards`\n - Ver tus tarjetas con botones para marcarlas como pagadas, pausarlas o cerrarlas.\n\n")
	helpText.WriteString("`/help`\n - Mostrar este mensaje.")
	return helpText.String()
}
