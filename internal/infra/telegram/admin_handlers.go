package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"obligation_reminder_bot/internal/app"
	"obligation_reminder_bot/internal/domain/notification"
	"obligation_reminder_bot/internal/domain/owner"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const unauthorizedReply = "Error: no tienes permiso para ejecutar este comando."

type addOwnerArgs struct {
	TelegramID int64
	Name       string
	MaxActive  int // 0 applies the default plan limit
}

// parseAddOwnerArgs expects: <TelegramID> <Name...> [limit]. A trailing
// number is taken as the plan limit.
func parseAddOwnerArgs(args []string) (addOwnerArgs, error) {
	var out addOwnerArgs
	if len(args) < 2 {
		return out, errors.New("uso: /add_owner <TelegramID> <Nombre> [límite]")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return out, errors.New("el Telegram ID debe ser un número")
	}
	out.TelegramID = id

	nameParts := args[1:]
	if len(nameParts) > 1 {
		if limit, err := strconv.Atoi(nameParts[len(nameParts)-1]); err == nil {
			if limit <= 0 {
				return out, errors.New("el límite debe ser mayor que cero")
			}
			out.MaxActive = limit
			nameParts = nameParts[:len(nameParts)-1]
		}
	}
	out.Name = strings.TrimSpace(strings.Join(nameParts, " "))
	if out.Name == "" {
		return out, errors.New("el nombre no puede estar vacío")
	}
	return out, nil
}

// RegisterAdminHandlers registers handlers for admin commands.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, checker app.DailyChecker, adminTelegramID int64, baseLogger *logrus.Entry) {
	b.Handle("/add_owner", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/add_owner",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		parsed, err := parseAddOwnerArgs(c.Args())
		if err != nil {
			handlerLogger.WithError(err).Warn("Invalid command format")
			return c.Send("Error: " + err.Error())
		}
		handlerLogger = handlerLogger.WithFields(logrus.Fields{
			"owner_telegram_id": parsed.TelegramID,
			"max_active":        parsed.MaxActive,
		})

		newOwner, err := adminService.AddOwner(ctx, c.Sender().ID, parsed.TelegramID, parsed.Name, parsed.MaxActive)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, app.ErrAdminNotAuthorized):
				logWithError.Warn("Admin not authorized (service level)")
				return c.Send(unauthorizedReply)
			case errors.Is(err, app.ErrOwnerAlreadyExists):
				logWithError.Warn("Owner already exists")
				return c.Send(fmt.Sprintf("Error: ya existe un usuario con Telegram ID %d.", parsed.TelegramID))
			default:
				logWithError.Error("Failed to add owner")
				return c.Send("Ocurrió un error al registrar al usuario.")
			}
		}

		handlerLogger.WithField("new_owner_id", newOwner.ID).Info("Owner added successfully")
		return c.Send(fmt.Sprintf("Usuario %s (ID: %d) registrado con límite de %d tarjetas.", newOwner.Name, newOwner.TelegramID, newOwner.MaxActiveObligations))
	})

	b.Handle("/set_plan", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/set_plan",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		args := c.Args()
		if len(args) != 2 {
			return c.Send("Uso: /set_plan <TelegramID> <límite>")
		}
		telegramID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Send("Error: el Telegram ID debe ser un número.")
		}
		limit, err := strconv.Atoi(args[1])
		if err != nil || limit <= 0 {
			return c.Send("Error: el límite debe ser un número mayor que cero.")
		}

		updated, err := adminService.SetPlanLimit(ctx, c.Sender().ID, telegramID, limit)
		if err != nil {
			if errors.Is(err, owner.ErrOwnerNotFound) {
				return c.Send(fmt.Sprintf("No existe un usuario con Telegram ID %d.", telegramID))
			}
			handlerLogger.WithError(err).Error("Failed to set plan limit")
			return c.Send("Ocurrió un error al actualizar el plan.")
		}
		handlerLogger.WithFields(logrus.Fields{
			"owner_id":   updated.ID,
			"max_active": limit,
		}).Info("Plan limit updated")
		return c.Send(fmt.Sprintf("Ahora %s puede tener hasta %d tarjetas activas.", updated.Name, updated.MaxActiveObligations))
	})

	b.Handle("/owners", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/owners",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		owners, err := adminService.ListOwners(ctx, c.Sender().ID)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to list owners")
			return c.Send("Ocurrió un error al obtener la lista de usuarios.")
		}
		if len(owners) == 0 {
			return c.Send("No hay usuarios registrados.")
		}

		var response strings.Builder
		response.WriteString("--- Usuarios ---\n")
		for _, o := range owners {
			response.WriteString(fmt.Sprintf("%s, Telegram ID: %d, límite: %d\n", o.Name, o.TelegramID, o.MaxActiveObligations))
		}
		return c.Send(response.String())
	})

	b.Handle("/run_check", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/run_check",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		handlerLogger.Info("Manual daily check requested")
		report, err := checker.RunDailyCheck(ctx, time.Now())
		if err != nil {
			handlerLogger.WithError(err).Error("Manual daily check failed")
			return c.Send(fmt.Sprintf("La revisión falló: %v", err))
		}
		return c.Send(formatReport(report))
	})
}

func formatReport(r *notification.Report) string {
	return fmt.Sprintf("Revisión del %s: %d tarjetas, %d con corte hoy, %d avisos enviados, %d fallidos, %d ya enviados, %d reiniciadas, %d inválidas.",
		r.Date, r.Fetched, r.Matched, r.Notified, r.Failed, r.Skipped, r.Reset, r.Malformed)
}
