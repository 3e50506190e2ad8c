package obligation

import "fmt"

// GraceKind classifies where an obligation stands relative to its payment deadline.
type GraceKind string

const (
	GracePaid          GraceKind = "PAID"
	GraceDaysRemaining GraceKind = "DAYS_REMAINING"
	GraceDueToday      GraceKind = "DUE_TODAY"
	GraceOverdue       GraceKind = "OVERDUE"
	GracePaused        GraceKind = "PAUSED"
	GraceClosed        GraceKind = "CLOSED"
)

// Grace is presentation input; computing it never changes the obligation.
type Grace struct {
	Kind          GraceKind
	DaysRemaining int // set only for GraceDaysRemaining
}

// GraceStateOf computes the deadline state for today's day of month. The
// arithmetic stays within one month, so a deadline past month end is never
// wrapped into the next month.
func GraceStateOf(o *Obligation, todayDay int) Grace {
	switch {
	case o.Status == StatusClosed:
		return Grace{Kind: GraceClosed}
	case o.Status == StatusPaused:
		return Grace{Kind: GracePaused}
	case o.IsPaidCurrentCycle:
		return Grace{Kind: GracePaid}
	}

	remaining := o.DeadlineDay() - todayDay
	switch {
	case remaining > 0:
		return Grace{Kind: GraceDaysRemaining, DaysRemaining: remaining}
	case remaining == 0:
		return Grace{Kind: GraceDueToday}
	default:
		return Grace{Kind: GraceOverdue}
	}
}

func (g Grace) String() string {
	switch g.Kind {
	case GracePaused:
		return "⏸ Pausada"
	case GracePaid:
		return "✅ Ciclo pagado"
	case GraceDaysRemaining:
		return fmt.Sprintf("⏳ Faltan %d días para pago", g.DaysRemaining)
	case GraceDueToday:
		return "⚠️ ¡Hoy es el último día!"
	case GraceOverdue:
		return "❌ Pago vencido"
	case GraceClosed:
		return "Cerrada"
	default:
		return string(g.Kind)
	}
}
