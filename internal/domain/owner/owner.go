package owner

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOwnerNotFound       = errors.New("owner not found")
	ErrDuplicateTelegramID = errors.New("owner with this Telegram ID already exists")
)

// DefaultMaxActiveObligations applies when an owner is registered without a plan limit.
const DefaultMaxActiveObligations = 5

// Owner is the principal that obligations belong to, reachable over Telegram.
type Owner struct {
	ID                   uuid.UUID
	TelegramID           int64
	Name                 string
	MaxActiveObligations int // plan limit on non-closed active obligations
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Recipient is the identifier notifications are addressed to.
func (o *Owner) Recipient() string {
	return strconv.FormatInt(o.TelegramID, 10)
}
