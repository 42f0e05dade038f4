/*Package events publishes resource change notifications.

Every successful create, update or delete on a collection produces a
notification. Delivery is best-effort: a failed publish is logged and
never fails the request that caused it.
*/
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Operation is a modifying backend storage operation
type Operation string

// all notified operations
const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Notification describes a single resource change
type Notification struct {
	Resource   string    `json:"resource"`
	Operation  Operation `json:"operation"`
	ResourceID uuid.UUID `json:"resource_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notifier delivers resource change notifications
type Notifier interface {
	Notify(ctx context.Context, notification Notification)
	Close() error
}

// NopNotifier swallows all notifications. It is used when no broker is
// configured.
type NopNotifier struct{}

// Notify implements the Notifier interface
func (NopNotifier) Notify(ctx context.Context, notification Notification) {}

// Close implements the Notifier interface
func (NopNotifier) Close() error { return nil }
