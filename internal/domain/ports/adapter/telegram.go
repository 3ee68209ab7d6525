// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

// StaffNotifier pushes short check-in notices to the staff chat.
type StaffNotifier interface {
	Notify(ctx context.Context, text string) error
}
