package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// statusTransitions lists the statuses reachable from each status.
// Cancelled and completed are terminal.
var statusTransitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: nil,
	StatusCancelled: nil,
}

// IsValidStatus reports whether status belongs to the consultation lifecycle.
func IsValidStatus(status string) bool {
	_, ok := statusTransitions[status]
	return ok
}

// CanTransition reports whether a consultation may move from one status to another.
// Re-applying the current status is always allowed.
func CanTransition(from, to string) bool {
	if !IsValidStatus(from) || !IsValidStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Statuses returns the lifecycle statuses in display order.
func Statuses() []string {
	return []string{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}
}

// Artifact categories double as storage folders.
const (
	CategoryRegistrations  = "registrations"
	CategoryPartners       = "partners"
	CategorySuccessStories = "success_stories"
)

// Owner types of stored artifacts.
const (
	OwnerRegistration = "registration"
	OwnerPartner      = "partner"
	OwnerStory        = "story"
)

const (
	// DefaultUploadsDir корень локального хранилища файлов
	DefaultUploadsDir = "uploads"

	// DefaultMaxUploadMB ограничение размера загружаемого файла
	DefaultMaxUploadMB = 5

	// NotificationTimeout время на одну отправку уведомления
	NotificationTimeout = 15 // секунд

	// ThrottleLimit количество заявок с одного адреса в окне
	ThrottleLimit = 5

	// ThrottleWindow окно ограничения частоты заявок
	ThrottleWindow = 10 * 60 // 10 минут в секундах
)
