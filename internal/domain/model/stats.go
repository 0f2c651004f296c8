package model

// Stats is a point-in-time view of the activity service.
type Stats struct {
	Started         bool  `json:"started"`
	Activities      int   `json:"activities"`
	Participants    int   `json:"participants"`
	WorkerCount     int   `json:"worker_count"`
	QueueCapacity   int   `json:"queue_capacity"`
	QueueLength     int   `json:"queue_length"`
	JournalLength   int   `json:"journal_length"`
	JournalCapacity int   `json:"journal_capacity"`
	JournalTotal    int64 `json:"journal_total"`
}
