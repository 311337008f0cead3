package domain

import "time"

// Event types
const (
	EventTypeImportCompleted    = "import.completed"
	EventTypeDivergenceDetected = "import.divergence_detected"
)

// AggregateTypeImportBatch groups events by the batch that produced them.
const AggregateTypeImportBatch = "import_batch"

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// ImportCompletedEvent payload
type ImportCompletedEvent struct {
	BatchID         string `json:"batch_id"`
	ProjectID       string `json:"project_id"`
	SourceFileName  string `json:"source_file_name"`
	Imported        int    `json:"imported"`
	Reconciled      int    `json:"reconciled"`
	Divergent       int    `json:"divergent"`
	NewTransactions int    `json:"new_transactions"`
	Skipped         int    `json:"skipped"`
	Errored         int    `json:"errored"`
	NetTotal        string `json:"net_total"`
	EventAt         string `json:"event_at"`
}

// DivergenceDetectedEvent payload
type DivergenceDetectedEvent struct {
	BatchID       string `json:"batch_id"`
	ProjectID     string `json:"project_id"`
	TransactionID string `json:"transaction_id"`
	CSVNet        string `json:"csv_net"`
	WebhookNet    string `json:"webhook_net"`
	Difference    string `json:"difference"`
	Severity      string `json:"severity"`
}
