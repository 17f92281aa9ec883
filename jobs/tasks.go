package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBalanceRefresh recomputes and stores the advisory
	// current_balance column for a company's ledgers.
	TaskBalanceRefresh = "balances:refresh"
)

// BalanceRefreshPayload scopes a refresh run. An empty CompanyID means
// every company.
type BalanceRefreshPayload struct {
	CompanyID uuid.UUID `json:"company_id"`
}

// NewBalanceRefreshTask constructs the refresh task.
func NewBalanceRefreshTask(companyID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(BalanceRefreshPayload{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBalanceRefresh, data), nil
}
