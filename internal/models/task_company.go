package models

import "time"

type Status string

const (
	StatusPending    Status = "PENDENTE"
	StatusProcessing Status = "PROCESSANDO"
	StatusFinished   Status = "FINALIZADO"
	StatusError      Status = "ERRO"

	// Reserved for manual intervention flows. Never produced or consumed
	// by the pipeline today.
	StatusConsult   Status = "CONSULTAR"
	StatusCancelled Status = "CANCELADA"
)

// TaskCompany pairs a task with a company and carries the lifecycle of one
// requested run. Only the latest pairing per (task, company) matters for
// scheduling; older rows are kept as history. The opaque params exist for
// task-specific customization (version, model, a provider token, ...).
type TaskCompany struct {
	ID        uint64 `gorm:"column:id;primaryKey"`
	TaskID    uint   `gorm:"column:task_id"`
	CompanyID uint   `gorm:"column:company_id"`

	ParamNote *string `gorm:"column:param_note"`
	Param01   *string `gorm:"column:param_01"`
	Param02   *string `gorm:"column:param_02"`
	Param03   *string `gorm:"column:param_03"`
	Param04   *string `gorm:"column:param_04"`
	Param05   *string `gorm:"column:param_05"`
	Param06   *string `gorm:"column:param_06"`
	Param07   *string `gorm:"column:param_07"`
	Param08   *string `gorm:"column:param_08"`
	Param09   *string `gorm:"column:param_09"`
	Param10   *string `gorm:"column:param_10"`
	Param11   *string `gorm:"column:param_11"`
	Param12   *string `gorm:"column:param_12"`
	Param13   *string `gorm:"column:param_13"`
	Param14   *string `gorm:"column:param_14"`
	Param15   *string `gorm:"column:param_15"`

	Feedback *string `gorm:"column:feedback"`
	Error    *string `gorm:"column:error"`
	Status   Status  `gorm:"column:status"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (TaskCompany) TableName() string {
	return "task_company"
}

// QueueItem is one row of the vw_task_queue view: the latest pairing per
// (task, company) joined with the data the scheduler needs to run it.
type QueueItem struct {
	PairingID             uint64 `gorm:"column:pairing_id"`
	TaskID                uint   `gorm:"column:task_id"`
	CompanyID             uint   `gorm:"column:company_id"`
	MarketplaceMerchantID string `gorm:"column:marketplace_merchant_id"`
	Status                Status `gorm:"column:status"`
	Ready                 bool   `gorm:"column:ready"`
}
