package entity

import (
	"time"
)

// GuaranteeCaseStatus 质保工单状态
type GuaranteeCaseStatus string

const (
	CaseStatusOpen       GuaranteeCaseStatus = "OPEN"
	CaseStatusInProgress GuaranteeCaseStatus = "IN_PROGRESS"
	CaseStatusCompleted  GuaranteeCaseStatus = "COMPLETED"
	CaseStatusRejected   GuaranteeCaseStatus = "REJECTED"
)

var caseTransitions = map[GuaranteeCaseStatus][]GuaranteeCaseStatus{
	CaseStatusOpen:       {CaseStatusInProgress, CaseStatusRejected},
	CaseStatusInProgress: {CaseStatusCompleted, CaseStatusRejected},
}

// CanTransition 判断工单状态是否允许迁移
func (s GuaranteeCaseStatus) CanTransition(to GuaranteeCaseStatus) bool {
	for _, n := range caseTransitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

// CaseLineStatus 维修明细行状态
type CaseLineStatus string

const (
	CaseLineStatusDraft     CaseLineStatus = "DRAFT"
	CaseLineStatusDiagnosed CaseLineStatus = "DIAGNOSED"
	CaseLineStatusApproved  CaseLineStatus = "APPROVED"
	CaseLineStatusInRepair  CaseLineStatus = "IN_REPAIR"
	CaseLineStatusCompleted CaseLineStatus = "COMPLETED"
	CaseLineStatusRejected  CaseLineStatus = "REJECTED"
)

var caseLineTransitions = map[CaseLineStatus][]CaseLineStatus{
	CaseLineStatusDraft:     {CaseLineStatusDiagnosed},
	CaseLineStatusDiagnosed: {CaseLineStatusApproved, CaseLineStatusRejected},
	CaseLineStatusApproved:  {CaseLineStatusInRepair, CaseLineStatusRejected},
	CaseLineStatusInRepair:  {CaseLineStatusCompleted},
}

// CanTransition 判断明细行状态是否允许迁移
func (s CaseLineStatus) CanTransition(to CaseLineStatus) bool {
	for _, n := range caseLineTransitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

// VehicleProcessingRecord 车辆进场处理记录
type VehicleProcessingRecord struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	VehicleID       string     `json:"vehicle_id" gorm:"type:uuid;not null;index"`
	ServiceCenterID string     `json:"service_center_id" gorm:"type:uuid;not null;index"`
	CheckedInBy     string     `json:"checked_in_by" gorm:"type:uuid;not null"`
	Odometer        int        `json:"odometer"`
	Status          string     `json:"status" gorm:"size:20;not null;default:CHECKED_IN"`
	Notes           string     `json:"notes" gorm:"type:text"`
	CheckedInAt     time.Time  `json:"checked_in_at"`
	CheckedOutAt    *time.Time `json:"checked_out_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Vehicle        *Vehicle        `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
	GuaranteeCases []GuaranteeCase `json:"guarantee_cases,omitempty" gorm:"foreignKey:VehicleProcessingRecordID"`
}

func (VehicleProcessingRecord) TableName() string {
	return "vehicle_processing_records"
}

// GuaranteeCase 质保工单
type GuaranteeCase struct {
	ID                        string              `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code                      string              `json:"code" gorm:"size:50;not null;uniqueIndex"`
	VehicleProcessingRecordID string              `json:"vehicle_processing_record_id" gorm:"type:uuid;not null;index"`
	Title                     string              `json:"title" gorm:"size:256;not null"`
	Description               string              `json:"description" gorm:"type:text"`
	Status                    GuaranteeCaseStatus `json:"status" gorm:"size:20;not null;default:OPEN"`
	CreatedBy                 string              `json:"created_by" gorm:"type:uuid;not null"`
	CompletedAt               *time.Time          `json:"completed_at"`
	CreatedAt                 time.Time           `json:"created_at"`
	UpdatedAt                 time.Time           `json:"updated_at"`

	Record    *VehicleProcessingRecord `json:"record,omitempty" gorm:"foreignKey:VehicleProcessingRecordID"`
	CaseLines []CaseLine               `json:"case_lines,omitempty" gorm:"foreignKey:GuaranteeCaseID"`
}

func (GuaranteeCase) TableName() string {
	return "guarantee_cases"
}

// CaseLine 维修明细行
type CaseLine struct {
	ID               string         `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	GuaranteeCaseID  string         `json:"guarantee_case_id" gorm:"type:uuid;not null;index"`
	Diagnosis        string         `json:"diagnosis" gorm:"type:text"`
	RepairPlan       string         `json:"repair_plan" gorm:"type:text"`
	TypeComponentID  string         `json:"type_component_id" gorm:"size:36;index"`
	Quantity         int            `json:"quantity" gorm:"not null;default:1"`
	WarrantyEligible *bool          `json:"warranty_eligible"`
	RejectionReason  string         `json:"rejection_reason" gorm:"type:text"`
	AssignedTechID   string         `json:"assigned_tech_id" gorm:"size:36;index"`
	Status           CaseLineStatus `json:"status" gorm:"size:20;not null;default:DRAFT"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	GuaranteeCase *GuaranteeCase       `json:"guarantee_case,omitempty" gorm:"foreignKey:GuaranteeCaseID"`
	TypeComponent *TypeComponent       `json:"type_component,omitempty" gorm:"foreignKey:TypeComponentID"`
	Attachments   []CaseLineAttachment `json:"attachments,omitempty" gorm:"foreignKey:CaseLineID"`
}

func (CaseLine) TableName() string {
	return "case_lines"
}

// CaseLineAttachment 明细行附件（照片等，对象存储键）
type CaseLineAttachment struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CaseLineID  string    `json:"case_line_id" gorm:"type:uuid;not null;index"`
	FileName    string    `json:"file_name" gorm:"size:256;not null"`
	ObjectKey   string    `json:"object_key" gorm:"size:512;not null"`
	ContentType string    `json:"content_type" gorm:"size:128"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedBy  string    `json:"uploaded_by" gorm:"type:uuid;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (CaseLineAttachment) TableName() string {
	return "case_line_attachments"
}
