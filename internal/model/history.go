package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunRecord is one persisted invocation.
type RunRecord struct {
	ID           string              `gorm:"type:char(36);primaryKey" json:"id"`
	StartedAt    time.Time           `gorm:"index;not null" json:"started_at"`
	FinishedAt   time.Time           `json:"finished_at"`
	Files        int                 `json:"files"`
	Units        int                 `json:"units"`
	AsIs         int                 `json:"as_is"`
	RuleFixed    int                 `json:"rule_fixed"`
	AiConverted  int                 `json:"ai_converted"`
	Failed       int                 `json:"failed"`
	Dispositions []DispositionRecord `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"dispositions,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// TableName returns the table name for the RunRecord model
func (RunRecord) TableName() string {
	return "translation_runs"
}

// BeforeCreate generates a new UUID if ID is empty
func (r *RunRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// DispositionRecord is one persisted unit result.
type DispositionRecord struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	RunID           string  `gorm:"type:char(36);index;not null" json:"run_id"`
	File            string  `gorm:"size:1024;not null" json:"file"`
	Unit            string  `gorm:"size:255;not null" json:"unit"`
	Dialect         Dialect `gorm:"size:16" json:"dialect"`
	Outcome         string  `gorm:"type:enum('AS_IS','AUTO_FIXED','AI_CONVERTED','FAILED');index;not null" json:"outcome"`
	SourceText      string  `gorm:"type:mediumtext" json:"source_text"`
	FinalText       string  `gorm:"type:mediumtext" json:"final_text"`
	Notes           string  `gorm:"type:text" json:"notes"`
	LastDiagnostic  string  `gorm:"type:text" json:"last_diagnostic"`
	OracleCalls     int     `json:"oracle_calls"`
	GenerativeCalls int     `json:"generative_calls"`
}

// TableName returns the table name for the DispositionRecord model
func (DispositionRecord) TableName() string {
	return "translation_dispositions"
}

// NewRunRecord flattens a run report into its history rows.
func NewRunRecord(run RunReport) *RunRecord {
	rec := &RunRecord{
		ID:         run.RunID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Files:      len(run.Files),
	}
	for _, f := range run.Files {
		for _, d := range f.Dispositions {
			rec.Units++
			switch d.Outcome {
			case OutcomeAsIs:
				rec.AsIs++
			case OutcomeRuleFixed:
				rec.RuleFixed++
			case OutcomeAiConverted:
				rec.AiConverted++
			case OutcomeFailed:
				rec.Failed++
			}
			rec.Dispositions = append(rec.Dispositions, DispositionRecord{
				File:            f.Path,
				Unit:            d.Unit.Identifier,
				Dialect:         f.Dialect,
				Outcome:         d.Outcome.String(),
				SourceText:      d.Unit.SourceText,
				FinalText:       d.FinalText,
				Notes:           strings.Join(d.Notes, "\n"),
				LastDiagnostic:  d.LastDiagnostic,
				OracleCalls:     d.OracleCalls,
				GenerativeCalls: d.GenerativeCalls,
			})
		}
	}
	return rec
}
