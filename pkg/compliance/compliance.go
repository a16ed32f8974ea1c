/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package compliance tracks per-identity regulatory sub-records (GDPR, CCPA,
// HIPAA, SOX plus free-form custom entries) and scores them through audits.
// The engine is pure state transformation; persistence belongs to the caller.
package compliance

import (
	"time"

	"github.com/google/uuid"

	"github.com/trustbloc/identity-hub/pkg/huberrors"
)

// Regulation identifies a compliance sub-record.
type Regulation string

// Supported regulations.
const (
	RegulationGDPR   Regulation = "gdpr"
	RegulationCCPA   Regulation = "ccpa"
	RegulationHIPAA  Regulation = "hipaa"
	RegulationSOX    Regulation = "sox"
	RegulationCustom Regulation = "custom"
)

// AuditType selects which audit to perform. The comprehensive audit runs all
// four regulation audits and averages their scores.
type AuditType string

// Supported audit types.
const (
	AuditGDPR          AuditType = "gdpr"
	AuditCCPA          AuditType = "ccpa"
	AuditHIPAA         AuditType = "hipaa"
	AuditSOX           AuditType = "sox"
	AuditComprehensive AuditType = "comprehensive"
)

// Audit result statuses, derived from the audit score.
const (
	StatusExcellent         = "excellent"
	StatusGood              = "good"
	StatusAcceptable        = "acceptable"
	StatusRequiresAttention = "requires_attention"
)

// auditInterval is how long after an audit the next one falls due.
const auditIntervalDays = 90

// Data is the compliance state attached to one identity: at most one
// sub-record per regulation, optional custom entries, and the rolling audit
// history.
type Data struct {
	GDPR         *GDPR                        `json:"gdpr,omitempty"`
	CCPA         *CCPA                        `json:"ccpa,omitempty"`
	HIPAA        *HIPAA                       `json:"hipaa,omitempty"`
	SOX          *SOX                         `json:"sox,omitempty"`
	Custom       map[string]map[string]string `json:"custom,omitempty"`
	LastAudit    *time.Time                   `json:"lastAudit,omitempty"`
	NextAudit    *time.Time                   `json:"nextAudit,omitempty"`
	AuditResults []AuditResult                `json:"auditResults,omitempty"`
}

// GDPR is the EU General Data Protection Regulation sub-record.
type GDPR struct {
	LawfulBasis           string     `json:"lawfulBasis"`
	ConsentGiven          bool       `json:"consentGiven"`
	ConsentWithdrawn      bool       `json:"consentWithdrawn"`
	DataProcessingPurpose string     `json:"dataProcessingPurpose,omitempty"`
	RightToErasure        bool       `json:"rightToErasure"`
	RightToPortability    bool       `json:"rightToPortability"`
	ConsentDate           *time.Time `json:"consentDate,omitempty"`
}

// CCPA is the California Consumer Privacy Act sub-record.
type CCPA struct {
	OptOut             bool       `json:"optOut"`
	DataSaleProhibited bool       `json:"dataSaleProhibited"`
	RightToDelete      bool       `json:"rightToDelete"`
	RightToKnow        bool       `json:"rightToKnow"`
	OptOutDate         *time.Time `json:"optOutDate,omitempty"`
}

// HIPAA is the US Health Insurance Portability and Accountability Act sub-record.
type HIPAA struct {
	CoveredEntity      bool `json:"coveredEntity"`
	BusinessAssociate  bool `json:"businessAssociate"`
	PHIProcessed       bool `json:"phiProcessed"`
	SecurityRule       bool `json:"securityRule"`
	PrivacyRule        bool `json:"privacyRule"`
	BreachNotification bool `json:"breachNotification"`
}

// SOX is the US Sarbanes-Oxley Act sub-record.
type SOX struct {
	PublicCompany       bool `json:"publicCompany"`
	FinancialReporting  bool `json:"financialReporting"`
	InternalControls    bool `json:"internalControls"`
	AuditorIndependence bool `json:"auditorIndependence"`
}

// AuditResult is one completed audit in the rolling history.
type AuditResult struct {
	AuditID      string     `json:"auditId"`
	AuditType    AuditType  `json:"auditType"`
	Status       string     `json:"status"`
	Score        int        `json:"score"`
	Findings     []string   `json:"findings"`
	Remediation  []string   `json:"remediation"`
	AuditDate    time.Time  `json:"auditDate"`
	NextAuditDue *time.Time `json:"nextAuditDue,omitempty"`
}

// Update carries exactly one regulation sub-record to overwrite on an
// identity's compliance data. The field matching Regulation must be set;
// custom updates also need a name.
type Update struct {
	Regulation Regulation        `json:"regulation"`
	GDPR       *GDPR             `json:"gdpr,omitempty"`
	CCPA       *CCPA             `json:"ccpa,omitempty"`
	HIPAA      *HIPAA            `json:"hipaa,omitempty"`
	SOX        *SOX              `json:"sox,omitempty"`
	CustomName string            `json:"customName,omitempty"`
	Custom     map[string]string `json:"custom,omitempty"`
}

// Engine applies compliance updates and performs audits.
type Engine struct {
	errs *huberrors.Catalog
}

// NewEngine returns a compliance engine.
func NewEngine() *Engine {
	return &Engine{errs: huberrors.NewCatalog("compliance")}
}

// UpdateData overwrites the single sub-record the update names, leaving every
// other sub-record and the audit history untouched.
func (e *Engine) UpdateData(data *Data, update *Update) error {
	const op = "UpdateComplianceData"

	switch update.Regulation {
	case RegulationGDPR:
		if update.GDPR == nil {
			return e.errs.Errf(op, huberrors.CodeInvalidComplianceType, "no gdpr record supplied")
		}

		data.GDPR = update.GDPR
	case RegulationCCPA:
		if update.CCPA == nil {
			return e.errs.Errf(op, huberrors.CodeInvalidComplianceType, "no ccpa record supplied")
		}

		data.CCPA = update.CCPA
	case RegulationHIPAA:
		if update.HIPAA == nil {
			return e.errs.Errf(op, huberrors.CodeInvalidComplianceType, "no hipaa record supplied")
		}

		data.HIPAA = update.HIPAA
	case RegulationSOX:
		if update.SOX == nil {
			return e.errs.Errf(op, huberrors.CodeInvalidComplianceType, "no sox record supplied")
		}

		data.SOX = update.SOX
	case RegulationCustom:
		if update.CustomName == "" || update.Custom == nil {
			return e.errs.Errf(op, huberrors.CodeInvalidComplianceType,
				"custom updates need a name and a record")
		}

		if data.Custom == nil {
			data.Custom = map[string]map[string]string{}
		}

		data.Custom[update.CustomName] = update.Custom
	default:
		return e.errs.Errf(op, huberrors.CodeInvalidComplianceType, "%s", update.Regulation)
	}

	return nil
}

// PerformAudit scores data against the named audit type, appends the result to
// the rolling history, and schedules the next audit 90 days out. The returned
// result is the appended entry.
func (e *Engine) PerformAudit(data *Data, auditType AuditType, now time.Time) (*AuditResult, error) {
	const op = "PerformAudit"

	result := &AuditResult{
		AuditID:     uuid.New().String(),
		AuditType:   auditType,
		Score:       0,
		Findings:    make([]string, 0),
		Remediation: make([]string, 0),
		AuditDate:   now,
	}

	switch auditType {
	case AuditGDPR:
		result.Score += auditGDPR(data, result)
	case AuditCCPA:
		result.Score += auditCCPA(data, result)
	case AuditHIPAA:
		result.Score += auditHIPAA(data, result)
	case AuditSOX:
		result.Score += auditSOX(data, result)
	case AuditComprehensive:
		result.Score += auditGDPR(data, result)
		result.Score += auditCCPA(data, result)
		result.Score += auditHIPAA(data, result)
		result.Score += auditSOX(data, result)
		result.Score /= 4
	default:
		return nil, e.errs.Errf(op, huberrors.CodeInvalidAuditType, "%s", auditType)
	}

	switch {
	case result.Score >= 90:
		result.Status = StatusExcellent
	case result.Score >= 75:
		result.Status = StatusGood
	case result.Score >= 60:
		result.Status = StatusAcceptable
	default:
		result.Status = StatusRequiresAttention
	}

	nextDue := now.AddDate(0, 0, auditIntervalDays)
	result.NextAuditDue = &nextDue

	data.AuditResults = append(data.AuditResults, *result)
	data.LastAudit = &now
	data.NextAudit = &nextDue

	return result, nil
}

func auditGDPR(data *Data, result *AuditResult) int {
	score := 100

	if data.GDPR == nil {
		result.addFinding("GDPR compliance data not initialized", "Initialize GDPR compliance data")

		return score - 20
	}

	if !data.GDPR.ConsentGiven {
		result.addFinding("User consent not properly documented", "Obtain and document proper user consent")

		score -= 15
	}

	if data.GDPR.LawfulBasis == "" {
		result.addFinding("Lawful basis for processing not specified", "Document lawful basis for data processing")

		score -= 10
	}

	if !data.GDPR.RightToErasure {
		result.addFinding("Right to erasure not implemented", "Implement right to erasure functionality")

		score -= 10
	}

	return score
}

func auditCCPA(data *Data, result *AuditResult) int {
	score := 100

	if data.CCPA == nil {
		result.addFinding("CCPA compliance data not initialized", "Initialize CCPA compliance data")

		return score - 20
	}

	if !data.CCPA.RightToDelete {
		result.addFinding("Right to delete not implemented", "Implement right to delete functionality")

		score -= 15
	}

	if !data.CCPA.RightToKnow {
		result.addFinding("Right to know not implemented", "Implement right to know functionality")

		score -= 10
	}

	return score
}

func auditHIPAA(data *Data, result *AuditResult) int {
	score := 100

	if data.HIPAA == nil {
		// Less critical when no health data is handled.
		result.addFinding("HIPAA compliance data not initialized",
			"Initialize HIPAA compliance data if handling PHI")

		return score - 10
	}

	if data.HIPAA.PHIProcessed && !data.HIPAA.SecurityRule {
		result.addFinding("HIPAA Security Rule not implemented while processing PHI",
			"Implement HIPAA Security Rule compliance")

		score -= 25
	}

	if data.HIPAA.PHIProcessed && !data.HIPAA.PrivacyRule {
		result.addFinding("HIPAA Privacy Rule not implemented while processing PHI",
			"Implement HIPAA Privacy Rule compliance")

		score -= 25
	}

	return score
}

func auditSOX(data *Data, result *AuditResult) int {
	score := 100

	if data.SOX == nil {
		// Least critical: most identities are not reporting entities.
		result.addFinding("SOX compliance data not initialized", "Initialize SOX compliance data if applicable")

		return score - 5
	}

	if data.SOX.PublicCompany && !data.SOX.InternalControls {
		result.addFinding("Internal controls not implemented for public company", "Implement SOX internal controls")

		score -= 20
	}

	if data.SOX.FinancialReporting && !data.SOX.AuditorIndependence {
		result.addFinding("Auditor independence not maintained", "Ensure auditor independence compliance")

		score -= 15
	}

	return score
}

func (r *AuditResult) addFinding(finding, remediation string) {
	r.Findings = append(r.Findings, finding)
	r.Remediation = append(r.Remediation, remediation)
}
