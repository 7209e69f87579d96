package models

import "time"

// Audit entry status values.
const (
	AuditStatusSuccess = "sucesso"
	AuditStatusError   = "erro"
)

// AuditLogEntry is a single audit record. Append-only: no UPDATE or DELETE
// on audit records.
type AuditLogEntry struct {
	ID            string    `json:"id,omitempty" db:"id"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
	Username      string    `json:"usuario" db:"usuario"`
	Action        string    `json:"acao" db:"acao"`
	Description   string    `json:"descricao" db:"descricao"`
	Status        string    `json:"status" db:"status"` // sucesso | erro
	SensitiveData bool      `json:"dados_senseis" db:"dados_senseis"`
}
