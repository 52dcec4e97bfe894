package model

import (
	"time"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/enums"
)

type Audit struct {
	ID        string            `json:"id"`
	SpaceID   int64             `json:"space_id"`
	Action    enums.AuditAction `json:"action"`
	Detail    string            `json:"detail"`
	CreatedAt time.Time         `json:"created_at"`
}
