package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"sharemeal-platform/pkg/actor"
)

type Recorder struct {
	db   *gorm.DB
	node *snowflake.Node
}

type Params struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewRecorder(p Params) *Recorder {
	return &Recorder{
		db:   p.DB,
		node: p.Node,
	}
}

// Record appends an audit entry. A failed write never propagates to the
// caller; the primary operation has already committed and must stand.
func (r *Recorder) Record(ctx context.Context, a actor.Actor, action, subject string, detail any) {
	var payload datatypes.JSON
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			zap.L().Error("failed to marshal audit detail",
				zap.String("action", action),
				zap.String("subject", subject),
				zap.Error(err),
			)
			b = []byte("{}")
		}
		payload = datatypes.JSON(b)
	}

	entry := &Log{
		ID:        r.node.Generate().String(),
		ActorID:   a.ID,
		ActorRole: string(a.Role),
		Action:    action,
		Subject:   subject,
		Detail:    payload,
		CreatedAt: time.Now(),
	}

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		zap.L().Error("failed to append audit log",
			zap.String("action", action),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
