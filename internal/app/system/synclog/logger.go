// internal/app/system/synclog/logger.go
package synclog

import (
	"context"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/store/syncfailures"
	"github.com/mjwconsult/civicrm-groups-sync/internal/domain/models"
	"go.uber.org/zap"
)

// Modes control where failure records go.
// "all" writes MongoDB + zap, "db" MongoDB only, "log" zap only, "off" disables.
const (
	ModeAll = "all"
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Logger is the error sink for the sync engine. Counterpart mutation
// failures are never surfaced to the caller of the triggering event; they
// land here with enough context to repair the drift by hand or by sweep.
type Logger struct {
	store  *syncfailures.Store
	zapLog *zap.Logger
	mode   string
}

// New creates a Logger. store may be nil when mode never writes to the DB.
func New(store *syncfailures.Store, zapLog *zap.Logger, mode string) *Logger {
	if mode == "" {
		mode = ModeAll
	}
	return &Logger{store: store, zapLog: zapLog, mode: mode}
}

// Failure records one failed counterpart mutation.
func (l *Logger) Failure(ctx context.Context, f models.SyncFailure) {
	if l.mode == ModeOff {
		return
	}

	if l.mode == ModeAll || l.mode == ModeLog {
		l.toZap(f)
	}
	if (l.mode == ModeAll || l.mode == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, f); err != nil {
			// The failure log is best-effort; losing an entry must not
			// escalate into a failure of the sync operation itself.
			l.zapLog.Warn("sync-failure record not persisted", zap.Error(err))
		}
	}
}

func (l *Logger) toZap(f models.SyncFailure) {
	fields := []zap.Field{
		zap.String("operation", f.Operation),
		zap.String("error", f.Error),
	}
	if f.OpID != "" {
		fields = append(fields, zap.String("op_id", f.OpID))
	}
	if f.CRMGroupID != 0 {
		fields = append(fields, zap.Int64("crm_group_id", f.CRMGroupID))
	}
	if f.MemberGroupID != 0 {
		fields = append(fields, zap.Int64("member_group_id", f.MemberGroupID))
	}
	if f.ContactID != 0 {
		fields = append(fields, zap.Int64("contact_id", f.ContactID))
	}
	if f.UserID != 0 {
		fields = append(fields, zap.Int64("user_id", f.UserID))
	}
	l.zapLog.Error("sync failure", fields...)
}
