package audit

import (
	"os"
	"sync"
	"time"

	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/persistence"
	"github.com/chatflowhq/chatflow/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Writer appends audit rows off the request path. Ingress never blocks
// on it: a full queue drops the entry with a warning, a storage failure
// is logged and swallowed.
type Writer struct {
	storage   persistence.AuditLogStorage
	worker    *util.Worker
	collector *zap.Logger
}

func NewWriter(storage persistence.AuditLogStorage, fileName string, capacity int, wg *sync.WaitGroup) (*Writer, error) {
	if capacity <= 0 {
		capacity = 1024
	}
	w := &Writer{storage: storage}
	if fileName != "" {
		collector, err := newFileCollector(fileName)
		if err != nil {
			return nil, err
		}
		w.collector = collector
	}
	w.worker = util.NewWorker("audit-writer", wg, w.handle, capacity)
	return w, nil
}

func (w *Writer) Start() {
	w.worker.Start()
}

func (w *Writer) Stop() {
	w.worker.Stop()
}

// Record queues one audit entry; it never blocks the caller.
func (w *Writer) Record(entry model.AuditLogEntry) {
	if entry.Id == "" {
		entry.Id = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if !w.worker.TrySend(entry) {
		logger.Warn("audit queue full, dropping entry",
			zap.String("source", string(entry.Source)),
			zap.String("flowId", entry.FlowId))
	}
}

func (w *Writer) handle(task util.Task) error {
	entry := task.(model.AuditLogEntry)
	if w.collector != nil {
		w.collector.Info("inbound",
			zap.String("id", entry.Id),
			zap.String("source", string(entry.Source)),
			zap.String("method", entry.Method),
			zap.String("flowId", entry.FlowId),
			zap.String("nodeId", entry.NodeId),
			zap.Bool("sessionFound", entry.SessionFound),
			zap.Bool("flowMatched", entry.FlowMatched),
			zap.Int64("durationMs", entry.DurationMs),
			zap.String("error", entry.Error))
	}
	if err := w.storage.AppendAuditLog(entry); err != nil {
		logger.Error("error appending audit log", zap.Error(err))
	}
	return nil
}

func newFileCollector(fileName string) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = ""
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	writer := zapcore.AddSync(logFile)
	core := zapcore.NewTee(zapcore.NewCore(fileEncoder, writer, zapcore.InfoLevel))
	return zap.New(core), nil
}
