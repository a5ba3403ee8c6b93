package analytics

import (
	"context"
	"os"

	"github.com/mohitkumar/autoflow/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogFileDataCollector struct {
	fileName string
	logFile  *os.File
	logger   *zap.Logger
}

func NewLogFileDataCollector(fileName string) (*LogFileDataCollector, error) {
	enccoderConfig := zap.NewProductionEncoderConfig()
	enccoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	enccoderConfig.StacktraceKey = ""
	enccoderConfig.CallerKey = ""
	fileEncoder := zapcore.NewJSONEncoder(enccoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	writer := zapcore.AddSync(logFile)
	core := zapcore.NewCore(fileEncoder, writer, zapcore.InfoLevel)
	return &LogFileDataCollector{
		fileName: fileName,
		logFile:  logFile,
		logger:   zap.New(core),
	}, nil
}

func (lc *LogFileDataCollector) Collect(ctx context.Context, event *model.ExecutionEvent) error {
	lc.logger.Info(string(event.Type),
		zap.String("id", event.Id),
		zap.String("workflowId", event.WorkflowId),
		zap.Time("timestamp", event.Timestamp),
		zap.Any("data", event.Data))
	return nil
}

func (lc *LogFileDataCollector) Close() error {
	lc.logger.Sync()
	return lc.logFile.Close()
}
