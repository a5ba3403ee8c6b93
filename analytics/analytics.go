package analytics

import (
	"context"
	"fmt"

	"github.com/mohitkumar/autoflow/model"
	"github.com/mohitkumar/autoflow/persistence"
)

type DataCollectorType string

const STORE_DATA_COLLECTOR DataCollectorType = "store"
const LOG_FILE_DATA_COLLECTOR DataCollectorType = "file"

type DataCollectorConfig struct {
	FileName      string
	CollectorType DataCollectorType
}

// EventCollector is where execution events end up.
type EventCollector interface {
	Collect(ctx context.Context, event *model.ExecutionEvent) error
}

type storeCollector struct {
	storage persistence.EventStorage
}

func NewStoreCollector(storage persistence.EventStorage) EventCollector {
	return &storeCollector{storage: storage}
}

func (c *storeCollector) Collect(ctx context.Context, event *model.ExecutionEvent) error {
	return c.storage.AppendEvent(ctx, event)
}

func NewDataCollector(config DataCollectorConfig, storage persistence.EventStorage) (EventCollector, error) {
	switch config.CollectorType {
	case LOG_FILE_DATA_COLLECTOR:
		return NewLogFileDataCollector(config.FileName)
	case STORE_DATA_COLLECTOR, "":
		if storage == nil {
			return nil, fmt.Errorf("event storage is required for %s collector", STORE_DATA_COLLECTOR)
		}
		return NewStoreCollector(storage), nil
	}
	return nil, fmt.Errorf("unknown data collector type %s", config.CollectorType)
}
