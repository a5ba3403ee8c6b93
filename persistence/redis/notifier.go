package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/autoflow/action"
	"github.com/mohitkumar/autoflow/persistence"
	"github.com/mohitkumar/autoflow/util"
)

const NOTIFICATIONS string = "NOTIFICATIONS"

var _ action.Notifier = new(redisNotifier)

type notificationRecord struct {
	Id string `json:"id"`
	action.Notification
	CreatedAt time.Time `json:"createdAt"`
}

// redisNotifier pushes notifications to a per user list that the
// notification service drains.
type redisNotifier struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[notificationRecord]
}

func NewRedisNotifier(conf Config) *redisNotifier {
	return &redisNotifier{
		baseDao:        newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[notificationRecord](),
	}
}

func (rn *redisNotifier) Notify(ctx context.Context, n action.Notification) (string, error) {
	rec := notificationRecord{Id: uuid.NewString(), Notification: n, CreatedAt: time.Now().UTC()}
	data, err := rn.encoderDecoder.Encode(rec)
	if err != nil {
		return "", err
	}
	if err := rn.redisClient.RPush(ctx, rn.getNamespaceKey(NOTIFICATIONS, n.UserId), data).Err(); err != nil {
		return "", persistence.StorageLayerError{Message: err.Error()}
	}
	return rec.Id, nil
}
