package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	SendLoginAlertTaskName = "sendLoginAlertTask"
	EmailQueueName         = "emailQueue"
)

type SendLoginAlert struct {
	Email      string    `json:"email"`
	DeviceInfo string    `json:"device_info"`
	IP         string    `json:"ip"`
	SignedInAt time.Time `json:"signed_in_at"`
}

func NewLoginAlertTask(email string, deviceInfo string, ip string, signedInAt time.Time) (*asynq.Task, error) {
	data := SendLoginAlert{
		Email:      email,
		DeviceInfo: deviceInfo,
		IP:         ip,
		SignedInAt: signedInAt,
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("json data marshal failed: %w", err)
	}

	return asynq.NewTask(
		SendLoginAlertTaskName,
		payload,
		asynq.MaxRetry(5),
		asynq.Queue(EmailQueueName),
	), nil
}
