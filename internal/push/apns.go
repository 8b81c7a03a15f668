package push

import (
	"context"
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/token"
)

// Sender delivers one silent push to one device.
type Sender interface {
	SendSilent(ctx context.Context, deviceToken string) error
}

// silentPayload wakes the client app without any visible alert; the app
// then fetches the user's latest event itself.
var silentPayload = []byte(`{"aps":{"content-available":1}}`)

type APNSSender struct {
	client *apns2.Client
	topic  string
}

func NewAPNSSender(authKey []byte, keyID, teamID, topic string, production bool) (*APNSSender, error) {
	signingKey, err := token.AuthKeyFromBytes(authKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse APNs auth key: %w", err)
	}

	apnsToken := &token.Token{
		AuthKey: signingKey,
		KeyID:   keyID,
		TeamID:  teamID,
	}

	client := apns2.NewTokenClient(apnsToken)
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNSSender{
		client: client,
		topic:  topic,
	}, nil
}

func (s *APNSSender) SendSilent(ctx context.Context, deviceToken string) error {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       s.topic,
		Priority:    apns2.PriorityLow,
		PushType:    apns2.PushTypeBackground,
		Payload:     silentPayload,
	}

	res, err := s.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}

	if !res.Sent() {
		return fmt.Errorf("push rejected: %s", res.Reason)
	}
	return nil
}
