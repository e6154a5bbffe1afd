package resilience

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/agency-ledger/internal/clock"
	"github.com/spec-kit/agency-ledger/internal/i18n"
)

func TestNotificationCenterRingKeepsNewestFirst(t *testing.T) {
	c := NewNotificationCenter(3, i18n.New("en"), clock.NewFake(epoch), nil)
	for i := 0; i < 5; i++ {
		c.Notify(context.Background(), Notification{Op: fmt.Sprintf("op%d", i), Kind: KindNetwork})
	}

	recent := c.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, "op4", recent[0].Op)
	assert.Equal(t, "op2", recent[2].Op)
	assert.NotEmpty(t, recent[0].ID)
	assert.Equal(t, epoch, recent[0].Timestamp)
	assert.Equal(t, c.Message(i18n.NotifyNetwork), recent[0].Message)
}

func TestNotificationCenterLocalizesOffline(t *testing.T) {
	c := NewNotificationCenter(5, i18n.New("ar"), nil, nil)
	c.Notify(context.Background(), Notification{Op: "tickets.write", Kind: KindNetwork, Offline: true})

	assert.Equal(t, i18n.New("ar").Sprintf(i18n.NotifyOffline), c.Recent()[0].Message)
}

func TestConnectionListenerReportsFailureAndRecovery(t *testing.T) {
	c := NewNotificationCenter(5, nil, nil, nil)
	listen := c.ConnectionListener()

	listen(State{Status: StatusReconnecting, Attempt: 1})
	listen(State{Status: StatusFailed, Attempt: 5})
	listen(State{Status: StatusOnline})

	recent := c.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, c.Message(i18n.NotifyReconnected), recent[0].Message)
	assert.Equal(t, c.Message(i18n.NotifyReconnectFailed), recent[1].Message)
}
