package publish

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
)

type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool                     { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	sent   []published
	failAt int
	token  *fakeToken
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	if c.failAt > 0 && len(c.sent) == c.failAt {
		return c.token
	}
	return &fakeToken{}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPublishSendsEachIncident(t *testing.T) {
	client := &fakeClient{}
	p := NewMQTTPublisher(client, "sim/incidents", quietLogger())
	hs := "h1"

	err := p.Publish(context.Background(), []domain.Incident{
		{IncidentID: 5, TsMin: 10, HotspotID: &hs, NodeID: 3, Severity: domain.SeverityHigh},
		{IncidentID: 6, TsMin: 11, NodeID: 4, Severity: domain.SeverityLow},
	})
	require.NoError(t, err)
	require.Len(t, client.sent, 2)
	assert.Equal(t, "sim/incidents", client.sent[0].topic)
	assert.Equal(t, byte(1), client.sent[0].qos)

	var got domain.Incident
	require.NoError(t, json.Unmarshal(client.sent[1].payload, &got))
	assert.Equal(t, int64(6), got.IncidentID)
	assert.Nil(t, got.HotspotID)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(client.sent[1].payload, &raw))
	assert.Contains(t, raw, "hotspot_id")
	assert.Nil(t, raw["hotspot_id"])
}

func TestPublishStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("broker gone")
	client := &fakeClient{failAt: 1, token: &fakeToken{err: boom}}
	p := NewMQTTPublisher(client, "t", quietLogger())

	err := p.Publish(context.Background(), []domain.Incident{{IncidentID: 1}, {IncidentID: 2}})
	assert.True(t, errors.Is(err, boom))
	assert.Len(t, client.sent, 1)
}

func TestPublishTimeout(t *testing.T) {
	client := &fakeClient{failAt: 1, token: &fakeToken{timeout: true}}
	err := NewMQTTPublisher(client, "t", quietLogger()).Publish(context.Background(), []domain.Incident{{IncidentID: 1}})
	assert.Error(t, err)
}

func TestPublishCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &fakeClient{}
	err := NewMQTTPublisher(client, "t", quietLogger()).Publish(ctx, []domain.Incident{{IncidentID: 1}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.sent)
}
