package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/civicai/portal/domain/repositories"
	"github.com/civicai/portal/internal/metrics"
)

// Connect opens a realtime voice session against the Gemini Live API
func (g *Gateway) Connect(ctx context.Context, cfg repositories.LiveConfig) (repositories.LiveChannel, error) {
	config := &genai.LiveConnectConfig{
		ResponseModalities:       []genai.Modality{genai.ModalityAudio},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
	}
	if cfg.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser)
	}
	if cfg.Voice != "" {
		config.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		}
	}

	session, err := g.client.Live.Connect(ctx, g.liveModel, config)
	if err != nil {
		metrics.GatewayCalls.WithLabelValues("live_connect", "error").Inc()
		return nil, fmt.Errorf("connect live session: %w", err)
	}

	metrics.GatewayCalls.WithLabelValues("live_connect", "ok").Inc()
	g.logger.Info("Live session connected", zap.String("model", g.liveModel))

	return &liveChannel{session: session, logger: g.logger}, nil
}

// liveChannel adapts a genai live session to the repository contract
type liveChannel struct {
	session *genai.Session
	logger  *zap.Logger
}

func (c *liveChannel) Send(ctx context.Context, frame repositories.AudioFrame) error {
	data, err := base64.StdEncoding.DecodeString(frame.Data)
	if err != nil {
		return fmt.Errorf("decode audio frame: %w", err)
	}
	return c.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{Data: data, MIMEType: frame.MIMEType},
	})
}

func (c *liveChannel) Receive() (repositories.LiveEvent, error) {
	msg, err := c.session.Receive()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return repositories.LiveEvent{}, repositories.ErrChannelClosed
		}
		return repositories.LiveEvent{}, err
	}

	var ev repositories.LiveEvent
	if sc := msg.ServerContent; sc != nil {
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					ev.Audio = append(ev.Audio, part.InlineData.Data...)
				}
			}
		}
		if sc.OutputTranscription != nil {
			ev.Transcript = sc.OutputTranscription.Text
		}
		ev.Interrupted = sc.Interrupted
		ev.TurnComplete = sc.TurnComplete
	}
	return ev, nil
}

func (c *liveChannel) Close() error {
	return c.session.Close()
}
