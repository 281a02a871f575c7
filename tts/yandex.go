package tts

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"

	tts "github.com/yandex-cloud/go-genproto/yandex/cloud/ai/tts/v3"
)

const (
	YandexTTSEndpoint = "tts.api.cloud.yandex.net:443"
)

type YandexConfig struct {
	ApiKey   string
	FolderID string
	Options  SynthesisOptions
	Logger   zerolog.Logger
}

type YandexTTSClient struct {
	client   tts.SynthesizerClient
	conn     *grpc.ClientConn
	apiKey   string
	folderID string
	options  SynthesisOptions
	log      zerolog.Logger
}

// Ensure YandexTTSClient implements Synthesizer interface
var _ Synthesizer = (*YandexTTSClient)(nil)

// GetDefaultSynthesisOptions asks for WAV so the clip can be decoded
// without a container demuxer.
func GetDefaultSynthesisOptions() SynthesisOptions {
	return SynthesisOptions{
		Voice:                 "marina",
		Speed:                 1.0,
		Volume:                0.0,
		Model:                 "general",
		Format:                tts.ContainerAudio_WAV,
		LoudnessNormalization: tts.UtteranceSynthesisRequest_LUFS,
	}
}

func NewYandexTTSClient(config YandexConfig) (*YandexTTSClient, error) {
	creds := credentials.NewTLS(&tls.Config{})

	conn, err := grpc.NewClient(YandexTTSEndpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to TTS service: %w", err)
	}

	return newYandexTTSClient(config, conn, tts.NewSynthesizerClient(conn)), nil
}

func newYandexTTSClient(config YandexConfig, conn *grpc.ClientConn, client tts.SynthesizerClient) *YandexTTSClient {
	if config.Options.Model == "" {
		voice := config.Options.Voice
		config.Options = GetDefaultSynthesisOptions()
		if voice != "" {
			config.Options.Voice = voice
		}
	}
	return &YandexTTSClient{
		client:   client,
		conn:     conn,
		apiKey:   config.ApiKey,
		folderID: config.FolderID,
		options:  config.Options,
		log:      config.Logger,
	}
}

// Synthesize runs one utterance synthesis and joins the streamed chunks.
func (c *YandexTTSClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Api-Key "+c.apiKey)
	ctx = metadata.AppendToOutgoingContext(ctx, "x-folder-id", c.folderID)

	stream, err := c.client.UtteranceSynthesis(ctx, c.buildRequest(text, c.options))
	if err != nil {
		return nil, fmt.Errorf("failed to start synthesis: %w", err)
	}

	var audio bytes.Buffer
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to receive audio data: %w", err)
		}
		if chunk := resp.GetAudioChunk(); chunk != nil {
			audio.Write(chunk.GetData())
		}
	}

	if audio.Len() == 0 {
		return nil, fmt.Errorf("synthesis returned no audio")
	}
	c.log.Debug().Int("bytes", audio.Len()).Str("voice", c.options.Voice).Msg("speech synthesized")
	return audio.Bytes(), nil
}

func (c *YandexTTSClient) buildRequest(text string, options SynthesisOptions) *tts.UtteranceSynthesisRequest {
	req := &tts.UtteranceSynthesisRequest{}
	req.SetModel(options.Model)
	req.SetText(text)

	voiceHint := &tts.Hints{}
	voiceHint.SetVoice(options.Voice)

	speedHint := &tts.Hints{}
	speedHint.SetSpeed(options.Speed)

	volumeHint := &tts.Hints{}
	volumeHint.SetVolume(options.Volume)

	req.SetHints([]*tts.Hints{voiceHint, speedHint, volumeHint})

	audioSpec := &tts.AudioFormatOptions{}
	containerAudio := &tts.ContainerAudio{}

	if format, ok := options.Format.(tts.ContainerAudio_ContainerAudioType); ok {
		containerAudio.SetContainerAudioType(format)
	} else {
		containerAudio.SetContainerAudioType(tts.ContainerAudio_WAV)
	}

	audioSpec.SetContainerAudio(containerAudio)
	req.SetOutputAudioSpec(audioSpec)

	if normalization, ok := options.LoudnessNormalization.(tts.UtteranceSynthesisRequest_LoudnessNormalizationType); ok {
		req.SetLoudnessNormalizationType(normalization)
	} else {
		req.SetLoudnessNormalizationType(tts.UtteranceSynthesisRequest_LUFS)
	}

	return req
}

func (c *YandexTTSClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
