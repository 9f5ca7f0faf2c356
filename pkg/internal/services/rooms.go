package services

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go"
	"github.com/spf13/viper"
)

// RoomProperties is the provider-facing room configuration. It rides along
// as room metadata so clients can read it back when joining.
type RoomProperties struct {
	Privacy           string `json:"privacy"`
	EnableChat        bool   `json:"enable_chat"`
	EnableScreenshare bool   `json:"enable_screenshare"`
	StartAudioOff     bool   `json:"start_audio_off"`
	StartVideoOff     bool   `json:"start_video_off"`
	ExpiredAt         int64  `json:"exp"`
	MaxParticipants   uint32 `json:"max_participants"`
}

type RoomConfig struct {
	Name       string
	Properties RoomProperties
}

type Room struct {
	Name string
	URL  string
	Raw  map[string]any
}

// RoomProvider is the boundary to the remote media service. Rooms, tokens and
// live participant listings all live on the other side of it.
type RoomProvider interface {
	CreateRoom(ctx context.Context, config RoomConfig) (Room, error)
	DeleteRoom(ctx context.Context, name string) error
	IssueToken(room string, identity string, name string, owner bool) (string, error)
	ListParticipants(ctx context.Context, room string) ([]*livekit.ParticipantInfo, error)
}

type LiveKitRoomProvider struct {
	client    *lksdk.RoomServiceClient
	endpoint  string
	apiKey    string
	apiSecret string
}

func NewLiveKitRoomProvider() *LiveKitRoomProvider {
	provider := &LiveKitRoomProvider{
		endpoint:  viper.GetString("calling.endpoint"),
		apiKey:    viper.GetString("calling.api_key"),
		apiSecret: viper.GetString("calling.api_secret"),
	}
	provider.client = lksdk.NewRoomServiceClient(
		"https://"+provider.endpoint,
		provider.apiKey,
		provider.apiSecret,
	)
	return provider
}

func (v *LiveKitRoomProvider) CreateRoom(ctx context.Context, config RoomConfig) (Room, error) {
	metadata, _ := jsoniter.MarshalToString(config.Properties)

	res, err := v.client.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:            config.Name,
		EmptyTimeout:    viper.GetUint32("calling.empty_timeout_duration"),
		MaxParticipants: config.Properties.MaxParticipants,
		Metadata:        metadata,
	})
	if err != nil {
		return Room{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	return Room{
		Name: res.Name,
		URL:  fmt.Sprintf("https://%s/rooms/%s", v.endpoint, res.Name),
		Raw: map[string]any{
			"sid":           res.Sid,
			"name":          res.Name,
			"creation_time": res.CreationTime,
			"metadata":      res.Metadata,
		},
	}, nil
}

func (v *LiveKitRoomProvider) DeleteRoom(ctx context.Context, name string) error {
	if _, err := v.client.DeleteRoom(ctx, &livekit.DeleteRoomRequest{
		Room: name,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return nil
}

func (v *LiveKitRoomProvider) IssueToken(room string, identity string, name string, owner bool) (string, error) {
	grant := &auth.VideoGrant{
		Room:      room,
		RoomJoin:  true,
		RoomAdmin: owner,
	}

	duration := time.Second * time.Duration(viper.GetInt("calling.token_duration"))
	tk := auth.NewAccessToken(v.apiKey, v.apiSecret)
	tk.AddGrant(grant).
		SetIdentity(identity).
		SetName(name).
		SetValidFor(duration)

	return tk.ToJWT()
}

func (v *LiveKitRoomProvider) ListParticipants(ctx context.Context, room string) ([]*livekit.ParticipantInfo, error) {
	res, err := v.client.ListParticipants(ctx, &livekit.ListParticipantsRequest{
		Room: room,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return res.Participants, nil
}
